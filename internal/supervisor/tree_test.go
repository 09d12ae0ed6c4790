// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

package supervisor

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/skillmatch/internal/logging"
)

// blockingService runs until canceled and counts starts.
type blockingService struct {
	starts atomic.Int32
}

func (s *blockingService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingService) String() string { return "blocking" }

func newTestTree(t *testing.T) *Tree {
	t.Helper()
	logger := slog.New(logging.NewSlogHandler())
	tree, err := NewTree(logger, DefaultTreeConfig())
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

func TestTreeRunsAndStopsServices(t *testing.T) {
	tree := newTestTree(t)

	dataSvc := &blockingService{}
	apiSvc := &blockingService{}
	tree.AddDataService(dataSvc)
	tree.AddAPIService(apiSvc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for dataSvc.starts.Load() == 0 || apiSvc.starts.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("services never started")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop")
	}
}

func TestTreeConfigDefaultsApplied(t *testing.T) {
	logger := slog.New(logging.NewSlogHandler())
	tree, err := NewTree(logger, TreeConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if tree.config.FailureThreshold != 5.0 {
		t.Errorf("threshold = %v, want 5", tree.config.FailureThreshold)
	}
	if tree.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("timeout = %v, want 10s", tree.config.ShutdownTimeout)
	}
}
