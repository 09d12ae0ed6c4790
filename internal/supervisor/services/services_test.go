// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

package services

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/skillmatch/internal/embedding"
	"github.com/tomtom215/skillmatch/internal/recommend"
)

// mockServer simulates http.Server lifecycle.
type mockServer struct {
	listenErr  error
	shutdownCh chan struct{}
	shutdowns  int
}

func newMockServer() *mockServer {
	return &mockServer{shutdownCh: make(chan struct{})}
}

func (m *mockServer) ListenAndServe() error {
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.shutdownCh
	return http.ErrServerClosed
}

func (m *mockServer) Shutdown(context.Context) error {
	m.shutdowns++
	close(m.shutdownCh)
	return nil
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	srv := newMockServer()
	svc := NewHTTPService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	// Let the server goroutine start, then request shutdown.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}

	if srv.shutdowns != 1 {
		t.Errorf("shutdowns = %d, want 1", srv.shutdowns)
	}
}

func TestHTTPServiceStartupFailure(t *testing.T) {
	srv := newMockServer()
	srv.listenErr = errors.New("bind: address already in use")
	svc := NewHTTPService(srv, time.Second)

	err := svc.Serve(context.Background())
	if err == nil {
		t.Fatal("expected startup error")
	}
}

func writeSnapshot(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func watcherEngine(t *testing.T) *recommend.Engine {
	t.Helper()
	emb, err := embedding.NewHashingEmbedder(32)
	if err != nil {
		t.Fatal(err)
	}
	engine, err := recommend.NewEngine(recommend.DefaultConfig(), zerolog.Nop(), emb, nil)
	if err != nil {
		t.Fatal(err)
	}
	return engine
}

func TestCatalogWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	writeSnapshot(t, path, `[{"id": "a", "name": "A", "categories": ["K"]}]`)

	engine := watcherEngine(t)
	watcher := NewCatalogWatcher(path, 50*time.Millisecond, engine, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Serve(ctx)

	// Give the watcher time to register, then update the snapshot.
	time.Sleep(100 * time.Millisecond)
	writeSnapshot(t, path, `[
		{"id": "a", "name": "A", "categories": ["K"]},
		{"id": "b", "name": "B", "categories": ["P"]}
	]`)

	deadline := time.After(3 * time.Second)
	for {
		if st := engine.Status(); st.Ready && st.IndexRecords == 2 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("engine never reloaded: %+v", engine.Status())
		case <-time.After(25 * time.Millisecond):
		}
	}
}

func TestCatalogWatcherKeepsIndexOnBadSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	writeSnapshot(t, path, `[{"id": "a", "name": "A", "categories": ["K"]}]`)

	engine := watcherEngine(t)

	// Seed the engine from the initial snapshot.
	watcher := NewCatalogWatcher(path, 50*time.Millisecond, engine, zerolog.Nop())
	watcher.reload(context.Background())
	if st := engine.Status(); !st.Ready || st.IndexRecords != 1 {
		t.Fatalf("seed reload failed: %+v", st)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Serve(ctx)

	time.Sleep(100 * time.Millisecond)
	writeSnapshot(t, path, `{not json`)

	// The invalid snapshot must not unload the working index.
	time.Sleep(300 * time.Millisecond)
	if st := engine.Status(); !st.Ready || st.IndexRecords != 1 {
		t.Errorf("index lost after bad snapshot: %+v", st)
	}
}

func TestCatalogWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")

	engine := watcherEngine(t)
	watcher := NewCatalogWatcher(path, 50*time.Millisecond, engine, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Serve(ctx)

	time.Sleep(100 * time.Millisecond)
	writeSnapshot(t, filepath.Join(dir, "unrelated.txt"), "noise")

	time.Sleep(300 * time.Millisecond)
	if engine.Ready() {
		t.Error("unrelated file triggered a reload")
	}
}
