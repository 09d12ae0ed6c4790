// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/recommend", "200"))
	RecordAPIRequest("POST", "/api/v1/recommend", "200", 25*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/recommend", "200"))

	if after != before+1 {
		t.Errorf("counter = %v, want %v", after, before+1)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	base := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != base+1 {
		t.Errorf("gauge = %v, want %v", got, base+1)
	}

	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != base {
		t.Errorf("gauge = %v, want %v", got, base)
	}
}

func TestRecordCatalogReload(t *testing.T) {
	before := testutil.ToFloat64(CatalogReloads.WithLabelValues("success"))
	RecordCatalogReload(nil)
	if got := testutil.ToFloat64(CatalogReloads.WithLabelValues("success")); got != before+1 {
		t.Errorf("success counter = %v, want %v", got, before+1)
	}
}

func TestBreakerStateGauge(t *testing.T) {
	BreakerState.WithLabelValues("test-breaker").Set(1)
	if got := testutil.ToFloat64(BreakerState.WithLabelValues("test-breaker")); got != 1 {
		t.Errorf("state = %v, want 1", got)
	}
}
