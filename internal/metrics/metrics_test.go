package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()

	m.VisitsSaved.Inc()
	m.VisitsRejected.WithLabelValues(ReasonDuplicate).Inc()
	m.VisitsRejected.WithLabelValues(ReasonDuplicate).Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.VisitsSaved))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.VisitsRejected.WithLabelValues(ReasonDuplicate)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.MirrorFailures))
}

func TestHandler(t *testing.T) {
	m := New()
	m.MirrorFailures.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "crm_mirror_failures_total 1"), body)
	assert.True(t, strings.Contains(body, "crm_visits_saved_total 0"))
}

func TestNewUsesPrivateRegistry(t *testing.T) {
	// Two instances must not collide on registration.
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
