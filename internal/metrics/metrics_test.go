package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(reg)
	b := New(reg)

	a.Edit("split", nil)
	b.Edit("split", errors.New("too short"))

	if got := testutil.ToFloat64(b.EditOperationsTotal.WithLabelValues("split", "ok")); got != 1 {
		t.Errorf("split ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(a.EditOperationsTotal.WithLabelValues("split", "rejected")); got != 1 {
		t.Errorf("split rejected = %v, want 1", got)
	}
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	m := New(prometheus.NewRegistry())
	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.HandleFunc("/api/v1/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id, nil))
	}

	got := testutil.ToFloat64(m.HTTPRequestTotal.WithLabelValues("GET", "/api/v1/sessions/{id}", "404"))
	if got != 2 {
		t.Errorf("requests = %v, want 2", got)
	}
}
