package ops

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingerStub struct {
	err error
}

func (p pingerStub) Ping(context.Context) error {
	return p.err
}

func TestHealthzReportsDatabaseState(t *testing.T) {
	healthy := httptest.NewServer(NewRouter(pingerStub{}, nil))
	defer healthy.Close()

	resp, err := http.Get(healthy.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz request: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from healthy db, got %d", resp.StatusCode)
	}

	sick := httptest.NewServer(NewRouter(pingerStub{err: errors.New("down")}, nil))
	defer sick.Close()

	resp, err = http.Get(sick.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz request: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from sick db, got %d", resp.StatusCode)
	}
}

func TestMetricsEndpointIsExposed(t *testing.T) {
	srv := httptest.NewServer(NewRouter(nil, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", resp.StatusCode)
	}
}
