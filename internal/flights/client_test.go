package flights

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetFlightStatusDecodesUpstreamResponse(t *testing.T) {
	var requestedPath, requestedQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		requestedQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"delayed","gate":"B12","terminal":"1","delay_minutes":35,"actual_departure":"2026-04-10T11:05:00Z","actual_arrival":""}`))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("failed to construct client: %v", err)
	}

	status, err := client.GetFlightStatus(context.Background(), "NH", "861", "2026-04-10")
	if err != nil {
		t.Fatalf("unexpected status error: %v", err)
	}
	if requestedPath != "/flights/NH/861" {
		t.Fatalf("unexpected request path %q", requestedPath)
	}
	if requestedQuery != "date=2026-04-10" {
		t.Fatalf("unexpected request query %q", requestedQuery)
	}
	if status.Status != "delayed" || status.Gate != "B12" || status.DelayMinutes != 35 {
		t.Fatalf("status fields lost in decode: %+v", status)
	}
}

func TestGetFlightStatusOmitsDateWhenEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("expected no query string, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"status":"on_time"}`))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("failed to construct client: %v", err)
	}
	status, err := client.GetFlightStatus(context.Background(), "NH", "861", "")
	if err != nil {
		t.Fatalf("unexpected status error: %v", err)
	}
	if status.Status != "on_time" {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestGetFlightStatusUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("failed to construct client: %v", err)
	}
	if _, err := client.GetFlightStatus(context.Background(), "NH", "861", ""); !errors.Is(err, ErrStatusUnavailable) {
		t.Fatalf("expected ErrStatusUnavailable, got %v", err)
	}
}

func TestGetFlightStatusRejectsBlankQuery(t *testing.T) {
	client, err := NewClient(ClientConfig{BaseURL: "https://flights.example.test"})
	if err != nil {
		t.Fatalf("failed to construct client: %v", err)
	}
	if _, err := client.GetFlightStatus(context.Background(), "  ", "861", ""); !errors.Is(err, ErrInvalidFlightQuery) {
		t.Fatalf("expected ErrInvalidFlightQuery for blank airline, got %v", err)
	}
	if _, err := client.GetFlightStatus(context.Background(), "NH", "", ""); !errors.Is(err, ErrInvalidFlightQuery) {
		t.Fatalf("expected ErrInvalidFlightQuery for blank flight number, got %v", err)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatalf("expected error for missing base url")
	}
}
