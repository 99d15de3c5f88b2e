package datasource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8000/api/v1")

	if client == nil {
		t.Fatal("Expected client to be created")
	}
	if client.baseURL != "http://localhost:8000/api/v1" {
		t.Errorf("Unexpected baseURL '%s'", client.baseURL)
	}
	if client.httpClient.Timeout != DefaultTimeout {
		t.Errorf("Expected default timeout %v, got %v", DefaultTimeout, client.httpClient.Timeout)
	}
}

func TestNewClientWithConfig(t *testing.T) {
	client := NewClientWithConfig(Config{
		BaseURL: "http://backend:8000",
		Timeout: 30 * time.Second,
	})

	if client.httpClient.Timeout != 30*time.Second {
		t.Errorf("Expected timeout 30s, got %v", client.httpClient.Timeout)
	}
}

func TestFetchEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events/" || r.URL.Query().Get("match_id") != "7" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"match_id":7,"minute":12,"type":"Goal","player_name":"Müller"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	events, err := client.FetchEvents(context.Background(), 7)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].PlayerName != "Müller" {
		t.Errorf("Unexpected events: %+v", events)
	}
}

func TestFetchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.FetchMatch(context.Background(), 1); err == nil {
		t.Error("Expected error for 404 response")
	}
}

func TestGenerateDraftSendsStyle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/ticker/generate/3" || r.URL.Query().Get("style") != "euphorisch" {
			t.Errorf("Unexpected request: %s", r.URL)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id": 42, "match_id": 7, "event_id": 3, "text": "Tor!", "status": "draft",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	entry, err := client.GenerateDraft(context.Background(), 3, "euphorisch")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if entry.ID != 42 || entry.Status != "draft" {
		t.Errorf("Unexpected entry: %+v", entry)
	}
}

func TestSlowEndpointsAreCached(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		_, _ = w.Write([]byte(`[{"team_name":"FCB","formation":"4-3-3"}]`))
	}))
	defer server.Close()

	client := NewClientWithConfig(Config{BaseURL: server.URL, CacheTTL: time.Minute})
	for i := 0; i < 3; i++ {
		if _, err := client.FetchLineups(context.Background(), 7); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	if got := atomic.LoadInt64(&hits); got != 1 {
		t.Errorf("Expected 1 backend hit for cached endpoint, got %d", got)
	}
}

func TestFastEndpointsAreNotCached(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	for i := 0; i < 2; i++ {
		if _, err := client.FetchEvents(context.Background(), 7); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	if got := atomic.LoadInt64(&hits); got != 2 {
		t.Errorf("Expected 2 backend hits, got %d", got)
	}
}
