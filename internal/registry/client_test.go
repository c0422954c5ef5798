package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIsBlacklisted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/is-blacklisted/42" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "client is blacklisted", "success": true})
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	flagged, err := client.IsBlacklisted(context.Background(), 42)
	if err != nil {
		t.Fatalf("blacklist check: %v", err)
	}
	if !flagged {
		t.Fatal("expected blacklisted=true")
	}
}

func TestIsBlacklistedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.IsBlacklisted(context.Background(), 42); err == nil {
		t.Fatal("expected error from failing registry")
	}
}

func TestCreateClient(t *testing.T) {
	var got ClientRegistration
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/register" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "ok", "success": true})
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	reg := ClientRegistration{UserID: 7, Name: "Ada", Surname: "Lovelace", Email: "a@x.com"}
	if err := client.CreateClient(context.Background(), reg); err != nil {
		t.Fatalf("create client: %v", err)
	}
	if got != reg {
		t.Fatalf("payload mismatch: %+v", got)
	}
}

func TestCreateClientRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "duplicate", "success": false})
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.CreateClient(context.Background(), ClientRegistration{UserID: 1}); err == nil {
		t.Fatal("expected rejection to surface as error")
	}
}
