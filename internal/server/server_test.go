package server

import (
	"net/http/httptest"
	"testing"

	"github.com/blambuer11/strun-sub000/internal/config"
)

func TestHealthRoute(t *testing.T) {
	s := NewServer(config.Config{JWTSecret: "secret", ServerPort: ":0"}, nil, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestProtectedRouteRequiresAuth(t *testing.T) {
	s := NewServer(config.Config{JWTSecret: "secret", ServerPort: ":0"}, nil, nil)

	req := httptest.NewRequest("POST", "/runs/", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("runs request: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("expected unauthorized, got %d", resp.StatusCode)
	}
}
