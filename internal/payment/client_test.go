package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tourbooking_backend/platform/apperr"
	"tourbooking_backend/platform/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, "test-key", logger.New("development"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return client, srv
}

func TestCaptureSendsTokenWithAuth(t *testing.T) {
	var gotPath, gotAuth, gotToken string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		var req tokenRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotToken = req.PaymentMethodToken
		w.WriteHeader(http.StatusOK)
	})

	if err := client.Capture(context.Background(), "tok_123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v1/payment-methods/capture" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotToken != "tok_123" {
		t.Fatalf("unexpected token %q", gotToken)
	}
}

func TestVoidUsesVoidEndpoint(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	if err := client.Void(context.Background(), "tok_123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v1/payment-methods/void" {
		t.Fatalf("unexpected path %s", gotPath)
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := client.Capture(context.Background(), "tok_123")
	if !apperr.Is(err, apperr.KindTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestClientErrorIsPermanent(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	err := client.Capture(context.Background(), "tok_123")
	if err == nil {
		t.Fatal("expected an error")
	}
	if apperr.Is(err, apperr.KindTransient) {
		t.Fatalf("expected permanent error, got transient: %v", err)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient("", "key", logger.New("development")); err == nil {
		t.Fatal("expected error for missing URL")
	}
	if _, err := NewClient("http://localhost", "", logger.New("development")); err == nil {
		t.Fatal("expected error for missing key")
	}
}
