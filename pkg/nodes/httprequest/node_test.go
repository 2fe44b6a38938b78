package httprequest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/fluxionhq/fluxion/pkg/models"
)

func TestHTTPRequestNode_Execute_JSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	node, err := NewHTTPRequestNode("test-http", map[string]any{"url": server.URL})
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	execCtx := models.NewExecutionContext("test-exec", "test-workflow")

	results, err := node.Execute(context.Background(), execCtx, nil)
	if err != nil {
		t.Fatalf("Node execution failed: %v", err)
	}

	result, ok := results[OutputPortMain].(map[string]any)
	if !ok {
		t.Fatalf("Expected result map, got: %T", results[OutputPortMain])
	}

	if result["status_code"] != http.StatusOK {
		t.Errorf("Expected status 200, got: %v", result["status_code"])
	}

	jsonBody, ok := result["json"].(map[string]any)
	if !ok || jsonBody["ok"] != true {
		t.Errorf("Expected parsed JSON body, got: %v", result["json"])
	}
}

func TestHTTPRequestNode_Execute_InputBecomesBody(t *testing.T) {
	var received atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received.Store(string(body))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	node, err := NewHTTPRequestNode("test-http", map[string]any{
		"url":    server.URL,
		"method": "POST",
	})
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	execCtx := models.NewExecutionContext("test-exec", "test-workflow")

	_, err = node.Execute(context.Background(), execCtx, map[string]any{
		InputPortMain: map[string]any{"name": "Ada"},
	})
	if err != nil {
		t.Fatalf("Node execution failed: %v", err)
	}

	if received.Load() != `{"name":"Ada"}` {
		t.Errorf("Expected upstream value sent as body, got: %v", received.Load())
	}
}

func TestHTTPRequestNode_Execute_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	node, err := NewHTTPRequestNode("test-http", map[string]any{
		"url":     server.URL,
		"retries": map[string]any{"attempts": float64(3), "delay": float64(0)},
	})
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	execCtx := models.NewExecutionContext("test-exec", "test-workflow")

	_, err = node.Execute(context.Background(), execCtx, nil)
	if err != nil {
		t.Fatalf("Expected third attempt to succeed: %v", err)
	}

	if calls.Load() != 3 {
		t.Errorf("Expected 3 attempts, got: %d", calls.Load())
	}
}

func TestHTTPRequestNode_Execute_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	node, err := NewHTTPRequestNode("test-http", map[string]any{
		"url":     server.URL,
		"retries": map[string]any{"attempts": float64(3), "delay": float64(0)},
	})
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	execCtx := models.NewExecutionContext("test-exec", "test-workflow")

	_, err = node.Execute(context.Background(), execCtx, nil)
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}

	if calls.Load() != 1 {
		t.Errorf("Expected single attempt for client error, got: %d", calls.Load())
	}
}

func TestHTTPRequestNode_Execute_TemplatedURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/ada" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	node, err := NewHTTPRequestNode("test-http", map[string]any{
		"url": server.URL + "/users/{{.variables.user}}",
	})
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	execCtx := models.NewExecutionContext("test-exec", "test-workflow")
	execCtx.Variables["user"] = "ada"

	_, err = node.Execute(context.Background(), execCtx, nil)
	if err != nil {
		t.Fatalf("Node execution failed: %v", err)
	}
}

func TestNewHTTPRequestNode_MissingURL(t *testing.T) {
	_, err := NewHTTPRequestNode("test-http", map[string]any{})
	if err == nil {
		t.Fatal("Expected error for missing url")
	}
}
