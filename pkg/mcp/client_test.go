package mcp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func newToolServer(t *testing.T, ids *sync.Map) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}

		if _, seen := ids.LoadOrStore(req.ID, true); seen {
			t.Errorf("Duplicate request id %d", req.ID)
		}

		result, _ := json.Marshal(callToolResult{
			Content: []contentBlock{{Type: "text", Text: "ok"}},
		})

		w.Header().Set("Content-Type", "application/json")

		_ = json.NewEncoder(w).Encode(rpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  result,
		})
	}))
}

func TestClientConcurrentCalls(t *testing.T) {
	var ids sync.Map

	server := newToolServer(t, &ids)
	defer server.Close()

	client := NewClient(ServerConfig{Name: "tools", URL: server.URL, Enabled: true})

	const callers = 8

	var wg sync.WaitGroup

	for range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 5 {
				text, err := client.CallTool(t.Context(), "echo", map[string]any{"value": "x"})
				if err != nil {
					t.Errorf("CallTool failed: %v", err)
				}

				if text != "ok" {
					t.Errorf("Expected tool result \"ok\", got %q", text)
				}
			}
		}()
	}

	wg.Wait()

	count := 0

	ids.Range(func(_, _ any) bool {
		count++

		return true
	})

	if count != callers*5 {
		t.Errorf("Expected %d distinct request ids, got %d", callers*5, count)
	}
}
