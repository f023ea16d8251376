package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func completion(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"choices": []any{
			map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	}
}

func newServer(t *testing.T, handler func(w http.ResponseWriter, body map[string]any)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		handler(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestTranslate(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, body map[string]any) {
		messages := body["messages"].([]any)
		user := messages[1].(map[string]any)["content"].(string)
		var req translationRequest
		if err := json.Unmarshal([]byte(user), &req); err != nil {
			t.Errorf("user prompt is not json: %v", err)
		}
		if req.Source != "English" || req.Target != "Spanish" || len(req.Texts) != 2 {
			t.Errorf("unexpected request %+v", req)
		}
		_ = json.NewEncoder(w).Encode(completion("```json\n{\"translations\": [\" Hola mundo \", \"Adiós\"]}\n```"))
	})

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL + "/v1", Model: "demo"})
	out, err := client.Translate(context.Background(), "en", "es", []string{"Hello world", "Bye"})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(out) != 2 || out[0] != "Hola mundo" || out[1] != "Adiós" {
		t.Fatalf("unexpected translations %q", out)
	}
}

func TestTranslateRejectsCountMismatch(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, _ map[string]any) {
		_ = json.NewEncoder(w).Encode(completion(`{"translations": ["uno"]}`))
	})
	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL + "/v1"})
	_, err := client.Translate(context.Background(), "en", "es", []string{"one", "two"})
	if err == nil || !strings.Contains(err.Error(), "expected 2 translations") {
		t.Fatalf("expected count mismatch, got %v", err)
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var calls int32
	server := newServer(t, func(w http.ResponseWriter, _ map[string]any) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(completion(`{"ok":true}`))
	})
	var slept []time.Duration
	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL + "/v1"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }))
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if len(slept) != 2 || slept[0] != time.Second || slept[1] != 2*time.Second {
		t.Fatalf("unexpected backoff %v", slept)
	}
}

func TestDoesNotRetryAuthErrors(t *testing.T) {
	var calls int32
	server := newServer(t, func(w http.ResponseWriter, _ map[string]any) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})
	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL + "/v1"}, WithSleeper(func(time.Duration) {}))
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestCompleteJSONRequiresKey(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.CompleteJSON(context.Background(), "sys", "user"); err == nil {
		t.Fatal("expected missing key error")
	}
	if client.Model() != defaultModel {
		t.Fatalf("unexpected default model %q", client.Model())
	}
}

func TestDecodeReply(t *testing.T) {
	var out translationResponse
	if err := DecodeReply(`Sure! {"translations":["a"]} hope this helps`, &out); err != nil {
		t.Fatalf("DecodeReply: %v", err)
	}
	if len(out.Translations) != 1 {
		t.Fatalf("unexpected %+v", out)
	}
	if err := DecodeReply("", &out); err == nil {
		t.Fatal("expected error for empty payload")
	}

	var fenced translationResponse
	if err := DecodeReply("```json\n{\"translations\":[\"x\",\"y\"]}\n```", &fenced); err != nil {
		t.Fatalf("DecodeReply fenced: %v", err)
	}
	if len(fenced.Translations) != 2 || fenced.Translations[1] != "y" {
		t.Fatalf("unexpected %+v", fenced)
	}
	if err := DecodeReply("no json here", &fenced); err == nil || !strings.Contains(err.Error(), "no json here") {
		t.Fatalf("expected error quoting the reply, got %v", err)
	}
}
