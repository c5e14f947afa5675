package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/carewise/hms/internal/platform/retry"
)

func completionServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", auth)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestClient_Generate(t *testing.T) {
	srv := completionServer(t, http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":"POSSIBLE DIAGNOSES:\n1. **Migraine**"}}]}`)
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-model")
	got, err := c.Generate(context.Background(), "patient has a headache", Options{Temperature: 0.4, MaxTokens: 512})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == "" || got[:18] != "POSSIBLE DIAGNOSES" {
		t.Errorf("unexpected completion: %q", got)
	}
}

func TestClient_ChatPrependsSystemPreamble(t *testing.T) {
	var captured completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-model")
	_, err := c.Chat(context.Background(), []Turn{
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "first answer"},
		{Role: "user", Content: "follow-up"},
	}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(captured.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(captured.Messages))
	}
	if captured.Messages[0].Role != "system" {
		t.Errorf("expected leading system turn, got %s", captured.Messages[0].Role)
	}
	if captured.Messages[3].Content != "follow-up" {
		t.Errorf("turn order not preserved: %+v", captured.Messages)
	}
}

func TestClient_QuotaExceeded(t *testing.T) {
	srv := completionServer(t, http.StatusTooManyRequests, `{"error":{"message":"quota exceeded"}}`)
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-model")
	_, err := c.Generate(context.Background(), "prompt", Options{})
	if !IsQuota(err) {
		t.Fatalf("expected quota error, got %v", err)
	}
}

func TestClient_QuotaMessageWithoutStatus429(t *testing.T) {
	srv := completionServer(t, http.StatusBadRequest, `daily quota exhausted for this key`)
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-model")
	_, err := c.Generate(context.Background(), "prompt", Options{})
	if !IsQuota(err) {
		t.Fatalf("expected quota error for quota-signature body, got %v", err)
	}
}

func TestClient_LimitMessageWithoutStatus429(t *testing.T) {
	srv := completionServer(t, http.StatusInternalServerError, `daily limit exceeded`)
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-model")
	_, err := c.Generate(context.Background(), "prompt", Options{})
	if !IsQuota(err) {
		t.Fatalf("expected quota error for limit-signature body, got %v", err)
	}
	if got := Classify(err); got != retry.Retryable {
		t.Fatalf("expected limit-signature error to be retryable, got %v", got)
	}
}

func TestClient_ConfigErrors(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := completionServer(t, status, `{}`)
		c := NewClient(srv.URL, "test-key", "test-model")
		_, err := c.Generate(context.Background(), "prompt", Options{})
		srv.Close()

		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Errorf("status %d: expected ConfigError, got %v", status, err)
		}
	}
}

func TestClient_MissingKeyIsConfigError(t *testing.T) {
	c := NewClient("http://example.invalid", "", "test-model")
	_, err := c.Generate(context.Background(), "prompt", Options{})
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError for missing key, got %v", err)
	}
}

func TestClient_MalformedResponse(t *testing.T) {
	cases := []string{
		`not json at all`,
		`{"choices":[]}`,
		`{"choices":[{"message":{"role":"assistant","content":""}}]}`,
	}
	for _, body := range cases {
		srv := completionServer(t, http.StatusOK, body)
		c := NewClient(srv.URL, "test-key", "test-model")
		_, err := c.Generate(context.Background(), "prompt", Options{})
		srv.Close()

		var ire *InvalidResponseError
		if !errors.As(err, &ire) {
			t.Errorf("body %q: expected InvalidResponseError, got %v", body, err)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want retry.Class
	}{
		{&QuotaError{StatusCode: 429}, retry.Retryable},
		{&TransportError{Err: errors.New("timeout")}, retry.Retryable},
		{&ServerError{StatusCode: 500}, retry.Retryable},
		{&ServerError{StatusCode: 404}, retry.Terminal},
		{&ConfigError{Reason: "no key"}, retry.Terminal},
		{&InvalidResponseError{Reason: "no choices"}, retry.Terminal},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Errorf("%v: expected class %v, got %v", tc.err, tc.want, got)
		}
	}
}
