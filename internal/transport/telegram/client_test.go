package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/go-telegram/bot"
)

type apiCall struct {
	method string
	form   map[string]string
}

type fakeAPI struct {
	mu     sync.Mutex
	calls  []apiCall
	result map[string]any
	fail   map[string]bool
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := path.Base(r.URL.Path)
	form := map[string]string{}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		for key, value := range body {
			form[key] = fmt.Sprint(value)
		}
	} else {
		_ = r.ParseMultipartForm(1 << 20)
		for key, values := range r.Form {
			form[key] = values[0]
		}
		if r.MultipartForm != nil {
			for key, values := range r.MultipartForm.Value {
				form[key] = values[0]
			}
		}
	}
	// scalar fields may arrive JSON encoded
	for key, value := range form {
		form[key] = strings.Trim(value, `"`)
	}

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{method: method, form: form})
	fail := f.fail[method]
	result, ok := f.result[method]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error_code": 400, "description": "Bad Request: chat not found"})
		return
	}
	if !ok {
		result = map[string]any{"message_id": 1, "date": 0, "chat": map[string]any{"id": 1, "type": "private"}}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
}

func (f *fakeAPI) methods() []string {
	var out []string
	for _, call := range f.recorded() {
		out = append(out, call.method)
	}
	return out
}

func (f *fakeAPI) recorded() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

func newTestBot(t *testing.T, api *fakeAPI) *bot.Bot {
	t.Helper()

	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	b, err := bot.New("123:test-token", bot.WithServerURL(server.URL), bot.WithSkipGetMe())
	if err != nil {
		t.Fatalf("bot.New: %v", err)
	}
	return b
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()

	c := NewClient()
	c.SetBot(newTestBot(t, api))
	return c
}

func TestClient_SendText(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	c := newTestClient(t, api)

	if err := c.SendText(context.Background(), "-100123", "hello"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	calls := api.recorded()
	if len(calls) != 1 || calls[0].method != "sendMessage" {
		t.Fatalf("unexpected calls %+v", calls)
	}
	if calls[0].form["chat_id"] != "-100123" || calls[0].form["text"] != "hello" {
		t.Fatalf("unexpected form %+v", calls[0].form)
	}
}

func TestClient_SendPhoto(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		rich      bool
		parseMode string
	}{
		{name: "plain", rich: false, parseMode: ""},
		{name: "rich", rich: true, parseMode: "Markdown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			api := &fakeAPI{}
			c := newTestClient(t, api)

			if err := c.SendPhoto(context.Background(), "@target", "file-1", "*hi*", tt.rich); err != nil {
				t.Fatalf("SendPhoto: %v", err)
			}
			calls := api.recorded()
			if len(calls) != 1 || calls[0].method != "sendPhoto" {
				t.Fatalf("unexpected calls %+v", calls)
			}
			form := calls[0].form
			if form["chat_id"] != "@target" || form["photo"] != "file-1" || form["caption"] != "*hi*" {
				t.Fatalf("unexpected form %+v", form)
			}
			if form["parse_mode"] != tt.parseMode {
				t.Fatalf("expected parse_mode %q, got %q", tt.parseMode, form["parse_mode"])
			}
		})
	}
}

func TestClient_SendFailure(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{fail: map[string]bool{"sendMessage": true}}
	c := newTestClient(t, api)

	if err := c.SendText(context.Background(), "@gone", "hello"); err == nil {
		t.Fatalf("expected error from rejected send")
	}
}

func TestClient_ResolveChat(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{result: map[string]any{
		"getChat": map[string]any{"id": -100777, "type": "channel", "title": "Daily", "username": "daily"},
	}}
	c := newTestClient(t, api)

	chat, err := c.ResolveChat(context.Background(), "@daily")
	if err != nil {
		t.Fatalf("ResolveChat: %v", err)
	}
	if chat.ID != -100777 || chat.Title != "Daily" || chat.Username != "daily" {
		t.Fatalf("unexpected chat %+v", chat)
	}
}

func TestClient_WithoutBot(t *testing.T) {
	t.Parallel()

	if err := NewClient().SendText(context.Background(), "1", "x"); err == nil {
		t.Fatalf("expected error without bot")
	}
}

func TestChatID(t *testing.T) {
	t.Parallel()

	if got, ok := ChatID("-100123").(int64); !ok || got != -100123 {
		t.Fatalf("expected numeric id, got %#v", ChatID("-100123"))
	}
	if got, ok := ChatID(" @name ").(string); !ok || got != "@name" {
		t.Fatalf("expected handle, got %#v", ChatID(" @name "))
	}
}
