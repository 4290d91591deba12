package whttp

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sw33tLie/shortscroll/pkg/control"
	"github.com/sw33tLie/shortscroll/pkg/platforms"
	"github.com/sw33tLie/shortscroll/pkg/settings"
)

func TestBaseURLFor(t *testing.T) {
	tests := map[string]string{
		"127.0.0.1:7878":         "http://127.0.0.1:7878",
		":7878":                  "http://127.0.0.1:7878",
		"http://box:9000/":       "http://box:9000",
		"https://ctl.example.io": "https://ctl.example.io",
	}
	for in, want := range tests {
		if got := BaseURLFor(in); got != want {
			t.Fatalf("BaseURLFor(%q): want %q, got %q", in, want, got)
		}
	}
}

func TestSendControl(t *testing.T) {
	var got control.Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ := r.BasicAuth()
		if r.URL.Path != "/api/control" || r.Method != http.MethodPost || user != "u" || pass != "p" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var err error
		if got, err = control.Parse(body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"delivered":2}`))
	}))
	defer srv.Close()

	msg := control.Message{
		Platform: platforms.Facebook,
		Action:   control.Update,
		Override: settings.Override{ScrollAfterSeconds: settings.Int(0)},
	}
	n, err := SendControl(context.Background(), NewClient(0), Target{BaseURL: srv.URL, Username: "u", Password: "p"}, msg)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if n != 2 {
		t.Fatalf("want 2 delivered, got %d", n)
	}
	if got.Platform != platforms.Facebook || got.Action != control.Update {
		t.Fatalf("server got %+v", got)
	}
	if v := got.Override.ScrollAfterSeconds; v == nil || *v != 0 {
		t.Fatalf("explicit zero override lost: %v", v)
	}
}

func TestSendControlServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	msg := control.Message{Platform: platforms.TikTok, Action: control.Stop}
	if _, err := SendControl(context.Background(), NewClient(0), Target{BaseURL: srv.URL}, msg); err == nil {
		t.Fatalf("want error on 401")
	}
}
