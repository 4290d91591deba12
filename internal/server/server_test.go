package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/sw33tLie/shortscroll/pkg/control"
	"github.com/sw33tLie/shortscroll/pkg/platforms"
	"github.com/sw33tLie/shortscroll/pkg/session"
	"github.com/sw33tLie/shortscroll/pkg/settings"
	"github.com/sw33tLie/shortscroll/pkg/storage"
)

type fakeHub struct {
	mu       sync.Mutex
	msgs     []control.Message
	statuses []session.Status
}

func (h *fakeHub) Dispatch(msg control.Message) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msg)
	n := 0
	for _, st := range h.statuses {
		if st.Platform == msg.Platform {
			n++
		}
	}
	return n
}

func (h *fakeHub) Statuses() []session.Status { return h.statuses }

func newTestServer(t *testing.T) (*Server, *fakeHub) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	hub := &fakeHub{statuses: []session.Status{
		{TabID: "1", Platform: platforms.TikTok, URL: "https://www.tiktok.com/foryou", State: "interval",
			Settings: settings.Defaults(platforms.TikTok)},
		{TabID: "2", Platform: platforms.YouTube, URL: "https://www.youtube.com/shorts/x", State: "idle"},
	}}
	return New(hub, db, "", ""), hub
}

func TestControlDelivers(t *testing.T) {
	s, hub := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/control",
		strings.NewReader(`{"platform":"tiktok","action":"update","interval":"7"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got ControlResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Delivered != 1 {
		t.Fatalf("want delivered 1, got %d", got.Delivered)
	}
	if len(hub.msgs) != 1 || hub.msgs[0].Action != control.Update || hub.msgs[0].Platform != platforms.TikTok {
		t.Fatalf("unexpected dispatched messages %+v", hub.msgs)
	}
	if iv := hub.msgs[0].Override.IntervalSeconds; iv == nil || *iv != 7 {
		t.Fatalf("want interval override 7, got %v", iv)
	}
}

func TestControlRejectsMalformed(t *testing.T) {
	s, hub := newTestServer(t)
	for _, body := range []string{
		`not json`,
		`{"platform":"myspace","action":"start"}`,
		`{"platform":"tiktok","action":"rewind"}`,
	} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/control", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: want 400, got %d", body, rec.Code)
		}
	}
	if len(hub.msgs) != 0 {
		t.Fatalf("malformed messages must not be dispatched, got %+v", hub.msgs)
	}
}

func TestStatus(t *testing.T) {
	s, hub := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var got []session.Status
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(hub.statuses) || got[0].TabID != "1" || got[1].State != "idle" {
		t.Fatalf("unexpected statuses %+v", got)
	}
}

func TestSettings(t *testing.T) {
	s, _ := newTestServer(t)
	if err := s.DB.SaveField(context.Background(), platforms.Instagram, settings.Interval, 12); err != nil {
		t.Fatalf("save: %v", err)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings?platform=Instagram", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got map[platforms.ID]settings.Settings
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	wantIG := settings.Defaults(platforms.Instagram)
	wantIG.IntervalSeconds = 12
	want := map[platforms.ID]settings.Settings{platforms.Instagram: wantIG}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected settings.\nwant: %+v\ngot:  %+v", want, got)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	got = nil
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(platforms.All) {
		t.Fatalf("want every platform, got %+v", got)
	}
	if got[platforms.TikTok].IntervalSeconds != 3 {
		t.Fatalf("want tiktok default interval 3, got %+v", got[platforms.TikTok])
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings?platform=vine", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400 for unknown platform, got %d", rec.Code)
	}
}

func TestStats(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	for _, fallback := range []bool{false, true, false} {
		ev := storage.AdvanceEvent{Platform: "tiktok", Strategy: "interval", Route: "feed", Step: "key ArrowDown", Fallback: fallback}
		if err := s.DB.LogAdvance(ctx, ev); err != nil {
			t.Fatalf("log advance: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	var got []storage.PlatformStats
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Platform != "tiktok" || got[0].Advances != 3 || got[0].Fallbacks != 1 {
		t.Fatalf("unexpected stats %+v", got)
	}
}

func TestIndexPage(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"<html", "https://www.tiktok.com/foryou", "<td>off</td>", "Nothing advanced yet."} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q:\n%s", want, body)
		}
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404 for unknown path, got %d", rec.Code)
	}
}

func TestBasicAuth(t *testing.T) {
	s, _ := newTestServer(t)
	s.Username, s.Password = "admin", "secret"
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401 without credentials, got %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Fatalf("want WWW-Authenticate header")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 with credentials, got %d", rec.Code)
	}
}
