package server

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/catalog"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/contracts"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/models"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/relay"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/render/rendertest"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/resolver"
)

type testEnv struct {
	upstream *httptest.Server
	server   *Server
	http     *httptest.Server
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupTest serves two menus from a fake storage bucket through the relay.
func setupTest(t *testing.T) *testEnv {
	t.Helper()
	lunch := rendertest.PDF([2]float64{1000, 1000}, [2]float64{1000, 1000}, [2]float64{1000, 1000})
	drinks := rendertest.PDF(rendertest.Letter)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bucket/downtown/lunch.pdf":
			w.Write(lunch)
		case "/bucket/downtown/drinks list.pdf":
			w.Write(drinks)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	storageBase := upstream.URL + "/bucket"
	cat := catalog.NewStatic([]models.Location{{
		ID:   "downtown",
		Name: "Downtown",
		Menus: []models.DocumentDescriptor{
			{Name: "Lunch", StoragePath: "downtown/lunch.pdf"},
			{Name: "Broken"},
			{Name: "Drinks", StoragePath: "downtown/drinks list.pdf"},
			{Name: "Gone", StoragePath: "downtown/gone.pdf"},
		},
	}})
	rel := relay.NewHandler(relay.Config{
		AllowedHosts: []string{"127.0.0.1"},
		Backoff:      time.Millisecond,
	}, nil, upstream.Client(), quietLogger())

	srv := New(Config{AllowAll: true}, cat, resolver.New(storageBase, ""), rel, quietLogger())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	srv.SetPublicURL(ts.URL)

	return &testEnv{upstream: upstream, server: srv, http: ts}
}

func TestHealthCheck(t *testing.T) {
	env := setupTest(t)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	env.server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	env := setupTest(t)

	req := httptest.NewRequest("OPTIONS", "/api/locations", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	env.server.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestLocationAPI(t *testing.T) {
	env := setupTest(t)

	resp, err := http.Get(env.http.URL + "/api/locations")
	if err != nil {
		t.Fatal(err)
	}
	var locs []locationSummary
	json.NewDecoder(resp.Body).Decode(&locs)
	resp.Body.Close()
	if diff := cmp.Diff([]locationSummary{{ID: "downtown", Name: "Downtown", MenuCount: 3}}, locs); diff != "" {
		t.Errorf("locations (-want +got):\n%s", diff)
	}

	resp, err = http.Get(env.http.URL + "/api/locations/downtown/menus")
	if err != nil {
		t.Fatal(err)
	}
	var tabs []models.MenuTab
	json.NewDecoder(resp.Body).Decode(&tabs)
	resp.Body.Close()

	var names []string
	for _, tab := range tabs {
		names = append(names, tab.Name)
	}
	if diff := cmp.Diff([]string{"Lunch", "Drinks", "Gone"}, names); diff != "" {
		t.Errorf("menus (-want +got):\n%s", diff)
	}
	wantCanonical := env.upstream.URL + "/bucket/downtown/drinks%20list.pdf"
	if tabs[1].CanonicalURL != wantCanonical {
		t.Errorf("canonical = %q, want %q", tabs[1].CanonicalURL, wantCanonical)
	}

	resp, err = http.Get(env.http.URL + "/api/locations/nowhere/menus")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown location status = %d", resp.StatusCode)
	}
}

func TestRelayRoute(t *testing.T) {
	env := setupTest(t)

	src := url.QueryEscape(env.upstream.URL + "/bucket/downtown/lunch.pdf")
	resp, err := http.Get(env.http.URL + "/api/menu-pdf?src=" + src)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(string(body), "%PDF") {
		t.Errorf("status = %d, body prefix = %q", resp.StatusCode, body[:min(8, len(body))])
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("relay must allow any origin")
	}
}

func dialViewer(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/ws/viewer"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until one satisfies cond.
func readUntil(t *testing.T, conn *websocket.Conn, what string, cond func(contracts.StateMessage) bool) contracts.StateMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", what, err)
		}
		var msg contracts.StateMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type == contracts.MessageTypeError {
			var e contracts.ErrorMessage
			json.Unmarshal(raw, &e)
			t.Fatalf("waiting for %s: server error %q", what, e.Message)
		}
		if cond(msg) {
			return msg
		}
	}
}

func TestViewerSession(t *testing.T) {
	env := setupTest(t)
	conn := dialViewer(t, env)

	send := func(m contracts.IncomingMessage) {
		t.Helper()
		if err := conn.WriteJSON(m); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	send(contracts.IncomingMessage{Type: contracts.MessageTypeResize, ContainerWidth: 500, WindowHeight: 2000})
	send(contracts.IncomingMessage{Type: contracts.MessageTypeOpen, Location: "downtown"})

	ready := readUntil(t, conn, "first page", func(m contracts.StateMessage) bool {
		return m.Status == "ready" && m.Page != nil
	})
	if len(ready.Tabs) != 3 || ready.Active != 0 || ready.NumPages != 3 {
		t.Errorf("tabs=%d active=%d pages=%d", len(ready.Tabs), ready.Active, ready.NumPages)
	}
	if ready.Scale != 0.5 || ready.Page.PixelWidth != 500 || ready.Page.PixelHeight != 500 {
		t.Errorf("scale=%v page=%dx%d, want 0.5 and 500x500", ready.Scale, ready.Page.PixelWidth, ready.Page.PixelHeight)
	}
	pdf, err := base64.StdEncoding.DecodeString(ready.Page.PDF)
	if err != nil || !strings.HasPrefix(string(pdf), "%PDF") {
		t.Errorf("page payload is not a PDF: %v", err)
	}

	send(contracts.IncomingMessage{Type: contracts.MessageTypePage, Delta: -1})
	last := readUntil(t, conn, "wrap to page 3", func(m contracts.StateMessage) bool {
		return m.Page != nil && m.Page.Number == 3
	})
	if last.CurrentPage != 3 {
		t.Errorf("CurrentPage = %d", last.CurrentPage)
	}

	send(contracts.IncomingMessage{Type: contracts.MessageTypeSelect, Index: 2})
	failed := readUntil(t, conn, "error state", func(m contracts.StateMessage) bool {
		return m.Status == "error"
	})
	if failed.Error == "" || !strings.HasSuffix(failed.CanonicalURL, "/downtown/gone.pdf") {
		t.Errorf("error state = %+v", failed)
	}

	send(contracts.IncomingMessage{Type: contracts.MessageTypeSelect, Index: 1})
	drinks := readUntil(t, conn, "drinks", func(m contracts.StateMessage) bool {
		return m.Status == "ready" && m.Active == 1 && m.Page != nil
	})
	if drinks.NumPages != 1 {
		t.Errorf("drinks pages = %d", drinks.NumPages)
	}

	send(contracts.IncomingMessage{Type: contracts.MessageTypeClose})
	readUntil(t, conn, "idle", func(m contracts.StateMessage) bool {
		return m.Status == "idle" && len(m.Tabs) == 0
	})

	if n := env.server.Cache().Len(); n != 2 {
		t.Errorf("cache entries = %d, want 2", n)
	}
}

func TestViewerSessionRejectsUnknownLocation(t *testing.T) {
	env := setupTest(t)
	conn := dialViewer(t, env)

	if err := conn.WriteJSON(contracts.IncomingMessage{Type: contracts.MessageTypeOpen, Location: "nowhere"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var e contracts.ErrorMessage
		if err := conn.ReadJSON(&e); err != nil {
			t.Fatalf("read: %v", err)
		}
		if e.Type == contracts.MessageTypeError {
			if !strings.Contains(e.Message, "nowhere") {
				t.Errorf("message = %q", e.Message)
			}
			return
		}
	}
}
