package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

/* ---------------- fakes ---------------- */

// fakeTokenServer answers refresh_token and authorization_code grants.
type fakeTokenServer struct {
	*httptest.Server
	rejectRefresh bool
	refreshes     atomic.Int32
	exchanges     atomic.Int32

	mu       sync.Mutex
	lastForm url.Values
}

func (f *fakeTokenServer) form() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastForm
}

func newFakeTokenServer(t *testing.T) *fakeTokenServer {
	t.Helper()
	f := &fakeTokenServer{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			http.NotFound(w, r)
			return
		}
		_ = r.ParseForm()
		f.mu.Lock()
		f.lastForm = r.PostForm
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.PostForm.Get("grant_type") {
		case "refresh_token":
			f.refreshes.Add(1)
			if f.rejectRefresh {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "refreshed-at", "token_type": "Bearer", "expires_in": 3600,
			})
		case "authorization_code":
			f.exchanges.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "code-at", "refresh_token": "code-rt", "token_type": "Bearer",
				"expires_in": 3600, "id_token": testIDToken(t),
			})
		default:
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unsupported_grant_type"})
		}
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeTokenServer) config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		Endpoint: oauth2.Endpoint{
			AuthURL:   f.URL + "/auth",
			TokenURL:  f.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: []string{"scope-a"},
	}
}

type fakeFlow struct {
	calls int
	tok   *oauth2.Token
	err   error
}

func (f *fakeFlow) Authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	f.calls++
	return f.tok, f.err
}

func newTestManager(t *testing.T, ts *fakeTokenServer, flow Authorizer, now time.Time) (*Manager, *FileStore) {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "token.json"), "")
	var logs bytes.Buffer
	return &Manager{
		OAuth: ts.config(),
		Store: store,
		Flow:  flow,
		Now:   func() time.Time { return now },
		Log:   log.New(&logs, "", 0),
	}, store
}

/* ---------------- tests ---------------- */

func TestManager_AbsentRunsFlowAndPersists(t *testing.T) {
	ts := newFakeTokenServer(t)
	flow := &fakeFlow{tok: &oauth2.Token{AccessToken: "flow-at", RefreshToken: "flow-rt", Expiry: time.Now().Add(time.Hour)}}
	m, store := newTestManager(t, ts, flow, time.Now())

	c, err := m.Credential(context.Background())
	if err != nil {
		t.Fatalf("credential: %v", err)
	}
	if flow.calls != 1 || c.AccessToken != "flow-at" {
		t.Fatalf("flow calls=%d credential=%+v", flow.calls, c)
	}
	saved, err := store.Load()
	if err != nil || saved.RefreshToken != "flow-rt" {
		t.Fatalf("saved=%+v err=%v", saved, err)
	}
}

func TestManager_ValidTouchesNothing(t *testing.T) {
	ts := newFakeTokenServer(t)
	flow := &fakeFlow{err: errors.New("must not be called")}
	now := time.Now()
	m, store := newTestManager(t, ts, flow, now)
	if err := store.Save(&Credential{AccessToken: "at", Expiry: now.Add(time.Hour)}); err != nil {
		t.Fatal(err)
	}

	c, err := m.Credential(context.Background())
	if err != nil || c.AccessToken != "at" {
		t.Fatalf("credential=%+v err=%v", c, err)
	}
	if flow.calls != 0 || ts.refreshes.Load() != 0 {
		t.Fatalf("flow=%d refreshes=%d", flow.calls, ts.refreshes.Load())
	}
}

func TestManager_ExpiredRefreshableRefreshesInPlace(t *testing.T) {
	ts := newFakeTokenServer(t)
	flow := &fakeFlow{err: errors.New("must not be called")}
	now := time.Now()
	m, store := newTestManager(t, ts, flow, now)
	if err := store.Save(&Credential{AccessToken: "stale", RefreshToken: "keep-me", IDToken: "idt", Expiry: now.Add(-time.Hour)}); err != nil {
		t.Fatal(err)
	}

	c, err := m.Credential(context.Background())
	if err != nil {
		t.Fatalf("credential: %v", err)
	}
	if c.AccessToken != "refreshed-at" || c.RefreshToken != "keep-me" || c.IDToken != "idt" {
		t.Fatalf("unexpected credential: %+v", c)
	}
	if got := ts.form().Get("refresh_token"); got != "keep-me" {
		t.Fatalf("refresh sent %q", got)
	}
	saved, _ := store.Load()
	if saved.AccessToken != "refreshed-at" {
		t.Fatalf("refresh not persisted: %+v", saved)
	}
	if flow.calls != 0 {
		t.Fatalf("flow should not run")
	}
}

func TestManager_RejectedRefreshFallsBackToFlow(t *testing.T) {
	ts := newFakeTokenServer(t)
	ts.rejectRefresh = true
	flow := &fakeFlow{tok: &oauth2.Token{AccessToken: "flow-at", RefreshToken: "flow-rt"}}
	now := time.Now()
	m, store := newTestManager(t, ts, flow, now)
	_ = store.Save(&Credential{AccessToken: "stale", RefreshToken: "revoked", Expiry: now.Add(-time.Hour)})

	c, err := m.Credential(context.Background())
	if err != nil {
		t.Fatalf("credential: %v", err)
	}
	if ts.refreshes.Load() == 0 || flow.calls != 1 || c.AccessToken != "flow-at" {
		t.Fatalf("refreshes=%d flow=%d credential=%+v", ts.refreshes.Load(), flow.calls, c)
	}
}

func TestManager_ExpiredUnrefreshableRunsFlow(t *testing.T) {
	ts := newFakeTokenServer(t)
	flow := &fakeFlow{tok: &oauth2.Token{AccessToken: "flow-at"}}
	now := time.Now()
	m, store := newTestManager(t, ts, flow, now)
	_ = store.Save(&Credential{AccessToken: "stale", Expiry: now.Add(-time.Hour)})

	if _, err := m.Credential(context.Background()); err != nil {
		t.Fatalf("credential: %v", err)
	}
	if flow.calls != 1 || ts.refreshes.Load() != 0 {
		t.Fatalf("flow=%d refreshes=%d", flow.calls, ts.refreshes.Load())
	}
}

func TestManager_FlowErrorPropagates(t *testing.T) {
	ts := newFakeTokenServer(t)
	boom := errors.New("user closed the browser")
	m, _ := newTestManager(t, ts, &fakeFlow{err: boom}, time.Now())
	if _, err := m.Client(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("want %v, got %v", boom, err)
	}
}
