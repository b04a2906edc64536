package auth

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// browserHitting simulates the user approving consent: it follows the auth
// URL's redirect_uri back to the loopback listener with the given state.
func browserHitting(t *testing.T, code string, overrideState string) func(string) error {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		q := u.Query()
		if q.Get("access_type") != "offline" || q.Get("code_challenge_method") != "S256" || q.Get("code_challenge") == "" {
			t.Errorf("auth URL missing offline/PKCE params: %s", authURL)
		}
		state := q.Get("state")
		if overrideState != "" {
			state = overrideState
		}
		cb := q.Get("redirect_uri") + "?" + url.Values{"code": {code}, "state": {state}}.Encode()
		resp, err := http.Get(cb)
		if err != nil {
			return err
		}
		resp.Body.Close()
		return nil
	}
}

func TestLoopbackFlow_EndToEnd(t *testing.T) {
	ts := newFakeTokenServer(t)
	var out bytes.Buffer
	flow := &LoopbackFlow{Out: &out, Open: browserHitting(t, "the-code", "")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	tok, err := flow.Authorize(ctx, ts.config())
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if tok.AccessToken != "code-at" || tok.RefreshToken != "code-rt" {
		t.Fatalf("unexpected token: %+v", tok)
	}
	form := ts.form()
	if form.Get("code") != "the-code" || form.Get("code_verifier") == "" {
		t.Fatalf("exchange form missing code or verifier: %v", form)
	}
	if !strings.HasPrefix(form.Get("redirect_uri"), "http://127.0.0.1:") {
		t.Fatalf("unexpected redirect_uri %q", form.Get("redirect_uri"))
	}
	if !strings.Contains(out.String(), ts.URL+"/auth?") {
		t.Fatalf("auth URL not printed: %q", out.String())
	}

	id, err := ParseIdentity(FromToken(tok, nil).IDToken)
	if err != nil || id.Email != "teacher@school.example" {
		t.Fatalf("identity=%+v err=%v", id, err)
	}
}

func TestLoopbackFlow_StateMismatch(t *testing.T) {
	ts := newFakeTokenServer(t)
	flow := &LoopbackFlow{Out: &bytes.Buffer{}, Open: browserHitting(t, "c", "forged")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := flow.Authorize(ctx, ts.config()); !errors.Is(err, ErrStateMismatch) {
		t.Fatalf("want ErrStateMismatch, got %v", err)
	}
	if ts.exchanges.Load() != 0 {
		t.Fatalf("code must not be exchanged on state mismatch")
	}
}

func TestLoopbackFlow_ContextCancelled(t *testing.T) {
	ts := newFakeTokenServer(t)
	flow := &LoopbackFlow{Out: &bytes.Buffer{}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := flow.Authorize(ctx, ts.config()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
}

func TestLoadClientConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	secrets := `{"installed":{"client_id":"cid.apps.googleusercontent.com","client_secret":"shh",` +
		`"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token",` +
		`"redirect_uris":["http://localhost"]}}`
	if err := os.WriteFile(path, []byte(secrets), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadClientConfig(path, IdentityScopes...)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ClientID != "cid.apps.googleusercontent.com" || len(cfg.Scopes) != 3 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if _, err := LoadClientConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing secrets file")
	}
}
