// internal/auth/google_oauth.go
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var ErrStateMismatch = errors.New("auth: oauth state mismatch")

// IdentityScopes request an id_token alongside the access token.
var IdentityScopes = []string{"openid", "email", "profile"}

// LoadClientConfig reads an OAuth client secrets file as downloaded from
// the Google Cloud console.
func LoadClientConfig(path string, scopes ...string) (*oauth2.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("auth: read client secrets %s: %w", path, err)
	}
	cfg, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("auth: parse client secrets %s: %w", path, err)
	}
	return cfg, nil
}

// Authorizer runs an interactive authorization and returns the granted token.
type Authorizer interface {
	Authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)
}

// LoopbackFlow is the installed-app flow: the browser is redirected back to
// a short-lived listener on the loopback interface.
type LoopbackFlow struct {
	Addr string    // default 127.0.0.1:0
	Out  io.Writer // where the auth URL is printed
	Open func(url string) error
}

type callbackResult struct {
	code string
	err  error
}

func (f *LoopbackFlow) Authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	addr := f.Addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	out := f.Out
	if out == nil {
		out = os.Stdout
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("auth: listen %s: %w", addr, err)
	}
	conf := *cfg
	conf.RedirectURL = "http://" + ln.Addr().String() + "/"

	state, err := randomState()
	if err != nil {
		ln.Close()
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()
	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	results := make(chan callbackResult, 1)
	r := chi.NewRouter()
	r.Get("/", callbackHandler(state, results))
	srv := &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	fmt.Fprintf(out, "Open this URL in your browser to authorize ocular:\n\n  %s\n\n", authURL)
	if f.Open != nil {
		if err := f.Open(authURL); err != nil {
			fmt.Fprintf(out, "(could not open a browser automatically: %v)\n", err)
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := conf.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
		if err != nil {
			return nil, fmt.Errorf("auth: exchange code: %w", err)
		}
		return tok, nil
	}
}

func callbackHandler(state string, results chan<- callbackResult) http.HandlerFunc {
	deliver := func(res callbackResult) {
		select {
		case results <- res:
		default:
		}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if e := q.Get("error"); e != "" {
			deliver(callbackResult{err: fmt.Errorf("auth: authorization denied: %s", e)})
			http.Error(w, "authorization failed: "+e, http.StatusBadRequest)
			return
		}
		if q.Get("state") != state {
			deliver(callbackResult{err: ErrStateMismatch})
			http.Error(w, "bad state", http.StatusBadRequest)
			return
		}
		code := q.Get("code")
		if code == "" {
			deliver(callbackResult{err: errors.New("auth: callback without code")})
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		deliver(callbackResult{code: code})
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ocular is authorized. You can close this tab.\n")
	}
}

// OpenBrowser launches the system browser without echoing its output.
func OpenBrowser(url string) error {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return browser.OpenURL(url)
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("auth: state: %w", err)
	}
	return "st-" + hex.EncodeToString(b), nil
}
