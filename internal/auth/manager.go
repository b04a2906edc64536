package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Manager hands out authenticated clients, refreshing or re-authorizing
// the stored credential as its State requires.
type Manager struct {
	OAuth *oauth2.Config
	Store CredentialStore
	Flow  Authorizer
	Now   func() time.Time
	Log   *log.Logger
}

// Credential returns a usable credential, persisting any change.
func (m *Manager) Credential(ctx context.Context) (*Credential, error) {
	if m.OAuth == nil || m.Store == nil {
		return nil, errors.New("auth: manager not configured")
	}
	cred, err := m.Store.Load()
	if err != nil && !errors.Is(err, ErrNoCredential) {
		return nil, err
	}

	switch Classify(cred, m.now()) {
	case StateValid:
		return cred, nil
	case StateExpiredRefreshable:
		fresh, err := m.refresh(ctx, cred)
		if err == nil {
			return fresh, nil
		}
		var rerr *oauth2.RetrieveError
		if !errors.As(err, &rerr) {
			return nil, err
		}
		m.logf("auth: refresh rejected, re-authorizing: %v", err)
	}
	return m.authorize(ctx)
}

// Client returns an HTTP client bound to a valid credential.
func (m *Manager) Client(ctx context.Context) (*http.Client, error) {
	cred, err := m.Credential(ctx)
	if err != nil {
		return nil, err
	}
	return m.OAuth.Client(ctx, cred.Token()), nil
}

func (m *Manager) refresh(ctx context.Context, cred *Credential) (*Credential, error) {
	tok, err := m.OAuth.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("auth: refresh: %w", err)
	}
	fresh := FromToken(tok, cred)
	if err := m.Store.Save(fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

func (m *Manager) authorize(ctx context.Context) (*Credential, error) {
	if m.Flow == nil {
		return nil, errors.New("auth: no authorization flow configured")
	}
	tok, err := m.Flow.Authorize(ctx, m.OAuth)
	if err != nil {
		return nil, err
	}
	cred := FromToken(tok, nil)
	if err := m.Store.Save(cred); err != nil {
		return nil, err
	}
	return cred, nil
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Manager) logf(format string, args ...any) {
	if m.Log == nil {
		log.Printf(format, args...)
		return
	}
	m.Log.Printf(format, args...)
}
