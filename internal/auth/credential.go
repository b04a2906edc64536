package auth

import (
	"time"

	"golang.org/x/oauth2"
)

// CredentialVersion is the on-disk format version written by FileStore.
const CredentialVersion = 1

// expiryDelta mirrors oauth2's early-expiry window.
const expiryDelta = 10 * time.Second

// Credential is the persisted OAuth grant.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry"`
	IDToken      string    `json:"id_token,omitempty"`
}

type State int

const (
	StateAbsent State = iota
	StateValid
	StateExpiredRefreshable
	StateExpiredUnrefreshable
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateValid:
		return "valid"
	case StateExpiredRefreshable:
		return "expired-refreshable"
	case StateExpiredUnrefreshable:
		return "expired-unrefreshable"
	default:
		return "unknown"
	}
}

// Classify places a credential in the refresh-or-reauthorize state machine.
// A zero expiry means the access token does not expire.
func Classify(c *Credential, now time.Time) State {
	if c == nil || (c.AccessToken == "" && c.RefreshToken == "") {
		return StateAbsent
	}
	if c.AccessToken != "" && (c.Expiry.IsZero() || c.Expiry.After(now.Add(expiryDelta))) {
		return StateValid
	}
	if c.RefreshToken != "" {
		return StateExpiredRefreshable
	}
	return StateExpiredUnrefreshable
}

// FromToken converts a token endpoint response. Fields the endpoint omitted
// on refresh (refresh token, id token) are carried over from prev.
func FromToken(tok *oauth2.Token, prev *Credential) *Credential {
	c := &Credential{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if id, ok := tok.Extra("id_token").(string); ok {
		c.IDToken = id
	}
	if prev != nil {
		if c.RefreshToken == "" {
			c.RefreshToken = prev.RefreshToken
		}
		if c.IDToken == "" {
			c.IDToken = prev.IDToken
		}
	}
	return c
}

func (c *Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    c.TokenType,
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
	}
}
