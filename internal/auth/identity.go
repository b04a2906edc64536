package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoIdentity = errors.New("auth: credential has no id token")

type Identity struct {
	Subject string
	Email   string
	Name    string
}

func (i Identity) String() string {
	switch {
	case i.Name != "" && i.Email != "":
		return fmt.Sprintf("%s <%s>", i.Name, i.Email)
	case i.Email != "":
		return i.Email
	case i.Name != "":
		return i.Name
	default:
		return i.Subject
	}
}

type idClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// ParseIdentity reads the claims of an id_token without verifying its
// signature. Only use it on tokens received directly from the token endpoint.
func ParseIdentity(raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, ErrNoIdentity
	}
	var c idClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &c); err != nil {
		return Identity{}, fmt.Errorf("auth: parse id token: %w", err)
	}
	return Identity{Subject: c.Subject, Email: c.Email, Name: c.Name}, nil
}
