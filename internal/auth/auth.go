package auth

import (
	"errors"
	"net/http"
	"strings"
)

var (
	ErrMissingBearer = errors.New("missing bearer token")
	ErrInvalidToken  = errors.New("invalid token")
)

type Claims struct {
	Subject string
	Admin   bool
	Token   string
}

type Authenticator interface {
	Authenticate(r *http.Request) (Claims, error)
}

// TokenAuthenticator resolves static bearer tokens to claims. DevToken maps
// to the "dev" subject, AdminToken to an admin identity, and Tokens holds
// additional token-to-subject bindings.
type TokenAuthenticator struct {
	DevToken   string
	AdminToken string
	Tokens     map[string]string
}

func (a *TokenAuthenticator) Authenticate(r *http.Request) (Claims, error) {
	bearer, err := extractBearer(r)
	if err != nil {
		return Claims{}, err
	}

	if a.AdminToken != "" && bearer == a.AdminToken {
		return Claims{Subject: "admin", Admin: true, Token: bearer}, nil
	}
	if a.DevToken != "" && bearer == a.DevToken {
		return Claims{Subject: "dev", Token: bearer}, nil
	}
	if subject, ok := a.Tokens[bearer]; ok {
		return Claims{Subject: subject, Token: bearer}, nil
	}

	return Claims{}, ErrInvalidToken
}

func extractBearer(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", ErrMissingBearer
	}
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}
