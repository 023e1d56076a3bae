package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/okian/hangman/internal/domain/model"
)

// Claims are the bearer token claims issued by the external auth provider.
type Claims struct {
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

type ctxPlayerKey struct{}

// PlayerFrom returns the authenticated player on ctx, or nil.
func PlayerFrom(ctx context.Context) *model.Player {
	p, _ := ctx.Value(ctxPlayerKey{}).(*model.Player)
	return p
}

// WithPlayer returns ctx carrying p.
func WithPlayer(ctx context.Context, p *model.Player) context.Context {
	return context.WithValue(ctx, ctxPlayerKey{}, p)
}

// userID is the authenticated user id on r, or "" for guests.
func userID(r *http.Request) string {
	if p := PlayerFrom(r.Context()); p != nil {
		return p.UserID
	}
	return ""
}

// Authenticator verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator returns an Authenticator for secret. With an empty
// secret every token is rejected and all callers are guests.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Verify parses token and returns the player it names.
func (a *Authenticator) Verify(token string) (*model.Player, error) {
	if len(a.secret) == 0 {
		return nil, ErrUnauthenticated
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	name := claims.Name
	if name == "" {
		name = claims.Subject
	}
	return &model.Player{UserID: claims.Subject, DisplayName: name, AvatarURL: claims.Picture}, nil
}

// bearer extracts the token from the Authorization header, falling back
// to ?token= for websocket clients that cannot set headers.
func bearer(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

// Optional attaches the player when a valid token is present. Guests and
// invalid tokens pass through anonymously.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := bearer(r); tok != "" {
			if p, err := a.Verify(tok); err == nil {
				r = r.WithContext(WithPlayer(r.Context(), p))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects requests without a valid token.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearer(r)
		if tok == "" {
			writeError(w, http.StatusUnauthorized, "unauthenticated", ErrUnauthenticated)
			return
		}
		p, err := a.Verify(tok)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthenticated", ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPlayer(r.Context(), p)))
	})
}

// SignToken issues an HS256 token for p, for local tools standing in for
// the auth provider.
func SignToken(secret string, p model.Player, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name:    p.DisplayName,
		Picture: p.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
