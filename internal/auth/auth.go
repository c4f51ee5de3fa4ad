package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ringside/internal/config"
)

// ErrUnauthenticated is returned for missing, malformed or expired tokens.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the caller resolved from a bearer token.
type Identity struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
}

// Claims are the token claims issued by the hosted auth platform.
type Claims struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 bearer tokens and derives the caller identity.
type Verifier struct {
	secret      []byte
	issuer      string
	adminEmails map[string]struct{}
}

func NewVerifier(cfg config.AuthConfig) *Verifier {
	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, e := range cfg.AdminEmails {
		admins[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	return &Verifier{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer, adminEmails: admins}
}

// Verify parses token and returns the identity it carries.
func (v *Verifier) Verify(token string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	id := Identity{UserID: claims.Subject, Email: claims.Email, Username: claims.Username}
	id.Admin = v.IsAdmin(id.Username, id.Email)
	return id, nil
}

// Mint signs a token for userID valid for ttl.
func (v *Verifier) Mint(userID, email, username string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now()
	claims := Claims{
		Email:    email,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// IsAdmin is a naming heuristic, not an authorization model: a username
// containing "admin", an email local part starting with "admin", or an
// email on the configured admin list.
func (v *Verifier) IsAdmin(username, email string) bool {
	if strings.Contains(strings.ToLower(username), "admin") {
		return true
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if local, _, ok := strings.Cut(email, "@"); ok && strings.HasPrefix(local, "admin") {
		return true
	}
	_, listed := v.adminEmails[email]
	return listed && email != ""
}
