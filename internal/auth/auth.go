// internal/auth/auth.go
//
// Player credentials and session tokens.
// Responsibilities:
//   - Username/password rules and bcrypt hashing.
//   - HS256 JWT issue/verify.
//   - Auth and anonymous-player cookies.

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken = errors.New("username taken")
	ErrInvalidToken  = errors.New("invalid token")
)

// NormalizeUsername trims whitespace.
func NormalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// ValidateSignup enforces basic username/password rules.
func ValidateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3-24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 72 {
		return errors.New("password must be 8-72 chars")
	}
	return nil
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// NewID returns a fresh player identifier.
func NewID() string { return uuid.NewString() }

// ------------------------------- tokens ------------------------------------

// Claims is what a session token carries.
type Claims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer builds an Issuer whose tokens expire after days (14 when ≤ 0).
func NewIssuer(secret string, days int) *Issuer {
	if days <= 0 {
		days = 14
	}
	return &Issuer{secret: []byte(secret), ttl: time.Duration(days) * 24 * time.Hour}
}

func (i *Issuer) Sign(id, username string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(i.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:       id,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	ss, err := t.SignedString(i.secret)
	return ss, exp, err
}

func (i *Issuer) Parse(token string) (*Claims, error) {
	var c Claims
	t, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.ID == "" || c.Username == "" {
		return nil, ErrInvalidToken
	}
	return &c, nil
}

// ------------------------------- cookies -----------------------------------

const anonCookieName = "desktools_anon"

// Cookies writes and reads the auth and anonymous cookies.
type Cookies struct {
	Name   string // auth cookie name
	Secure bool   // production: Secure + SameSite=None
}

func (c Cookies) sameSite() http.SameSite {
	if c.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func (c Cookies) SetAuth(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
		Expires:  exp,
	})
}

func (c Cookies) ClearAuth(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
		MaxAge:   -1,
	})
}

// Token extracts a bearer token from the Authorization header or the auth cookie.
func (c Cookies) Token(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if ck, err := r.Cookie(c.Name); err == nil {
		return ck.Value
	}
	return ""
}

// EnsureAnon returns the anonymous player id, issuing a cookie when missing.
func (c Cookies) EnsureAnon(w http.ResponseWriter, r *http.Request) string {
	if ck, err := r.Cookie(anonCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	id := NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}
