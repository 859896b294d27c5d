// Package session resolves the per-sender key used for rate limiting and
// conversation memory. Two strategies are provided: a signed session
// cookie (the default) and a stateless address hash for deployments that
// cannot set cookies.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// CookieName is the session cookie carrying the signed subject token.
const CookieName = "tristin_session"

// defaultTokenTTL bounds how long a session token stays valid. Expiry
// just mints a fresh identity; nothing user-visible is lost beyond the
// bounded conversation window.
const defaultTokenTTL = 24 * time.Hour

// UserKeyResolver extracts a stable per-sender key from a request.
type UserKeyResolver interface {
	// Resolve returns the sender key for r. When the strategy mints a
	// new identity it writes the corresponding cookie to w.
	Resolve(w http.ResponseWriter, r *http.Request) string
}

// CookieResolver identifies senders with a signed HS256 session cookie.
// The subject is a random UUID minted on first contact, so two browsers
// behind the same NAT get independent budgets.
type CookieResolver struct {
	secret []byte
	ttl    time.Duration
	log    *slog.Logger
}

// NewCookieResolver builds the cookie strategy. The secret signs and
// verifies session tokens; rotating it invalidates every session.
func NewCookieResolver(secret []byte, log *slog.Logger) *CookieResolver {
	if log == nil {
		log = slog.Default()
	}
	return &CookieResolver{secret: secret, ttl: defaultTokenTTL, log: log}
}

// Resolve returns the subject of a valid session cookie, minting and
// setting a new one when the cookie is absent, expired, or tampered.
func (c *CookieResolver) Resolve(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil {
		subject, verr := c.verify(cookie.Value)
		if verr == nil {
			return subject
		}
		c.log.Debug("session cookie rejected, minting new identity", "error", verr)
	}

	subject := uuid.NewString()
	token, err := c.mint(subject)
	if err != nil {
		// Signing only fails on a broken method configuration. Fall
		// back to the unsigned subject for this request; the client
		// simply will not keep it.
		c.log.Error("session token mint failed", "error", err)
		return subject
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return subject
}

func (c *CookieResolver) mint(subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("session: sign token: %w", err)
	}
	return signed, nil
}

func (c *CookieResolver) verify(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("session: unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("session: parse token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("session: token invalid")
	}
	return claims.Subject, nil
}

// AddrResolver identifies senders by a hash of their network address and
// user agent. It needs no client cooperation but lumps together clients
// behind a shared proxy.
type AddrResolver struct{}

// NewAddrResolver builds the address-hash strategy.
func NewAddrResolver() *AddrResolver {
	return &AddrResolver{}
}

// Resolve hashes the client IP and user agent into a stable key.
func (a *AddrResolver) Resolve(_ http.ResponseWriter, r *http.Request) string {
	host := clientIP(r)
	sum := sha256.Sum256([]byte(host + "\x00" + r.UserAgent()))
	return hex.EncodeToString(sum[:8])
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// socket address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
