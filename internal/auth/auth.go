// Package auth decides whether a request may perform privileged operations.
// It verifies HTTP Basic credentials and HMAC-signed session cookies against
// the configured admin account.
package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// BasicRealm is advertised in WWW-Authenticate challenges.
const BasicRealm = "Figure Admin"

// ErrNotConfigured indicates the admin password or session secret is missing.
// This is a deployment fault, not a client error.
var ErrNotConfigured = errors.New("admin credentials are not configured")

var trailingNewlines = regexp.MustCompile(`[\r\n]+$`)

// Credentials holds the configured admin account along with the normalized
// forms used for comparison.
type Credentials struct {
	Username string
	Password string

	compareUsername string
	comparePassword string
}

// Config captures what the verifier needs from service configuration.
type Config struct {
	Username   string
	Password   string
	Secret     string
	SessionTTL time.Duration
}

// Verifier validates credentials and session tokens.
type Verifier struct {
	creds  Credentials
	secret string
	ttl    time.Duration
	now    func() time.Time
}

// New builds a Verifier. The admin password and session secret must be set;
// the secret falls back to the password when unset.
func New(cfg Config) (*Verifier, error) {
	username := SanitizeUsername(cfg.Username)
	password := SanitizePassword(cfg.Password)
	secret := SanitizePassword(cfg.Secret)
	if secret == "" {
		secret = password
	}
	if password == "" || secret == "" {
		return nil, ErrNotConfigured
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Verifier{
		creds: Credentials{
			Username:        username,
			Password:        password,
			compareUsername: normalizeUsername(username),
			comparePassword: normalizePassword(password),
		},
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Username returns the configured admin username.
func (v *Verifier) Username() string {
	return v.creds.Username
}

// SessionTTL returns the configured session lifetime.
func (v *Verifier) SessionTTL() time.Duration {
	return v.ttl
}

// SanitizeUsername trims surrounding whitespace.
func SanitizeUsername(value string) string {
	return strings.TrimSpace(value)
}

// SanitizePassword strips trailing CR/LF, the usual artifact of pasting a
// secret into a terminal. Interior whitespace is significant.
func SanitizePassword(value string) string {
	return trailingNewlines.ReplaceAllString(value, "")
}

// normalizeUsername lowercases after NFKC normalization so visually identical
// usernames compare equal.
func normalizeUsername(value string) string {
	value = SanitizeUsername(value)
	if value == "" {
		return ""
	}
	return strings.ToLower(norm.NFKC.String(value))
}

// normalizePassword applies NFKC only; passwords stay case sensitive.
func normalizePassword(value string) string {
	sanitized := SanitizePassword(value)
	if sanitized == "" {
		sanitized = value
	}
	if sanitized == "" {
		return ""
	}
	return norm.NFKC.String(sanitized)
}

// DecodeBasicAuth parses a "Basic <base64>" Authorization header. It fails
// soft: any malformed header yields ok=false, never an error.
func DecodeBasicAuth(header string) (username, password string, ok bool) {
	if header == "" {
		return "", "", false
	}
	scheme, encoded, found := strings.Cut(header, " ")
	if !found || scheme != "Basic" || encoded == "" {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", "", false
	}
	username, password, found = strings.Cut(string(decoded), ":")
	if !found {
		return "", "", false
	}
	return username, password, true
}

// CredentialsValid compares the supplied username/password against the
// configured admin account in constant time.
func (v *Verifier) CredentialsValid(username, password string) bool {
	if v.creds.compareUsername == "" || v.creds.comparePassword == "" {
		return false
	}
	u := normalizeUsername(username)
	p := normalizePassword(password)
	if u == "" || p == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(u), []byte(v.creds.compareUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(p), []byte(v.creds.comparePassword)) == 1
	return userOK && passOK
}

// Result describes the outcome of an authorization check. When OK is false the
// caller chooses between a 401 challenge and a login redirect; StaleCookie
// signals that an invalid session cookie was presented and must be cleared.
type Result struct {
	OK          bool
	Session     *Session
	BasicTried  bool
	StaleCookie bool
}

// Authorize checks Basic credentials first (an exact match grants access
// without a session), then the session cookie.
func (v *Verifier) Authorize(r *http.Request) Result {
	username, password, hasBasic := DecodeBasicAuth(r.Header.Get("Authorization"))
	if hasBasic && v.CredentialsValid(username, password) {
		return Result{OK: true}
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err == nil && cookie.Value != "" {
		if session := v.VerifySessionToken(cookie.Value); session != nil {
			return Result{OK: true, Session: session}
		}
		return Result{BasicTried: hasBasic, StaleCookie: true}
	}

	return Result{BasicTried: hasBasic}
}
