package auth

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "figure_admin_session"

var localHostnames = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"::1":       {},
}

// SessionCookie builds the Set-Cookie value for a fresh session.
func (v *Verifier) SessionCookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(v.ttl.Seconds()),
		Secure:   secure,
	}
}

// ExpiredSessionCookie builds a Set-Cookie value that instructs the client to
// discard its session cookie.
func ExpiredSessionCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
		Secure:   secure,
	}
}

// SecureCookie decides whether the Secure attribute applies. Direct TLS always
// wins; recognized local-development hostnames over plain HTTP never get it,
// regardless of what proxy headers claim. For everything else the
// forwarded-proto and CF-Visitor headers are consulted, defaulting to
// insecure as a last resort.
func SecureCookie(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if IsLocalHostname(hostname(r.Host)) {
		return false
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		first, _, _ := strings.Cut(proto, ",")
		if strings.EqualFold(strings.TrimSpace(first), "https") {
			return true
		}
	}
	if visitor := r.Header.Get("CF-Visitor"); visitor != "" {
		var payload struct {
			Scheme string `json:"scheme"`
		}
		if err := json.Unmarshal([]byte(visitor), &payload); err == nil {
			return strings.EqualFold(payload.Scheme, "https")
		}
	}
	return false
}

// IsLocalHostname reports whether the host names a local development machine.
func IsLocalHostname(host string) bool {
	if host == "" {
		return false
	}
	host = strings.ToLower(host)
	if _, ok := localHostnames[host]; ok {
		return true
	}
	return strings.HasSuffix(host, ".localhost")
}

func hostname(hostport string) string {
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return strings.Trim(host, "[]")
	}
	return strings.Trim(hostport, "[]")
}
