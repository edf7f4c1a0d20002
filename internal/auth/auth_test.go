package auth

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := New(Config{
		Username: "admin",
		Password: "figureadmin",
		Secret:   "test-secret",
	})
	require.NoError(t, err)
	return v
}

func TestNewRequiresPassword(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Username: "admin"})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewSecretFallsBackToPassword(t *testing.T) {
	t.Parallel()

	v, err := New(Config{Username: "admin", Password: "figureadmin"})
	require.NoError(t, err)
	token, _ := v.CreateSessionToken("admin")
	require.NotNil(t, v.VerifySessionToken(token))
}

func TestDecodeBasicAuth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		ok     bool
		user   string
		pass   string
	}{
		{
			name:   "valid",
			header: "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:figureadmin")),
			ok:     true, user: "admin", pass: "figureadmin",
		},
		{
			name:   "password containing colon",
			header: "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:a:b")),
			ok:     true, user: "admin", pass: "a:b",
		},
		{name: "empty", header: "", ok: false},
		{name: "wrong scheme", header: "Bearer abc", ok: false},
		{name: "bad base64", header: "Basic !!!", ok: false},
		{
			name:   "no separator",
			header: "Basic " + base64.StdEncoding.EncodeToString([]byte("adminfigureadmin")),
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, pass, ok := DecodeBasicAuth(tt.header)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				require.Equal(t, tt.user, user)
				require.Equal(t, tt.pass, pass)
			}
		})
	}
}

func TestCredentialsValid(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t)

	require.True(t, v.CredentialsValid("admin", "figureadmin"))
	require.True(t, v.CredentialsValid("  admin  ", "figureadmin"), "username is trimmed")
	require.True(t, v.CredentialsValid("ADMIN", "figureadmin"), "username is case-insensitive")
	require.True(t, v.CredentialsValid("admin", "figureadmin\n"), "trailing newline stripped")

	require.False(t, v.CredentialsValid("admin", "FIGUREADMIN"), "password is case-sensitive")
	require.False(t, v.CredentialsValid("bdmin", "figureadmin"))
	require.False(t, v.CredentialsValid("admin", "figureadmim"))
	require.False(t, v.CredentialsValid("", "figureadmin"))
	require.False(t, v.CredentialsValid("admin", ""))
}

func TestCredentialsValidUnicodeNormalization(t *testing.T) {
	t.Parallel()

	// U+FF41 FULLWIDTH LATIN SMALL LETTER A normalizes to "a" under NFKC.
	v, err := New(Config{Username: "admin", Password: "passａ", Secret: "s"})
	require.NoError(t, err)
	require.True(t, v.CredentialsValid("admin", "passa"))
	require.True(t, v.CredentialsValid("ａdmin", "passa"))
}

func TestSessionTokenLifecycle(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t)
	token, expires := v.CreateSessionToken("admin")

	session := v.VerifySessionToken(token)
	require.NotNil(t, session)
	require.Equal(t, "admin", session.Username)
	require.Equal(t, expires, session.Expires)

	// Advance the clock past expiry.
	v.now = func() time.Time { return time.Unix(expires, 0) }
	require.Nil(t, v.VerifySessionToken(token))
}

func TestSessionTokenTampering(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t)
	token, _ := v.CreateSessionToken("admin")
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	mutations := map[string]string{
		"username":  base64.StdEncoding.EncodeToString([]byte("root")) + "." + parts[1] + "." + parts[2],
		"expiry":    parts[0] + ".9999999999." + parts[2],
		"signature": parts[0] + "." + parts[1] + "." + base64.StdEncoding.EncodeToString([]byte("forged")),
		"structure": parts[0] + "." + parts[1],
		"empty":     "",
	}
	for name, mutated := range mutations {
		require.Nil(t, v.VerifySessionToken(mutated), "mutation: %s", name)
	}
}

func TestSessionTokenRejectsOtherSecret(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t)
	other, err := New(Config{Username: "admin", Password: "figureadmin", Secret: "other-secret"})
	require.NoError(t, err)

	token, _ := other.CreateSessionToken("admin")
	require.Nil(t, v.VerifySessionToken(token))
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t)
	basic := "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:figureadmin"))

	t.Run("valid basic header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/admin/x", nil)
		r.Header.Set("Authorization", basic)
		require.True(t, v.Authorize(r).OK)
	})

	t.Run("valid session cookie", func(t *testing.T) {
		token, _ := v.CreateSessionToken("admin")
		r := httptest.NewRequest(http.MethodGet, "/admin/x", nil)
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
		res := v.Authorize(r)
		require.True(t, res.OK)
		require.NotNil(t, res.Session)
	})

	t.Run("invalid cookie is reported stale", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/admin/x", nil)
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "invalid"})
		res := v.Authorize(r)
		require.False(t, res.OK)
		require.True(t, res.StaleCookie)
	})

	t.Run("bad basic with no cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/admin/x", nil)
		r.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("admin:wrong")))
		res := v.Authorize(r)
		require.False(t, res.OK)
		require.True(t, res.BasicTried)
	})

	t.Run("nothing presented", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/admin/x", nil)
		res := v.Authorize(r)
		require.False(t, res.OK)
		require.False(t, res.BasicTried)
		require.False(t, res.StaleCookie)
	})
}

func TestSecureCookie(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		target  string
		tls     bool
		headers map[string]string
		want    bool
	}{
		{name: "direct https", target: "https://example.com/", tls: true, want: true},
		{
			name:    "local http ignores proxy headers",
			target:  "http://localhost/",
			headers: map[string]string{"X-Forwarded-Proto": "https", "CF-Visitor": `{"scheme":"https"}`},
			want:    false,
		},
		{name: "local http with port", target: "http://127.0.0.1:8080/", want: false},
		{name: "localhost subdomain", target: "http://dev.localhost/", want: false},
		{
			name:    "forwarded proto trusted for public host",
			target:  "http://example.com/",
			headers: map[string]string{"X-Forwarded-Proto": "https"},
			want:    true,
		},
		{
			name:    "forwarded proto list takes first",
			target:  "http://example.com/",
			headers: map[string]string{"X-Forwarded-Proto": "https, http"},
			want:    true,
		},
		{
			name:    "cf visitor scheme",
			target:  "http://example.com/",
			headers: map[string]string{"CF-Visitor": `{"scheme":"https"}`},
			want:    true,
		},
		{
			name:    "cf visitor http",
			target:  "http://example.com/",
			headers: map[string]string{"CF-Visitor": `{"scheme":"http"}`},
			want:    false,
		},
		{name: "plain http default insecure", target: "http://example.com/", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if !tt.tls {
				r.TLS = nil
			}
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			require.Equal(t, tt.want, SecureCookie(r))
		})
	}
}

func TestExpiredSessionCookie(t *testing.T) {
	t.Parallel()

	c := ExpiredSessionCookie(false)
	require.Equal(t, SessionCookieName, c.Name)
	require.Contains(t, c.String(), "Max-Age=0")
	require.NotContains(t, c.String(), "Secure")

	require.Contains(t, ExpiredSessionCookie(true).String(), "Secure")
}
