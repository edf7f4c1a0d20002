package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
)

// Session is the decoded, verified content of a session token. Tokens are
// client-held and server-stateless; there is no revocation list.
type Session struct {
	Username string
	Expires  int64
}

// CreateSessionToken builds "base64(username).expiry.signature" where the
// signature is HMAC-SHA256 over "username:expiry" keyed with the server
// secret.
func (v *Verifier) CreateSessionToken(username string) (token string, expires int64) {
	expires = v.now().Unix() + int64(v.ttl.Seconds())
	payload := username + ":" + strconv.FormatInt(expires, 10)
	return base64.StdEncoding.EncodeToString([]byte(username)) +
		"." + strconv.FormatInt(expires, 10) +
		"." + v.sign(payload), expires
}

// VerifySessionToken decodes and validates a token. Any structural defect,
// elapsed expiry, or signature mismatch yields nil.
func (v *Verifier) VerifySessionToken(token string) *Session {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil
	}
	username, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return nil
	}
	expires, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil
	}
	if expires <= v.now().Unix() {
		return nil
	}
	payload := string(username) + ":" + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(v.sign(payload))) {
		return nil
	}
	return &Session{Username: string(username), Expires: expires}
}

func (v *Verifier) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
