package shared

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	CSRFSessionKey = "csrf_token"
	CSRFFormField  = "csrf_token"
	// CSRFHeader carries the token for fetch requests from the admin pages.
	CSRFHeader = "X-CSRF-Token"
)

// CSRFManager issues per-session tokens of the form nonce.signature. A token
// is accepted only when it equals the one stored in the session and its
// signature matches the configured secret, so a leaked session store dump is
// not enough to forge requests after a secret rotation.
type CSRFManager struct {
	secret []byte
}

func NewCSRFManager(secret string) *CSRFManager {
	return &CSRFManager{secret: []byte(secret)}
}

// EnsureToken returns the session's token, minting one on first use.
func (m *CSRFManager) EnsureToken(_ context.Context, sess *Session) (string, error) {
	if sess == nil {
		return "", ErrCSRFTokenMissing
	}
	if token := sess.Get(CSRFSessionKey); token != "" && m.signed(token) {
		return token, nil
	}
	token := m.mint(sess.ID)
	sess.Set(CSRFSessionKey, token)
	return token, nil
}

// RotateToken drops the current token; the next EnsureToken mints a new one.
// Called whenever the session changes privilege.
func (m *CSRFManager) RotateToken(sess *Session) {
	if sess != nil {
		sess.Delete(CSRFSessionKey)
	}
}

// VerifyToken checks a submitted token against the session.
func (m *CSRFManager) VerifyToken(_ context.Context, sess *Session, token string) error {
	if sess == nil || token == "" {
		return ErrCSRFTokenMissing
	}
	expected := sess.Get(CSRFSessionKey)
	if expected == "" {
		return ErrCSRFTokenMissing
	}
	if !hmac.Equal([]byte(expected), []byte(token)) || !m.signed(token) {
		return ErrCSRFTokenMismatch
	}
	return nil
}

// TokenFromRequest reads the token from the header, then the parsed form.
// Multipart bodies must be parsed by the caller first.
func TokenFromRequest(r *http.Request) string {
	if token := r.Header.Get(CSRFHeader); token != "" {
		return token
	}
	return r.PostFormValue(CSRFFormField)
}

func (m *CSRFManager) mint(sessionID string) string {
	nonce := uuid.NewString() + ":" + sessionID
	encoded := base64.RawURLEncoding.EncodeToString([]byte(nonce))
	return encoded + "." + m.sign(encoded)
}

func (m *CSRFManager) signed(token string) bool {
	nonce, sig, ok := strings.Cut(token, ".")
	if !ok || nonce == "" {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(m.sign(nonce)))
}

func (m *CSRFManager) sign(nonce string) string {
	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write([]byte(nonce))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
