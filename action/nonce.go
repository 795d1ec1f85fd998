// Package action exposes the board's one-click actions over HTTP:
// subscribe, bookmark, stick, close and friends, each protected by a
// signed single-purpose token so a bare link cannot be replayed
// against another user or item.
package action

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrBadToken is returned for malformed or forged tokens.
	ErrBadToken = errors.New("action: invalid token")

	// ErrExpiredToken is returned when the token's window has passed.
	ErrExpiredToken = errors.New("action: token expired")
)

// DefaultTokenTTL matches the classic 24-hour nonce window.
const DefaultTokenTTL = 24 * time.Hour

// Nonces mints and verifies action tokens. A token binds one action,
// one user and one item to an expiry and a random element, signed with
// the board secret.
type Nonces struct {
	secret []byte
	ttl    time.Duration
}

// NewNonces creates a token factory. A non-positive ttl falls back to
// DefaultTokenTTL.
func NewNonces(secret string, ttl time.Duration) *Nonces {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Nonces{secret: []byte(secret), ttl: ttl}
}

// Create mints a token for the action on the item by the user.
func (n *Nonces) Create(action string, userID, itemID int64) string {
	exp := time.Now().Add(n.ttl).Unix()
	nonce := uuid.NewString()
	sig := n.sign(action, userID, itemID, exp, nonce)
	raw := fmt.Sprintf("%d.%s.%s", exp, nonce, sig)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Verify checks that token authorizes the action on the item by the
// user and has not expired.
func (n *Nonces) Verify(token, action string, userID, itemID int64) error {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return ErrBadToken
	}
	parts := strings.SplitN(string(raw), ".", 3)
	if len(parts) != 3 {
		return ErrBadToken
	}
	exp, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return ErrBadToken
	}

	want := n.sign(action, userID, itemID, exp, parts[1])
	if !hmac.Equal([]byte(want), []byte(parts[2])) {
		return ErrBadToken
	}
	if time.Now().Unix() > exp {
		return ErrExpiredToken
	}
	return nil
}

func (n *Nonces) sign(action string, userID, itemID, exp int64, nonce string) string {
	mac := hmac.New(sha256.New, n.secret)
	fmt.Fprintf(mac, "%s|%d|%d|%d|%s", action, userID, itemID, exp, nonce)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
