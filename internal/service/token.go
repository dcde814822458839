package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"retiro-api/internal/models"
)

// ActivationTokens issues and checks the single-use tokens embedded in
// activation emails. The HMAC covers the user's id, active flag and password
// hash, so flipping the account active (or changing the password) invalidates
// every previously issued token. No server-side storage.
type ActivationTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewActivationTokens(secret string, ttl time.Duration) *ActivationTokens {
	return &ActivationTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *ActivationTokens) Make(u *models.User) string {
	ts := strconv.FormatInt(t.now().Unix(), 36)
	return ts + "-" + t.sign(u, ts)
}

func (t *ActivationTokens) Check(u *models.User, token string) bool {
	ts, sig, ok := strings.Cut(token, "-")
	if !ok {
		return false
	}
	issued, err := strconv.ParseInt(ts, 36, 64)
	if err != nil {
		return false
	}
	if t.now().Sub(time.Unix(issued, 0)) > t.ttl {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(t.sign(u, ts)))
}

func (t *ActivationTokens) sign(u *models.User, ts string) string {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(u.ID))
	mac.Write([]byte{0})
	mac.Write([]byte(strconv.FormatBool(u.Active)))
	mac.Write([]byte{0})
	mac.Write([]byte(u.PasswordHash))
	mac.Write([]byte{0})
	mac.Write([]byte(ts))
	return hex.EncodeToString(mac.Sum(nil))
}

// EncodeUID / DecodeUID wrap the user reference carried in activation URLs.
func EncodeUID(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

func DecodeUID(s string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
