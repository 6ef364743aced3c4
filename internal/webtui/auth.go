package webtui

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrInviteInvalid = errors.New("invalid invite")
	ErrInviteExpired = errors.New("invite expired")
)

// Invite admits one player of one room to the browser panel.
type Invite struct {
	Room    string    `json:"room"`
	Player  string    `json:"player"`
	Expires time.Time `json:"-"`
}

// wire form; Nonce keeps two invites for the same player distinct.
type invitePayload struct {
	Room   string `json:"r,omitempty"`
	Player string `json:"p"`
	Exp    int64  `json:"e"`
	Nonce  string `json:"n"`
}

func SecretKeyPath(roomDir string) string {
	return filepath.Join(filepath.Clean(strings.TrimSpace(roomDir)), "web", "secret.key")
}

// LoadOrInitSecretKey returns the room's invite signing key, creating it on
// first use. Deleting the file revokes every outstanding invite.
func LoadOrInitSecretKey(roomDir string) ([]byte, error) {
	path := SecretKeyPath(roomDir)
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if key := strings.TrimSpace(string(b)); key != "" {
			return []byte(key), nil
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	key := randomString(32)
	if err := os.WriteFile(path, []byte(key+"\n"), 0o600); err != nil {
		return nil, err
	}
	return []byte(key), nil
}

func randomString(n int) string {
	b := make([]byte, n)
	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func mac(secret []byte, payload string) []byte {
	h := hmac.New(sha256.New, secret)
	_, _ = h.Write([]byte(payload))
	return h.Sum(nil)
}

// NewInviteToken signs inv, valid for ttl from now.
func NewInviteToken(secret []byte, inv Invite, ttl time.Duration) (string, error) {
	inv.Player = strings.TrimSpace(inv.Player)
	if inv.Player == "" {
		return "", errors.New("invite: missing player")
	}
	if ttl <= 0 {
		return "", errors.New("invite: ttl must be positive")
	}
	b, err := json.Marshal(invitePayload{
		Room:   inv.Room,
		Player: inv.Player,
		Exp:    time.Now().Add(ttl).Unix(),
		Nonce:  randomString(12),
	})
	if err != nil {
		return "", err
	}
	body := base64.RawURLEncoding.EncodeToString(b)
	return body + "." + base64.RawURLEncoding.EncodeToString(mac(secret, body)), nil
}

// ParseInvite checks token's signature, expiry and room.
func ParseInvite(secret []byte, token, room string, now time.Time) (Invite, error) {
	body, sig, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || body == "" {
		return Invite{}, fmt.Errorf("%w: malformed token", ErrInviteInvalid)
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || !hmac.Equal(mac(secret, body), got) {
		return Invite{}, fmt.Errorf("%w: bad signature", ErrInviteInvalid)
	}
	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return Invite{}, fmt.Errorf("%w: bad payload", ErrInviteInvalid)
	}
	var p invitePayload
	if err := json.Unmarshal(raw, &p); err != nil || strings.TrimSpace(p.Player) == "" || p.Exp == 0 {
		return Invite{}, fmt.Errorf("%w: bad payload", ErrInviteInvalid)
	}
	if p.Room != room {
		return Invite{}, fmt.Errorf("%w: issued for another room", ErrInviteInvalid)
	}
	inv := Invite{Room: p.Room, Player: p.Player, Expires: time.Unix(p.Exp, 0)}
	if now.After(inv.Expires) {
		return Invite{}, ErrInviteExpired
	}
	return inv, nil
}
