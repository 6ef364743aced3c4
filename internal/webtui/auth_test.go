package webtui

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestLoadOrInitSecretKeyIsStable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a, err := LoadOrInitSecretKey(dir)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	b, err := LoadOrInitSecretKey(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(a) == 0 || string(a) != string(b) {
		t.Fatalf("expected the same key twice, got %q and %q", a, b)
	}
	st, err := os.Stat(SecretKeyPath(dir))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 key file, got %v", st.Mode().Perm())
	}
}

func TestParseInvite(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	now := time.Now()

	tok, err := NewInviteToken(secret, Invite{Room: "crypt", Player: "player-1"}, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	inv, err := ParseInvite(secret, tok, "crypt", now)
	if err != nil || inv.Player != "player-1" || inv.Room != "crypt" {
		t.Fatalf("parse: %+v %v", inv, err)
	}
	if !inv.Expires.After(now) {
		t.Fatalf("expected expiry in the future, got %v", inv.Expires)
	}

	if _, err := ParseInvite(secret, tok, "crypt", now.Add(2*time.Hour)); !errors.Is(err, ErrInviteExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
	if _, err := ParseInvite(secret, tok, "tavern", now); !errors.Is(err, ErrInviteInvalid) {
		t.Fatalf("expected other room refused, got %v", err)
	}
	if _, err := ParseInvite([]byte("other"), tok, "crypt", now); !errors.Is(err, ErrInviteInvalid) {
		t.Fatalf("expected signature failure, got %v", err)
	}
	if _, err := ParseInvite(secret, "nodot", "crypt", now); !errors.Is(err, ErrInviteInvalid) {
		t.Fatalf("expected format failure, got %v", err)
	}
	if _, err := NewInviteToken(secret, Invite{Player: " "}, time.Hour); err == nil {
		t.Fatalf("expected missing player error")
	}

	again, err := NewInviteToken(secret, Invite{Room: "crypt", Player: "player-1"}, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if again == tok {
		t.Fatalf("expected distinct tokens per invite")
	}
}
