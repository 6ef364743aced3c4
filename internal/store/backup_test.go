package store

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"scenelinks/internal/model"
)

func TestBackupRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	for _, c := range []Compression{CompressionZstd, CompressionLZ4} {
		c := c
		t.Run(string(c), func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			st := openRoom(t, t.TempDir())
			it := addImage(t, st, "Goblin")
			if _, err := st.AddPlayer(ctx, "Dana", model.RoleGM); err != nil {
				t.Fatalf("add player: %v", err)
			}

			var buf bytes.Buffer
			info, err := st.Backup(ctx, &buf, c)
			if err != nil {
				t.Fatalf("backup: %v", err)
			}
			if info.Compression != c || info.RawBytes == 0 || info.Revision == 0 {
				t.Fatalf("unexpected info: %+v", info)
			}

			dst := filepath.Join(t.TempDir(), "restored")
			got, err := Restore(ctx, bytes.NewReader(buf.Bytes()), dst)
			if err != nil {
				t.Fatalf("restore: %v", err)
			}
			if got != c {
				t.Fatalf("detected %q, want %q", got, c)
			}

			restored := openRoom(t, dst)
			items, err := restored.Items(ctx)
			if err != nil {
				t.Fatalf("items: %v", err)
			}
			if len(items) != 1 || items[0].ID != it.ID || items[0].Name != "Goblin" {
				t.Fatalf("unexpected restored items: %+v", items)
			}
			players, err := restored.Players(ctx)
			if err != nil || len(players) != 1 {
				t.Fatalf("unexpected restored players: %+v %v", players, err)
			}

			if _, err := Restore(ctx, bytes.NewReader(buf.Bytes()), dst); !errors.Is(err, ErrRoomExists) {
				t.Fatalf("expected ErrRoomExists, got %v", err)
			}
		})
	}
}

func TestRestoreRejectsUnknownStream(t *testing.T) {
	t.Parallel()

	if _, err := Restore(context.Background(), bytes.NewReader([]byte("SQLite format 3\x00")), t.TempDir()); err == nil {
		t.Fatalf("expected error for uncompressed input")
	}
}

func TestParseCompression(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Compression{"": CompressionZstd, "ZSTD": CompressionZstd, " lz4 ": CompressionLZ4} {
		got, err := ParseCompression(in)
		if err != nil || got != want {
			t.Fatalf("ParseCompression(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseCompression("gzip"); err == nil {
		t.Fatalf("expected gzip to be rejected")
	}
}
