package store

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type Compression string

const (
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

var ErrRoomExists = errors.New("room already exists")

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

func ParseCompression(s string) (Compression, error) {
	switch Compression(strings.ToLower(strings.TrimSpace(s))) {
	case "", CompressionZstd:
		return CompressionZstd, nil
	case CompressionLZ4:
		return CompressionLZ4, nil
	default:
		return "", fmt.Errorf("unknown compression: %q (want zstd or lz4)", s)
	}
}

type BackupInfo struct {
	Revision    int64       `json:"revision"`
	Compression Compression `json:"compression"`
	RawBytes    int64       `json:"rawBytes"`
}

// Backup writes a consistent compressed copy of the room database to w.
// Other viewers may keep writing while it runs.
func (s *Store) Backup(ctx context.Context, w io.Writer, c Compression) (BackupInfo, error) {
	tmpDir, err := os.MkdirTemp("", "scenelinks-backup-*")
	if err != nil {
		return BackupInfo{}, err
	}
	defer os.RemoveAll(tmpDir)

	snap := filepath.Join(tmpDir, roomFileName)
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, snap); err != nil {
		return BackupInfo{}, fmt.Errorf("snapshot room: %w", err)
	}

	f, err := os.Open(snap)
	if err != nil {
		return BackupInfo{}, err
	}
	defer f.Close()

	info := BackupInfo{Compression: c}
	if info.Revision, err = s.Revision(ctx); err != nil {
		return BackupInfo{}, err
	}

	var enc io.WriteCloser
	switch c {
	case CompressionZstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return BackupInfo{}, err
		}
		enc = zw
	case CompressionLZ4:
		enc = lz4.NewWriter(w)
	default:
		return BackupInfo{}, fmt.Errorf("unknown compression: %q", c)
	}

	n, err := io.Copy(enc, f)
	if err != nil {
		_ = enc.Close()
		return BackupInfo{}, err
	}
	if err := enc.Close(); err != nil {
		return BackupInfo{}, err
	}
	info.RawBytes = n
	s.log.Info("room backed up", "path", s.path, "compression", c, "bytes", n)
	return info, nil
}

// Restore unpacks a backup written by Backup into dir. The codec is
// detected from the stream; dir must not already hold a room.
func Restore(ctx context.Context, r io.Reader, dir string) (Compression, error) {
	if Exists(dir) {
		return "", fmt.Errorf("%w: %s", ErrRoomExists, dir)
	}
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil {
		return "", fmt.Errorf("read backup header: %w", err)
	}

	var c Compression
	var src io.Reader
	switch {
	case bytes.Equal(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return "", err
		}
		defer zr.Close()
		c, src = CompressionZstd, zr
	case bytes.Equal(head, lz4Magic):
		c, src = CompressionLZ4, lz4.NewReader(br)
	default:
		return "", errors.New("not a room backup (unknown compression)")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, ".restore-*.sqlite")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := io.Copy(tmp, contextReader{ctx: ctx, r: src}); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("unpack backup: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmpName, RoomPath(dir)); err != nil {
		return "", err
	}
	return c, nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
