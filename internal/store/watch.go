package store

import (
	"context"
	"encoding/json"
	"time"

	"scenelinks/internal/model"

	"github.com/zeebo/blake3"
)

const DefaultPollInterval = 750 * time.Millisecond

// Snapshot is the full room state at one revision.
type Snapshot struct {
	Revision    int64
	Items       []model.SceneItem
	Players     []model.Player
	Permissions []string

	// ItemsSum and PlayersSum fingerprint the content, ignoring write
	// timestamps, so rewrites that change nothing are not reported.
	ItemsSum   [32]byte
	PlayersSum [32]byte
}

func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	rev, err := s.Revision(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	items, err := s.Items(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	players, err := s.Players(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	perms, err := s.PlayerPermissions(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{Revision: rev, Items: items, Players: players, Permissions: perms}
	snap.ItemsSum = itemsSum(items)
	snap.PlayersSum = sum(struct {
		Players     []model.Player
		Permissions []string
	}{players, perms})
	return snap, nil
}

func itemsSum(items []model.SceneItem) [32]byte {
	stripped := make([]model.SceneItem, len(items))
	for i, it := range items {
		it.UpdatedAt = time.Time{}
		stripped[i] = it
	}
	return sum(stripped)
}

func sum(v any) [32]byte {
	// encoding/json sorts map keys, so equal content hashes equally.
	b, err := json.Marshal(v)
	if err != nil {
		return [32]byte{}
	}
	return blake3.Sum256(b)
}

// Watch polls the room revision and calls fn with the first snapshot and
// then with every snapshot whose content differs from the last one
// delivered. It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, interval time.Duration, fn func(Snapshot)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	var (
		lastRev   int64 = -1
		last      Snapshot
		delivered bool
	)
	poll := func() {
		rev, err := s.Revision(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.log.Warn("watch: read revision", "err", err)
			}
			return
		}
		if rev == lastRev {
			return
		}
		snap, err := s.Snapshot(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.log.Warn("watch: read snapshot", "err", err)
			}
			return
		}
		lastRev = snap.Revision
		if delivered && snap.ItemsSum == last.ItemsSum && snap.PlayersSum == last.PlayersSum {
			return
		}
		last = snap
		delivered = true
		fn(snap)
	}

	poll()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			poll()
		}
	}
}
