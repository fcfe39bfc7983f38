package session

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/sabaimran/vox-locus/pkg/jsontime"
	"github.com/sabaimran/vox-locus/pkg/kv"
)

// Key layout:
//
//	ses/{YYYYMMDD}/{ts_ns}  → msgpack-encoded Manifest
//
// The date partition keeps day scans cheap and the nanosecond
// timestamp (taken from the session start) makes lexicographic key
// order match chronological order.

// Manifest is the catalog record of one closed session. StartedAt is
// Unix nanoseconds; msgpack has no native encoding for wrapped time
// types, so the record sticks to scalars.
type Manifest struct {
	ID        string            `msgpack:"id" json:"id"`
	StartedAt int64             `msgpack:"started_at" json:"started_at"`
	Duration  jsontime.Duration `msgpack:"duration" json:"duration"`
	Chunks    int               `msgpack:"chunks" json:"chunks"`
	Frames    int64             `msgpack:"frames" json:"frames"`
	Engine    string            `msgpack:"engine" json:"engine"`
	Dir       string            `msgpack:"dir" json:"dir"`
	FullText  string            `msgpack:"full_text" json:"full_text,omitempty"`
}

// Started returns StartedAt as a time.Time.
func (m Manifest) Started() time.Time {
	return time.Unix(0, m.StartedAt)
}

// NewID returns a fresh session ID.
func NewID() string {
	return "ses_" + uuid.New().String()[:12]
}

// Catalog persists session manifests in a key-value store so past
// sessions can be listed and reopened from the CLI.
type Catalog struct {
	store kv.Store
}

// NewCatalog wraps a store. The caller keeps ownership and closes it.
func NewCatalog(store kv.Store) *Catalog {
	return &Catalog{store: store}
}

// Put stores a manifest. A missing ID or start time is filled in.
func (c *Catalog) Put(ctx context.Context, m Manifest) error {
	if m.ID == "" {
		m.ID = NewID()
	}
	if m.StartedAt == 0 {
		m.StartedAt = time.Now().UnixNano()
	}
	data, err := msgpack.Marshal(m)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, manifestKey(m.Started()), data)
}

// Get retrieves a manifest by session ID. Keys are time-based, so
// this scans the catalog; session counts are small enough that the
// scan does not matter.
func (c *Catalog) Get(ctx context.Context, id string) (*Manifest, error) {
	for entry, err := range c.store.List(ctx, catalogPrefix) {
		if err != nil {
			return nil, err
		}
		var m Manifest
		if err := msgpack.Unmarshal(entry.Value, &m); err != nil {
			continue // skip malformed entries
		}
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, kv.ErrNotFound
}

// Recent returns the n most recent manifests, newest first.
func (c *Catalog) Recent(ctx context.Context, n int) ([]Manifest, error) {
	if n <= 0 {
		return nil, nil
	}
	var all []Manifest
	for entry, err := range c.store.List(ctx, catalogPrefix) {
		if err != nil {
			return nil, err
		}
		var m Manifest
		if err := msgpack.Unmarshal(entry.Value, &m); err != nil {
			continue
		}
		all = append(all, m)
	}
	// List is ascending; reverse for newest first.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

// Prune deletes all but the newest keep manifests and reports how
// many were removed.
func (c *Catalog) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	var keys []kv.Key
	for entry, err := range c.store.List(ctx, catalogPrefix) {
		if err != nil {
			return 0, err
		}
		keys = append(keys, entry.Key)
	}
	if len(keys) <= keep {
		return 0, nil
	}
	drop := keys[:len(keys)-keep]
	if err := c.store.BatchDelete(ctx, drop); err != nil {
		return 0, err
	}
	return len(drop), nil
}

// Delete removes a manifest by session ID. Returns kv.ErrNotFound
// when no manifest has that ID.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	for entry, err := range c.store.List(ctx, catalogPrefix) {
		if err != nil {
			return err
		}
		var m Manifest
		if err := msgpack.Unmarshal(entry.Value, &m); err != nil {
			continue
		}
		if m.ID == id {
			return c.store.Delete(ctx, entry.Key)
		}
	}
	return kv.ErrNotFound
}

var catalogPrefix = kv.Key{"ses"}

func manifestKey(start time.Time) kv.Key {
	return kv.Key{
		"ses",
		start.UTC().Format("20060102"),
		strconv.FormatInt(start.UnixNano(), 10),
	}
}
