package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func openWithClock(t *testing.T, typ string, opts Options) (Store, *fakeClock) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "seen."+typ)
	store, err := NewStore(typ, path, opts)
	require.NoError(t, err, "NewStore(%s)", typ)
	t.Cleanup(func() { _ = store.Close() })

	clock := &fakeClock{t: time.Now()}
	switch s := store.(type) {
	case *boltStore:
		s.now = clock.Now
	case *sqliteStore:
		s.now = clock.Now
	default:
		t.Fatalf("unexpected store type %T", store)
	}
	return store, clock
}

func TestStoresMarkAndExpireRecords(t *testing.T) {
	for _, typ := range []string{"bbolt", "sqlite"} {
		t.Run(typ, func(t *testing.T) {
			store, clock := openWithClock(t, typ, Options{RecordTTL: time.Minute, CleanupInterval: time.Hour})
			key := RecordKey("daily", "https://news.example.com/a/1")

			seen, err := store.SeenRecord(key)
			require.NoError(t, err)
			assert.False(t, seen)

			require.NoError(t, store.MarkRecord(key))
			seen, err = store.SeenRecord(key)
			require.NoError(t, err)
			assert.True(t, seen)

			clock.Advance(2 * time.Minute)
			seen, err = store.SeenRecord(key)
			require.NoError(t, err)
			assert.False(t, seen, "entry should expire")
		})
	}
}

func TestStoresPurgeOnCleanupInterval(t *testing.T) {
	for _, typ := range []string{"bbolt", "sqlite"} {
		t.Run(typ, func(t *testing.T) {
			store, clock := openWithClock(t, typ, Options{RecordTTL: time.Minute, CleanupInterval: 10 * time.Minute})
			require.NoError(t, store.MarkRecord("old"))

			clock.Advance(11 * time.Minute)
			require.NoError(t, store.MarkRecord("fresh"))

			assert.Equal(t, 1, countKeys(t, store))
		})
	}
}

func countKeys(t *testing.T, store Store) int {
	t.Helper()
	switch s := store.(type) {
	case *boltStore:
		n := 0
		require.NoError(t, s.db.View(func(tx *bolt.Tx) error {
			n = tx.Bucket([]byte(recordBucket)).Stats().KeyN
			return nil
		}))
		return n
	case *sqliteStore:
		var n int
		require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM seen_records`).Scan(&n))
		return n
	}
	t.Fatalf("unexpected store type %T", store)
	return 0
}

func TestRecordKeyScopesByName(t *testing.T) {
	link := "https://news.example.com/a/1"
	assert.NotEqual(t, RecordKey("a", link), RecordKey("b", link))
	assert.Equal(t, RecordKey("a", link), RecordKey("a", " "+link+" "))
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	require.NoError(t, err)
	require.NoError(t, store.MarkRecord("x"))
	seen, err := store.SeenRecord("x")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestNewStoreRejectsUnknownAndPathless(t *testing.T) {
	_, err := NewStore("redis", "x", Options{})
	assert.Error(t, err)
	_, err = NewStore("sqlite", " ", Options{})
	assert.Error(t, err)
}
