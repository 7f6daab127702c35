// Package store is the distributed-storage collaborator that spec.md's
// Purpose section describes as external to the Reed-Solomon core: it hands
// the codec in-memory shard arrays and persists, encrypts, and checksums
// whatever comes back. None of this changes the core's semantics; the codec
// never sees a bbolt handle, a cipher, or a digest.
package store

import (
	"sync"

	"github.com/aead/chacha20"
	"github.com/pkg/errors"
	"gitlab.com/NebulousLabs/Sia/types"
	"gitlab.com/NebulousLabs/encoding"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/crypto/blake2b"

	"go.shardkit.dev/rs8"
)

var placementsBucket = []byte("placements")
var shardsBucket = []byte("shards")

// A Placement is the durable record of how one object's shards were last
// encoded: their lengths, a digest of each shard's plaintext (the integrity
// check spec.md leaves to the caller, since the codec corrects erasures at
// known positions, not silent corruption), and the height at which the
// placement was written.
type Placement struct {
	ShardLengths []int
	Digests      [][blake2b.Size256]byte
	Height       types.BlockHeight
}

// A ShardStore persists the shards produced by a *rs8.ReedSolomon codec in a
// bbolt database, encrypting each shard at rest with XChaCha20 under a
// per-object sub-key.
type ShardStore struct {
	db    *bolt.DB
	codec *rs8.ReedSolomon
	key   [32]byte

	mu       sync.Mutex
	objLocks map[string]*sync.Mutex
	logger   Logger
}

// A Logger is the minimal interface ShardStore uses to report operational
// events; *log.Logger satisfies it. A ShardStore built by NewShardStore
// without WithLogger logs nothing.
type Logger interface {
	Printf(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}

// A StoreOption configures a ShardStore at construction time.
type StoreOption func(*ShardStore)

// WithLogger sets the Logger a ShardStore reports operational events to.
func WithLogger(l Logger) StoreOption {
	return func(s *ShardStore) { s.logger = l }
}

// NewShardStore opens (creating if necessary) the buckets a ShardStore needs
// in db, and returns a ShardStore that encodes/decodes via codec and
// encrypts shards under key.
func NewShardStore(db *bolt.DB, codec *rs8.ReedSolomon, key *[32]byte, opts ...StoreOption) (*ShardStore, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(placementsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(shardsBucket)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "store: creating buckets")
	}

	s := &ShardStore{
		db:       db,
		codec:    codec,
		key:      *key,
		objLocks: make(map[string]*sync.Mutex),
		logger:   nopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// lock returns (creating if necessary) the per-object mutex for objectID:
// callers writing to the same object serialize, but unrelated objects do
// not contend with each other.
func (s *ShardStore) lock(objectID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.objLocks[objectID]
	if !ok {
		l = new(sync.Mutex)
		s.objLocks[objectID] = l
	}
	return l
}

// shardKey returns the bbolt key for shard index i of objectID.
func shardKey(objectID string, i int) []byte {
	return append([]byte(objectID+"/"), byte(i>>8), byte(i))
}

// subKey derives the per-object, per-shard stream-cipher key used to
// encrypt one shard, so that compromising one object's key material does
// not expose every object in the store.
func subKey(base *[32]byte, objectID string, shard int) [32]byte {
	var msg []byte
	msg = append(msg, objectID...)
	msg = append(msg, byte(shard>>8), byte(shard))
	msg = append(msg, base[:]...)
	return blake2b.Sum256(msg)
}

// shardNonce is fixed per (objectID, shard): the key used with it is itself
// derived per-object-per-shard by subKey, so nonce reuse under a single key
// never occurs.
var shardNonce = make([]byte, 24)

func encryptShard(base *[32]byte, objectID string, shard int, plaintext []byte) ([]byte, error) {
	k := subKey(base, objectID, shard)
	c, err := chacha20.NewCipher(shardNonce, k[:])
	if err != nil {
		return nil, errors.Wrap(err, "store: constructing cipher")
	}
	out := make([]byte, len(plaintext))
	c.XORKeyStream(out, plaintext)
	return out, nil
}

func decryptShard(base *[32]byte, objectID string, shard int, ciphertext []byte) ([]byte, error) {
	// XChaCha20 is a symmetric stream cipher: decryption is the same
	// keystream XOR as encryption.
	return encryptShard(base, objectID, shard, ciphertext)
}

// Put encodes data (K data shards) with s's codec, encrypts and persists all
// N resulting shards, and records a Placement for objectID at height.
func (s *ShardStore) Put(objectID string, data [][]byte, height types.BlockHeight) error {
	l := s.lock(objectID)
	l.Lock()
	defer l.Unlock()

	if len(data) != s.codec.K {
		return errors.Errorf("store: Put requires exactly %d data shards, got %d", s.codec.K, len(data))
	}
	shardLen := len(data[0])
	full := make([][]byte, s.codec.N)
	copy(full, data)
	for i := s.codec.K; i < s.codec.N; i++ {
		full[i] = make([]byte, shardLen)
	}
	if err := s.codec.Encode(full); err != nil {
		return errors.Wrap(err, "store: encoding object")
	}

	p := Placement{
		ShardLengths: make([]int, s.codec.N),
		Digests:      make([][blake2b.Size256]byte, s.codec.N),
		Height:       height,
	}
	encrypted := make([][]byte, s.codec.N)
	for i, shard := range full {
		p.ShardLengths[i] = len(shard)
		p.Digests[i] = blake2b.Sum256(shard)
		ct, err := encryptShard(&s.key, objectID, i, shard)
		if err != nil {
			return err
		}
		encrypted[i] = ct
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		pb := tx.Bucket(placementsBucket)
		if err := pb.Put([]byte(objectID), encoding.Marshal(p)); err != nil {
			return err
		}
		sb := tx.Bucket(shardsBucket)
		for i, ct := range encrypted {
			if err := sb.Put(shardKey(objectID, i), ct); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "store: persisting object %q", objectID)
	}
	s.logger.Printf("store: placed object %q (%d shards, height %d)", objectID, s.codec.N, height)
	return nil
}

// placement loads and decodes the Placement record for objectID.
func (s *ShardStore) placement(objectID string) (Placement, error) {
	var p Placement
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(placementsBucket).Get([]byte(objectID))
		if raw == nil {
			return errors.Errorf("store: no placement for object %q", objectID)
		}
		return encoding.Unmarshal(raw, &p)
	})
	return p, err
}

// Get returns the N-shard array for objectID, with shard i populated only
// if present[i] is true (or present is nil, meaning fetch everything). A
// shard that is absent or not requested is represented by a nil entry, the
// same erasure convention rs8.ReedSolomon.Decode expects.
func (s *ShardStore) Get(objectID string, present []bool) ([][]byte, error) {
	p, err := s.placement(objectID)
	if err != nil {
		return nil, err
	}
	shards := make([][]byte, len(p.ShardLengths))
	err = s.db.View(func(tx *bolt.Tx) error {
		sb := tx.Bucket(shardsBucket)
		for i := range shards {
			if present != nil && (i >= len(present) || !present[i]) {
				continue
			}
			ct := sb.Get(shardKey(objectID, i))
			if ct == nil {
				continue
			}
			pt, err := decryptShard(&s.key, objectID, i, ct)
			if err != nil {
				return err
			}
			shards[i] = pt
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "store: fetching object %q", objectID)
	}
	return shards, nil
}

// Repair fills in any shards missing from shards (nil or zero-length
// entries) by invoking the codec's Decode, then re-Puts the completed shard
// set for objectID under its last recorded height so future Gets no longer
// need to repair it.
func (s *ShardStore) Repair(objectID string, shards [][]byte) ([][]byte, error) {
	p, err := s.placement(objectID)
	if err != nil {
		return nil, err
	}
	if err := s.codec.Decode(shards); err != nil {
		return nil, errors.Wrapf(err, "store: repairing object %q", objectID)
	}
	if err := s.Put(objectID, shards[:s.codec.K], p.Height); err != nil {
		return nil, err
	}
	s.logger.Printf("store: repaired object %q", objectID)
	return shards, nil
}
