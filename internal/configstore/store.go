package configstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v4"
	badgerOpts "github.com/dgraph-io/badger/v4/options"

	"github.com/nxp-qmc/qmc2g-core/internal/qmcerr"
)

// ============================================================================
// Key Namespace Design
// ============================================================================
//
// A single "seal" entry under "s:" holds the sealed ciphertext of the whole
// cell table, written only by UpdateFlash. The RAM shadow (cells) is the
// sole source of truth for Get/Set; badger holds only the last sealed
// snapshot, which Open/Load decrypt to rehydrate the shadow on restart.
// Cells set since the last UpdateFlash are not persisted. The "c:" prefix
// and keyCell are reserved for a per-cell layout that nothing writes.
//
// Data Type        Prefix  Key Format    Value Type
// ===========================================================
// Sealed image     "s:"    s:image       nonce || ciphertext || tag

const (
	prefixCell  = "c:"
	prefixSeal  = "s:"
	sealKey     = prefixSeal + "image"
)

func keyCell(k Key) []byte {
	b := make([]byte, len(prefixCell)+2)
	copy(b, prefixCell)
	binary.BigEndian.PutUint16(b[len(prefixCell):], uint16(k))
	return b
}

// SealProvider wraps the configuration image with the secure element's
// ConfigEnc key on commit and unwraps it on load, standing in for the
// not-yet-built secure element binding the same way logpipeline.KeyProvider
// decouples log export encryption from it.
type SealProvider interface {
	// Seal authenticates and encrypts plaintext, returning a
	// self-contained blob (e.g. nonce||ciphertext||tag).
	Seal(plaintext []byte) ([]byte, error)
	// Open reverses Seal, returning ErrSealVerifyFailed-wrapped errors on
	// any authentication failure.
	Open(blob []byte) ([]byte, error)
}

// Store is the keyed configuration cell table: a RAM shadow of every cell
// plus durable, encrypted-at-rest persistence committed on UpdateFlash.
type Store struct {
	mu    sync.RWMutex
	cells map[Key][]byte

	db   *badgerdb.DB
	seal SealProvider
}

// Open opens or creates the badger database at dir and loads the most
// recently sealed configuration image into the RAM shadow, if one exists.
// seal may be nil only in configurations that never call UpdateFlash or
// Load (e.g. tests exercising the RAM shadow alone).
func Open(dir string, seal SealProvider) (*Store, error) {
	opts := badgerdb.DefaultOptions(dir).
		WithLogger(nil).
		WithCompression(badgerOpts.None)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open configuration store: %w", err)
	}

	s := &Store{
		cells: make(map[Key][]byte),
		db:    db,
		seal:  seal,
	}

	if err := s.Load(); err != nil && !qmcerr.Is(err, qmcerr.Internal) {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetBin returns the raw bytes stored at k, or ok=false if the cell is
// unset, mirroring CONFIG_GetBinValueById's no-default-applied contract
// used internally before accessors.go layers type-specific defaults on top.
func (s *Store) GetBin(k Key) (value []byte, ok bool, err error) {
	if !k.Valid() {
		return nil, false, fmt.Errorf("key %d: %w", k, ErrUnknownKey)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.cells[k]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// SetBin stores value at k in the RAM shadow only. This does not persist
// to the underlying database or flip the sealed image; a caller must call
// UpdateFlash to commit, mirroring CONFIG_SetBinValueById's documented
// behavior that setting a value alone never triggers a flash write.
func (s *Store) SetBin(k Key, value []byte) error {
	if k == KeyNone {
		return ErrKeyNoneInvalid
	}
	if !k.Valid() {
		return fmt.Errorf("key %d: %w", k, ErrUnknownKey)
	}
	if len(value) > MaxValueLen {
		return ErrValueTooLong
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.cells[k] = cp
	return nil
}

// Unset clears k's cell so a subsequent read falls back to its default.
func (s *Store) Unset(k Key) error {
	if !k.Valid() {
		return fmt.Errorf("key %d: %w", k, ErrUnknownKey)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cells, k)
	return nil
}

// snapshot serializes every set cell to a single deterministic image:
// a count, followed by key/length/value triples in ascending key order.
func (s *Store) snapshot() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]Key, 0, len(s.cells))
	for k := range s.cells {
		keys = append(keys, k)
	}
	sortKeys(keys)

	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(len(keys)))
	for _, k := range keys {
		v := s.cells[k]
		entry := make([]byte, 2+2+len(v))
		binary.BigEndian.PutUint16(entry[0:2], uint16(k))
		binary.BigEndian.PutUint16(entry[2:4], uint16(len(v)))
		copy(entry[4:], v)
		buf = append(buf, entry...)
	}
	return buf
}

func sortKeys(keys []Key) {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
}

func restoreSnapshot(buf []byte) (map[Key][]byte, error) {
	if len(buf) < 4 {
		return nil, ErrSealVerifyFailed
	}
	count := binary.BigEndian.Uint32(buf[0:4])
	cells := make(map[Key][]byte, count)
	off := 4
	for i := uint32(0); i < count; i++ {
		if off+4 > len(buf) {
			return nil, ErrSealVerifyFailed
		}
		k := Key(binary.BigEndian.Uint16(buf[off : off+2]))
		n := int(binary.BigEndian.Uint16(buf[off+2 : off+4]))
		off += 4
		if off+n > len(buf) {
			return nil, ErrSealVerifyFailed
		}
		cells[k] = append([]byte{}, buf[off:off+n]...)
		off += n
	}
	return cells, nil
}

// UpdateFlash seals the current RAM shadow with the attached SealProvider
// and commits it to the underlying database, mirroring CONFIG_UpdateFlash.
// It is the only Store operation that writes to the database.
func (s *Store) UpdateFlash() error {
	if s.seal == nil {
		return fmt.Errorf("no seal provider attached: %w", qmcerr.Internal)
	}
	plain := s.snapshot()
	blob, err := s.seal.Seal(plain)
	if err != nil {
		return fmt.Errorf("seal configuration image: %w", err)
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(sealKey), blob)
	})
}

// Load rehydrates the RAM shadow from the most recently sealed image, if
// one exists. It returns ErrNotSealed if no image has ever been committed,
// and ErrSealVerifyFailed if the stored image fails authentication.
func (s *Store) Load() error {
	if s.seal == nil {
		return fmt.Errorf("no seal provider attached: %w", qmcerr.Internal)
	}

	var blob []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(sealKey))
		if err == badgerdb.ErrKeyNotFound {
			return ErrNotSealed
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			blob = append([]byte{}, val...)
			return nil
		})
	})
	if err != nil {
		return err
	}

	plain, err := s.seal.Open(blob)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSealVerifyFailed, err)
	}
	cells, err := restoreSnapshot(plain)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cells = cells
	s.mu.Unlock()
	return nil
}

// aesGCMSeal is a SealProvider backed directly by an in-process AES-256-GCM
// key, for use where a secure element is unavailable (tests, development
// builds without the SE stack attached).
type aesGCMSeal struct {
	key [32]byte
}

// NewAESGCMSeal returns a SealProvider over key, sized for AES-256-GCM.
func NewAESGCMSeal(key [32]byte) SealProvider {
	return &aesGCMSeal{key: key}
}

func (a *aesGCMSeal) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(a.key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (a *aesGCMSeal) Seal(plaintext []byte) ([]byte, error) {
	gcm, err := a.gcm()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (a *aesGCMSeal) Open(blob []byte) ([]byte, error) {
	gcm, err := a.gcm()
	if err != nil {
		return nil, err
	}
	if len(blob) < gcm.NonceSize() {
		return nil, fmt.Errorf("sealed image too short")
	}
	nonce, ct := blob[:gcm.NonceSize()], blob[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ct, nil)
}
