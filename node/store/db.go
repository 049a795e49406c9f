package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/VeriBlock/nodecore-sub002/consensus"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketBtcBlocks   = []byte("btc_blocks_by_hash")
	bucketVbkBlocks   = []byte("vbk_blocks_by_hash")
	bucketVbkByHeight = []byte("vbk_hash_by_height")
	bucketVtbs        = []byte("vtbs_by_id")
	bucketAtvs        = []byte("atvs_by_id")
	bucketStatus      = []byte("status_by_id")
)

var ErrNetworkMismatch = errors.New("store: network mismatch")

// Status is the last validation outcome recorded for a publication.
type Status byte

const (
	StatusUnknown Status = 0
	StatusValid   Status = 1
	StatusInvalid Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusInvalid:
		return "invalid"
	}
	return "unknown"
}

type StatusEntry struct {
	Status    Status
	Reason    string // empty unless Status is StatusInvalid
	CheckedAt time.Time
}

// DB persists encoded headers and publications keyed by their hashes. It
// holds no proof logic: callers decide what is valid before storing it.
type DB struct {
	dir string
	db  *bolt.DB

	mu       sync.Mutex
	manifest *Manifest
}

func Open(datadir string, network string) (*DB, error) {
	if datadir == "" {
		return nil, fmt.Errorf("datadir required")
	}
	if network == "" {
		return nil, fmt.Errorf("network required")
	}

	dir := NetworkDir(datadir, network)
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Join(dir, "db")); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, "db", "pop.db")
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}

	d := &DB{dir: dir, db: bdb}

	buckets := [][]byte{bucketBtcBlocks, bucketVbkBlocks, bucketVbkByHeight, bucketVtbs, bucketAtvs, bucketStatus}
	if err := d.db.Update(func(tx *bolt.Tx) error {
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}

	m, err := readManifest(dir)
	switch {
	case os.IsNotExist(err):
		m = &Manifest{SchemaVersion: SchemaVersionV1, Network: network, VbkTipHeight: -1}
		if err := writeManifestAtomic(dir, m); err != nil {
			_ = bdb.Close()
			return nil, err
		}
		log.Infof("Initialized %s store at %s", network, dir)
	case err != nil:
		_ = bdb.Close()
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if m.SchemaVersion > SchemaVersionV1 {
		_ = bdb.Close()
		return nil, fmt.Errorf("manifest schema_version %d > supported %d", m.SchemaVersion, SchemaVersionV1)
	}
	if m.Network != network {
		_ = bdb.Close()
		return nil, fmt.Errorf("%w: store holds %q, opened as %q", ErrNetworkMismatch, m.Network, network)
	}
	d.manifest = m
	return d, nil
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *DB) Dir() string { return d.dir }

// Manifest returns a copy of the current manifest.
func (d *DB) Manifest() Manifest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return *d.manifest
}

// noteWrites folds a committed write into the manifest.
func (d *DB) noteWrites(tip *consensus.VbkBlock, newPublications int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	m := *d.manifest
	if tip != nil && tip.Height > m.VbkTipHeight {
		m.VbkTipHeight = tip.Height
		m.VbkTipHashHex = tip.Hash().String()
	}
	// #nosec G115 -- newPublications is a non-negative count.
	m.Publications += uint64(newPublications)
	if m == *d.manifest {
		return nil
	}
	if err := writeManifestAtomic(d.dir, &m); err != nil {
		return err
	}
	d.manifest = &m
	return nil
}

func (d *DB) PutBtcBlock(b *consensus.BtcBlock) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return putBtcBlock(tx, b)
	})
}

func (d *DB) GetBtcBlock(hash consensus.Sha256Hash) (*consensus.BtcBlock, bool, error) {
	v, ok, err := d.get(bucketBtcBlocks, hash[:])
	if err != nil || !ok {
		return nil, false, err
	}
	b, err := consensus.ParseBtcBlockHeader(v)
	if err != nil {
		return nil, false, fmt.Errorf("btc block %s: %w", hash.BtcString(), err)
	}
	return b, true, nil
}

func (d *DB) PutVbkBlock(b *consensus.VbkBlock) error {
	if err := d.db.Update(func(tx *bolt.Tx) error {
		return putVbkBlock(tx, b)
	}); err != nil {
		return err
	}
	return d.noteWrites(b, 0)
}

func (d *DB) GetVbkBlock(hash consensus.VBlakeHash) (*consensus.VbkBlock, bool, error) {
	v, ok, err := d.get(bucketVbkBlocks, hash[:])
	if err != nil || !ok {
		return nil, false, err
	}
	b, err := consensus.ParseVbkBlockHeader(v)
	if err != nil {
		return nil, false, fmt.Errorf("vbk block %s: %w", hash, err)
	}
	return b, true, nil
}

// GetVbkBlockByHeight returns the last block stored at height.
func (d *DB) GetVbkBlockByHeight(height int32) (*consensus.VbkBlock, bool, error) {
	if height < 0 {
		return nil, false, nil
	}
	hash, ok, err := d.get(bucketVbkByHeight, heightKey(height))
	if err != nil || !ok {
		return nil, false, err
	}
	h, err := consensus.NewVBlakeHash(hash)
	if err != nil {
		return nil, false, fmt.Errorf("height index %d: %w", height, err)
	}
	return d.GetVbkBlock(h)
}

// PutVtb stores p, its VeriBlock chain and its Bitcoin blocks in one
// transaction, and returns the publication ID.
func (d *DB) PutVtb(p *consensus.VbkPublication) (consensus.Sha256Hash, error) {
	id := p.ID()
	added := 0
	err := d.db.Update(func(tx *bolt.Tx) error {
		fresh, err := putIfAbsent(tx.Bucket(bucketVtbs), id[:], p.Encode())
		if err != nil {
			return err
		}
		if fresh {
			added++
		}
		for _, b := range p.Chain() {
			if err := putVbkBlock(tx, b); err != nil {
				return err
			}
		}
		ptx := p.Transaction
		if err := putVbkBlock(tx, ptx.PublishedBlock); err != nil {
			return err
		}
		for _, b := range append(append([]*consensus.BtcBlock(nil), ptx.BlockOfProofContext...), ptx.BlockOfProof) {
			if err := putBtcBlock(tx, b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return consensus.Sha256Hash{}, err
	}
	log.Debugf("Stored VTB %s (new=%v, %d VeriBlock blocks)", id, added > 0, len(p.Context)+1)
	return id, d.noteWrites(p.ContainingBlock, added)
}

func (d *DB) GetVtb(id consensus.Sha256Hash) (*consensus.VbkPublication, bool, error) {
	v, ok, err := d.get(bucketVtbs, id[:])
	if err != nil || !ok {
		return nil, false, err
	}
	p, err := consensus.DecodeVbkPublication(v)
	if err != nil {
		return nil, false, fmt.Errorf("vtb %s: %w", id, err)
	}
	return p, true, nil
}

// PutAtv stores p and its VeriBlock chain in one transaction, and returns
// the publication ID.
func (d *DB) PutAtv(p *consensus.AltPublication) (consensus.Sha256Hash, error) {
	id := p.ID()
	added := 0
	err := d.db.Update(func(tx *bolt.Tx) error {
		fresh, err := putIfAbsent(tx.Bucket(bucketAtvs), id[:], p.Encode())
		if err != nil {
			return err
		}
		if fresh {
			added++
		}
		for _, b := range p.Chain() {
			if err := putVbkBlock(tx, b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return consensus.Sha256Hash{}, err
	}
	log.Debugf("Stored ATV %s (new=%v)", id, added > 0)
	return id, d.noteWrites(p.ContainingBlock, added)
}

func (d *DB) GetAtv(id consensus.Sha256Hash) (*consensus.AltPublication, bool, error) {
	v, ok, err := d.get(bucketAtvs, id[:])
	if err != nil || !ok {
		return nil, false, err
	}
	p, err := consensus.DecodeAltPublication(v)
	if err != nil {
		return nil, false, fmt.Errorf("atv %s: %w", id, err)
	}
	return p, true, nil
}

// ForEachVtb calls fn for every stored VTB in key order.
func (d *DB) ForEachVtb(fn func(id consensus.Sha256Hash, p *consensus.VbkPublication) error) error {
	return forEach(d, bucketVtbs, consensus.DecodeVbkPublication, fn)
}

// ForEachAtv calls fn for every stored ATV in key order.
func (d *DB) ForEachAtv(fn func(id consensus.Sha256Hash, p *consensus.AltPublication) error) error {
	return forEach(d, bucketAtvs, consensus.DecodeAltPublication, fn)
}

func (d *DB) PutStatus(id consensus.Sha256Hash, e StatusEntry) error {
	b, err := encodeStatusEntry(e)
	if err != nil {
		return err
	}
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketStatus).Put(id[:], b)
	})
}

func (d *DB) GetStatus(id consensus.Sha256Hash) (*StatusEntry, bool, error) {
	v, ok, err := d.get(bucketStatus, id[:])
	if err != nil || !ok {
		return nil, false, err
	}
	e, err := decodeStatusEntry(v)
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

func (d *DB) get(bucket, key []byte) ([]byte, bool, error) {
	var out []byte
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucket).Get(key)
		if v == nil {
			return nil
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if out == nil {
		return nil, false, nil
	}
	return out, true, nil
}

func forEach[T any](d *DB, bucket []byte, decode func([]byte) (T, error), fn func(consensus.Sha256Hash, T) error) error {
	return d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(k, v []byte) error {
			id, err := consensus.NewSha256Hash(k)
			if err != nil {
				return fmt.Errorf("%s key: %w", string(bucket), err)
			}
			p, err := decode(v)
			if err != nil {
				return fmt.Errorf("%s %s: %w", string(bucket), id, err)
			}
			return fn(id, p)
		})
	})
}

func putIfAbsent(b *bolt.Bucket, key, val []byte) (bool, error) {
	if b.Get(key) != nil {
		return false, nil
	}
	return true, b.Put(key, val)
}

func putBtcBlock(tx *bolt.Tx, b *consensus.BtcBlock) error {
	h := b.Hash()
	return tx.Bucket(bucketBtcBlocks).Put(h[:], b.HeaderBytes())
}

func putVbkBlock(tx *bolt.Tx, b *consensus.VbkBlock) error {
	h := b.Hash()
	if err := tx.Bucket(bucketVbkBlocks).Put(h[:], b.HeaderBytes()); err != nil {
		return err
	}
	if b.Height < 0 {
		return nil
	}
	return tx.Bucket(bucketVbkByHeight).Put(heightKey(b.Height), h[:])
}

// heightKey is big-endian so that cursor order is height order.
func heightKey(height int32) []byte {
	var k [4]byte
	// #nosec G115 -- callers pass non-negative heights.
	binary.BigEndian.PutUint32(k[:], uint32(height))
	return k[:]
}

// Layout:
// status u8 | checked_at unix u64le | reason_len u16le | reason
func encodeStatusEntry(e StatusEntry) ([]byte, error) {
	if len(e.Reason) > 0xffff {
		return nil, fmt.Errorf("status: reason too long")
	}
	out := make([]byte, 1+8+2+len(e.Reason))
	out[0] = byte(e.Status)
	// #nosec G115 -- timestamps before 1970 are stored as two's complement.
	binary.LittleEndian.PutUint64(out[1:9], uint64(e.CheckedAt.Unix()))
	binary.LittleEndian.PutUint16(out[9:11], uint16(len(e.Reason))) // #nosec G115 -- len checked against 0xffff above.
	copy(out[11:], e.Reason)
	return out, nil
}

func decodeStatusEntry(b []byte) (*StatusEntry, error) {
	if len(b) < 1+8+2 {
		return nil, fmt.Errorf("status: truncated")
	}
	n := int(binary.LittleEndian.Uint16(b[9:11]))
	if 11+n != len(b) {
		return nil, fmt.Errorf("status: bad reason len")
	}
	// #nosec G115 -- inverse of encodeStatusEntry.
	at := int64(binary.LittleEndian.Uint64(b[1:9]))
	return &StatusEntry{
		Status:    Status(b[0]),
		Reason:    string(b[11:]),
		CheckedAt: time.Unix(at, 0),
	}, nil
}
