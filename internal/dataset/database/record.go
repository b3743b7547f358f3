package database

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	xdr "github.com/davecgh/go-xdr/xdr2"
	"github.com/go-sod/mixknn/internal/database"
	"github.com/go-sod/mixknn/internal/util"
	"github.com/go-sod/mixknn/pkg/record"
	bolt "go.etcd.io/bbolt"
)

var (
	recordsBucket = []byte("records")
	idsBucket     = []byte("records:ids")
)

type FilterFn func(r record.Record) bool

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

// DB persists records in insertion order. Storing a record whose id is
// already present replaces it in place.
type DB struct {
	sDB *database.DB
}

type entry struct {
	ID          string
	Numeric     []float64
	Categorical []string
}

func encode(r record.Record) ([]byte, error) {
	buffer := util.GetBytesBuffer()
	defer util.PutBytesBuffer(buffer)
	e := entry{ID: r.ID(), Numeric: r.Numeric(), Categorical: r.Categorical()}
	if e.Numeric == nil {
		e.Numeric = []float64{}
	}
	if e.Categorical == nil {
		e.Categorical = []string{}
	}
	if _, err := xdr.Marshal(buffer, &e); err != nil {
		return nil, fmt.Errorf("xdr marshal error: %w", err)
	}
	out := make([]byte, buffer.Len())
	copy(out, buffer.Bytes())
	return out, nil
}

func decode(v []byte) (record.Record, error) {
	var e entry
	if _, err := xdr.Unmarshal(bytes.NewReader(v), &e); err != nil {
		return record.Record{}, fmt.Errorf("xdr unmarshal error: %w", err)
	}
	return record.New(e.ID, e.Numeric, e.Categorical...), nil
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func (db *DB) AppendMany(_ context.Context, records []record.Record) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(recordsBucket)
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		ids, err := tx.CreateBucketIfNotExists(idsBucket)
		if err != nil {
			return fmt.Errorf("unable create ids bucket: %w", err)
		}
		for _, r := range records {
			bytes, err := encode(r)
			if err != nil {
				return err
			}
			key := ids.Get([]byte(r.ID()))
			if key == nil {
				seq, err := b.NextSequence()
				if err != nil {
					return fmt.Errorf("unable get next sequence: %w", err)
				}
				key = seqKey(seq)
				if err := ids.Put([]byte(r.ID()), key); err != nil {
					return fmt.Errorf("unable put to ids bucket: %w", err)
				}
			}
			if err := b.Put(key, bytes); err != nil {
				return fmt.Errorf("put to bucket error: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

func (db *DB) DeleteMany(_ context.Context, ids []string) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(recordsBucket)
		idx := tx.Bucket(idsBucket)
		if b == nil || idx == nil {
			return nil
		}
		for _, id := range ids {
			key := idx.Get([]byte(id))
			if key == nil {
				continue
			}
			if err := b.Delete(key); err != nil {
				return fmt.Errorf("unable delete: %w", err)
			}
			if err := idx.Delete([]byte(id)); err != nil {
				return fmt.Errorf("unable delete id: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

// FindAll returns stored records in insertion order.
func (db *DB) FindAll(_ context.Context, filter FilterFn) ([]record.Record, error) {
	var list []record.Record
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(recordsBucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			r, err := decode(v)
			if err != nil {
				return err
			}
			if filter == nil || filter(r) {
				list = append(list, r)
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return list, nil
}

func (db *DB) Count() (int, error) {
	var length int
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(recordsBucket)
		if b == nil {
			return nil
		}
		length = b.Stats().KeyN
		return nil
	}); err != nil {
		return 0, fmt.Errorf("view transaction error: %w", err)
	}

	return length, nil
}
