// Package storage is an embedded product store backed by BadgerDB, with the
// same upsert contract as the Postgres store.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/maltedev/brain-scraper/internal/models"
)

const productPrefix = "product:"

type Store struct {
	db     *badger.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens the store at path. An empty path keeps everything in memory.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger.With("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db at %q: %w", path, err)
	}

	return &Store{
		db:     db,
		logger: logger.With("component", "product_store"),
		now:    time.Now,
	}, nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger db: %w", err)
	}
	return nil
}

func productKey(link string) []byte {
	return []byte(productPrefix + link)
}

// Upsert stores rec under link, replacing every field of an existing entry
// but its id and creation time.
func (s *Store) Upsert(ctx context.Context, link string, rec *models.ProductRecord) (uuid.UUID, bool, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, false, err
	}

	stored := models.StoredProduct{ProductRecord: *rec}
	stored.Link = link
	stored.Normalize()

	var created bool
	err := s.db.Update(func(txn *badger.Txn) error {
		prev, err := get(txn, productKey(link))
		if err != nil {
			return err
		}

		now := s.now().UTC()
		if prev == nil {
			created = true
			stored.ID = uuid.New()
			stored.CreatedAt = now
		} else {
			stored.ID = prev.ID
			stored.CreatedAt = prev.CreatedAt
		}
		stored.UpdatedAt = now

		data, err := json.Marshal(&stored)
		if err != nil {
			return fmt.Errorf("failed to marshal product: %w", err)
		}
		return txn.SetEntry(badger.NewEntry(productKey(link), data))
	})
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to upsert product: %w", err)
	}

	s.logger.Debug("product stored", "id", stored.ID, "link", link, "created", created)
	return stored.ID, created, nil
}

// Get returns nil, nil when no product is stored under link.
func (s *Store) Get(ctx context.Context, link string) (*models.StoredProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p *models.StoredProduct
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		p, err = get(txn, productKey(link))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// First returns the earliest created product, or nil, nil on an empty store.
func (s *Store) First(ctx context.Context) (*models.StoredProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var first *models.StoredProduct
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(productPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			p, err := decode(it.Item())
			if err != nil {
				return err
			}
			if first == nil || p.CreatedAt.Before(first.CreatedAt) {
				first = p
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get first product: %w", err)
	}
	return first, nil
}

func get(txn *badger.Txn, key []byte) (*models.StoredProduct, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(item)
}

func decode(item *badger.Item) (*models.StoredProduct, error) {
	var p models.StoredProduct
	err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &p)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode product %s: %w", item.Key(), err)
	}
	p.Normalize()
	return &p, nil
}

// badgerLogger adapts slog to badger's logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(f, v...))
}
