// Package redis keeps each ledger collection as one JSON array value and
// each counter as an integer key.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"cablebill/internal/store"
)

const defaultPrefix = "cablebill"

type Store struct {
	client *goredis.Client
	prefix string
}

var _ store.Store = (*Store)(nil)

// New connects to addr and verifies the connection with a ping.
func New(ctx context.Context, addr, password string, db int, prefix string) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewWithClient(client, prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) collectionKey(c store.Collection) string {
	return s.prefix + ":" + string(c)
}

func (s *Store) counterKey(name string) string {
	return s.prefix + ":counter:" + name
}

func (s *Store) LoadAll(ctx context.Context, c store.Collection) ([]store.Record, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("%w: %s", store.ErrUnknownCollection, c)
	}
	data, err := s.client.Get(ctx, s.collectionKey(c)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return []store.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", c, err)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c, err)
	}
	return store.FromRaw(items)
}

func (s *Store) SaveAll(ctx context.Context, c store.Collection, records []store.Record) error {
	if !c.IsValid() {
		return fmt.Errorf("%w: %s", store.ErrUnknownCollection, c)
	}
	data, err := json.Marshal(store.ToRaw(records))
	if err != nil {
		return fmt.Errorf("encode %s: %w", c, err)
	}
	if err := s.client.Set(ctx, s.collectionKey(c), data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", c, err)
	}
	return nil
}

func (s *Store) LoadCounter(ctx context.Context, name string) (int64, error) {
	v, err := s.client.Get(ctx, s.counterKey(name)).Int64()
	if errors.Is(err, goredis.Nil) {
		return store.DefaultCounter, nil
	}
	if err != nil {
		return store.DefaultCounter, fmt.Errorf("get counter %s: %w", name, err)
	}
	return v, nil
}

func (s *Store) SaveCounter(ctx context.Context, name string, value int64) error {
	if err := s.client.Set(ctx, s.counterKey(name), value, 0).Err(); err != nil {
		return fmt.Errorf("set counter %s: %w", name, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
