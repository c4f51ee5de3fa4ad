package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"go.uber.org/zap"
)

const lockStripes = 64

// errUnchanged lets an updateJSON callback keep the stored value as is.
var errUnchanged = errors.New("unchanged")

// jsonStore layers JSON encoding and per-key serialization over a KV.
// The stripes only serialize writers inside this process; across processes
// the last writer wins.
type jsonStore struct {
	kv      KV
	log     *zap.Logger
	stripes [lockStripes]sync.Mutex
}

func newJSONStore(kv KV, log *zap.Logger) *jsonStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &jsonStore{kv: kv, log: log}
}

func (s *jsonStore) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	mu := &s.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// readJSON decodes key into a T. A missing key or an unparsable blob yields
// fallback(); only backend failures are returned as errors.
func readJSON[T any](ctx context.Context, s *jsonStore, key string, fallback func() T) (T, error) {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return fallback(), nil
	}
	if err != nil {
		var zero T
		return zero, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.log.Warn("unparsable persisted state, using defaults", zap.String("key", key), zap.Error(err))
		return fallback(), nil
	}
	return v, nil
}

func writeJSON[T any](ctx context.Context, s *jsonStore, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.kv.Put(ctx, key, raw)
}

// updateJSON runs a read-modify-write cycle on key under its stripe lock.
// When fn returns errUnchanged nothing is written and the current value is
// returned.
func updateJSON[T any](ctx context.Context, s *jsonStore, key string, fallback func() T, fn func(T) (T, error)) (T, error) {
	unlock := s.lock(key)
	defer unlock()

	cur, err := readJSON(ctx, s, key, fallback)
	if err != nil {
		var zero T
		return zero, err
	}
	next, err := fn(cur)
	if errors.Is(err, errUnchanged) {
		return cur, nil
	}
	if err != nil {
		var zero T
		return zero, err
	}
	if err := writeJSON(ctx, s, key, next); err != nil {
		var zero T
		return zero, err
	}
	return next, nil
}
