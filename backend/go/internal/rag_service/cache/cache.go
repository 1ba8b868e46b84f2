// Package cache memoises query answers. Entries are keyed by a generation
// number that every write to the corpus bumps, so an answer is never served
// after the documents it was built from changed.
package cache

import (
	"DocQA/backend/go/internal/rag_service/rag/pipeline"
	"DocQA/backend/go/internal/rag_service/rag/schema"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Store is the key/value backend of a QueryCache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Generation(ctx context.Context) (int64, error)
	Bump(ctx context.Context) error
}

// QueryCache caches pipeline answers per (generation, folder, question).
// A nil *QueryCache is valid and caches nothing.
type QueryCache struct {
	store Store
	ttl   time.Duration
}

func New(store Store, ttl time.Duration) *QueryCache {
	return &QueryCache{store: store, ttl: ttl}
}

// Key resolves the key of a question at the current generation. Resolve it
// before retrieval and store the answer under that same key, so an answer
// built from data a concurrent write replaced lands in a dead generation.
// A nil cache returns an empty key.
func (c *QueryCache) Key(ctx context.Context, folderID, question string) (string, error) {
	if c == nil {
		return "", nil
	}
	gen, err := c.store.Generation(ctx)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(folderID + "\x00" + question))
	return fmt.Sprintf("docqa:answer:%d:%s", gen, hex.EncodeToString(sum[:])), nil
}

// Get returns the answer cached under key. Backend errors are reported as misses plus the error.
func (c *QueryCache) Get(ctx context.Context, key string) (*pipeline.Answer, bool, error) {
	if c == nil || key == "" {
		return nil, false, nil
	}
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return e.answer(), true, nil
}

// Put stores ans under a key obtained from Key.
func (c *QueryCache) Put(ctx context.Context, key string, ans *pipeline.Answer) error {
	if c == nil || key == "" {
		return nil
	}
	raw, err := json.Marshal(newEntry(ans))
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key, raw, c.ttl)
}

// Invalidate makes every existing entry unreachable.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.store.Bump(ctx)
}

// entry is the stored form of an answer. Unlike the API encoding it keeps
// the document id of every source.
type entry struct {
	Answer  string        `json:"answer"`
	Sources []entrySource `json:"sources"`
}

type entrySource struct {
	schema.Source
	DocumentID string `json:"document_id"`
}

func newEntry(ans *pipeline.Answer) entry {
	e := entry{Answer: ans.Answer, Sources: make([]entrySource, len(ans.Sources))}
	for i, src := range ans.Sources {
		e.Sources[i] = entrySource{Source: src, DocumentID: src.DocumentID}
	}
	return e
}

func (e entry) answer() *pipeline.Answer {
	ans := &pipeline.Answer{Answer: e.Answer, Sources: make([]schema.Source, len(e.Sources))}
	for i, src := range e.Sources {
		ans.Sources[i] = src.Source
		ans.Sources[i].DocumentID = src.DocumentID
	}
	return ans
}
