package anyembed

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/unixpickle/anysent/anyvocab"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

// ErrCacheMiss is returned by a CacheStore when it has no
// entry for a key.
var ErrCacheMiss = errors.New("anyembed: cache miss")

// A CacheStore persists cache artifacts by key.
//
// Any error from Load is treated as a cache miss.
type CacheStore interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
}

// CacheKey computes the cache key for an embeddings file
// filtered by a vocabulary.
//
// The key is a path next to the embeddings file, such as
// "glove.6B.50d.1000.anyvec" for a 1000-token vocabulary
// or "glove.6B.50d.none.anyvec" for no vocabulary.
//
// Only the file name and the vocabulary size go into the
// key, so changing the contents of the embeddings file
// does not invalidate an existing artifact.
func CacheKey(path string, vocab *anyvocab.Vocab) string {
	dir, file := filepath.Split(path)
	base := strings.TrimSuffix(file, filepath.Ext(file))
	size := "none"
	if vocab != nil {
		size = strconv.Itoa(vocab.Len())
	}
	return filepath.Join(dir, base+"."+size+".anyvec")
}

// FileCache is a CacheStore that uses keys as file paths.
type FileCache struct{}

// Load reads the file at the key.
func (f FileCache) Load(key string) ([]byte, error) {
	data, err := os.ReadFile(key)
	if os.IsNotExist(err) {
		return nil, ErrCacheMiss
	}
	return data, err
}

// Save writes the file at the key.
// The data is written to a temporary file first, so a
// partially written artifact is never visible.
func (f FileCache) Save(key string, data []byte) error {
	tmp := key + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return essentials.AddCtx("save cache", err)
	}
	if err := os.Rename(tmp, key); err != nil {
		os.Remove(tmp)
		return essentials.AddCtx("save cache", err)
	}
	return nil
}

// LRUCache keeps recently used artifacts in memory in
// front of another CacheStore.
type LRUCache struct {
	// Store is the backing store.
	// If nil, artifacts only live in memory.
	Store CacheStore

	entries *lru.Cache[string, []byte]
}

// NewLRUCache creates an LRUCache which holds up to size
// artifacts in memory.
func NewLRUCache(size int, store CacheStore) (*LRUCache, error) {
	entries, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, essentials.AddCtx("create LRU cache", err)
	}
	return &LRUCache{Store: store, entries: entries}, nil
}

// Load returns the in-memory artifact, falling back to
// the backing store.
func (l *LRUCache) Load(key string) ([]byte, error) {
	if data, ok := l.entries.Get(key); ok {
		return data, nil
	}
	if l.Store == nil {
		return nil, ErrCacheMiss
	}
	data, err := l.Store.Load(key)
	if err != nil {
		return nil, err
	}
	l.entries.Add(key, data)
	return data, nil
}

// Save stores the artifact in memory and in the backing
// store.
func (l *LRUCache) Save(key string, data []byte) error {
	l.entries.Add(key, data)
	if l.Store == nil {
		return nil
	}
	return l.Store.Save(key, data)
}

// encodeTable serializes a table as its dimension, its
// newline-joined tokens, and its packed matrix.
func encodeTable(t *Table) ([]byte, error) {
	tokens := strings.Join(t.Idx2Word, "\n")
	matrix := &anyvecsave.S{Vector: t.Matrix()}
	return serializer.SerializeAny(t.Dim, tokens, matrix)
}

func decodeTable(data []byte) (*Table, error) {
	var dim int
	var tokens string
	var matrix *anyvecsave.S
	if err := serializer.DeserializeAny(data, &dim, &tokens, &matrix); err != nil {
		return nil, essentials.AddCtx("decode table", err)
	}
	words := strings.Split(tokens, "\n")
	if dim <= 0 || matrix.Vector.Len() != dim*len(words) {
		return nil, errors.New("decode table: matrix size mismatch")
	}
	res := newTable(dim)
	for i, w := range words {
		if _, ok := res.Word2Idx[w]; ok {
			return nil, errors.New("decode table: duplicate token " + strconv.Quote(w))
		}
		res.add(w, matrix.Vector.Slice(i*dim, (i+1)*dim))
	}
	return res, nil
}
