// Package anycorpus turns raw or tokenized text into
// sequences of token IDs.
package anycorpus

import (
	"io"
	"log"

	"github.com/unixpickle/anysent"
	"github.com/unixpickle/anysent/anyembed"
	"github.com/unixpickle/anysent/anyvocab"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

const defaultVocabLimit = 30000
const defaultEmbeddingsDim = 300

// A Corpus is a list of token ID sequences, along with the
// vocabulary that produced them.
type Corpus interface {
	// Len returns the number of examples.
	Len() int

	// Get returns the IDs for an example, truncated to the
	// corpus's maximum length if it has one.
	Get(idx int) []int

	// Indices returns the untruncated ID sequences.
	Indices() [][]int

	// Tokenized returns the token sequences.
	Tokenized() [][]string

	// Frequencies returns the token counts.
	Frequencies() *anyvocab.Vocab

	// VocabSize returns the number of distinct IDs that the
	// corpus may produce.
	VocabSize() int

	// Embeddings returns the pretrained embeddings for the
	// IDs, or nil if the corpus has none.
	Embeddings() *anyembed.Table

	// Word2Idx and Idx2Word return the ID mapping, or nil if
	// the IDs come from an external tokenizer.
	Word2Idx() map[string]int
	Idx2Word() map[int]string
}

type corpus struct {
	maxLen     int
	tokenized  [][]string
	indices    [][]int
	vocab      *anyvocab.Vocab
	word2idx   map[string]int
	idx2word   map[int]string
	embeddings *anyembed.Table
}

func (c *corpus) Len() int {
	return len(c.indices)
}

func (c *corpus) Get(idx int) []int {
	res := c.indices[idx]
	if c.maxLen > 0 && len(res) > c.maxLen {
		res = res[:c.maxLen]
	}
	return res
}

func (c *corpus) Indices() [][]int {
	return c.indices
}

func (c *corpus) Tokenized() [][]string {
	return c.tokenized
}

func (c *corpus) Frequencies() *anyvocab.Vocab {
	return c.vocab
}

func (c *corpus) VocabSize() int {
	return c.vocab.Len()
}

func (c *corpus) Embeddings() *anyembed.Table {
	return c.embeddings
}

func (c *corpus) Word2Idx() map[string]int {
	return c.word2idx
}

func (c *corpus) Idx2Word() map[int]string {
	return c.idx2word
}

func (c *corpus) convert() {
	conv := NewTokenIDs(c.word2idx)
	c.indices = make([][]int, len(c.tokenized))
	for i, toks := range c.tokenized {
		c.indices[i] = conv.Convert(toks)
	}
}

// WordCorpusConfig configures a WordCorpus.
type WordCorpusConfig struct {
	// Tokenizer splits the raw text.
	// If nil, a lower-casing WordTokenizer is used.
	Tokenizer Tokenizer

	// LimitVocabSize is the maximum number of non-reserved
	// tokens to keep.
	// If 0, 30000 is used; if negative, all tokens are kept.
	// It is ignored when an ID mapping is supplied.
	LimitVocabSize int

	// Word2Idx, if non-nil, supplies the ID mapping.
	Word2Idx map[string]int

	// Embeddings, if non-nil, supplies pretrained vectors
	// along with their ID mapping.
	// It is used in place of Word2Idx when both are set.
	Embeddings *anyembed.Table

	// EmbeddingsFile, if set, is loaded when no ID mapping
	// is supplied.
	EmbeddingsFile string

	// EmbeddingsDim is the dimensionality of the embeddings
	// file.
	// If 0, 300 is used.
	EmbeddingsDim int

	// EmbeddingsCache and Creator are passed to the
	// embeddings loader.
	EmbeddingsCache anyembed.CacheStore
	Creator         anyvec.Creator

	// Specials are the reserved tokens.
	// If nil, all of the reserved tokens are used.
	Specials []string

	// MaxLen truncates every example if it is positive.
	MaxLen int

	Logger   *log.Logger
	Progress io.Writer
}

// WordCorpus is a Corpus of word-level tokens.
type WordCorpus struct {
	corpus

	raw     []string
	missing int
}

// NewWordCorpus tokenizes the texts and converts them to
// IDs.
//
// If no ID mapping is supplied and no embeddings file is
// configured, IDs are assigned in vocabulary order.
//
// After conversion, the vocabulary is pruned to the
// tokens in the ID mapping; the number of removed tokens
// is reported by Missing.
func NewWordCorpus(texts []string, cfg WordCorpusConfig) (*WordCorpus, error) {
	logger := cfg.Logger
	tok := cfg.Tokenizer
	if tok == nil {
		tok = &WordTokenizer{Lower: true, Specials: cfg.Specials}
	}
	specials := cfg.Specials
	if specials == nil {
		specials = anysent.SpecialTokenStrings()
	}

	res := &WordCorpus{raw: texts}
	res.maxLen = cfg.MaxLen
	res.tokenized = make([][]string, len(texts))
	for i, text := range texts {
		res.tokenized[i] = tok.Tokenize(text)
	}

	word2idx := cfg.Word2Idx
	if cfg.Embeddings != nil {
		word2idx = cfg.Embeddings.Word2Idx
		res.embeddings = cfg.Embeddings
	}
	limit := cfg.LimitVocabSize
	if word2idx != nil {
		limit = -1
	} else if limit == 0 {
		limit = defaultVocabLimit
	}
	res.vocab = anyvocab.Create(res.tokenized, limit, specials, logger)

	if word2idx != nil {
		logf(logger, "Word2idx was already provided. Going to use it.")
	} else if cfg.EmbeddingsFile != "" {
		logf(logger, "Going to load %d embeddings from %s", res.vocab.Len(), cfg.EmbeddingsFile)
		dim := cfg.EmbeddingsDim
		if dim == 0 {
			dim = defaultEmbeddingsDim
		}
		loader := &anyembed.Loader{
			Path:     cfg.EmbeddingsFile,
			Dim:      dim,
			Vocab:    res.vocab,
			Specials: specials,
			Creator:  cfg.Creator,
			Cache:    cfg.EmbeddingsCache,
			Logger:   logger,
			Progress: cfg.Progress,
		}
		table, err := loader.Load()
		if err != nil {
			return nil, essentials.AddCtx("create word corpus", err)
		}
		res.embeddings = table
		word2idx = table.Word2Idx
	} else {
		logf(logger, "No word2idx provided. Assigning IDs in vocabulary order.")
		word2idx = enumerate(res.vocab.Order)
	}

	res.word2idx = word2idx
	res.idx2word = invert(word2idx)

	logf(logger, "Converting tokens to ids using word2idx.")
	res.convert()

	pruned := res.vocab.Filter(func(tok string) bool {
		_, ok := word2idx[tok]
		return ok
	})
	res.missing = res.vocab.Len() - pruned.Len()
	logf(logger, "Out of %d tokens %d were not found in the pretrained embeddings.",
		res.vocab.Len(), res.missing)
	res.vocab = pruned

	return res, nil
}

// Raw returns the original texts.
func (w *WordCorpus) Raw() []string {
	return w.raw
}

// Missing returns the number of vocabulary tokens which
// had no entry in the ID mapping.
func (w *WordCorpus) Missing() int {
	return w.missing
}

// VocabSize returns the number of embedding rows if the
// corpus has embeddings, or the vocabulary size otherwise.
func (w *WordCorpus) VocabSize() int {
	if w.embeddings != nil {
		return w.embeddings.Len()
	}
	return w.vocab.Len()
}

// SubwordCorpusConfig configures a SubwordCorpus.
type SubwordCorpusConfig struct {
	// Specials are injected into the frequency report.
	// If nil, all of the reserved tokens are used.
	Specials []string

	// MaxLen truncates every example if it is positive.
	MaxLen int

	Logger *log.Logger
}

// SubwordCorpus is a Corpus produced by a pretrained
// subword tokenizer.
//
// It has no embeddings and no local ID mapping.
type SubwordCorpus struct {
	corpus

	raw       []string
	tokenizer SubwordTokenizer
}

// NewSubwordCorpus encodes the texts with the tokenizer.
// The token view is recovered by detokenizing the IDs.
func NewSubwordCorpus(texts []string, tok SubwordTokenizer,
	cfg SubwordCorpusConfig) (*SubwordCorpus, error) {
	specials := cfg.Specials
	if specials == nil {
		specials = anysent.SpecialTokenStrings()
	}
	res := &SubwordCorpus{raw: texts, tokenizer: tok}
	res.maxLen = cfg.MaxLen
	res.indices = make([][]int, len(texts))
	res.tokenized = make([][]string, len(texts))
	for i, text := range texts {
		ids, err := tok.IDs(text)
		if err != nil {
			return nil, essentials.AddCtx("create subword corpus", err)
		}
		res.indices[i] = ids
		res.tokenized[i] = tok.Detokenize(ids)
	}
	res.vocab = anyvocab.Create(res.tokenized, -1, specials, cfg.Logger)
	return res, nil
}

// Raw returns the original texts.
func (s *SubwordCorpus) Raw() []string {
	return s.raw
}

// VocabSize returns the tokenizer's vocabulary size.
func (s *SubwordCorpus) VocabSize() int {
	return s.tokenizer.VocabSize()
}

// TokenizedCorpusConfig configures a TokenizedCorpus.
type TokenizedCorpusConfig struct {
	// Word2Idx, if non-nil, supplies the ID mapping.
	// Otherwise, IDs are assigned in vocabulary order.
	Word2Idx map[string]int

	// Specials are the reserved tokens.
	// If nil, all of the reserved tokens are used.
	Specials []string

	// MaxLen truncates every example if it is positive.
	MaxLen int

	Logger *log.Logger
}

// TokenizedCorpus is a Corpus built from text which was
// already split into tokens.
type TokenizedCorpus struct {
	corpus
}

// NewTokenizedCorpus creates a corpus with one example per
// token sequence.
func NewTokenizedCorpus(sentences [][]string, cfg TokenizedCorpusConfig) *TokenizedCorpus {
	res := &TokenizedCorpus{}
	res.maxLen = cfg.MaxLen
	res.tokenized = sentences
	specials := cfg.Specials
	if specials == nil {
		specials = anysent.SpecialTokenStrings()
	}
	res.vocab = anyvocab.Create(sentences, -1, specials, cfg.Logger)

	if cfg.Word2Idx != nil {
		logf(cfg.Logger, "Converting tokens to ids using word2idx.")
		res.word2idx = cfg.Word2Idx
	} else {
		logf(cfg.Logger, "No word2idx provided. Assigning IDs in vocabulary order.")
		res.word2idx = enumerate(res.vocab.Order)
	}
	res.idx2word = invert(res.word2idx)
	res.convert()
	return res
}

// NewFlatTokenizedCorpus creates a corpus from a single
// token stream.
// The result has exactly one example.
func NewFlatTokenizedCorpus(tokens []string, cfg TokenizedCorpusConfig) *TokenizedCorpus {
	return NewTokenizedCorpus([][]string{tokens}, cfg)
}

func enumerate(tokens []string) map[string]int {
	res := make(map[string]int, len(tokens))
	for i, t := range tokens {
		res[t] = i
	}
	return res
}

func invert(word2idx map[string]int) map[int]string {
	res := make(map[int]string, len(word2idx))
	for w, i := range word2idx {
		res[i] = w
	}
	return res
}

func logf(l *log.Logger, format string, args ...interface{}) {
	if l != nil {
		l.Printf(format, args...)
	}
}
