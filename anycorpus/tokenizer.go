package anycorpus

import (
	"strings"

	"github.com/rivo/uniseg"
	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	"github.com/unixpickle/anysent"
	"github.com/unixpickle/essentials"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// A Tokenizer splits text into word tokens.
type Tokenizer interface {
	Tokenize(text string) []string
}

// A SubwordTokenizer maps text directly to token IDs using
// a fixed, pretrained vocabulary.
type SubwordTokenizer interface {
	IDs(text string) ([]int, error)
	Detokenize(ids []int) []string
	VocabSize() int
}

// WordTokenizer splits text into words using Unicode word
// boundaries.
// Whitespace is dropped and punctuation marks become
// tokens of their own.
type WordTokenizer struct {
	// Lower enables lower-casing.
	// Special tokens are never lower-cased.
	Lower bool

	// Language is used for case mapping.
	// The zero value is language-agnostic.
	Language language.Tag

	// PrependBOS and AppendEOS add sequence boundary
	// markers to every tokenized text.
	PrependBOS bool
	AppendEOS  bool

	// Specials are kept intact when they appear as
	// whitespace-separated words.
	// If nil, all of the reserved tokens are used.
	Specials []string
}

// Tokenize splits the text into tokens.
func (w *WordTokenizer) Tokenize(text string) []string {
	specials := w.Specials
	if specials == nil {
		specials = anysent.SpecialTokenStrings()
	}
	var caser cases.Caser
	if w.Lower {
		caser = cases.Lower(w.Language)
	}

	var res []string
	if w.PrependBOS {
		res = append(res, anysent.BOS.String())
	}
	for _, field := range strings.Fields(text) {
		if containsString(specials, field) {
			res = append(res, field)
			continue
		}
		if w.Lower {
			field = caser.String(field)
		}
		state := -1
		for len(field) > 0 {
			var word string
			word, field, state = uniseg.FirstWordInString(field, state)
			if strings.TrimSpace(word) != "" {
				res = append(res, word)
			}
		}
	}
	if w.AppendEOS {
		res = append(res, anysent.EOS.String())
	}
	return res
}

// HFTokenizer is a SubwordTokenizer backed by a
// HuggingFace tokenizer.json file.
type HFTokenizer struct {
	// Lower enables lower-casing before tokenization.
	Lower bool

	// AddSpecialTokens enables the tokenizer's
	// post-processing, such as [CLS] and [SEP] markers.
	AddSpecialTokens bool

	inner *tokenizer.Tokenizer
}

// NewHFTokenizer loads a tokenizer.json file.
func NewHFTokenizer(path string, lower, addSpecialTokens bool) (*HFTokenizer, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, essentials.AddCtx("load tokenizer", err)
	}
	return &HFTokenizer{Lower: lower, AddSpecialTokens: addSpecialTokens, inner: tk}, nil
}

// IDs encodes the text.
func (h *HFTokenizer) IDs(text string) ([]int, error) {
	if h.Lower {
		text = cases.Lower(language.Und).String(text)
	}
	enc, err := h.inner.EncodeSingle(text, h.AddSpecialTokens)
	if err != nil {
		return nil, essentials.AddCtx("encode", err)
	}
	return append([]int{}, enc.Ids...), nil
}

// Detokenize maps IDs back to subword tokens.
// IDs outside of the vocabulary become the unknown token.
func (h *HFTokenizer) Detokenize(ids []int) []string {
	res := make([]string, len(ids))
	for i, id := range ids {
		if tok, ok := h.inner.IdToToken(id); ok {
			res[i] = tok
		} else {
			res[i] = anysent.Unk.String()
		}
	}
	return res
}

// VocabSize returns the size of the pretrained vocabulary,
// including added tokens.
func (h *HFTokenizer) VocabSize() int {
	return h.inner.GetVocabSize(true)
}

// TokenIDs converts token sequences to ID sequences.
type TokenIDs struct {
	Word2Idx map[string]int

	// Unk is the ID for tokens missing from Word2Idx.
	// If it is negative, missing tokens are dropped.
	Unk int
}

// NewTokenIDs creates a TokenIDs which maps unknown tokens
// to the unknown token's ID, if the map has one.
func NewTokenIDs(word2idx map[string]int) *TokenIDs {
	unk := -1
	if id, ok := word2idx[anysent.Unk.String()]; ok {
		unk = id
	}
	return &TokenIDs{Word2Idx: word2idx, Unk: unk}
}

// Convert maps the tokens to IDs.
func (t *TokenIDs) Convert(tokens []string) []int {
	res := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		if id, ok := t.Word2Idx[tok]; ok {
			res = append(res, id)
		} else if t.Unk >= 0 {
			res = append(res, t.Unk)
		}
	}
	return res
}

// Transform converts a []string payload to []int.
// It can be registered as a dataset transform.
func (t *TokenIDs) Transform(x interface{}) interface{} {
	return t.Convert(x.([]string))
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
