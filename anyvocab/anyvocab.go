// Package anyvocab builds token vocabularies from
// tokenized corpora.
package anyvocab

import (
	"log"
	"sort"
	"strconv"
)

// A Vocab maps tokens to their occurrence counts.
//
// Reserved tokens are always present with a count of 0,
// regardless of how often they occur in the corpus.
type Vocab struct {
	// Counts maps every token to its count.
	Counts map[string]int

	// Order lists the tokens with the reserved tokens
	// first, followed by the remaining tokens from most to
	// least common.
	Order []string
}

// Create builds a vocabulary from a corpus of tokenized
// sentences.
// The sentences are flattened into a single stream before
// counting.
//
// See CreateFlat for details on size and specials.
func Create(corpus [][]string, size int, specials []string, logger *log.Logger) *Vocab {
	var flat []string
	for _, s := range corpus {
		flat = append(flat, s...)
	}
	return CreateFlat(flat, size, specials, logger)
}

// CreateFlat builds a vocabulary from a single stream of
// tokens.
//
// If size is non-negative, only the size most common
// non-reserved tokens are kept.
// Ties are broken by first occurrence in the stream.
//
// The specials are prepended to the vocabulary in order,
// each with a count of 0.
// They never take up any of the size budget, even when
// they occur in the corpus.
//
// If logger is non-nil, diagnostics are printed to it.
func CreateFlat(tokens []string, size int, specials []string, logger *log.Logger) *Vocab {
	ranked := rankTokens(tokens)

	isSpecial := map[string]bool{}
	for _, s := range specials {
		isSpecial[s] = true
	}
	var common []tokenCount
	for _, tc := range ranked {
		if !isSpecial[tc.Token] {
			common = append(common, tc)
		}
	}

	if size < 0 || size > len(common) {
		size = len(common)
	}
	if logger != nil {
		logger.Printf("Keeping %d most common tokens out of %d", size, len(ranked))
	}
	common = common[:size]

	res := &Vocab{Counts: map[string]int{}}
	for _, s := range specials {
		if _, ok := res.Counts[s]; ok {
			continue
		}
		res.Counts[s] = 0
		res.Order = append(res.Order, s)
	}
	for _, tc := range common {
		res.Counts[tc.Token] = tc.Count
		res.Order = append(res.Order, tc.Token)
	}

	if logger != nil {
		logger.Printf("Vocabulary created with %d tokens.", res.Len())
		top := ranked
		if len(top) > 10 {
			top = top[:10]
		}
		logger.Printf("The 10 most common tokens are: %v", top)
	}

	return res
}

// Len returns the number of tokens in the vocabulary.
func (v *Vocab) Len() int {
	return len(v.Counts)
}

// Contains checks if the token is in the vocabulary.
func (v *Vocab) Contains(token string) bool {
	_, ok := v.Counts[token]
	return ok
}

// Count returns the count for a token.
// The second return value is false if the token is not in
// the vocabulary.
func (v *Vocab) Count(token string) (int, bool) {
	c, ok := v.Counts[token]
	return c, ok
}

// Tokens returns the tokens of the vocabulary.
//
// If v.Order is set, it is returned as-is.
// Otherwise, tokens are sorted by descending count, with
// ties broken lexicographically.
func (v *Vocab) Tokens() []string {
	if len(v.Order) == len(v.Counts) {
		return append([]string{}, v.Order...)
	}
	res := make([]string, 0, len(v.Counts))
	for t := range v.Counts {
		res = append(res, t)
	}
	sort.Slice(res, func(i, j int) bool {
		ci, cj := v.Counts[res[i]], v.Counts[res[j]]
		if ci != cj {
			return ci > cj
		}
		return res[i] < res[j]
	})
	return res
}

// MostCommon returns up to n tokens with the highest
// counts, most common first.
// Reserved tokens, which have a count of 0, come last.
func (v *Vocab) MostCommon(n int) []string {
	toks := v.Tokens()
	sort.SliceStable(toks, func(i, j int) bool {
		return v.Counts[toks[i]] > v.Counts[toks[j]]
	})
	if n >= 0 && n < len(toks) {
		toks = toks[:n]
	}
	return toks
}

// Filter creates a new vocabulary containing only the
// tokens for which keep returns true.
// The token order is preserved.
func (v *Vocab) Filter(keep func(token string) bool) *Vocab {
	res := &Vocab{Counts: map[string]int{}}
	for _, t := range v.Tokens() {
		if keep(t) {
			res.Counts[t] = v.Counts[t]
			res.Order = append(res.Order, t)
		}
	}
	return res
}

type tokenCount struct {
	Token string
	Count int
}

func (t tokenCount) String() string {
	return "(" + t.Token + ", " + strconv.Itoa(t.Count) + ")"
}

// rankTokens counts the tokens and sorts them from most to
// least common, breaking ties by first occurrence.
func rankTokens(tokens []string) []tokenCount {
	index := map[string]int{}
	var res []tokenCount
	for _, t := range tokens {
		if i, ok := index[t]; ok {
			res[i].Count++
		} else {
			index[t] = len(res)
			res = append(res, tokenCount{Token: t, Count: 1})
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Count > res[j].Count
	})
	return res
}
