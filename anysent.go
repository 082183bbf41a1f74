// Package anysent provides the data side of multimodal
// sentiment analysis: vocabularies, pretrained word
// embeddings, corpora, multimodal datasets, and batch
// collation for text, audio, and visual inputs.
//
// The sub-packages do the actual work.
// This package only holds the reserved tokens that they
// share.
package anysent

// A SpecialToken is a vocabulary entry with a dedicated
// role, such as padding or marking sequence boundaries.
type SpecialToken string

// These are the reserved tokens, in their default index
// order.
const (
	Pad  SpecialToken = "[PAD]"
	Mask SpecialToken = "[MASK]"
	Unk  SpecialToken = "[UNK]"
	BOS  SpecialToken = "[BOS]"
	EOS  SpecialToken = "[EOS]"
	CLS  SpecialToken = "[CLS]"
	SEP  SpecialToken = "[SEP]"
)

// SpecialTokens returns every reserved token in order.
//
// The order defines the default index assignment, so Pad
// always comes first.
func SpecialTokens() []SpecialToken {
	return []SpecialToken{Pad, Mask, Unk, BOS, EOS, CLS, SEP}
}

// SpecialTokenStrings converts a list of special tokens
// to plain strings.
// If no tokens are passed, the full reserved list is
// converted.
func SpecialTokenStrings(toks ...SpecialToken) []string {
	if len(toks) == 0 {
		toks = SpecialTokens()
	}
	res := make([]string, len(toks))
	for i, t := range toks {
		res[i] = string(t)
	}
	return res
}

// IsSpecial checks if tok is one of the reserved tokens.
func IsSpecial(tok string) bool {
	for _, s := range SpecialTokens() {
		if string(s) == tok {
			return true
		}
	}
	return false
}

// String returns the token text.
func (s SpecialToken) String() string {
	return string(s)
}
