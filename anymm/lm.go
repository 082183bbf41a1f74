package anymm

// Target is the key for the next-token targets of a
// language modeling example.
const Target = "target"

const defaultLMMaxLen = 256

// An LMDataset holds language modeling examples cut from a
// single token stream.
//
// Example i has the Text tokens[i:i+n] and the Target
// tokens[i+1:i+1+n], where n is the maximum length or
// the number of tokens left after i+1, whichever is
// smaller.
type LMDataset struct {
	*Dataset
}

// NewLM creates an LMDataset with one example per token,
// except for the last one.
//
// If maxLen is not positive, 256 is used.
func NewLM(tokens []int, maxLen int) *LMDataset {
	if maxLen <= 0 {
		maxLen = defaultLMMaxLen
	}
	var data []Example
	for idx := 0; idx < len(tokens)-1; idx++ {
		n := len(tokens) - 1 - idx
		if n > maxLen {
			n = maxLen
		}
		data = append(data, Example{
			Text:   tokens[idx : idx+n : idx+n],
			Target: tokens[idx+1 : idx+1+n : idx+1+n],
		})
	}
	return &LMDataset{Dataset: New(data, Text, Target)}
}

// Map registers a transform for both the inputs and the
// targets.
// If lazy is false, every pending transform is applied
// immediately.
func (l *LMDataset) Map(fn Transform, lazy bool) *LMDataset {
	l.Dataset.Map(fn, Text, true)
	l.Dataset.Map(fn, Target, lazy)
	return l
}

// Pair returns the inputs and targets of an example with
// the pending transforms applied.
func (l *LMDataset) Pair(idx int) (inputs, targets interface{}) {
	ex := l.Get(idx)
	return ex[Text], ex[Target]
}
