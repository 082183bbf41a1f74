package anyload

import "math/rand"

// Shuffle shuffles a list of samples.
// If the list implements PostShuffler, then PostShuffle
// is called after the shuffle completes.
func Shuffle(s SampleList) {
	ShuffleRand(s, nil)
}

// ShuffleRand is like Shuffle, but with an explicit source
// of randomness.
// If r is nil, the global source is used.
func ShuffleRand(s SampleList, r *rand.Rand) {
	intn := rand.Intn
	if r != nil {
		intn = r.Intn
	}
	for i := s.Len() - 1; i > 0; i-- {
		s.Swap(i, intn(i+1))
	}
	if p, ok := s.(PostShuffler); ok {
		p.PostShuffle()
	}
}
