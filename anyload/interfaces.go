// Package anyload feeds shuffled mini-batches of samples to
// a consumer, such as a training loop.
package anyload

// A SampleList represents a list of samples.
type SampleList interface {
	// Len returns the number of samples.
	Len() int

	// Swap swaps two samples.
	Swap(i, j int)

	// Slice generates a shallow copy of a subset of the
	// list.
	Slice(i, j int) SampleList
}

// PostShuffler is used to notify a SampleList that it has
// been shuffled, allowing it to perform any sample
// re-ordering it likes.
//
// For example, a PostShuffler can group samples of similar
// length so that they end up in the same mini-batch.
type PostShuffler interface {
	PostShuffle()
}

// A Batch is an immutable, fully materialized group of
// samples.
//
// In contrast to a SampleList, a Batch is not assumed to
// use lazy evaluation.
// Batches should only be created when they are about to
// be used.
type Batch interface{}

// A Fetcher is responsible for fetching Batches for
// SampleLists.
//
// A Loader calls its Fetcher from a background goroutine,
// so that the next Batch can be ready as soon as the
// previous one has been consumed.
type Fetcher interface {
	Fetch(s SampleList) (Batch, error)
}

// A SortableSampleList is a SampleList which can cheaply
// report the length of each sample.
type SortableSampleList interface {
	SampleList

	LenAt(idx int) int
}

// A Wrapper is a SampleList which decorates another one,
// such as a SortSampleList.
type Wrapper interface {
	SampleList

	Unwrap() SampleList
}

// Unwrap strips Wrappers from s until it finds a list
// for which match returns true.
// It returns nil if there is no such list.
func Unwrap(s SampleList, match func(s SampleList) bool) SampleList {
	for s != nil {
		if match(s) {
			return s
		}
		w, ok := s.(Wrapper)
		if !ok {
			return nil
		}
		s = w.Unwrap()
	}
	return nil
}
