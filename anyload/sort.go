package anyload

import "sort"

// A SortSampleList wraps a SortableSampleList and sorts
// its samples by length within small chunks after every
// shuffle.
//
// With a chunk size equal to the batch size, each batch
// holds sequences of similar length, which keeps padding
// to a minimum while preserving the randomness of the
// shuffle across batches.
type SortSampleList struct {
	SortableSampleList

	// BatchSize is the size of the chunks that should be
	// sorted.
	BatchSize int
}

// Slice produces a subset of the SortSampleList.
func (s *SortSampleList) Slice(i, j int) SampleList {
	return &SortSampleList{
		SortableSampleList: s.SortableSampleList.Slice(i, j).(SortableSampleList),
		BatchSize:          s.BatchSize,
	}
}

// Unwrap returns the wrapped list, which may offer more
// methods than a SortableSampleList.
func (s *SortSampleList) Unwrap() SampleList {
	return s.SortableSampleList
}

// PostShuffle sorts each chunk of samples by length.
func (s *SortSampleList) PostShuffle() {
	if p, ok := s.SortableSampleList.(PostShuffler); ok {
		p.PostShuffle()
	}
	if s.BatchSize <= 0 {
		return
	}
	for start := 0; start < s.Len(); start += s.BatchSize {
		end := start + s.BatchSize
		if end > s.Len() {
			end = s.Len()
		}
		sort.Stable(&chunk{list: s.SortableSampleList, start: start, end: end})
	}
}

type chunk struct {
	list  SortableSampleList
	start int
	end   int
}

func (c *chunk) Len() int {
	return c.end - c.start
}

func (c *chunk) Swap(i, j int) {
	c.list.Swap(c.start+i, c.start+j)
}

func (c *chunk) Less(i, j int) bool {
	return c.list.LenAt(c.start+i) < c.list.LenAt(c.start+j)
}
