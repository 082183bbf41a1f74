package anyload

import (
	"errors"
	"math/rand"
	"reflect"
	"sort"
	"strconv"
	"testing"
)

type testSampleList []int

func newTestSampleList(n int) testSampleList {
	res := make(testSampleList, n)
	for i := range res {
		res[i] = i
	}
	return res
}

func (t testSampleList) Len() int {
	return len(t)
}

func (t testSampleList) Swap(i, j int) {
	t[i], t[j] = t[j], t[i]
}

func (t testSampleList) Slice(i, j int) SampleList {
	return append(testSampleList{}, t[i:j]...)
}

func (t testSampleList) Hash(i int) []byte {
	// Cheap, deterministic, and spread over the byte range.
	x := uint32(t[i])*2654435761 + 12345
	return []byte{byte(x >> 24), byte(x >> 16), byte(x >> 8), byte(x)}
}

func (t testSampleList) LenAt(i int) int {
	return t[i] % 7
}

type testFetcher struct{}

func (t testFetcher) Fetch(s SampleList) (Batch, error) {
	return append([]int{}, s.(testSampleList)...), nil
}

func TestLoaderEpoch(t *testing.T) {
	l := &Loader{
		Samples:   newTestSampleList(10),
		Fetcher:   testFetcher{},
		BatchSize: 3,
		Shuffle:   true,
		Rand:      rand.New(rand.NewSource(42)),
		Prefetch:  2,
	}
	var sizes []int
	var seen []int
	err := l.Epoch(func(b Batch) error {
		sizes = append(sizes, len(b.([]int)))
		seen = append(seen, b.([]int)...)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(sizes, []int{3, 3, 3, 1}) {
		t.Errorf("unexpected batch sizes: %v", sizes)
	}
	sort.Ints(seen)
	if !reflect.DeepEqual(seen, []int(newTestSampleList(10))) {
		t.Errorf("epoch did not cover every sample once: %v", seen)
	}
	if l.NumProcessed != 10 {
		t.Errorf("expected 10 processed but got %d", l.NumProcessed)
	}
}

func TestLoaderRunStops(t *testing.T) {
	l := &Loader{Samples: newTestSampleList(5), Fetcher: testFetcher{}, BatchSize: 2}
	done := make(chan struct{})
	var count int
	err := l.Run(done, func(b Batch) error {
		count++
		if count == 7 {
			close(done)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if count != 7 {
		t.Errorf("expected 7 batches but got %d", count)
	}
}

func TestLoaderRunError(t *testing.T) {
	l := &Loader{Samples: newTestSampleList(5), Fetcher: testFetcher{}}
	expected := errors.New("stop here")
	err := l.Run(make(chan struct{}), func(b Batch) error {
		return expected
	})
	if err != expected {
		t.Errorf("expected %v but got %v", expected, err)
	}

	l.Fetcher = failingFetcher{}
	err = l.Epoch(func(b Batch) error { return nil })
	if err == nil {
		t.Error("expected fetch error")
	}

	if err := (&Loader{Samples: testSampleList{}}).Run(nil, nil); err == nil {
		t.Error("expected error for empty list")
	}
}

type failingFetcher struct{}

func (f failingFetcher) Fetch(s SampleList) (Batch, error) {
	return nil, errors.New("no batch for " + strconv.Itoa(s.Len()) + " samples")
}

func TestHashSplit(t *testing.T) {
	list := newTestSampleList(1000)
	left, right := HashSplit(list, 0.3)
	if left.Len()+right.Len() != 1000 {
		t.Fatalf("bad partition sizes: %d, %d", left.Len(), right.Len())
	}
	if left.Len() < 200 || left.Len() > 400 {
		t.Errorf("unexpected left size: %d", left.Len())
	}

	// Splits must not depend on the initial order.
	shuffled := newTestSampleList(1000)
	ShuffleRand(shuffled, rand.New(rand.NewSource(1)))
	left2, _ := HashSplit(shuffled, 0.3)
	a := append([]int{}, left.(testSampleList)...)
	b := append([]int{}, left2.(testSampleList)...)
	sort.Ints(a)
	sort.Ints(b)
	if !reflect.DeepEqual(a, b) {
		t.Error("split depends on sample order")
	}

	if l, r := HashSplit(newTestSampleList(4), 0); l.Len() != 0 || r.Len() != 4 {
		t.Error("bad split for ratio 0")
	}
	if l, r := HashSplit(newTestSampleList(4), 1); l.Len() != 4 || r.Len() != 0 {
		t.Error("bad split for ratio 1")
	}
}

func TestSortSampleList(t *testing.T) {
	list := &SortSampleList{SortableSampleList: newTestSampleList(20), BatchSize: 5}
	Shuffle(list)
	inner := list.SortableSampleList
	for start := 0; start < 20; start += 5 {
		for i := start + 1; i < start+5; i++ {
			if inner.LenAt(i-1) > inner.LenAt(i) {
				t.Fatalf("chunk at %d not sorted", start)
			}
		}
	}
	sliced := list.Slice(0, 5).(*SortSampleList)
	if sliced.BatchSize != 5 || sliced.Len() != 5 {
		t.Error("bad slice")
	}
}

func TestUnwrap(t *testing.T) {
	inner := newTestSampleList(4)
	wrapped := &SortSampleList{SortableSampleList: inner, BatchSize: 2}
	isPlain := func(s SampleList) bool {
		_, ok := s.(testSampleList)
		return ok
	}
	if res := Unwrap(wrapped.Slice(0, 2), isPlain); res == nil || res.Len() != 2 {
		t.Errorf("unexpected unwrapped list: %v", res)
	}
	if res := Unwrap(wrapped, func(s SampleList) bool { return false }); res != nil {
		t.Errorf("expected nil but got %v", res)
	}
}
