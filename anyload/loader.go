package anyload

import (
	"errors"
	"math/rand"

	"github.com/unixpickle/essentials"
)

// A Loader iterates over mini-batches of a SampleList,
// fetching upcoming batches in the background.
type Loader struct {
	// Samples is the list of samples to load.
	// It will be shuffled and re-shuffled as needed.
	Samples SampleList

	// Fetcher turns sample slices into Batches.
	Fetcher Fetcher

	// BatchSize is the mini-batch size.
	// If it is 0, every batch is the entire sample list.
	// The final batch of an epoch may be smaller.
	BatchSize int

	// Shuffle indicates whether or not the samples are
	// shuffled before every epoch.
	Shuffle bool

	// Rand, if non-nil, is used for shuffling.
	Rand *rand.Rand

	// Prefetch is the number of fetched batches which may
	// wait in a queue while the consumer is busy.
	Prefetch int

	// StatusFunc, if non-nil, is called with every slice of
	// samples before it is fetched.
	// It runs on the fetching goroutine.
	StatusFunc func(batch SampleList)

	// NumProcessed counts the samples which have been
	// passed to a consumer so far.
	NumProcessed int
}

type fetchResult struct {
	Batch Batch
	Num   int
	Err   error
}

// Run feeds batches to f, epoch after epoch, until done is
// closed or until a fetch or f fails.
//
// It returns nil if it was stopped by done.
func (l *Loader) Run(done <-chan struct{}, f func(b Batch) error) error {
	if l.Samples.Len() == 0 {
		return errors.New("run loader: empty sample list")
	}
	return l.consume(done, -1, f)
}

// Epoch feeds every sample to f exactly once, in batches.
func (l *Loader) Epoch(f func(b Batch) error) error {
	if l.Samples.Len() == 0 {
		return nil
	}
	return l.consume(nil, 1, f)
}

func (l *Loader) consume(done <-chan struct{}, epochs int, f func(b Batch) error) error {
	stop := make(chan struct{})
	defer close(stop)
	results := l.fetchLoop(stop, epochs)
	for {
		select {
		case <-done:
			return nil
		default:
		}
		select {
		case <-done:
			return nil
		case res, ok := <-results:
			if !ok {
				return nil
			}
			if res.Err != nil {
				return res.Err
			}
			if err := f(res.Batch); err != nil {
				return err
			}
			l.NumProcessed += res.Num
		}
	}
}

func (l *Loader) fetchLoop(stop <-chan struct{}, epochs int) <-chan fetchResult {
	prefetch := l.Prefetch
	if prefetch < 0 {
		prefetch = 0
	}
	res := make(chan fetchResult, prefetch)
	go func() {
		defer close(res)
		for epoch := 0; epochs < 0 || epoch < epochs; epoch++ {
			if l.Shuffle {
				ShuffleRand(l.Samples, l.Rand)
			}
			for idx := 0; idx < l.Samples.Len(); {
				size := l.batchSize(l.Samples.Len() - idx)
				batch := l.Samples.Slice(idx, idx+size)
				idx += size
				if l.StatusFunc != nil {
					l.StatusFunc(batch)
				}
				b, err := l.Fetcher.Fetch(batch)
				if err != nil {
					err = essentials.AddCtx("load batch", err)
				}
				select {
				case res <- fetchResult{Batch: b, Num: size, Err: err}:
				case <-stop:
					return
				}
				if err != nil {
					return
				}
			}
		}
	}()
	return res
}

func (l *Loader) batchSize(remaining int) int {
	if l.BatchSize == 0 || l.BatchSize > remaining {
		return remaining
	}
	return l.BatchSize
}
