// Package anycollate turns lists of multimodal examples
// into padded mini-batches.
package anycollate

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/unixpickle/anysent/anyload"
	"github.com/unixpickle/anysent/anymm"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec32"
	"github.com/unixpickle/essentials"
)

// An ExampleList is a SampleList of multimodal examples,
// such as an *anymm.Dataset.
type ExampleList interface {
	anyload.SampleList

	Get(idx int) anymm.Example
}

// A Collator is an anyload.Fetcher which produces
// *Batch values.
//
// Modalities with []int payloads become IDBatches.
// Modalities with []anyvec.Vector or [][]float64 payloads
// become SeqBatches.
type Collator struct {
	// Modalities lists the modalities to collate.
	// If nil, the list's modalities are used when it
	// reports them, or else anymm.DefaultModalities().
	Modalities []string

	// Creator is used for vectors.
	// If nil, anyvec32.CurrentCreator() is used.
	Creator anyvec.Creator

	// PadFront puts padding before sequences instead of
	// after them.
	PadFront bool

	// MaxLen, if positive, truncates sequences.
	// Truncation keeps the end of a sequence if PadFront is
	// set, and the beginning otherwise.
	MaxLen int

	// Binary thresholds labels with anymm.Binarize.
	Binary bool

	// MaxGos specifies the maximum goroutines to use
	// simultaneously for fetching examples.
	// If it is not positive, GOMAXPROCS is used.
	MaxGos int
}

// Fetch produces a *Batch for the examples.
// The s argument must implement ExampleList.
// The batch may not be empty.
func (c *Collator) Fetch(s anyload.SampleList) (anyload.Batch, error) {
	if s.Len() == 0 {
		return nil, errors.New("collate: empty batch")
	}
	inner := anyload.Unwrap(s, func(s anyload.SampleList) bool {
		_, ok := s.(ExampleList)
		return ok
	})
	if inner == nil {
		return nil, fmt.Errorf("collate: unsupported sample list %T", s)
	}
	l := inner.(ExampleList)
	examples, err := c.fetchExamples(l)
	if err != nil {
		return nil, err
	}
	return c.Collate(examples, c.modalities(l))
}

// Collate packs a list of examples into a *Batch.
func (c *Collator) Collate(examples []anymm.Example, modalities []string) (*Batch, error) {
	if len(examples) == 0 {
		return nil, errors.New("collate: empty batch")
	}
	res := &Batch{
		Num:      len(examples),
		Tokens:   map[string]*IDBatch{},
		Features: map[string]*SeqBatch{},
	}
	for _, m := range modalities {
		if _, ok := examples[0][m]; !ok {
			continue
		}
		switch examples[0][m].(type) {
		case []int:
			b, err := c.collateIDs(examples, m)
			if err != nil {
				return nil, essentials.AddCtx("collate "+m, err)
			}
			res.Tokens[m] = b
		default:
			b, err := c.collateFeatures(examples, m)
			if err != nil {
				return nil, essentials.AddCtx("collate "+m, err)
			}
			res.Features[m] = b
		}
	}
	labels, err := c.collateLabels(examples)
	if err != nil {
		return nil, essentials.AddCtx("collate labels", err)
	}
	res.Labels = labels
	return res, nil
}

func (c *Collator) fetchExamples(l ExampleList) ([]anymm.Example, error) {
	res := make([]anymm.Example, l.Len())

	idxChan := make(chan int, l.Len())
	for i := 0; i < l.Len(); i++ {
		idxChan <- i
	}
	close(idxChan)

	maxGos := c.MaxGos
	if maxGos <= 0 {
		maxGos = runtime.GOMAXPROCS(0)
	}

	var wg sync.WaitGroup
	errChan := make(chan error, maxGos)
	for i := 0; i < maxGos; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idxChan {
				ex, err := getExample(l, i)
				if err != nil {
					errChan <- essentials.AddCtx("collate", err)
					return
				}
				res[i] = ex
			}
		}()
	}
	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return nil, err
	}
	return res, nil
}

// getExample reports a panic from Get as an error.
func getExample(l ExampleList, i int) (ex anymm.Example, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("example %d: %v", i, r)
		}
	}()
	return l.Get(i), nil
}

func (c *Collator) collateIDs(examples []anymm.Example, m string) (*IDBatch, error) {
	seqs := make([][]int, len(examples))
	for i, ex := range examples {
		ids, ok := ex[m].([]int)
		if !ok {
			return nil, fmt.Errorf("example %d: expected []int but got %T", i, ex[m])
		}
		seqs[i] = c.truncateIDs(ids)
	}
	res := &IDBatch{Lengths: make([]int, len(seqs))}
	for i, s := range seqs {
		res.Lengths[i] = len(s)
		if len(s) > res.MaxLen {
			res.MaxLen = len(s)
		}
	}
	res.IDs = make([][]int, len(seqs))
	for i, s := range seqs {
		row := make([]int, res.MaxLen)
		if c.PadFront {
			copy(row[res.MaxLen-len(s):], s)
		} else {
			copy(row, s)
		}
		res.IDs[i] = row
	}
	return res, nil
}

func (c *Collator) collateFeatures(examples []anymm.Example, m string) (*SeqBatch, error) {
	cr := c.creator()
	res := &SeqBatch{
		Lengths:  make([]int, len(examples)),
		Dim:      -1,
		PadFront: c.PadFront,
		seqs:     make([][]anyvec.Vector, len(examples)),
	}
	for i, ex := range examples {
		seq, err := featureSeq(cr, ex[m])
		if err != nil {
			return nil, essentials.AddCtx(fmt.Sprintf("example %d", i), err)
		}
		seq = c.truncateFeatures(seq)
		for _, frame := range seq {
			if res.Dim == -1 {
				res.Dim = frame.Len()
			} else if frame.Len() != res.Dim {
				return nil, fmt.Errorf("example %d: inconsistent feature size %d (expected %d)",
					i, frame.Len(), res.Dim)
			}
		}
		res.seqs[i] = seq
		res.Lengths[i] = len(seq)
		if len(seq) > res.MaxLen {
			res.MaxLen = len(seq)
		}
	}
	if res.Dim == -1 {
		res.Dim = 0
	}

	var parts []anyvec.Vector
	for _, seq := range res.seqs {
		padding := cr.MakeVector((res.MaxLen - len(seq)) * res.Dim)
		if c.PadFront {
			parts = append(parts, padding)
			parts = append(parts, seq...)
		} else {
			parts = append(parts, seq...)
			parts = append(parts, padding)
		}
	}
	res.Packed = cr.Concat(parts...)
	return res, nil
}

func (c *Collator) collateLabels(examples []anymm.Example) (anyvec.Vector, error) {
	if _, ok := examples[0][anymm.Label]; !ok {
		return nil, nil
	}
	var values []float64
	for i, ex := range examples {
		x, ok := ex[anymm.Label]
		if !ok {
			return nil, fmt.Errorf("example %d: missing label", i)
		}
		v, err := labelValues(x)
		if err != nil {
			return nil, essentials.AddCtx(fmt.Sprintf("example %d", i), err)
		}
		values = append(values, v...)
	}
	if c.Binary {
		for i, v := range values {
			values[i] = anymm.Binarize(v)
		}
	}
	cr := c.creator()
	return cr.MakeVectorData(cr.MakeNumericList(values)), nil
}

func (c *Collator) truncateIDs(ids []int) []int {
	if c.MaxLen <= 0 || len(ids) <= c.MaxLen {
		return ids
	}
	if c.PadFront {
		return ids[len(ids)-c.MaxLen:]
	}
	return ids[:c.MaxLen]
}

func (c *Collator) truncateFeatures(seq []anyvec.Vector) []anyvec.Vector {
	if c.MaxLen <= 0 || len(seq) <= c.MaxLen {
		return seq
	}
	if c.PadFront {
		return seq[len(seq)-c.MaxLen:]
	}
	return seq[:c.MaxLen]
}

func (c *Collator) modalities(l ExampleList) []string {
	if c.Modalities != nil {
		return c.Modalities
	}
	if m, ok := l.(interface {
		Modalities() []string
	}); ok {
		return m.Modalities()
	}
	return anymm.DefaultModalities()
}

func (c *Collator) creator() anyvec.Creator {
	if c.Creator == nil {
		return anyvec32.CurrentCreator()
	}
	return c.Creator
}

func featureSeq(c anyvec.Creator, x interface{}) ([]anyvec.Vector, error) {
	switch x := x.(type) {
	case []anyvec.Vector:
		return x, nil
	case [][]float64:
		return anymm.ToVectors(c)(x).([]anyvec.Vector), nil
	default:
		return nil, fmt.Errorf("unsupported feature type %T", x)
	}
}

func labelValues(x interface{}) ([]float64, error) {
	switch x := x.(type) {
	case float64:
		return []float64{x}, nil
	case float32:
		return []float64{float64(x)}, nil
	case int:
		return []float64{float64(x)}, nil
	case []float64:
		return x, nil
	case anyvec.Vector:
		switch data := x.Data().(type) {
		case []float32:
			res := make([]float64, len(data))
			for i, v := range data {
				res[i] = float64(v)
			}
			return res, nil
		case []float64:
			return data, nil
		}
	}
	return nil, fmt.Errorf("unsupported label type %T", x)
}
