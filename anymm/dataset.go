// Package anymm stores multimodal examples and applies
// per-modality preprocessing to them.
package anymm

import (
	"crypto/md5"
	"fmt"
	"io"
	"log"

	"github.com/schollz/progressbar/v2"
	"github.com/unixpickle/anysent/anyload"
	"github.com/unixpickle/anyvec"
)

// Standard modality keys.
const (
	Text   = "text"
	Audio  = "audio"
	Visual = "visual"

	// Label is the key for the target value.
	// It always has a transform pipeline.
	Label = "label"

	// ID is an optional key which identifies an example.
	// If present, it is used for hashing.
	ID = "id"
)

// DefaultModalities returns the modalities used when none
// are specified.
func DefaultModalities() []string {
	return []string{Text, Audio, Visual}
}

// An Example maps modality names to payloads.
type Example map[string]interface{}

// A Transform preprocesses a single payload.
type Transform func(x interface{}) interface{}

// A Dataset is a list of multimodal examples with a queue
// of pending transforms for each modality.
//
// Transforms registered for a modality are applied in the
// order they were registered.
// Lazy transforms run whenever an example is read, without
// modifying the stored data; Apply makes them permanent.
//
// A Dataset implements anyload.Hasher and
// anyload.SortableSampleList.
type Dataset struct {
	// Logger, if non-nil, receives diagnostics from Apply.
	Logger *log.Logger

	// Progress, if non-nil, receives a progress bar for
	// every modality processed by Apply.
	Progress io.Writer

	data       []Example
	modalities []string
	pipelines  map[string][]Transform
}

// New creates a Dataset for the examples.
//
// If no modalities are given, DefaultModalities is used.
// The Label modality is always added.
//
// New does not check the examples. Transforms skip
// examples which lack a modality, so use Validate when
// every example must carry every modality.
func New(data []Example, modalities ...string) *Dataset {
	if len(modalities) == 0 {
		modalities = DefaultModalities()
	}
	res := &Dataset{
		data:      data,
		pipelines: map[string][]Transform{Label: nil},
	}
	for _, m := range modalities {
		if _, ok := res.pipelines[m]; ok {
			continue
		}
		res.modalities = append(res.modalities, m)
		res.pipelines[m] = nil
	}
	return res
}

// Modalities returns the input modalities, not including
// Label.
func (d *Dataset) Modalities() []string {
	return append([]string{}, d.modalities...)
}

// Validate checks that every example has a payload for
// every modality.
// Label is only required if the first example has one.
func (d *Dataset) Validate() error {
	if len(d.data) == 0 {
		return nil
	}
	required := d.Modalities()
	if _, ok := d.data[0][Label]; ok {
		required = append(required, Label)
	}
	for i, ex := range d.data {
		for _, m := range required {
			if _, ok := ex[m]; !ok {
				return fmt.Errorf("validate dataset: example %d has no %s", i, m)
			}
		}
	}
	return nil
}

// Map registers a transform for a modality.
//
// If the modality is unknown, Map does nothing.
// If lazy is false, every pending transform is applied
// immediately.
//
// Map returns d so that calls can be chained.
func (d *Dataset) Map(fn Transform, modality string, lazy bool) *Dataset {
	if _, ok := d.pipelines[modality]; !ok {
		return d
	}
	d.pipelines[modality] = append(d.pipelines[modality], fn)
	if !lazy {
		d.Apply()
	}
	return d
}

// Pending returns the number of transforms which have not
// been applied to the stored data of a modality.
func (d *Dataset) Pending(modality string) int {
	return len(d.pipelines[modality])
}

// Apply runs every pending transform on the stored data
// and clears the pipelines.
func (d *Dataset) Apply() *Dataset {
	for _, m := range d.allModalities() {
		fns := d.pipelines[m]
		if len(fns) == 0 {
			continue
		}
		if d.Logger != nil {
			d.Logger.Printf("Applying %d transforms to %s data.", len(fns), m)
		}
		var bar *progressbar.ProgressBar
		if d.Progress != nil {
			bar = progressbar.NewOptions(len(d.data),
				progressbar.OptionSetWriter(d.Progress),
				progressbar.OptionSetDescription("Transforming "+m+"..."))
		}
		for _, ex := range d.data {
			if x, ok := ex[m]; ok {
				ex[m] = compose(fns)(x)
			}
			if bar != nil {
				bar.Add(1)
			}
		}
		if bar != nil {
			bar.Finish()
		}
		d.pipelines[m] = nil
	}
	return d
}

// Get returns a copy of an example with the pending
// transforms applied.
//
// The stored example is not modified, so Get may be called
// concurrently as long as nothing modifies the Dataset.
func (d *Dataset) Get(idx int) Example {
	stored := d.data[idx]
	res := make(Example, len(stored))
	for k, v := range stored {
		res[k] = v
	}
	for _, m := range d.allModalities() {
		if fns := d.pipelines[m]; len(fns) > 0 {
			if x, ok := res[m]; ok {
				res[m] = compose(fns)(x)
			}
		}
	}
	return res
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	return len(d.data)
}

// Swap swaps two examples.
func (d *Dataset) Swap(i, j int) {
	d.data[i], d.data[j] = d.data[j], d.data[i]
}

// Slice creates a Dataset with a subset of the examples.
//
// The result inherits the pending transforms, but the two
// pipelines are independent from then on.
// The examples are shallow copies, so applying transforms
// to one Dataset never affects the other.
func (d *Dataset) Slice(i, j int) anyload.SampleList {
	res := &Dataset{
		Logger:     d.Logger,
		Progress:   d.Progress,
		data:       make([]Example, j-i),
		modalities: d.modalities,
		pipelines:  map[string][]Transform{},
	}
	for k, ex := range d.data[i:j] {
		cp := make(Example, len(ex))
		for key, val := range ex {
			cp[key] = val
		}
		res.data[k] = cp
	}
	for m, fns := range d.pipelines {
		res.pipelines[m] = append([]Transform{}, fns...)
	}
	return res
}

// Hash hashes an example by its ID, or by its stored text
// if it has no ID.
func (d *Dataset) Hash(i int) []byte {
	ex := d.data[i]
	key, ok := ex[ID]
	if !ok {
		key = ex[Text]
	}
	sum := md5.Sum([]byte(fmt.Sprint(key)))
	return sum[:]
}

// LenAt returns the length of the stored text sequence of
// an example, or 0 if it has none.
func (d *Dataset) LenAt(i int) int {
	return seqLen(d.data[i][Text])
}

func (d *Dataset) allModalities() []string {
	return append(d.Modalities(), Label)
}

func compose(fns []Transform) Transform {
	return func(x interface{}) interface{} {
		for _, f := range fns {
			x = f(x)
		}
		return x
	}
}

func seqLen(x interface{}) int {
	switch x := x.(type) {
	case []int:
		return len(x)
	case []string:
		return len(x)
	case []anyvec.Vector:
		return len(x)
	case [][]float64:
		return len(x)
	default:
		return 0
	}
}
