package anymm

import (
	"fmt"
	"sort"

	"github.com/unixpickle/anyvec"
)

// NewMOSI creates a Dataset for CMU-MOSI style examples.
//
// Labels are reduced to a scalar sentiment score using
// FirstElement.
// If binary is set, scores are then thresholded with
// BinarizeLabel.
func NewMOSI(data []Example, binary bool, modalities ...string) *Dataset {
	res := New(data, modalities...)
	res.Map(FirstElement, Label, true)
	if binary {
		res.Map(BinarizeLabel, Label, true)
	}
	return res
}

// NewMOSEI creates a Dataset for CMU-MOSEI style examples.
//
// The selector reduces each label to the desired target.
// If it is nil, FirstElement is used.
func NewMOSEI(data []Example, selector Transform, modalities ...string) *Dataset {
	if selector == nil {
		selector = FirstElement
	}
	res := New(data, modalities...)
	res.Map(selector, Label, true)
	return res
}

// Binarize maps non-positive scores to 0 and positive
// scores to 1.
func Binarize(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}

// BinarizeLabel applies Binarize to a float64 payload.
func BinarizeLabel(x interface{}) interface{} {
	return Binarize(x.(float64))
}

// FirstElement reduces a label payload to a float64 by
// taking its first component.
//
// Supported payloads are scalars, []float64, [][]float64,
// and anyvec.Vector.
func FirstElement(x interface{}) interface{} {
	switch x := x.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case []float64:
		if len(x) == 0 {
			panic("first element: empty label")
		}
		return x[0]
	case [][]float64:
		if len(x) == 0 || len(x[0]) == 0 {
			panic("first element: empty label")
		}
		return x[0][0]
	case anyvec.Vector:
		switch data := x.Data().(type) {
		case []float32:
			return float64(data[0])
		case []float64:
			return data[0]
		}
	}
	panic(fmt.Sprintf("first element: unsupported label type %T", x))
}

// NewClassification creates a text-only Dataset with
// integer class labels.
//
// Class labels are numbered in sorted order; the sorted
// class names are returned alongside the Dataset.
//
// It panics if there is not exactly one label per text.
func NewClassification(texts [][]int, labels []string) (*Dataset, []string) {
	if len(texts) != len(labels) {
		panic(fmt.Sprintf("new classification: %d texts but %d labels",
			len(texts), len(labels)))
	}
	ids, classes := EncodeLabels(labels)
	data := make([]Example, len(texts))
	for i, text := range texts {
		data[i] = Example{Text: text, Label: ids[i]}
	}
	return New(data, Text), classes
}

// EncodeLabels maps string labels to class indices.
// The classes are numbered in sorted order.
func EncodeLabels(labels []string) (ids []int, classes []string) {
	seen := map[string]bool{}
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			classes = append(classes, l)
		}
	}
	sort.Strings(classes)
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	ids = make([]int, len(labels))
	for i, l := range labels {
		ids[i] = index[l]
	}
	return ids, classes
}
