package anymm

import (
	"fmt"

	"github.com/unixpickle/anyvec"
)

const instanceNormEpsilon = 1e-5

// ToVectors creates a Transform which converts a
// [][]float64 feature sequence into a []anyvec.Vector.
// Payloads which are already []anyvec.Vector pass through.
func ToVectors(c anyvec.Creator) Transform {
	return func(x interface{}) interface{} {
		switch x := x.(type) {
		case []anyvec.Vector:
			return x
		case [][]float64:
			res := make([]anyvec.Vector, len(x))
			for i, frame := range x {
				res[i] = c.MakeVectorData(c.MakeNumericList(frame))
			}
			return res
		default:
			panic(fmt.Sprintf("to vectors: unsupported type %T", x))
		}
	}
}

// InstanceNorm normalizes a []anyvec.Vector sequence so
// that every feature has zero mean and unit variance over
// time.
// The input vectors are not modified.
func InstanceNorm(x interface{}) interface{} {
	seq := x.([]anyvec.Vector)
	if len(seq) == 0 {
		return seq
	}
	c := seq[0].Creator()
	dim := seq[0].Len()
	joined := c.Concat(seq...)
	normalizer := c.MakeNumeric(1 / float64(len(seq)))

	mean := anyvec.SumRows(joined, dim)
	mean.Scale(normalizer)

	squared := joined.Copy()
	squared.Mul(joined)
	variance := anyvec.SumRows(squared, dim)
	variance.Scale(normalizer)
	meanSq := mean.Copy()
	meanSq.Mul(mean)
	variance.Sub(meanSq)
	variance.AddScalar(c.MakeNumeric(instanceNormEpsilon))
	anyvec.Pow(variance, c.MakeNumeric(-0.5))

	mean.Scale(c.MakeNumeric(-1))
	anyvec.AddRepeated(joined, mean)
	anyvec.ScaleRepeated(joined, variance)

	res := make([]anyvec.Vector, len(seq))
	for i := range res {
		res[i] = joined.Slice(i*dim, (i+1)*dim)
	}
	return res
}

// Truncate creates a Transform which keeps at most the
// first n steps of a sequence payload.
func Truncate(n int) Transform {
	return func(x interface{}) interface{} {
		if seqLen(x) <= n {
			return x
		}
		switch x := x.(type) {
		case []int:
			return x[:n]
		case []string:
			return x[:n]
		case []anyvec.Vector:
			return x[:n]
		case [][]float64:
			return x[:n]
		}
		return x
	}
}
