package anycollate

import (
	"github.com/unixpickle/anydiff/anyseq"
	"github.com/unixpickle/anyvec"
)

// A Batch stores a padded mini-batch of multimodal
// examples.
type Batch struct {
	// Num is the number of examples.
	Num int

	// Tokens stores modalities with token ID payloads.
	Tokens map[string]*IDBatch

	// Features stores modalities with feature vector
	// payloads.
	Features map[string]*SeqBatch

	// Labels stores the packed labels, or nil if the
	// examples have no labels.
	Labels anyvec.Vector
}

// An IDBatch is a padded batch of token ID sequences.
type IDBatch struct {
	// IDs has one row per example, each MaxLen IDs long.
	// Padding uses ID 0.
	IDs [][]int

	// Lengths stores the unpadded sequence lengths.
	Lengths []int

	MaxLen int
}

// A SeqBatch is a padded batch of feature sequences.
type SeqBatch struct {
	// Packed stores Num*MaxLen*Dim components, example
	// after example and timestep after timestep.
	// Padding timesteps are zero.
	Packed anyvec.Vector

	// Lengths stores the unpadded sequence lengths.
	Lengths []int

	MaxLen int
	Dim    int

	// PadFront indicates that padding comes before the
	// real timesteps.
	PadFront bool

	seqs [][]anyvec.Vector
}

// Seq returns the batch as an unpadded anyseq.Seq, which
// can be fed directly to recurrent blocks.
func (s *SeqBatch) Seq() anyseq.Seq {
	return anyseq.ConstSeqList(s.Packed.Creator(), s.seqs)
}

// Mask returns a vector with Num*MaxLen components, which
// are 1 for real timesteps and 0 for padding.
func (s *SeqBatch) Mask() anyvec.Vector {
	return lengthMask(s.Packed.Creator(), s.Lengths, s.MaxLen, s.PadFront)
}

func lengthMask(c anyvec.Creator, lengths []int, maxLen int, padFront bool) anyvec.Vector {
	data := make([]float64, len(lengths)*maxLen)
	for i, l := range lengths {
		row := data[i*maxLen : (i+1)*maxLen]
		start := 0
		if padFront {
			start = maxLen - l
		}
		for j := start; j < start+l; j++ {
			row[j] = 1
		}
	}
	return c.MakeVectorData(c.MakeNumericList(data))
}
