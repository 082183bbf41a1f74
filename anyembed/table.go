// Package anyembed loads pretrained word embeddings from
// text files and caches the parsed result.
package anyembed

import (
	"fmt"
	"math"
	"sort"

	"github.com/unixpickle/anysent"
	"github.com/unixpickle/anyvec"
)

// A Table is a list of word vectors with a bijection
// between tokens and row indices.
//
// Row 0 is always the padding token with a zero vector.
type Table struct {
	Dim      int
	Vectors  []anyvec.Vector
	Word2Idx map[string]int
	Idx2Word []string
}

// newTable creates a table with no rows.
func newTable(dim int) *Table {
	return &Table{Dim: dim, Word2Idx: map[string]int{}}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Vectors)
}

// Creator returns the creator of the table's vectors.
func (t *Table) Creator() anyvec.Creator {
	return t.Vectors[0].Creator()
}

// ID returns the row index for a token.
//
// Tokens that are not in the table map to the index of
// the unknown token, or -1 if the table has no unknown
// token.
func (t *Table) ID(token string) int {
	if idx, ok := t.Word2Idx[token]; ok {
		return idx
	}
	if idx, ok := t.Word2Idx[anysent.Unk.String()]; ok {
		return idx
	}
	return -1
}

// Token returns the token for a row index.
func (t *Table) Token(id int) string {
	return t.Idx2Word[id]
}

// Embed returns the vector for a token, falling back to
// the unknown token.
// It returns nil if neither is present.
func (t *Table) Embed(token string) anyvec.Vector {
	id := t.ID(token)
	if id < 0 {
		return nil
	}
	return t.Vectors[id]
}

// EmbedID returns the vector for a row index.
func (t *Table) EmbedID(id int) anyvec.Vector {
	if id < 0 || id >= len(t.Vectors) {
		panic(fmt.Sprintf("embedding index %d out of range [0, %d)", id, len(t.Vectors)))
	}
	return t.Vectors[id]
}

// Matrix packs the table into a single row-major vector
// with Len()*Dim components.
func (t *Table) Matrix() anyvec.Vector {
	return t.Creator().Concat(t.Vectors...)
}

// Lookup finds the n rows with the highest cosine
// similarity to vec.
//
// If n is greater than the number of rows, there will be
// fewer than n results.
// The zero padding row is never returned.
func (t *Table) Lookup(vec anyvec.Vector, n int) ([]int, []float64) {
	vecNorm := math.Sqrt(numericFloat(vec.Dot(vec)))
	var ids []int
	var sims []float64
	for i, v := range t.Vectors {
		norm := math.Sqrt(numericFloat(v.Dot(v)))
		if norm == 0 || vecNorm == 0 {
			continue
		}
		ids = append(ids, i)
		sims = append(sims, numericFloat(v.Dot(vec))/(norm*vecNorm))
	}
	sort.Sort(&simSorter{IDs: ids, Sims: sims})
	if n < len(ids) {
		ids, sims = ids[:n], sims[:n]
	}
	return ids, sims
}

// convert re-creates every row with a different creator.
func (t *Table) convert(c anyvec.Creator) {
	for i, v := range t.Vectors {
		var values []float64
		switch data := v.Data().(type) {
		case []float32:
			values = make([]float64, len(data))
			for j, x := range data {
				values[j] = float64(x)
			}
		case []float64:
			values = data
		default:
			panic(fmt.Sprintf("unsupported vector data: %T", data))
		}
		t.Vectors[i] = c.MakeVectorData(c.MakeNumericList(values))
	}
}

// add appends a row for a token.
func (t *Table) add(token string, vec anyvec.Vector) {
	t.Word2Idx[token] = len(t.Vectors)
	t.Idx2Word = append(t.Idx2Word, token)
	t.Vectors = append(t.Vectors, vec)
}

type simSorter struct {
	IDs  []int
	Sims []float64
}

func (s *simSorter) Len() int {
	return len(s.IDs)
}

func (s *simSorter) Swap(i, j int) {
	s.IDs[i], s.IDs[j] = s.IDs[j], s.IDs[i]
	s.Sims[i], s.Sims[j] = s.Sims[j], s.Sims[i]
}

func (s *simSorter) Less(i, j int) bool {
	return s.Sims[i] > s.Sims[j]
}

func numericFloat(n anyvec.Numeric) float64 {
	switch n := n.(type) {
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		panic(fmt.Sprintf("unsupported numeric type: %T", n))
	}
}
