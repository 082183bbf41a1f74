package anyembed

import (
	"fmt"

	"github.com/unixpickle/anyvec"
)

// EmbedTokens creates a dataset transform which maps a
// []int sequence of row indices to the corresponding
// []anyvec.Vector sequence of word vectors.
//
// The returned vectors belong to the table and should not
// be modified.
func EmbedTokens(t *Table) func(interface{}) interface{} {
	return func(x interface{}) interface{} {
		ids, ok := x.([]int)
		if !ok {
			panic(fmt.Sprintf("embed tokens: expected []int but got %T", x))
		}
		res := make([]anyvec.Vector, len(ids))
		for i, id := range ids {
			res[i] = t.EmbedID(id)
		}
		return res
	}
}
