package anycorpus

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/unixpickle/anysent"
)

func TestWordTokenizer(t *testing.T) {
	tok := &WordTokenizer{Lower: true}
	actual := tok.Tokenize("Hello, World!  [UNK] it's")
	expected := []string{"hello", ",", "world", "!", "[UNK]", "it's"}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("expected %v but got %v", expected, actual)
	}

	tok = &WordTokenizer{PrependBOS: true, AppendEOS: true}
	actual = tok.Tokenize("Big cat")
	expected = []string{"[BOS]", "Big", "cat", "[EOS]"}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("expected %v but got %v", expected, actual)
	}
}

func TestTokenIDs(t *testing.T) {
	conv := NewTokenIDs(map[string]int{"[UNK]": 1, "a": 2})
	if actual := conv.Convert([]string{"a", "z", "a"}); !reflect.DeepEqual(actual, []int{2, 1, 2}) {
		t.Errorf("unexpected IDs: %v", actual)
	}
	conv = NewTokenIDs(map[string]int{"a": 0})
	if actual := conv.Convert([]string{"z", "a"}); !reflect.DeepEqual(actual, []int{0}) {
		t.Errorf("unknown tokens should be dropped: %v", actual)
	}
	if actual := conv.Transform([]string{"a"}); !reflect.DeepEqual(actual, []int{0}) {
		t.Errorf("unexpected transform output: %v", actual)
	}
}

func TestTokenizedCorpus(t *testing.T) {
	c := NewTokenizedCorpus([][]string{{"a", "b", "a"}, {"c", "a"}},
		TokenizedCorpusConfig{MaxLen: 2})
	numSpecial := len(anysent.SpecialTokens())
	a, b, cc := numSpecial, numSpecial+1, numSpecial+2
	expected := [][]int{{a, b, a}, {cc, a}}
	if !reflect.DeepEqual(c.Indices(), expected) {
		t.Errorf("expected %v but got %v", expected, c.Indices())
	}
	if !reflect.DeepEqual(c.Get(0), []int{a, b}) {
		t.Errorf("expected truncated example but got %v", c.Get(0))
	}
	if c.Idx2Word()[a] != "a" || c.Word2Idx()["[PAD]"] != 0 {
		t.Error("unexpected ID mapping")
	}
	if c.VocabSize() != numSpecial+3 {
		t.Errorf("unexpected vocab size: %d", c.VocabSize())
	}
	if n, _ := c.Frequencies().Count("a"); n != 3 {
		t.Errorf("expected count 3 but got %d", n)
	}
	if c.Embeddings() != nil {
		t.Error("unexpected embeddings")
	}
}

func TestFlatTokenizedCorpus(t *testing.T) {
	c := NewFlatTokenizedCorpus([]string{"x", "y", "x"}, TokenizedCorpusConfig{
		Word2Idx: map[string]int{"x": 5, "[UNK]": 1},
	})
	if c.Len() != 1 {
		t.Fatalf("expected one example but got %d", c.Len())
	}
	if !reflect.DeepEqual(c.Get(0), []int{5, 1, 5}) {
		t.Errorf("unexpected IDs: %v", c.Get(0))
	}
}

func TestWordCorpusNoEmbeddings(t *testing.T) {
	c, err := NewWordCorpus([]string{"The cat sat.", "the CAT"}, WordCorpusConfig{})
	if err != nil {
		t.Fatal(err)
	}
	expectedToks := [][]string{{"the", "cat", "sat", "."}, {"the", "cat"}}
	if !reflect.DeepEqual(c.Tokenized(), expectedToks) {
		t.Errorf("expected %v but got %v", expectedToks, c.Tokenized())
	}
	n := len(anysent.SpecialTokens())
	if !reflect.DeepEqual(c.Get(1), []int{n, n + 1}) {
		t.Errorf("unexpected IDs: %v", c.Get(1))
	}
	if c.Missing() != 0 {
		t.Errorf("expected no missing tokens but got %d", c.Missing())
	}
	if c.Raw()[0] != "The cat sat." {
		t.Error("raw text was not kept")
	}
}

func TestWordCorpusLimit(t *testing.T) {
	c, err := NewWordCorpus([]string{"a a a b b c"}, WordCorpusConfig{
		LimitVocabSize: 2,
		Specials:       []string{"[PAD]", "[UNK]"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c.Frequencies().Order, []string{"[PAD]", "[UNK]", "a", "b"}) {
		t.Errorf("unexpected vocabulary: %v", c.Frequencies().Order)
	}
	if !reflect.DeepEqual(c.Get(0), []int{2, 2, 2, 3, 3, 1}) {
		t.Errorf("unexpected IDs: %v", c.Get(0))
	}
}

func TestWordCorpusEmbeddings(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("2 3\n")
	buf.WriteString("the 0.1 0.2 0.3\n")
	buf.WriteString("cat 0.4 0.5 0.6\n")
	path := filepath.Join(t.TempDir(), "toy.3d.txt")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	var logBuf bytes.Buffer
	c, err := NewWordCorpus([]string{"the cat sat"}, WordCorpusConfig{
		EmbeddingsFile: path,
		EmbeddingsDim:  3,
		Logger:         log.New(&logBuf, "", 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	n := len(anysent.SpecialTokens())
	unk := c.Word2Idx()["[UNK]"]
	if !reflect.DeepEqual(c.Get(0), []int{n, n + 1, unk}) {
		t.Errorf("unexpected IDs: %v", c.Get(0))
	}
	if c.Missing() != 1 {
		t.Errorf("expected 1 missing token but got %d", c.Missing())
	}
	if c.Frequencies().Contains("sat") {
		t.Error("vocabulary was not pruned")
	}
	if c.VocabSize() != n+2 {
		t.Errorf("expected vocab size %d but got %d", n+2, c.VocabSize())
	}
	if c.Embeddings() == nil || c.Embeddings().Len() != n+2 {
		t.Error("embeddings missing")
	}
	if !strings.Contains(logBuf.String(), "1 were not found") {
		t.Errorf("missing count not logged: %s", logBuf.String())
	}
}

func TestWordCorpusMissingEmbeddings(t *testing.T) {
	_, err := NewWordCorpus([]string{"hi"}, WordCorpusConfig{
		EmbeddingsFile: filepath.Join(t.TempDir(), "nope.txt"),
	})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error but got %v", err)
	}
}

func TestSubwordCorpus(t *testing.T) {
	c, err := NewSubwordCorpus([]string{"abc", "d"}, byteTokenizer{}, SubwordCorpusConfig{MaxLen: 2})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c.Indices(), [][]int{{'a', 'b', 'c'}, {'d'}}) {
		t.Errorf("unexpected indices: %v", c.Indices())
	}
	if !reflect.DeepEqual(c.Get(0), []int{'a', 'b'}) {
		t.Errorf("unexpected truncated IDs: %v", c.Get(0))
	}
	if !reflect.DeepEqual(c.Tokenized()[0], []string{"a", "b", "c"}) {
		t.Errorf("unexpected tokens: %v", c.Tokenized()[0])
	}
	if c.VocabSize() != 256 {
		t.Errorf("unexpected vocab size: %d", c.VocabSize())
	}
	if c.Word2Idx() != nil || c.Embeddings() != nil {
		t.Error("subword corpus should have no local mapping")
	}
	if !c.Frequencies().Contains("[PAD]") {
		t.Error("specials missing from frequencies")
	}
}

func TestSubwordCorpusError(t *testing.T) {
	_, err := NewSubwordCorpus([]string{"ok", "\xff"}, byteTokenizer{}, SubwordCorpusConfig{})
	if err == nil {
		t.Error("expected error")
	}
}

type byteTokenizer struct{}

func (b byteTokenizer) IDs(text string) ([]int, error) {
	var res []int
	for i := 0; i < len(text); i++ {
		if text[i] >= 0x80 {
			return nil, fmt.Errorf("non-ASCII byte %x", text[i])
		}
		res = append(res, int(text[i]))
	}
	return res, nil
}

func (b byteTokenizer) Detokenize(ids []int) []string {
	res := make([]string, len(ids))
	for i, id := range ids {
		res[i] = string(rune(id))
	}
	return res
}

func (b byteTokenizer) VocabSize() int {
	return 256
}
