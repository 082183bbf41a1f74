package anyembed

import (
	"bufio"
	"io"
	"log"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v2"
	"github.com/unixpickle/anysent"
	"github.com/unixpickle/anysent/anyvocab"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec32"
	"github.com/unixpickle/essentials"
)

const (
	randomInitRange = 0.05
	maxLineSize     = 1 << 24
)

// A Loader reads word vectors from a text file with one
// token per line, followed by its components:
//
//     the 0.418 0.24968 -0.41242 ...
//
// Lines with fewer fields than the dimensionality are
// treated as headers and skipped.
// If a line has more than Dim+1 fields, the leading
// fields are joined with spaces to form the token.
type Loader struct {
	// Path is the embeddings text file.
	Path string

	// Dim is the dimensionality of the vectors.
	Dim int

	// Vocab, if non-nil, restricts the loaded tokens to the
	// ones in the vocabulary.
	Vocab *anyvocab.Vocab

	// Specials are reserved tokens which get random
	// vectors in [-0.05, 0.05] ahead of the file's tokens.
	// The padding token always comes first with a zero
	// vector, whether or not it is listed here.
	Specials []string

	// Creator is used to create vectors.
	// If nil, anyvec32.CurrentCreator() is used.
	Creator anyvec.Creator

	// Cache stores parsed tables.
	// If nil, a FileCache is used.
	Cache CacheStore

	// Logger, if non-nil, receives diagnostics.
	Logger *log.Logger

	// Progress, if non-nil, receives a progress bar while
	// the file is parsed.
	Progress io.Writer

	// Rand is used to initialize special tokens.
	// If nil, the global source is used.
	Rand *rand.Rand
}

// Load returns the table for the file, reading it from
// the cache when possible.
//
// If the cache has no usable artifact and the file does
// not exist, the returned error matches os.ErrNotExist.
func (l *Loader) Load() (*Table, error) {
	key := CacheKey(l.Path, l.Vocab)
	if t := l.loadCache(key); t != nil {
		l.logf("Loaded word embeddings from cache %s.", key)
		return t, nil
	}
	l.logf("Didn't find embeddings cache %s. Loading embeddings from file.", key)

	table, err := l.parse()
	if err != nil {
		return nil, err
	}
	l.logf("Loaded %d word vectors.", table.Len())

	if data, err := encodeTable(table); err != nil {
		l.logf("Failed to encode embeddings cache: %v", err)
	} else if err := l.cache().Save(key, data); err != nil {
		l.logf("Failed to write embeddings cache: %v", err)
	}

	return table, nil
}

func (l *Loader) loadCache(key string) *Table {
	data, err := l.cache().Load(key)
	if err != nil {
		return nil
	}
	table, err := decodeTable(data)
	if err != nil {
		l.logf("Ignoring corrupt embeddings cache %s: %v", key, err)
		return nil
	}
	if table.Dim != l.Dim {
		l.logf("Ignoring embeddings cache %s with dimension %d.", key, table.Dim)
		return nil
	}
	if c := l.creator(); table.Creator() != c {
		table.convert(c)
	}
	return table
}

func (l *Loader) parse() (*Table, error) {
	if _, err := os.Stat(l.Path); os.IsNotExist(err) {
		l.logf("%s not found!", l.Path)
		return nil, &os.PathError{Op: "load embeddings", Path: l.Path, Err: os.ErrNotExist}
	} else if err != nil {
		return nil, essentials.AddCtx("load embeddings", err)
	}

	l.logf("Indexing file %s ...", l.Path)
	table := l.initTable()

	var bar *progressbar.ProgressBar
	if l.Progress != nil {
		numLines, err := countLines(l.Path)
		if err != nil {
			return nil, essentials.AddCtx("load embeddings", err)
		}
		bar = progressbar.NewOptions(numLines,
			progressbar.OptionSetWriter(l.Progress),
			progressbar.OptionSetDescription("Loading word embeddings..."))
	}

	f, err := os.Open(l.Path)
	if err != nil {
		return nil, essentials.AddCtx("load embeddings", err)
	}
	defer f.Close()

	var numHeaders, numMalformed int
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<16), maxLineSize)
	for scanner.Scan() {
		if bar != nil {
			bar.Add(1)
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < l.Dim {
			numHeaders++
			continue
		} else if len(fields) == l.Dim {
			numMalformed++
			continue
		}
		split := len(fields) - l.Dim
		token := strings.Join(fields[:split], " ")
		if _, ok := table.Word2Idx[token]; ok {
			continue
		}
		if l.Vocab != nil && !l.Vocab.Contains(token) {
			continue
		}
		vec, err := l.parseVector(fields[split:])
		if err != nil {
			numMalformed++
			continue
		}
		table.add(token, vec)
	}
	if err := scanner.Err(); err != nil {
		return nil, essentials.AddCtx("load embeddings", err)
	}
	if bar != nil {
		bar.Finish()
	}

	if numHeaders > 0 || numMalformed > 0 {
		l.logf("Skipped %d header and %d malformed lines.", numHeaders, numMalformed)
	}

	return table, nil
}

// initTable creates the padding row and the random rows
// for special tokens.
func (l *Loader) initTable() *Table {
	c := l.creator()
	table := newTable(l.Dim)
	table.add(anysent.Pad.String(), c.MakeVector(l.Dim))
	for _, tok := range l.Specials {
		if _, ok := table.Word2Idx[tok]; ok {
			continue
		}
		vec := c.MakeVector(l.Dim)
		anyvec.Rand(vec, anyvec.Uniform, l.Rand)
		vec.Scale(c.MakeNumeric(2 * randomInitRange))
		vec.AddScalar(c.MakeNumeric(-randomInitRange))
		table.add(tok, vec)
	}
	return table
}

func (l *Loader) parseVector(fields []string) (anyvec.Vector, error) {
	values := make([]float64, len(fields))
	for i, f := range fields {
		val, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		values[i] = val
	}
	c := l.creator()
	return c.MakeVectorData(c.MakeNumericList(values)), nil
}

func (l *Loader) creator() anyvec.Creator {
	if l.Creator == nil {
		return anyvec32.CurrentCreator()
	}
	return l.Creator
}

func (l *Loader) cache() CacheStore {
	if l.Cache == nil {
		return FileCache{}
	}
	return l.Cache
}

func (l *Loader) logf(format string, args ...interface{}) {
	if l.Logger != nil {
		l.Logger.Printf(format, args...)
	}
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	var count int
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<16), maxLineSize)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
