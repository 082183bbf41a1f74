package main

import (
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/unixpickle/anysent/anycollate"
	"github.com/unixpickle/anysent/anycorpus"
	"github.com/unixpickle/anysent/anyembed"
	"github.com/unixpickle/anysent/anyload"
	"github.com/unixpickle/anysent/anymm"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec32"
	"github.com/unixpickle/rip"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

var Creator anyvec.Creator

var errEpochsDone = errors.New("all epochs done")

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "./config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	flag.Parse()

	if *verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 1
	}

	Creator = anyvec32.CurrentCreator()

	var logger *log.Logger
	var progress io.Writer
	if *verbose {
		logger = log.Default()
		progress = os.Stderr
	}

	log.Println("Loading records...")
	records, err := readRecords(cfg.Data.Path)
	if err != nil {
		log.Printf("failed to load data: %v", err)
		return 1
	}

	log.Println("Building text corpus...")
	corpus, err := buildCorpus(cfg, records, logger, progress)
	if err != nil {
		log.Printf("failed to build corpus: %v", err)
		return 1
	}
	log.Printf("Corpus has %d examples and %d token IDs.", corpus.Len(), corpus.VocabSize())

	dataset := anymm.NewMOSI(examples(records, corpus.Indices()), cfg.Data.Binary,
		cfg.Data.Modalities...)
	if err := dataset.Validate(); err != nil {
		log.Printf("bad data: %v", err)
		return 1
	}
	dataset.Logger = logger
	dataset.Progress = progress
	for _, m := range []string{anymm.Audio, anymm.Visual} {
		dataset.Map(anymm.ToVectors(Creator), m, true)
		if cfg.Data.InstanceNorm {
			dataset.Map(anymm.InstanceNorm, m, true)
		}
	}

	validation, training := anyload.HashSplit(dataset, cfg.Data.ValidationFrac)
	log.Printf("Split into %d training and %d validation examples.",
		training.Len(), validation.Len())
	if training.Len() == 0 {
		log.Printf("no training examples")
		return 1
	}

	collator := &anycollate.Collator{
		Creator:  Creator,
		PadFront: cfg.Loader.PadFront,
		MaxLen:   cfg.Loader.MaxLen,
	}

	var samples anyload.SampleList = training
	if cfg.Loader.SortChunk {
		samples = &anyload.SortSampleList{
			SortableSampleList: training.(anyload.SortableSampleList),
			BatchSize:          cfg.Loader.BatchSize,
		}
	}
	loader := &anyload.Loader{
		Samples:   samples,
		Fetcher:   collator,
		BatchSize: cfg.Loader.BatchSize,
		Shuffle:   true,
		Prefetch:  cfg.Loader.Prefetch,
	}

	stats := newBatchStats()
	var iterNum int
	log.Println("Press ctrl+c once to stop...")
	err = loader.Run(rip.NewRIP().Chan(), func(b anyload.Batch) error {
		batch := b.(*anycollate.Batch)
		stats.Add(batch)
		if *verbose {
			var textLen int
			if text, ok := batch.Tokens[anymm.Text]; ok {
				textLen = text.MaxLen
			}
			log.Printf("iter %d: batch=%d text_len=%d", iterNum, batch.Num, textLen)
		}
		iterNum++
		if loader.NumProcessed+batch.Num >= cfg.Loader.Epochs*training.Len() {
			return errEpochsDone
		}
		return nil
	})
	if err != nil && err != errEpochsDone {
		log.Printf("loading error: %v", err)
		return 1
	}

	log.Println("Computing validation statistics...")
	valStats := newBatchStats()
	valLoader := &anyload.Loader{Samples: validation, Fetcher: collator, BatchSize: cfg.Loader.BatchSize}
	if err := valLoader.Epoch(func(b anyload.Batch) error {
		valStats.Add(b.(*anycollate.Batch))
		return nil
	}); err != nil {
		log.Printf("validation error: %v", err)
		return 1
	}

	report := map[string]*Summary{
		"training":   stats.Summary(),
		"validation": valStats.Summary(),
	}
	for name, s := range report {
		log.Printf("%s: %d examples, label mean=%.3f std=%.3f, text length mean=%.1f",
			name, s.Examples, s.LabelMean, s.LabelStd, s.TextLenMean)
	}

	outPath := filepath.Join(cfg.OutputDir, "stats-"+uuid.NewString()+".yaml")
	data, err := yaml.Marshal(report)
	if err != nil {
		log.Printf("failed to encode report: %v", err)
		return 1
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		log.Printf("failed to write report: %v", err)
		return 1
	}
	log.Printf("Wrote %s", outPath)

	return 0
}

func buildCorpus(cfg *Config, records []*record, logger *log.Logger,
	progress io.Writer) (anycorpus.Corpus, error) {
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}
	if cfg.Data.Tokenizer != "" {
		tok, err := anycorpus.NewHFTokenizer(cfg.Data.Tokenizer, cfg.Data.Lower, true)
		if err != nil {
			return nil, err
		}
		return anycorpus.NewSubwordCorpus(texts, tok, anycorpus.SubwordCorpusConfig{
			Logger: logger,
		})
	}
	corpusCfg := anycorpus.WordCorpusConfig{
		Tokenizer:      &anycorpus.WordTokenizer{Lower: cfg.Data.Lower},
		LimitVocabSize: cfg.Data.VocabSize,
		EmbeddingsFile: cfg.Embeddings.Path,
		EmbeddingsDim:  cfg.Embeddings.Dim,
		Creator:        Creator,
		Logger:         logger,
		Progress:       progress,
	}
	if cfg.Embeddings.CacheSize > 0 {
		cache, err := anyembed.NewLRUCache(cfg.Embeddings.CacheSize, anyembed.FileCache{})
		if err != nil {
			return nil, err
		}
		corpusCfg.EmbeddingsCache = cache
	}
	return anycorpus.NewWordCorpus(texts, corpusCfg)
}

// Summary describes the examples seen by a loader.
type Summary struct {
	Examples    int     `yaml:"examples"`
	Batches     int     `yaml:"batches"`
	LabelMean   float64 `yaml:"labelMean"`
	LabelStd    float64 `yaml:"labelStd"`
	TextLenMean float64 `yaml:"textLenMean"`
	TextLenMax  float64 `yaml:"textLenMax"`
}

type batchStats struct {
	batches  int
	labels   []float64
	textLens []float64
}

func newBatchStats() *batchStats {
	return &batchStats{}
}

func (b *batchStats) Add(batch *anycollate.Batch) {
	b.batches++
	if batch.Labels != nil {
		switch data := batch.Labels.Data().(type) {
		case []float32:
			for _, x := range data {
				b.labels = append(b.labels, float64(x))
			}
		case []float64:
			b.labels = append(b.labels, data...)
		}
	}
	if text, ok := batch.Tokens[anymm.Text]; ok {
		for _, l := range text.Lengths {
			b.textLens = append(b.textLens, float64(l))
		}
	}
}

func (b *batchStats) Summary() *Summary {
	res := &Summary{Examples: len(b.textLens), Batches: b.batches}
	if len(b.labels) > 0 {
		res.LabelMean, res.LabelStd = stat.MeanStdDev(b.labels, nil)
	}
	if len(b.textLens) > 0 {
		res.TextLenMean = stat.Mean(b.textLens, nil)
		for _, l := range b.textLens {
			if l > res.TextLenMax {
				res.TextLenMax = l
			}
		}
	}
	return res
}
