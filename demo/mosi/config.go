package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes a data loading run.
type Config struct {
	Data       DataConfig       `yaml:"data"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Loader     LoaderConfig     `yaml:"loader"`

	// OutputDir receives the statistics report.
	OutputDir string `yaml:"outputDir"`
}

// DataConfig locates and preprocesses the examples.
type DataConfig struct {
	// Path is a JSON lines file with one example per line.
	Path string `yaml:"path"`

	// Modalities lists the modalities to load.
	Modalities []string `yaml:"modalities,omitempty"`

	// Tokenizer, if set, is a tokenizer.json file used for
	// subword tokenization instead of word embeddings.
	Tokenizer string `yaml:"tokenizer,omitempty"`

	Lower          bool    `yaml:"lower"`
	VocabSize      int     `yaml:"vocabSize"`
	Binary         bool    `yaml:"binary"`
	InstanceNorm   bool    `yaml:"instanceNorm"`
	ValidationFrac float64 `yaml:"validationFrac"`
}

// EmbeddingsConfig locates pretrained word vectors.
type EmbeddingsConfig struct {
	Path      string `yaml:"path"`
	Dim       int    `yaml:"dim"`
	CacheSize int    `yaml:"cacheSize"`
}

// LoaderConfig controls batching.
type LoaderConfig struct {
	BatchSize int  `yaml:"batchSize"`
	MaxLen    int  `yaml:"maxLen"`
	PadFront  bool `yaml:"padFront"`
	Prefetch  int  `yaml:"prefetch"`
	Epochs    int  `yaml:"epochs"`
	SortChunk bool `yaml:"sortChunk"`
}

// DefaultConfig returns the configuration used for any
// field which a config file leaves unset.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Path:           "./mosi.jsonl",
			Lower:          true,
			VocabSize:      30000,
			ValidationFrac: 0.1,
		},
		Embeddings: EmbeddingsConfig{
			Dim:       300,
			CacheSize: 4,
		},
		Loader: LoaderConfig{
			BatchSize: 32,
			Prefetch:  2,
			Epochs:    1,
			SortChunk: true,
		},
		OutputDir: ".",
	}
}

// LoadConfig loads configuration from file, on top of
// DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}
