package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. It is a convenience wrapper around
// [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed
// from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills in zero-valued fields that have documented
// defaults. Explicitly configured values are never touched.
func ApplyDefaults(cfg *Config) {
	if cfg.Run.LogLevel == "" {
		cfg.Run.LogLevel = LogInfo
	}
	if cfg.Run.Workers == 0 {
		cfg.Run.Workers = runtime.NumCPU()
	}
	if cfg.Run.Seed == 0 {
		cfg.Run.Seed = 1003
	}
	if len(cfg.Run.Splits) == 0 {
		cfg.Run.Splits = []string{"dev", "eval"}
	}
	if cfg.Clustering.Neighbors == 0 {
		cfg.Clustering.Neighbors = 10
	}
	if cfg.Clustering.Laplacian == "" {
		cfg.Clustering.Laplacian = LaplacianNormalized
	}
	if cfg.Clustering.NInit == 0 {
		cfg.Clustering.NInit = 10
	}
	if cfg.Clustering.MaxIter == 0 {
		cfg.Clustering.MaxIter = 300
	}
	if cfg.Speakers.Mode == "" {
		cfg.Speakers.Mode = SpeakersOracle
	}
	if cfg.Speakers.Max == 0 {
		cfg.Speakers.Max = 10
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = StoreFile
	}
	if cfg.Store.EmbeddingDimensions == 0 {
		cfg.Store.EmbeddingDimensions = 192
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Run.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("run.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Run.LogLevel))
	}
	if cfg.Run.Workers < 1 {
		errs = append(errs, fmt.Errorf("run.workers %d must be >= 1", cfg.Run.Workers))
	}
	if len(cfg.Run.Splits) == 0 {
		errs = append(errs, errors.New("run.splits must name at least one split"))
	}

	if cfg.Clustering.Neighbors < 1 {
		errs = append(errs, fmt.Errorf("clustering.neighbors %d must be >= 1", cfg.Clustering.Neighbors))
	}
	if !cfg.Clustering.Laplacian.IsValid() {
		errs = append(errs, fmt.Errorf("clustering.laplacian %q is invalid; valid values: normalized, combinatorial", cfg.Clustering.Laplacian))
	}
	if cfg.Clustering.NInit < 1 {
		errs = append(errs, fmt.Errorf("clustering.n_init %d must be >= 1", cfg.Clustering.NInit))
	}
	if cfg.Clustering.MaxIter < 1 {
		errs = append(errs, fmt.Errorf("clustering.max_iter %d must be >= 1", cfg.Clustering.MaxIter))
	}

	if !cfg.Speakers.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("speakers.mode %q is invalid; valid values: oracle, tune", cfg.Speakers.Mode))
	}
	if cfg.Speakers.Mode == SpeakersTune && cfg.Speakers.Max < 1 {
		errs = append(errs, fmt.Errorf("speakers.max %d must be >= 1 in tune mode", cfg.Speakers.Max))
	}

	if !cfg.Store.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("store.backend %q is invalid; valid values: file, postgres", cfg.Store.Backend))
	}
	switch cfg.Store.Backend {
	case StoreFile:
		if cfg.Paths.EmbeddingsDir == "" {
			errs = append(errs, errors.New("paths.embeddings_dir is required for the file store backend"))
		}
	case StorePostgres:
		if cfg.Store.PostgresDSN == "" {
			errs = append(errs, errors.New("store.postgres_dsn is required for the postgres store backend"))
		}
		if cfg.Store.EmbeddingDimensions < 1 {
			errs = append(errs, fmt.Errorf("store.embedding_dimensions %d must be >= 1", cfg.Store.EmbeddingDimensions))
		}
	}

	if cfg.Paths.OutputDir == "" {
		errs = append(errs, errors.New("paths.output_dir is required"))
	}

	needReference := cfg.Scoring.Enabled || cfg.Speakers.Mode == SpeakersOracle || cfg.Speakers.Mode == SpeakersTune
	if needReference {
		for _, split := range cfg.Run.Splits {
			if cfg.Paths.ReferenceRTTM[split] == "" {
				errs = append(errs, fmt.Errorf("paths.reference_rttm.%s is required for scoring and speaker count selection", split))
			}
		}
	}
	if cfg.Scoring.Enabled && cfg.Paths.MdevalScript == "" {
		errs = append(errs, errors.New("paths.mdeval_script is required when scoring is enabled"))
	}
	if cfg.Scoring.CollarOrDefault() < 0 {
		errs = append(errs, fmt.Errorf("scoring.collar %.3f must be >= 0", cfg.Scoring.CollarOrDefault()))
	}

	// Legal but suspicious values only get a warning.
	if cfg.Clustering.Neighbors > 100 {
		slog.Warn("clustering.neighbors is unusually large; the affinity graph degrades towards fully connected",
			"neighbors", cfg.Clustering.Neighbors,
		)
	}
	if cfg.Speakers.Mode == SpeakersTune && cfg.Speakers.Max > 20 {
		slog.Warn("speakers.max is unusually large for meeting data; the tuner sweep will be slow",
			"max", cfg.Speakers.Max,
		)
	}
	if cfg.Scoring.Enabled && cfg.Scoring.CollarOrDefault() == 0 {
		slog.Warn("scoring.collar is 0; published numbers usually score with a 0.25 s collar")
	}

	return errors.Join(errs...)
}

// SlogLevel maps the configured log level to a [slog.Level].
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
