// Package config provides the configuration schema and loader for the
// voxturn clustering runner.
package config

// LogLevel controls log verbosity for the runner.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Laplacian selects the graph Laplacian variant used for the spectral
// embedding.
type Laplacian string

const (
	// LaplacianNormalized uses the symmetric normalized Laplacian
	// I − D^{−1/2} A D^{−1/2}, the standard choice for speaker graphs.
	LaplacianNormalized Laplacian = "normalized"

	// LaplacianCombinatorial uses the unnormalized Laplacian D − A.
	LaplacianCombinatorial Laplacian = "combinatorial"
)

// IsValid reports whether l is a recognised Laplacian variant.
func (l Laplacian) IsValid() bool {
	return l == LaplacianNormalized || l == LaplacianCombinatorial
}

// SpeakerMode selects how the per-recording speaker count is chosen.
type SpeakerMode string

const (
	// SpeakersOracle reads the true speaker count per recording from
	// SPKR-INFO records in the reference RTTM.
	SpeakersOracle SpeakerMode = "oracle"

	// SpeakersTune sweeps candidate counts on the dev split and keeps
	// the count with the lowest scored error rate.
	SpeakersTune SpeakerMode = "tune"
)

// IsValid reports whether m is a recognised speaker mode.
func (m SpeakerMode) IsValid() bool {
	return m == SpeakersOracle || m == SpeakersTune
}

// StoreBackend selects where embedded segments are read from.
type StoreBackend string

const (
	StoreFile     StoreBackend = "file"
	StorePostgres StoreBackend = "postgres"
)

// IsValid reports whether b is a recognised store backend.
func (b StoreBackend) IsValid() bool {
	return b == StoreFile || b == StorePostgres
}

// Config is the root configuration structure for voxturn. It is
// typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Run        RunConfig        `yaml:"run"`
	Paths      PathsConfig      `yaml:"paths"`
	Clustering ClusteringConfig `yaml:"clustering"`
	Speakers   SpeakersConfig   `yaml:"speakers"`
	Store      StoreConfig      `yaml:"store"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// RunConfig holds execution-wide settings.
type RunConfig struct {
	// LogLevel controls verbosity. Default: info.
	LogLevel LogLevel `yaml:"log_level"`

	// Workers caps how many recordings are clustered concurrently.
	// Default: number of CPUs.
	Workers int `yaml:"workers"`

	// Seed feeds all pseudo-randomness in the run. Identical configs
	// and inputs produce identical outputs. Default: 1003.
	Seed int64 `yaml:"seed"`

	// Splits lists the dataset splits to process, in order.
	// Default: [dev, eval].
	Splits []string `yaml:"splits"`
}

// PathsConfig holds filesystem locations for inputs and outputs.
type PathsConfig struct {
	// EmbeddingsDir is the root of the JSONL embedding export, laid out
	// as <dir>/<split>/<recording>.jsonl. Required for the file backend.
	EmbeddingsDir string `yaml:"embeddings_dir"`

	// ReferenceRTTM maps a split name to its reference RTTM file.
	// Required when scoring is enabled or speakers.mode is oracle.
	ReferenceRTTM map[string]string `yaml:"reference_rttm"`

	// OutputDir receives per-recording RTTM files and the merged
	// sys_output.rttm per split.
	OutputDir string `yaml:"output_dir"`

	// MdevalScript is the path to md-eval.pl. Required when scoring is
	// enabled.
	MdevalScript string `yaml:"mdeval_script"`
}

// ClusteringConfig holds the graph and clustering hyperparameters.
type ClusteringConfig struct {
	// Neighbors is the number of nearest neighbours each segment
	// contributes to the affinity graph. Default: 10.
	Neighbors int `yaml:"neighbors"`

	// IncludeSelf counts a segment among its own nearest neighbours.
	IncludeSelf bool `yaml:"include_self"`

	// Laplacian selects the Laplacian variant. Default: normalized.
	Laplacian Laplacian `yaml:"laplacian"`

	// DropFirst discards the trivial first spectral component and
	// computes one extra in its place.
	DropFirst bool `yaml:"drop_first"`

	// NInit is the number of independent k-means initializations.
	// Default: 10.
	NInit int `yaml:"n_init"`

	// MaxIter caps Lloyd iterations per initialization. Default: 300.
	MaxIter int `yaml:"max_iter"`
}

// SpeakersConfig controls per-recording speaker count selection.
type SpeakersConfig struct {
	// Mode selects oracle counts or dev-split tuning. Default: oracle.
	Mode SpeakerMode `yaml:"mode"`

	// Max bounds the candidate counts swept in tune mode. Default: 10.
	Max int `yaml:"max"`
}

// StoreConfig selects and configures the embedding store backend.
type StoreConfig struct {
	// Backend selects file or postgres. Default: file.
	Backend StoreBackend `yaml:"backend"`

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string `yaml:"postgres_dsn"`

	// EmbeddingDimensions must match the external extractor's output
	// dimension. Only the postgres backend needs it (the vector column
	// type is sized by it). Default: 192.
	EmbeddingDimensions int `yaml:"embedding_dimensions"`
}

// ScoringConfig controls DER scoring of the produced RTTM files.
type ScoringConfig struct {
	// Enabled turns scoring on. Requires paths.mdeval_script and a
	// reference RTTM per processed split.
	Enabled bool `yaml:"enabled"`

	// IgnoreOverlap excludes multi-speaker reference regions from
	// scoring. Default: true.
	IgnoreOverlap *bool `yaml:"ignore_overlap"`

	// Collar is the no-score zone in seconds around reference
	// boundaries. Default: 0.25.
	Collar *float64 `yaml:"collar"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	// ListenAddr is the TCP address the /metrics endpoint listens on
	// (e.g. ":9090"). Empty disables the endpoint.
	ListenAddr string `yaml:"listen_addr"`
}

// IgnoreOverlapOrDefault resolves the optional ignore_overlap flag.
func (s ScoringConfig) IgnoreOverlapOrDefault() bool {
	if s.IgnoreOverlap == nil {
		return true
	}
	return *s.IgnoreOverlap
}

// CollarOrDefault resolves the optional collar value.
func (s ScoringConfig) CollarOrDefault() float64 {
	if s.Collar == nil {
		return 0.25
	}
	return *s.Collar
}
