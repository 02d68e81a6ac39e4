package config

import (
	"fmt"
	"strconv"
	"strings"
)

// setters maps dotted config paths to functions that assign a parsed
// string value into the config. Only scalar fields that make sense to
// flip from the command line are exposed.
var setters = map[string]func(*Config, string) error{
	"run.log_level": func(c *Config, v string) error {
		c.Run.LogLevel = LogLevel(v)
		return nil
	},
	"run.workers": intSetter(func(c *Config, n int) { c.Run.Workers = n }),
	"run.seed": func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		c.Run.Seed = n
		return nil
	},
	"run.splits": func(c *Config, v string) error {
		c.Run.Splits = strings.Split(v, ",")
		return nil
	},
	"paths.embeddings_dir": stringSetter(func(c *Config, s string) { c.Paths.EmbeddingsDir = s }),
	"paths.output_dir":     stringSetter(func(c *Config, s string) { c.Paths.OutputDir = s }),
	"paths.mdeval_script":  stringSetter(func(c *Config, s string) { c.Paths.MdevalScript = s }),
	"clustering.neighbors": intSetter(func(c *Config, n int) { c.Clustering.Neighbors = n }),
	"clustering.include_self": boolSetter(func(c *Config, b bool) {
		c.Clustering.IncludeSelf = b
	}),
	"clustering.laplacian": func(c *Config, v string) error {
		c.Clustering.Laplacian = Laplacian(v)
		return nil
	},
	"clustering.drop_first": boolSetter(func(c *Config, b bool) { c.Clustering.DropFirst = b }),
	"clustering.n_init":     intSetter(func(c *Config, n int) { c.Clustering.NInit = n }),
	"clustering.max_iter":   intSetter(func(c *Config, n int) { c.Clustering.MaxIter = n }),
	"speakers.mode": func(c *Config, v string) error {
		c.Speakers.Mode = SpeakerMode(v)
		return nil
	},
	"speakers.max": intSetter(func(c *Config, n int) { c.Speakers.Max = n }),
	"store.backend": func(c *Config, v string) error {
		c.Store.Backend = StoreBackend(v)
		return nil
	},
	"store.postgres_dsn":         stringSetter(func(c *Config, s string) { c.Store.PostgresDSN = s }),
	"store.embedding_dimensions": intSetter(func(c *Config, n int) { c.Store.EmbeddingDimensions = n }),
	"scoring.enabled": boolSetter(func(c *Config, b bool) { c.Scoring.Enabled = b }),
	"scoring.ignore_overlap": boolSetter(func(c *Config, b bool) {
		c.Scoring.IgnoreOverlap = &b
	}),
	"scoring.collar": func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		c.Scoring.Collar = &f
		return nil
	},
	"metrics.listen_addr": stringSetter(func(c *Config, s string) { c.Metrics.ListenAddr = s }),
}

func stringSetter(set func(*Config, string)) func(*Config, string) error {
	return func(c *Config, v string) error {
		set(c, v)
		return nil
	}
}

func intSetter(set func(*Config, int)) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		set(c, n)
		return nil
	}
}

func boolSetter(set func(*Config, bool)) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		set(c, b)
		return nil
	}
}

// ApplyOverrides applies command-line overrides of the form
// "<dotted.path>=<value>" (e.g. "clustering.neighbors=20") on top of a
// loaded config. The result is re-validated by the caller via
// [Validate].
func ApplyOverrides(cfg *Config, overrides []string) error {
	for _, o := range overrides {
		key, value, ok := strings.Cut(o, "=")
		if !ok {
			return fmt.Errorf("config: override %q is not of the form key=value", o)
		}
		set, known := setters[key]
		if !known {
			return fmt.Errorf("config: override %q: unknown key %q", o, key)
		}
		if err := set(cfg, value); err != nil {
			return fmt.Errorf("config: override %q: %w", o, err)
		}
	}
	return nil
}
