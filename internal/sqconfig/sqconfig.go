// Package sqconfig is the on-disk configuration for cmd/sqserver,
// generalizing server.Config/server.Database the same way internal/sqstore
// generalizes server/dao: one persistence backend selector, a JWT secret,
// and a listen address, loaded from TOML instead of assembled by hand from
// flags and env vars.
package sqconfig

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/dekarrin/sequitur/internal/sqstore"
	"github.com/dekarrin/sequitur/internal/sqstore/inmem"
	"github.com/dekarrin/sequitur/internal/sqstore/sqlite"
)

// DBType selects which sqstore.Store implementation a Config connects to.
type DBType string

const (
	DatabaseNone   DBType = "none"
	DatabaseInMem  DBType = "inmem"
	DatabaseSQLite DBType = "sqlite"
)

const (
	MaxSecretSize = 64
	MinSecretSize = 32
)

// Database selects and configures a persistence backend.
type Database struct {
	Type DBType `toml:"type"`
	File string `toml:"file"`
}

// Connect opens the store db describes.
func (db Database) Connect() (sqstore.Store, error) {
	switch db.Type {
	case DatabaseInMem:
		return inmem.NewDatastore(), nil
	case DatabaseSQLite:
		store, err := sqlite.NewDatastore(db.File)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite: %w", err)
		}
		return store, nil
	case DatabaseNone:
		return nil, fmt.Errorf("cannot connect to 'none' DB")
	default:
		return nil, fmt.Errorf("unknown database type: %q", db.Type)
	}
}

// Validate checks that db names a connectable backend with the fields that
// backend requires.
func (db Database) Validate() error {
	switch db.Type {
	case DatabaseInMem:
		return nil
	case DatabaseSQLite:
		if db.File == "" {
			return fmt.Errorf("sqlite: file not set")
		}
		return nil
	case DatabaseNone:
		return fmt.Errorf("'none' DB is not valid, must be set to 'inmem' or 'sqlite'")
	default:
		return fmt.Errorf("unknown database type: %q", db.Type)
	}
}

// Config is the full configuration for a running sqserver.
type Config struct {
	// Listen is the address the HTTP server binds to, e.g. "localhost:8080".
	Listen string `toml:"listen"`

	// Secret signs issued JWTs. Must be between MinSecretSize and
	// MaxSecretSize bytes.
	Secret string `toml:"secret"`

	// DB selects the persistence backend for frozen grammar snapshots.
	DB Database `toml:"db"`
}

// Load reads and parses a Config from the TOML file at path.
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// FillDefaults returns a copy of cfg with unset fields replaced by defaults
// suitable for local development, never for production use.
func (cfg Config) FillDefaults() Config {
	out := cfg

	if out.Listen == "" {
		out.Listen = "localhost:8080"
	}
	if out.Secret == "" {
		out.Secret = "DEFAULT_SEQUITUR_SECRET-DO_NOT_USE_IN_PROD!!"
	}
	if out.DB.Type == "" || out.DB.Type == DatabaseNone {
		out.DB = Database{Type: DatabaseInMem}
	}

	return out
}

// Validate returns an error if cfg has invalid or out-of-range values.
// Unlike FillDefaults, it does not apply any defaults: call it on the
// result of FillDefaults if defaults should be considered valid.
func (cfg Config) Validate() error {
	if len(cfg.Secret) < MinSecretSize {
		return fmt.Errorf("secret: must be at least %d bytes, but is %d", MinSecretSize, len(cfg.Secret))
	}
	if len(cfg.Secret) > MaxSecretSize {
		return fmt.Errorf("secret: must be no more than %d bytes, but is %d", MaxSecretSize, len(cfg.Secret))
	}
	if cfg.Listen == "" {
		return fmt.Errorf("listen: must not be empty")
	}
	if err := cfg.DB.Validate(); err != nil {
		return fmt.Errorf("db: %w", err)
	}
	return nil
}
