package command

import (
	"fmt"
	"os"

	"github.com/pixil98/go-errors"

	"github.com/dungeonworks/storyteller/internal/archive"
)

const (
	defaultArchiveURLEnv = "SUPABASE_URL"
	defaultArchiveKeyEnv = "SUPABASE_KEY"
)

type ArchiveConfig struct {
	Enabled bool   `json:"enabled"`
	Table   string `json:"table"`
	URLEnv  string `json:"url_env"`
	KeyEnv  string `json:"key_env"`
}

func (c *ArchiveConfig) validate() error {
	el := errors.NewErrorList()

	if c.Enabled {
		if os.Getenv(c.urlEnv()) == "" {
			el.Add(fmt.Errorf("archive: environment variable %s is not set", c.urlEnv()))
		}
		if os.Getenv(c.keyEnv()) == "" {
			el.Add(fmt.Errorf("archive: environment variable %s is not set", c.keyEnv()))
		}
	}

	return el.Err()
}

func (c *ArchiveConfig) urlEnv() string {
	if c.URLEnv == "" {
		return defaultArchiveURLEnv
	}
	return c.URLEnv
}

func (c *ArchiveConfig) keyEnv() string {
	if c.KeyEnv == "" {
		return defaultArchiveKeyEnv
	}
	return c.KeyEnv
}

// buildArchiver returns nil when archiving is disabled.
func (c *ArchiveConfig) buildArchiver() (*archive.Archiver, error) {
	if !c.Enabled {
		return nil, nil
	}

	var opts []archive.Opt
	if c.Table != "" {
		opts = append(opts, archive.WithTable(c.Table))
	}

	return archive.New(os.Getenv(c.urlEnv()), os.Getenv(c.keyEnv()), opts...)
}
