package command

import (
	"context"
	"fmt"
	"os"

	"github.com/pixil98/go-errors"

	"github.com/dungeonworks/storyteller/internal/narrative"
)

const defaultAPIKeyEnv = "GEMINI_API_KEY"

type ModelConfig struct {
	Name string `json:"name"`

	// APIKeyEnv names the environment variable holding the key, so config
	// files never carry the secret itself.
	APIKeyEnv string `json:"api_key_env"`
}

func (c *ModelConfig) validate() error {
	el := errors.NewErrorList()

	if os.Getenv(c.apiKeyEnv()) == "" {
		el.Add(fmt.Errorf("environment variable %s is not set", c.apiKeyEnv()))
	}

	return el.Err()
}

func (c *ModelConfig) apiKeyEnv() string {
	if c.APIKeyEnv == "" {
		return defaultAPIKeyEnv
	}
	return c.APIKeyEnv
}

func (c *ModelConfig) buildClient(ctx context.Context) (*narrative.Client, error) {
	var opts []narrative.ClientOpt
	if c.Name != "" {
		opts = append(opts, narrative.WithModel(c.Name))
	}

	return narrative.NewClient(ctx, os.Getenv(c.apiKeyEnv()), opts...)
}
