package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

type Config struct {
	Nats     NatsConfig     `json:"nats"`
	Model    ModelConfig    `json:"model"`
	Web      WebConfig      `json:"web"`
	Store    StoreConfig    `json:"store"`
	Archive  ArchiveConfig  `json:"archive"`
	Sessions SessionsConfig `json:"sessions"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	el.Add(c.Nats.validate())
	el.Add(c.Model.validate())
	el.Add(c.Web.validate())
	el.Add(c.Store.validate())
	el.Add(c.Archive.validate())
	el.Add(c.Sessions.validate())

	return el.Err()
}

type SessionsConfig struct {
	IdleTimeout  string `json:"idle_timeout"`
	TickInterval string `json:"tick_interval"`
}

func (c *SessionsConfig) validate() error {
	el := errors.NewErrorList()

	if c.IdleTimeout != "" {
		if _, err := time.ParseDuration(c.IdleTimeout); err != nil {
			el.Add(fmt.Errorf("parsing idle_timeout: %w", err))
		}
	}
	if c.TickInterval != "" {
		d, err := time.ParseDuration(c.TickInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing tick_interval: %w", err))
		} else if d < time.Second {
			el.Add(fmt.Errorf("tick_interval must be at least 1 second"))
		}
	}

	return el.Err()
}

func (c *SessionsConfig) idleTimeout() time.Duration {
	if c.IdleTimeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.IdleTimeout)
	return d
}

func (c *SessionsConfig) tickInterval() time.Duration {
	if c.TickInterval == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.TickInterval)
	return d
}
