package command

import (
	"github.com/pixil98/go-errors"

	"github.com/dungeonworks/storyteller/internal/engine"
	"github.com/dungeonworks/storyteller/internal/web"
)

type WebConfig struct {
	Port uint16 `json:"port"`
}

func (c *WebConfig) validate() error {
	el := errors.NewErrorList()
	return el.Err()
}

func (c *WebConfig) buildServer(manager *engine.Manager) *web.Server {
	var opts []web.ServerOpt
	if c.Port != 0 {
		opts = append(opts, web.WithPort(c.Port))
	}
	return web.NewServer(manager, opts...)
}
