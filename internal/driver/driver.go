package driver

import (
	"context"
	"time"
)

const (
	DefaultTickLength = time.Second * 30
)

// Manager is any component with periodic housekeeping to run.
type Manager interface {
	Tick(context.Context) error
}

// StoryDriver runs each manager's Tick on a fixed interval until its context
// is cancelled.
type StoryDriver struct {
	tickLength time.Duration
	managers   []Manager
}

func NewStoryDriver(managers []Manager, opts ...StoryDriverOpt) *StoryDriver {
	d := &StoryDriver{
		tickLength: DefaultTickLength,
		managers:   managers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *StoryDriver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := d.Tick(ctx)
			if err != nil {
				return err
			}
		}
	}
}

func (d *StoryDriver) Tick(ctx context.Context) error {
	for _, m := range d.managers {
		if err := m.Tick(ctx); err != nil {
			return err
		}
	}
	return nil
}
