package driver

import "time"

type StoryDriverOpt func(*StoryDriver)

func WithTickLength(tickLength time.Duration) StoryDriverOpt {
	return func(d *StoryDriver) {
		d.tickLength = tickLength
	}
}
