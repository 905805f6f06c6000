package command

import (
	"context"
	"fmt"

	"github.com/pixil98/go-service"

	"github.com/dungeonworks/storyteller/internal/driver"
	"github.com/dungeonworks/storyteller/internal/engine"
	"github.com/dungeonworks/storyteller/internal/messaging"
	"github.com/dungeonworks/storyteller/internal/store"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	// Create the embedded NATS server
	natsServer, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	// Create a worker list
	return service.WorkerList{
		"nats":        natsServer,
		"storyteller": &storyWorker{cfg: cfg, nats: natsServer},
	}, nil
}

// storyWorker wires the engine, web server, and session sweeper together once
// the NATS server is up. JetStream-backed pieces can't be built before then.
type storyWorker struct {
	cfg  *Config
	nats *messaging.NatsServer
}

func (w *storyWorker) Start(ctx context.Context) error {
	if err := w.nats.WaitReady(ctx); err != nil {
		return fmt.Errorf("waiting for nats: %w", err)
	}

	js, err := w.nats.JetStream()
	if err != nil {
		return fmt.Errorf("getting jetstream context: %w", err)
	}

	sessions, err := w.cfg.Store.buildStore(js)
	if err != nil {
		return fmt.Errorf("creating session store: %w", err)
	}

	eventLog, err := store.NewEventLog(js)
	if err != nil {
		return fmt.Errorf("creating event log: %w", err)
	}

	model, err := w.cfg.Model.buildClient(ctx)
	if err != nil {
		return fmt.Errorf("creating model client: %w", err)
	}
	defer model.Close()

	events := engine.Appenders{eventLog}
	archiver, err := w.cfg.Archive.buildArchiver()
	if err != nil {
		return fmt.Errorf("creating archiver: %w", err)
	}
	if archiver != nil {
		events = append(events, archiver)
	}

	managerOpts := []engine.ManagerOpt{
		engine.WithEngineOpts(
			engine.WithEventLog(events),
			engine.WithDiagnostics(messaging.NewDiagnosticsPublisher(w.nats)),
		),
	}
	if d := w.cfg.Sessions.idleTimeout(); d > 0 {
		managerOpts = append(managerOpts, engine.WithIdleTimeout(d))
	}
	manager := engine.NewManager(sessions, model, managerOpts...)
	defer manager.CloseAll()

	var driverOpts []driver.StoryDriverOpt
	if d := w.cfg.Sessions.tickInterval(); d > 0 {
		driverOpts = append(driverOpts, driver.WithTickLength(d))
	}

	workers := service.WorkerList{
		"web":    w.cfg.Web.buildServer(manager),
		"driver": driver.NewStoryDriver([]driver.Manager{manager}, driverOpts...),
	}
	return workers.Start(ctx)
}
