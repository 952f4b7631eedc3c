// toolkit/osservice/osservice.go

// Package osservice runs an app.Hooks application under the host's service
// manager (systemd, launchd or the Windows SCM) via kardianos/service.
package osservice

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dalemusser/caligben/app"
	"github.com/kardianos/service"
)

// Actions accepted by Control besides "run".
var Actions = service.ControlAction[:]

// stopTimeout bounds how long Stop waits for graceful shutdown.
const stopTimeout = 30 * time.Second

// Program adapts app.Run to service.Interface.
type Program[C any, D any] struct {
	Hooks app.Hooks[C, D]

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan error
}

// Start launches the app in the background; the service manager expects
// Start to return promptly.
func (p *Program[C, D]) Start(s service.Service) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan error, 1)

	go func(done chan<- error) {
		done <- app.Run(ctx, p.Hooks)
	}(p.done)
	return nil
}

// Stop cancels the app and waits for the server to drain.
func (p *Program[C, D]) Stop(s service.Service) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case err := <-done:
		return err
	case <-time.After(stopTimeout):
		return errors.New("osservice: timed out waiting for shutdown")
	}
}

// Config describes the installed service.
type Config struct {
	Name        string
	DisplayName string
	Description string
	// Arguments are passed to the binary when the service manager runs it.
	Arguments []string
}

// New binds hooks to a service definition.
func New[C any, D any](cfg Config, hooks app.Hooks[C, D]) (service.Service, *Program[C, D], error) {
	prg := &Program[C, D]{Hooks: hooks}
	svc, err := service.New(prg, &service.Config{
		Name:        cfg.Name,
		DisplayName: cfg.DisplayName,
		Description: cfg.Description,
		Arguments:   cfg.Arguments,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("osservice: %w", err)
	}
	return svc, prg, nil
}

// Control performs action on svc: one of Actions, or "run" to run in the
// foreground under the service manager.
func Control(svc service.Service, action string) error {
	if action == "run" {
		return svc.Run()
	}
	if !slices.Contains(Actions, action) {
		return fmt.Errorf("osservice: unknown action %q (want run or one of %v)", action, Actions)
	}
	if err := service.Control(svc, action); err != nil {
		return fmt.Errorf("osservice: %s: %w", action, err)
	}
	return nil
}
