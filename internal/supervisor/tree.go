// Package supervisor runs the long-lived FitBot services under a suture tree.
//
//	root (fitbot)
//	├── bot-layer: telegram poller, reminder scheduler
//	└── ops-layer: metrics and health HTTP server
//
// A failing ops server never takes the poller or the scheduler down with it.
package supervisor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// TreeConfig holds supervisor tree configuration
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff. Default: 5
	FailureThreshold float64
	// FailureDecay is the rate at which failures decay in seconds. Default: 30
	FailureDecay float64
	// FailureBackoff is the pause taken once the threshold is exceeded. Default: 15s
	FailureBackoff time.Duration
	// ShutdownTimeout bounds how long each service may take to stop. Default: 10s
	ShutdownTimeout time.Duration
}

// Tree is the root supervisor with its two layers
type Tree struct {
	root   *suture.Supervisor
	bot    *suture.Supervisor
	ops    *suture.Supervisor
	config TreeConfig
}

// NewTree builds the supervisor hierarchy
func NewTree(log zerolog.Logger, config TreeConfig) *Tree {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	spec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	rootSpec := spec
	rootSpec.EventHook = EventHook(log)

	root := suture.New("fitbot", rootSpec)
	bot := suture.New("bot-layer", spec)
	ops := suture.New("ops-layer", spec)
	root.Add(bot)
	root.Add(ops)

	return &Tree{root: root, bot: bot, ops: ops, config: config}
}

// EventHook logs supervisor events through zerolog
func EventHook(log zerolog.Logger) suture.EventHook {
	return func(e suture.Event) {
		var ev *zerolog.Event
		switch e.Type() {
		case suture.EventTypeServicePanic, suture.EventTypeServiceTerminate, suture.EventTypeStopTimeout:
			ev = log.Error()
		case suture.EventTypeBackoff:
			ev = log.Warn()
		default:
			ev = log.Info()
		}
		ev.Fields(e.Map()).Msg(e.String())
	}
}

// AddBotService adds the poller or the scheduler
func (t *Tree) AddBotService(svc suture.Service) suture.ServiceToken {
	return t.bot.Add(svc)
}

// AddOpsService adds the metrics and health server
func (t *Tree) AddOpsService(svc suture.Service) suture.ServiceToken {
	return t.ops.Add(svc)
}

// Serve blocks until ctx is canceled
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// UnstoppedServiceReport lists services that ignored the shutdown timeout
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
