package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/dmitrymomot/statekit/pkg/config"
	"github.com/dmitrymomot/statekit/pkg/fsminspect"
	"github.com/dmitrymomot/statekit/pkg/logger"
	"github.com/dmitrymomot/statekit/pkg/statemachine"
)

// ErrSessionExpired is returned by run when Session gives up before a token
// is issued.
var ErrSessionExpired = errors.New("session expired before authentication")

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Log in once and report how the session settles",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "subject",
				Aliases: []string{"s"},
				Usage:   "Subject to log in as (overrides AUTHFLOW_SUBJECT)",
			},
			&cli.StringFlag{
				Name:  "inspect-addr",
				Usage: "Serve the inspect API on this address and keep running (overrides AUTHFLOW_INSPECT_ADDR)",
			},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg Config
	if err := config.Load(&cfg, config.WithPrefix("AUTHFLOW_")); err != nil {
		return err
	}
	if cmd.IsSet("subject") {
		cfg.Subject = cmd.String("subject")
	}
	if cmd.IsSet("inspect-addr") {
		cfg.Inspect.Addr = cmd.String("inspect-addr")
	}

	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, "authflow"),
		logger.WithContextExtractors(logger.TriggerExtractor(), fsminspect.RequestIDExtractor()),
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevelName(cfg.LogLevel))
	}
	log := logger.New(opts...)
	logger.SetAsDefault(log)

	return run(ctx, cfg, log)
}

func run(ctx context.Context, cfg Config, log *slog.Logger) error {
	settled := make(chan statemachine.Step, 1)
	mgr := statemachine.NewManager("authflow",
		statemachine.WithLogger(log),
		statemachine.WithTransitionHook(logTransitions(log)),
		statemachine.WithTransitionHook(notifySettled(settled)),
	)
	if err := registerFlow(mgr, flowConfig{
		MaxAttempts: cfg.MaxAttempts,
		Source:      cfg.tokenSource(ctx),
	}); err != nil {
		return err
	}

	if _, err := mgr.Send(ctx, statemachine.NewEvent("login", sessionMachine, cfg.Subject)); err != nil {
		return fmt.Errorf("start login: %w", err)
	}

	if cfg.Inspect.Enabled() {
		srv := fsminspect.NewServer(cfg.Inspect,
			fsminspect.Handler(mgr, fsminspect.WithLogger(log)),
			fsminspect.WithServerLogger(log),
		)
		return srv.Run(ctx)
	}

	select {
	case step := <-settled:
		snap, err := mgr.CurrentState(sessionMachine)
		if err != nil {
			return err
		}
		log.InfoContext(ctx, "session settled",
			logger.Machine(step.Machine),
			logger.State(step.Next),
			slog.Any("context", snap.Context),
		)
		if step.Next == stateExpired {
			return ErrSessionExpired
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}

func logTransitions(log *slog.Logger) statemachine.TransitionHook {
	return func(ctx context.Context, step statemachine.Step) {
		log.InfoContext(ctx, "state changed",
			logger.Machine(step.Machine),
			logger.Transition(step.Previous, step.Next),
			logger.EventType(step.Event.Type),
			logger.EventID(step.Event.ID),
		)
	}
}

// notifySettled reports the first Session step that reaches authenticated or expired.
func notifySettled(ch chan<- statemachine.Step) statemachine.TransitionHook {
	return func(_ context.Context, step statemachine.Step) {
		if step.Machine != sessionMachine {
			return
		}
		if step.Next != stateAuthenticated && step.Next != stateExpired {
			return
		}
		select {
		case ch <- step:
		default:
		}
	}
}
