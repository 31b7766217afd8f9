// Package gantry provides a high-level façade over the delegation router,
// runner and service abstractions (sessions, records, logging) enabling rapid
// construction of the research-administration assistant. Most applications
// interact with this package by:
//  1. Creating a Gantry via New() (optionally overriding the in-memory stores)
//  2. Running turns with RunTurn, or mounting the HTTP handler from server
//
// The façade delegates turn execution to runner.Runner while keeping setup
// ergonomics concise. All defaults are safe for local development and
// testing; deployments typically supply the sqlite stores and a structured
// logger.
package gantry

import (
	"context"
	"fmt"

	"github.com/gantryai/gantry/assistant"
	"github.com/gantryai/gantry/core"
	"github.com/gantryai/gantry/logging"
	"github.com/gantryai/gantry/oracle"
	"github.com/gantryai/gantry/records"
	"github.com/gantryai/gantry/router"
	"github.com/gantryai/gantry/runner"
	"github.com/gantryai/gantry/session"
)

// Options configures the Gantry instance.
type Options struct {
	// RecordStore backs the project/person capabilities. Defaults to the
	// in-memory implementation.
	RecordStore records.Store
	// SessionStore persists conversation state. Defaults to the in-memory
	// implementation.
	SessionStore core.SessionStore
	// MaxSteps bounds oracle consultations plus capability invocations per
	// turn. Zero uses the default budget.
	MaxSteps int
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Gantry aggregates the assembled hierarchy, router and runner.
type Gantry struct {
	opts   Options
	runner *runner.Runner
}

// New assembles the assistant over the given decision oracle. Any unset store
// is initialized with an in-memory implementation.
func New(o oracle.Oracle, optFns ...func(o *Options)) (*Gantry, error) {
	opts := Options{
		RecordStore:  records.NewInMemoryStore(),
		SessionStore: session.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	root, registry, err := assistant.Build(opts.RecordStore)
	if err != nil {
		return nil, err
	}
	rt, err := router.New(root, registry, o)
	if err != nil {
		return nil, err
	}
	run, err := runner.New(assistant.AppName, rt, opts.SessionStore, func(ro *runner.Options) {
		ro.MaxSteps = opts.MaxSteps
		ro.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}
	return &Gantry{opts: opts, runner: run}, nil
}

// Runner exposes the underlying turn executor, e.g. for mounting the HTTP
// server.
func (g *Gantry) Runner() *runner.Runner { return g.runner }

// RunTurn executes one turn and streams its output events.
func (g *Gantry) RunTurn(ctx context.Context, userID, sessionID, message, role string) (<-chan runner.Event, error) {
	return g.runner.RunTurn(ctx, userID, sessionID, message, role)
}

// RunTurnSync executes one turn to completion and returns the terminal text.
// A terminal ErrorEvent is returned as an error.
func (g *Gantry) RunTurnSync(ctx context.Context, userID, sessionID, message, role string) (string, error) {
	events, err := g.runner.RunTurn(ctx, userID, sessionID, message, role)
	if err != nil {
		return "", err
	}
	var last string
	for ev := range events {
		switch e := ev.(type) {
		case runner.TextEvent:
			last = e.Text
		case runner.ErrorEvent:
			return "", fmt.Errorf("%s: %s", e.Code, e.Message)
		}
	}
	return last, nil
}
