// Package core defines the shared contracts of the Gantry runtime: sessions
// and their event history, the per-turn execution context handed to routing
// and capability code, the step limiter bounding a turn, and the error
// taxonomy surfaced by the turn executor.
//
// The types here are deliberately free of provider or transport concerns so
// that the router, the capability registry and the turn executor can be
// exercised with deterministic test doubles.
package core
