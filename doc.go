// Package smoker is a smoke-test harness that drives behavior scenarios
// against external target systems: HTTP APIs, message brokers, object
// stores, queues, streams, parameter stores, and log sinks.
//
// # Architecture
//
// Every scenario runs inside a World, a per-scenario composition root
// that owns four core subsystems:
//
//   - a configuration registry of named client configuration entries,
//     keyed by "type" or "type:id"
//   - a factory that resolves a client type to its constructor through a
//     closed mapping table and returns fresh uninitialized instances
//   - a mutable nested property store addressed by dotted paths, used by
//     steps to hand results to later steps
//   - a reference resolver that substitutes config: and prop: tokens in
//     step parameters before the step executes
//
// Service clients share one lifecycle contract (Init, Reset, Destroy,
// IsInitialized, Name) with a three-state machine: Uninitialized ->
// Initialized -> Destroyed. Reset re-arms a client without reconnecting;
// Destroy is idempotent from any state. Clients that must block until an
// asynchronous event arrives poll through pkg/poll, a timeout-bounded
// wait primitive with an injectable clock; a timeout is a normal
// outcome, not an error.
//
// The cmd/smoker command loads layered JSON configuration, exposes it to
// feature files through config: references, and executes the scenarios
// with godog.
package smoker
