// Package tracing provides hooks that observe the accesses of a cache.
//
// Tracers are attached with Cache.AcceptHook and are invoked synchronously
// from the simulation loop.
package tracing
