// Package verify implements the adapter correctness checks: parameter
// isolation (training moves only injected factors), disable round-trips
// (the gate removes the whole learned contribution, exception-safely) and
// merge round-trips (folding adapters into base weights preserves outputs).
// Every check is deterministic for a given seed and never retries.
package verify
