// Package main provides the adapter verification command line tool. It runs
// the stock scenarios, or a YAML-defined suite, and exits nonzero when any
// invariant is violated.
package main
