// Package main hosts the lingosub CLI entrypoint and command graph.
//
// Commands either talk to the daemon over its HTTP API or, when the daemon is
// not running, read project directories directly. Configuration is resolved
// once per invocation by the command context.
package main
