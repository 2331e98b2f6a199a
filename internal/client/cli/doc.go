// Package cli provides the interactive LMS command-line client.
//
// It wires configuration, the bus client and the session cache into an
// interactive REPL. A background watcher pings the bus and switches the
// prompt between online and offline mode.
//
// Commands: register, login, me, logout, help, exit.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
