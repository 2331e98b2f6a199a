// Package client contains the terminal client's connection to the identity
// service.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface):
//     Register, Login, GetOwnData, Ping and Close.
//  2. A NATS implementation (see BusClient) that wraps calls in request
//     envelopes, bounds every attempt with a timeout and retries only when
//     no service instance is listening.
//
// # Error Handling
//
// Errors reported by the service come back as *bus.RemoteError and are never
// retried. Calls that found no responder, timed out or hit a closed
// connection match ErrUnavailable with errors.Is.
//
// All operations accept context.Context and honor cancellation.
package client
