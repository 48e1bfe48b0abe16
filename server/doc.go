// Package server exposes the trend dataset tools over a single
// JSON-RPC endpoint. Every tool call passes through the bearer-token
// gate before dispatch; authentication failures are answered with a
// JSON-RPC error envelope whose code mirrors the HTTP status.
package server
