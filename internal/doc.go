// Package internal documents the eventdesk server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, rendering, and routing
// - domain: events, users and identifiers
// - auth: credential checks and signed session cookies
// - audit, config, metrics, sanitize, telemetry: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
