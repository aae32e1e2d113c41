// Package tools provides host-runtime helpers for the popup bridge.
//
// Ownership boundary:
// - command execution helpers
// - browser launch adapters
package tools
