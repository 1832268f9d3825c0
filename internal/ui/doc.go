// Package ui provides helpers for formatting human-readable console output.
//
// ConsoleCommandEventLogger turns git subprocess lifecycle events into concise
// console messages while detailed telemetry continues to flow through the
// structured logger.
package ui
