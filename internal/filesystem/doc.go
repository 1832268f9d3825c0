// Package filesystem adapts operating system file primitives for the clone
// workflow and classifies local paths before they are cloned into or updated.
package filesystem
