// Package mirror orchestrates one forgeclone run: token resolution, mode
// selection, enumeration, display, confirmation and materialization.
package mirror
