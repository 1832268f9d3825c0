// Package pathutils resolves operator-supplied filesystem paths.
package pathutils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	tildeSymbolConstant               = "~"
	tildeForwardSlashPrefixConstant   = "~/"
	targetRootRequiredMessageConstant = "target root is required"
)

var tildeWithPathSeparatorPrefix = tildeSymbolConstant + string(os.PathSeparator)

// ErrTargetRootRequired indicates neither a target root nor a fallback was supplied.
var ErrTargetRootRequired = errors.New(targetRootRequiredMessageConstant)

// DirectoryProvider resolves a well-known directory such as the home or working directory.
type DirectoryProvider func() (string, error)

// TargetRootResolver turns a configured target root into a clean absolute path.
type TargetRootResolver struct {
	homeDirectoryProvider    DirectoryProvider
	workingDirectoryProvider DirectoryProvider
}

// NewTargetRootResolver constructs a resolver using the operating system lookups.
func NewTargetRootResolver() *TargetRootResolver {
	return NewTargetRootResolverWithProviders(os.UserHomeDir, os.Getwd)
}

// NewTargetRootResolverWithProviders constructs a resolver with custom directory lookups.
func NewTargetRootResolverWithProviders(homeDirectoryProvider DirectoryProvider, workingDirectoryProvider DirectoryProvider) *TargetRootResolver {
	if homeDirectoryProvider == nil {
		homeDirectoryProvider = os.UserHomeDir
	}
	if workingDirectoryProvider == nil {
		workingDirectoryProvider = os.Getwd
	}
	return &TargetRootResolver{homeDirectoryProvider: homeDirectoryProvider, workingDirectoryProvider: workingDirectoryProvider}
}

// Resolve trims candidate, falling back to fallback when blank, expands a
// leading tilde to the home directory and anchors relative paths at the
// working directory.
func (resolver *TargetRootResolver) Resolve(candidate string, fallback string) (string, error) {
	selected := strings.TrimSpace(candidate)
	if len(selected) == 0 {
		selected = strings.TrimSpace(fallback)
	}
	if len(selected) == 0 {
		return "", ErrTargetRootRequired
	}

	expanded, expandError := resolver.expandHome(selected)
	if expandError != nil {
		return "", expandError
	}

	if filepath.IsAbs(expanded) {
		return filepath.Clean(expanded), nil
	}

	workingDirectory, workingDirectoryError := resolver.workingDirectoryProvider()
	if workingDirectoryError != nil {
		return "", workingDirectoryError
	}
	return filepath.Join(workingDirectory, expanded), nil
}

func (resolver *TargetRootResolver) expandHome(candidate string) (string, error) {
	if !strings.HasPrefix(candidate, tildeSymbolConstant) {
		return candidate, nil
	}

	var relativePath string
	switch {
	case candidate == tildeSymbolConstant:
		relativePath = ""
	case strings.HasPrefix(candidate, tildeForwardSlashPrefixConstant):
		relativePath = strings.TrimPrefix(candidate, tildeForwardSlashPrefixConstant)
	case strings.HasPrefix(candidate, tildeWithPathSeparatorPrefix):
		relativePath = strings.TrimPrefix(candidate, tildeWithPathSeparatorPrefix)
	default:
		// ~user forms are left to the shell.
		return candidate, nil
	}

	homeDirectory, homeDirectoryError := resolver.homeDirectoryProvider()
	if homeDirectoryError != nil {
		return "", homeDirectoryError
	}
	return filepath.Join(homeDirectory, relativePath), nil
}
