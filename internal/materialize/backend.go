package materialize

import (
	"context"

	"github.com/temirov/forgeclone/internal/forge"
)

const (
	// BackendGitCLI selects the external git executable.
	BackendGitCLI = "git"
	// BackendGoGit selects the in-process go-git implementation.
	BackendGoGit = "go-git"

	originRemoteNameConstant = "origin"
)

// Backend performs the version-control work for one repository.
type Backend interface {
	// Clone creates a working copy of repository at destination.
	Clone(executionContext context.Context, repository forge.Repository, destination string) error
	// Update pulls the latest changes into the existing working copy at repositoryPath.
	Update(executionContext context.Context, repositoryPath string) error
}
