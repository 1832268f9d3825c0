package materialize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/temirov/forgeclone/internal/forge"
)

const (
	goGitCloneFailedTemplateConstant    = "go-git clone of %s into %s failed: %s"
	goGitOpenFailedTemplateConstant     = "unable to open repository at %s: %w"
	goGitWorktreeFailedTemplateConstant = "unable to open worktree at %s: %w"
	goGitPullFailedTemplateConstant     = "go-git pull in %s failed: %s"
)

// GoGitBackend clones and pulls in process with go-git. The token travels as
// HTTP basic auth and is never written into the working copy.
type GoGitBackend struct {
	token string
}

// NewGoGitBackend constructs a GoGitBackend.
func NewGoGitBackend(token string) *GoGitBackend {
	return &GoGitBackend{token: strings.TrimSpace(token)}
}

// Clone creates a working copy of repository at destination.
func (backend *GoGitBackend) Clone(executionContext context.Context, repository forge.Repository, destination string) error {
	_, cloneError := git.PlainCloneContext(executionContext, destination, false, &git.CloneOptions{
		URL:        repository.CloneURL,
		Auth:       backend.authentication(),
		RemoteName: originRemoteNameConstant,
	})
	if cloneError != nil {
		return fmt.Errorf(goGitCloneFailedTemplateConstant, repository.CloneURL, destination, RedactCredentials(cloneError.Error(), backend.token))
	}
	return nil
}

// Update pulls origin into the worktree at repositoryPath. An already up to date
// worktree is a successful update.
func (backend *GoGitBackend) Update(executionContext context.Context, repositoryPath string) error {
	repository, openError := git.PlainOpen(repositoryPath)
	if openError != nil {
		return fmt.Errorf(goGitOpenFailedTemplateConstant, repositoryPath, openError)
	}

	worktree, worktreeError := repository.Worktree()
	if worktreeError != nil {
		return fmt.Errorf(goGitWorktreeFailedTemplateConstant, repositoryPath, worktreeError)
	}

	pullError := worktree.PullContext(executionContext, &git.PullOptions{
		RemoteName: originRemoteNameConstant,
		Auth:       backend.authentication(),
	})
	if pullError == nil || errors.Is(pullError, git.NoErrAlreadyUpToDate) {
		return nil
	}
	return fmt.Errorf(goGitPullFailedTemplateConstant, repositoryPath, RedactCredentials(pullError.Error(), backend.token))
}

func (backend *GoGitBackend) authentication() transport.AuthMethod {
	if len(backend.token) == 0 {
		return nil
	}
	return &githttp.BasicAuth{Username: credentialUsernameConstant, Password: backend.token}
}
