package materialize

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/forgeclone/internal/execshell"
	"github.com/temirov/forgeclone/internal/forge"
)

const (
	gitCloneSubcommandConstant               = "clone"
	gitPullSubcommandConstant                = "pull"
	gitRemoteSubcommandConstant              = "remote"
	gitSetURLSubcommandConstant              = "set-url"
	gitTerminalPromptVariableConstant        = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledConstant        = "0"
	gitConfigCountVariableConstant           = "GIT_CONFIG_COUNT"
	gitConfigKeyVariableConstant             = "GIT_CONFIG_KEY_0"
	gitConfigValueVariableConstant           = "GIT_CONFIG_VALUE_0"
	gitConfigSingleEntryCountConstant        = "1"
	gitExtraHeaderKeyConstant                = "http.extraHeader"
	basicAuthorizationHeaderTemplateConstant = "Authorization: Basic %s"
	gitExecutorNotConfiguredMessageConstant  = "git executor not configured"
	remoteScrubFailedLogMessageConstant      = "Unable to remove credentials from origin remote"
	logFieldRepositoryPathConstant           = "path"
)

// ErrGitExecutorNotConfigured indicates the git backend was built without an executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorNotConfiguredMessageConstant)

// GitCommandError reports a failed git invocation with credentials removed.
// Only context cancellation causes are kept in the chain.
type GitCommandError struct {
	Subcommand string
	Message    string
	ExitCode   int
	Cause      error
}

// Error describes the failure.
func (commandError GitCommandError) Error() string {
	return commandError.Message
}

// Unwrap exposes a context cancellation cause, if any.
func (commandError GitCommandError) Unwrap() error {
	return commandError.Cause
}

// GitExecutor exposes the subset of shell execution used by the git backend.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// GitCLIBackend clones and pulls through the external git executable.
//
// Clones use the credential-bearing HTTPS URL, after which the origin remote is
// reset to the plain clone URL so the token is not left in .git/config. Pulls
// authenticate through an http.extraHeader passed in the environment.
type GitCLIBackend struct {
	executor GitExecutor
	token    string
	logger   *zap.Logger
}

// NewGitCLIBackend constructs a GitCLIBackend. A nil logger discards warnings.
func NewGitCLIBackend(executor GitExecutor, token string, logger *zap.Logger) (*GitCLIBackend, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GitCLIBackend{executor: executor, token: strings.TrimSpace(token), logger: logger}, nil
}

// Clone runs git clone <authenticated-url> <destination>.
func (backend *GitCLIBackend) Clone(executionContext context.Context, repository forge.Repository, destination string) error {
	authenticatedURL, injectionError := InjectCredential(repository.CloneURL, backend.token)
	if injectionError != nil {
		return injectionError
	}

	_, cloneError := backend.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitCloneSubcommandConstant, authenticatedURL, destination},
		EnvironmentVariables: backend.baseEnvironment(),
		SensitiveValues:      backend.sensitiveValues(),
	})
	if cloneError != nil {
		return backend.redactedError(gitCloneSubcommandConstant, cloneError)
	}

	if authenticatedURL == repository.CloneURL {
		return nil
	}

	_, scrubError := backend.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitRemoteSubcommandConstant, gitSetURLSubcommandConstant, originRemoteNameConstant, repository.CloneURL},
		WorkingDirectory:     destination,
		EnvironmentVariables: backend.baseEnvironment(),
		SensitiveValues:      backend.sensitiveValues(),
	})
	if scrubError != nil {
		backend.logger.Warn(
			remoteScrubFailedLogMessageConstant,
			zap.String(logFieldRepositoryPathConstant, destination),
			zap.String(logFieldErrorConstant, RedactCredentials(scrubError.Error(), backend.token)),
		)
	}
	return nil
}

// Update runs git pull origin inside repositoryPath.
func (backend *GitCLIBackend) Update(executionContext context.Context, repositoryPath string) error {
	environment := backend.baseEnvironment()
	if len(backend.token) > 0 {
		environment[gitConfigCountVariableConstant] = gitConfigSingleEntryCountConstant
		environment[gitConfigKeyVariableConstant] = gitExtraHeaderKeyConstant
		environment[gitConfigValueVariableConstant] = fmt.Sprintf(basicAuthorizationHeaderTemplateConstant, backend.encodedCredential())
	}

	_, pullError := backend.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitPullSubcommandConstant, originRemoteNameConstant},
		WorkingDirectory:     repositoryPath,
		EnvironmentVariables: environment,
		SensitiveValues:      backend.sensitiveValues(),
	})
	if pullError != nil {
		return backend.redactedError(gitPullSubcommandConstant, pullError)
	}
	return nil
}

// redactedError detaches executor failures from the command that produced them,
// since executor errors carry the credential-bearing arguments and environment.
func (backend *GitCLIBackend) redactedError(subcommand string, executionError error) error {
	redacted := GitCommandError{
		Subcommand: subcommand,
		Message:    execshell.RedactValues(executionError.Error(), backend.sensitiveValues()...),
	}
	var failedError execshell.CommandFailedError
	if errors.As(executionError, &failedError) {
		redacted.ExitCode = failedError.Result.ExitCode
	}
	switch {
	case errors.Is(executionError, context.DeadlineExceeded):
		redacted.Cause = context.DeadlineExceeded
	case errors.Is(executionError, context.Canceled):
		redacted.Cause = context.Canceled
	}
	return redacted
}

func (backend *GitCLIBackend) baseEnvironment() map[string]string {
	return map[string]string{gitTerminalPromptVariableConstant: gitTerminalPromptDisabledConstant}
}

func (backend *GitCLIBackend) encodedCredential() string {
	return base64.StdEncoding.EncodeToString([]byte(credentialUsernameConstant + credentialSeparatorConstant + backend.token))
}

func (backend *GitCLIBackend) sensitiveValues() []string {
	if len(backend.token) == 0 {
		return nil
	}
	return []string{backend.token, backend.encodedCredential()}
}
