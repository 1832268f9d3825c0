package materialize_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/forgeclone/internal/execshell"
	"github.com/temirov/forgeclone/internal/forge"
	"github.com/temirov/forgeclone/internal/materialize"
)

const (
	testGitTokenConstant       = "ghp_gitclitoken"
	testGitCloneURLConstant    = "https://github.com/acme/widgets.git"
	testGitDestinationConstant = "/srv/mirror/widgets"
)

type recordingGitExecutor struct {
	details  []execshell.CommandDetails
	failures map[string]error
}

func (executor *recordingGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.details = append(executor.details, details)
	if failure, exists := executor.failures[details.Arguments[0]]; exists {
		return execshell.ExecutionResult{}, failure
	}
	return execshell.ExecutionResult{}, nil
}

func TestNewGitCLIBackendRequiresExecutor(testInstance *testing.T) {
	backend, creationError := materialize.NewGitCLIBackend(nil, testGitTokenConstant, nil)
	require.ErrorIs(testInstance, creationError, materialize.ErrGitExecutorNotConfigured)
	require.Nil(testInstance, backend)
}

func TestGitCLIBackendClone(testInstance *testing.T) {
	executor := &recordingGitExecutor{}
	backend, creationError := materialize.NewGitCLIBackend(executor, testGitTokenConstant, zap.NewNop())
	require.NoError(testInstance, creationError)

	cloneError := backend.Clone(context.Background(), forge.Repository{Name: "widgets", CloneURL: testGitCloneURLConstant}, testGitDestinationConstant)
	require.NoError(testInstance, cloneError)
	require.Len(testInstance, executor.details, 2)

	cloneDetails := executor.details[0]
	require.Equal(testInstance, []string{"clone", "https://" + testGitTokenConstant + "@github.com/acme/widgets.git", testGitDestinationConstant}, cloneDetails.Arguments)
	require.Equal(testInstance, "0", cloneDetails.EnvironmentVariables["GIT_TERMINAL_PROMPT"])
	require.Contains(testInstance, cloneDetails.SensitiveValues, testGitTokenConstant)

	scrubDetails := executor.details[1]
	require.Equal(testInstance, []string{"remote", "set-url", "origin", testGitCloneURLConstant}, scrubDetails.Arguments)
	require.Equal(testInstance, testGitDestinationConstant, scrubDetails.WorkingDirectory)
}

func TestGitCLIBackendCloneWithoutTokenSkipsScrub(testInstance *testing.T) {
	executor := &recordingGitExecutor{}
	backend, creationError := materialize.NewGitCLIBackend(executor, "", nil)
	require.NoError(testInstance, creationError)

	require.NoError(testInstance, backend.Clone(context.Background(), forge.Repository{Name: "widgets", CloneURL: testGitCloneURLConstant}, testGitDestinationConstant))
	require.Len(testInstance, executor.details, 1)
	require.Equal(testInstance, []string{"clone", testGitCloneURLConstant, testGitDestinationConstant}, executor.details[0].Arguments)
	require.Empty(testInstance, executor.details[0].SensitiveValues)
}

func TestGitCLIBackendCloneFailure(testInstance *testing.T) {
	cloneFailure := errors.New("clone exited with 128")
	executor := &recordingGitExecutor{failures: map[string]error{"clone": cloneFailure}}
	backend, creationError := materialize.NewGitCLIBackend(executor, testGitTokenConstant, nil)
	require.NoError(testInstance, creationError)

	cloneError := backend.Clone(context.Background(), forge.Repository{Name: "widgets", CloneURL: testGitCloneURLConstant}, testGitDestinationConstant)
	var commandError materialize.GitCommandError
	require.ErrorAs(testInstance, cloneError, &commandError)
	require.Equal(testInstance, "clone", commandError.Subcommand)
	require.EqualError(testInstance, cloneError, cloneFailure.Error())
	require.Len(testInstance, executor.details, 1)
}

func TestGitCLIBackendFailuresDoNotExposeCredentials(testInstance *testing.T) {
	encodedCredential := base64.StdEncoding.EncodeToString([]byte("x-access-token:" + testGitTokenConstant))
	authenticatedURL := "https://" + testGitTokenConstant + "@github.com/acme/widgets.git"

	testCases := []struct {
		name       string
		subcommand string
		failure    error
		run        func(*materialize.GitCLIBackend) error
	}{
		{
			name:       "clone_command_failed",
			subcommand: "clone",
			failure:    execshell.CommandFailedError{
				Command: execshell.ShellCommand{
					Name: execshell.CommandGit,
					Details: execshell.CommandDetails{
						Arguments:       []string{"clone", authenticatedURL, testGitDestinationConstant},
						SensitiveValues: []string{testGitTokenConstant},
					},
				},
				Result: execshell.ExecutionResult{ExitCode: 128, StandardError: "fatal: unable to access '" + authenticatedURL + "'"},
			},
			run: func(backend *materialize.GitCLIBackend) error {
				return backend.Clone(context.Background(), forge.Repository{Name: "widgets", CloneURL: testGitCloneURLConstant}, testGitDestinationConstant)
			},
		},
		{
			name:       "pull_execution_error",
			subcommand: "pull",
			failure:    execshell.CommandExecutionError{
				Command: execshell.ShellCommand{
					Name: execshell.CommandGit,
					Details: execshell.CommandDetails{
						Arguments:            []string{"pull", "origin"},
						EnvironmentVariables: map[string]string{"GIT_CONFIG_VALUE_0": "Authorization: Basic " + encodedCredential},
						SensitiveValues:      []string{testGitTokenConstant, encodedCredential},
					},
				},
				Cause: errors.New("exec: git: not found"),
			},
			run: func(backend *materialize.GitCLIBackend) error {
				return backend.Update(context.Background(), testGitDestinationConstant)
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &recordingGitExecutor{failures: map[string]error{testCase.subcommand: testCase.failure}}
			backend, creationError := materialize.NewGitCLIBackend(executor, testGitTokenConstant, nil)
			require.NoError(testInstance, creationError)

			backendError := testCase.run(backend)
			require.Error(testInstance, backendError)

			var commandError materialize.GitCommandError
			require.ErrorAs(testInstance, backendError, &commandError)
			require.Equal(testInstance, testCase.subcommand, commandError.Subcommand)

			var failedError execshell.CommandFailedError
			require.False(testInstance, errors.As(backendError, &failedError))
			var executionError execshell.CommandExecutionError
			require.False(testInstance, errors.As(backendError, &executionError))

			rendered := fmt.Sprintf("%#v %+v %v", backendError, backendError, backendError)
			require.NotContains(testInstance, rendered, testGitTokenConstant)
			require.NotContains(testInstance, rendered, encodedCredential)
		})
	}
}

func TestGitCLIBackendFailureKeepsExitCodeAndDeadline(testInstance *testing.T) {
	executor := &recordingGitExecutor{failures: map[string]error{}}
	executor.failures["pull"] = fmt.Errorf("git pull: %w", context.DeadlineExceeded)
	executor.failures["clone"] = execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: []string{"clone"}}},
		Result:  execshell.ExecutionResult{ExitCode: 128},
	}
	backend, creationError := materialize.NewGitCLIBackend(executor, testGitTokenConstant, nil)
	require.NoError(testInstance, creationError)

	updateError := backend.Update(context.Background(), testGitDestinationConstant)
	require.ErrorIs(testInstance, updateError, context.DeadlineExceeded)

	cloneError := backend.Clone(context.Background(), forge.Repository{Name: "widgets", CloneURL: testGitCloneURLConstant}, testGitDestinationConstant)
	var commandError materialize.GitCommandError
	require.ErrorAs(testInstance, cloneError, &commandError)
	require.Equal(testInstance, 128, commandError.ExitCode)
	require.NoError(testInstance, errors.Unwrap(cloneError))
}

func TestGitCLIBackendScrubFailureIsWarning(testInstance *testing.T) {
	executor := &recordingGitExecutor{failures: map[string]error{"remote": errors.New("could not lock config file")}}
	observerCore, observerLogs := observer.New(zap.WarnLevel)
	backend, creationError := materialize.NewGitCLIBackend(executor, testGitTokenConstant, zap.New(observerCore))
	require.NoError(testInstance, creationError)

	require.NoError(testInstance, backend.Clone(context.Background(), forge.Repository{Name: "widgets", CloneURL: testGitCloneURLConstant}, testGitDestinationConstant))
	require.Equal(testInstance, 1, observerLogs.Len())
}

func TestGitCLIBackendUpdate(testInstance *testing.T) {
	executor := &recordingGitExecutor{}
	backend, creationError := materialize.NewGitCLIBackend(executor, testGitTokenConstant, nil)
	require.NoError(testInstance, creationError)

	require.NoError(testInstance, backend.Update(context.Background(), testGitDestinationConstant))
	require.Len(testInstance, executor.details, 1)

	pullDetails := executor.details[0]
	require.Equal(testInstance, []string{"pull", "origin"}, pullDetails.Arguments)
	require.Equal(testInstance, testGitDestinationConstant, pullDetails.WorkingDirectory)

	encodedCredential := base64.StdEncoding.EncodeToString([]byte("x-access-token:" + testGitTokenConstant))
	require.Equal(testInstance, "1", pullDetails.EnvironmentVariables["GIT_CONFIG_COUNT"])
	require.Equal(testInstance, "http.extraHeader", pullDetails.EnvironmentVariables["GIT_CONFIG_KEY_0"])
	require.Equal(testInstance, "Authorization: Basic "+encodedCredential, pullDetails.EnvironmentVariables["GIT_CONFIG_VALUE_0"])
	require.ElementsMatch(testInstance, []string{testGitTokenConstant, encodedCredential}, pullDetails.SensitiveValues)
	for _, argument := range pullDetails.Arguments {
		require.NotContains(testInstance, argument, testGitTokenConstant)
	}
}

func TestGitCLIBackendUpdateFailurePropagates(testInstance *testing.T) {
	pullFailure := errors.New("pull exited with 1")
	executor := &recordingGitExecutor{failures: map[string]error{"pull": pullFailure}}
	backend, creationError := materialize.NewGitCLIBackend(executor, "", nil)
	require.NoError(testInstance, creationError)

	require.EqualError(testInstance, backend.Update(context.Background(), testGitDestinationConstant), pullFailure.Error())
	_, hasConfigCount := executor.details[0].EnvironmentVariables["GIT_CONFIG_COUNT"]
	require.False(testInstance, hasConfigCount)
}
