package execshell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/forgeclone/internal/execshell"
)

const (
	testExecutionSuccessCaseNameConstant         = "success"
	testExecutionFailureCaseNameConstant         = "failure_exit_code"
	testExecutionRunnerErrorCaseNameConstant     = "runner_error"
	testCommandArgumentConstant                  = "--version"
	testWorkingDirectoryConstant                 = "."
	testStandardErrorOutputConstant              = "failure"
	testLoggerInitializationCaseNameConstant     = "logger_validation"
	testRunnerInitializationCaseNameConstant     = "runner_validation"
	testSuccessfulInitializationCaseNameConstant = "successful_initialization"
	testSecretTokenConstant                      = "ghp_secretvalue"
	testAuthenticatedCloneURLConstant            = "https://ghp_secretvalue@github.com/acme/widgets.git"
)

type recordingCommandRunner struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	emittedLines     []string
	recordedCommands []execshell.ShellCommand
}

func (runner *recordingCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand, sink execshell.OutputLineSink) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	for _, line := range runner.emittedLines {
		sink(execshell.StandardErrorStream, line)
	}
	return runner.executionResult, runner.executionError
}

type recordingObserver struct {
	started    int
	completed  int
	failed     int
	lines      []string
	lastResult execshell.ExecutionResult
}

func (observer *recordingObserver) CommandStarted(execshell.ShellCommand) {
	observer.started++
}

func (observer *recordingObserver) CommandOutput(_ execshell.ShellCommand, _ execshell.OutputStream, line string) {
	observer.lines = append(observer.lines, line)
}

func (observer *recordingObserver) CommandCompleted(_ execshell.ShellCommand, result execshell.ExecutionResult) {
	observer.completed++
	observer.lastResult = result
}

func (observer *recordingObserver) CommandExecutionFailed(execshell.ShellCommand, error) {
	observer.failed++
}

func TestShellExecutorInitializationValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		runner        execshell.CommandRunner
		expectError   error
		expectSuccess bool
	}{
		{
			name:        testLoggerInitializationCaseNameConstant,
			logger:      nil,
			runner:      &recordingCommandRunner{},
			expectError: execshell.ErrLoggerNotConfigured,
		},
		{
			name:        testRunnerInitializationCaseNameConstant,
			logger:      zap.NewNop(),
			runner:      nil,
			expectError: execshell.ErrCommandRunnerNotConfigured,
		},
		{
			name:          testSuccessfulInitializationCaseNameConstant,
			logger:        zap.NewNop(),
			runner:        &recordingCommandRunner{},
			expectSuccess: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor, creationError := execshell.NewShellExecutor(testCase.logger, testCase.runner)
			if testCase.expectSuccess {
				require.NoError(testInstance, creationError)
				require.NotNil(testInstance, executor)
			} else {
				require.Error(testInstance, creationError)
				require.ErrorIs(testInstance, creationError, testCase.expectError)
			}
		})
	}
}

func TestShellExecutorExecuteBehavior(testInstance *testing.T) {
	testCases := []struct {
		name              string
		runnerResult      execshell.ExecutionResult
		runnerError       error
		expectErrorType   any
		expectedLogCount  int
		expectedCompleted int
		expectedFailed    int
	}{
		{
			name: testExecutionSuccessCaseNameConstant,
			runnerResult: execshell.ExecutionResult{
				StandardOutput: "ok",
				ExitCode:       0,
			},
			expectedLogCount:  2,
			expectedCompleted: 1,
		},
		{
			name: testExecutionFailureCaseNameConstant,
			runnerResult: execshell.ExecutionResult{
				StandardError: testStandardErrorOutputConstant,
				ExitCode:      1,
			},
			expectErrorType:   execshell.CommandFailedError{},
			expectedLogCount:  2,
			expectedCompleted: 1,
		},
		{
			name:             testExecutionRunnerErrorCaseNameConstant,
			runnerError:      errors.New("runner failure"),
			expectErrorType:  execshell.CommandExecutionError{},
			expectedLogCount: 2,
			expectedFailed:   1,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observerLogs := observer.New(zap.DebugLevel)
			logger := zap.New(observerCore)

			recordingRunner := &recordingCommandRunner{
				executionResult: testCase.runnerResult,
				executionError:  testCase.runnerError,
			}
			eventObserver := &recordingObserver{}

			shellExecutor, creationError := execshell.NewShellExecutor(logger, recordingRunner, eventObserver)
			require.NoError(testInstance, creationError)

			commandDetails := execshell.CommandDetails{Arguments: []string{testCommandArgumentConstant}, WorkingDirectory: testWorkingDirectoryConstant}
			executionResult, executionError := shellExecutor.ExecuteGit(context.Background(), commandDetails)

			if testCase.expectErrorType != nil {
				require.Error(testInstance, executionError)
				require.IsType(testInstance, testCase.expectErrorType, executionError)
				require.Empty(testInstance, executionResult.StandardOutput)
			} else {
				require.NoError(testInstance, executionError)
				require.Equal(testInstance, testCase.runnerResult.StandardOutput, executionResult.StandardOutput)
			}

			require.Len(testInstance, observerLogs.All(), testCase.expectedLogCount)
			require.Equal(testInstance, 1, eventObserver.started)
			require.Equal(testInstance, testCase.expectedCompleted, eventObserver.completed)
			require.Equal(testInstance, testCase.expectedFailed, eventObserver.failed)
			require.Len(testInstance, recordingRunner.recordedCommands, 1)
			require.Equal(testInstance, execshell.CommandGit, recordingRunner.recordedCommands[0].Name)
		})
	}
}

func TestShellExecutorRedactsSensitiveValues(testInstance *testing.T) {
	observerCore, observerLogs := observer.New(zap.DebugLevel)
	logger := zap.New(observerCore)

	recordingRunner := &recordingCommandRunner{
		executionResult: execshell.ExecutionResult{
			StandardError: "fatal: unable to access '" + testAuthenticatedCloneURLConstant + "'",
			ExitCode:      128,
		},
		emittedLines: []string{"fatal: unable to access '" + testAuthenticatedCloneURLConstant + "'"},
	}
	eventObserver := &recordingObserver{}

	shellExecutor, creationError := execshell.NewShellExecutor(logger, recordingRunner, eventObserver)
	require.NoError(testInstance, creationError)

	_, executionError := shellExecutor.ExecuteGit(context.Background(), execshell.CommandDetails{
		Arguments:       []string{"clone", testAuthenticatedCloneURLConstant, "/tmp/widgets"},
		SensitiveValues: []string{testSecretTokenConstant},
	})
	require.Error(testInstance, executionError)
	require.NotContains(testInstance, executionError.Error(), testSecretTokenConstant)
	require.Contains(testInstance, executionError.Error(), "https://***@github.com/acme/widgets.git")

	require.Len(testInstance, eventObserver.lines, 1)
	require.NotContains(testInstance, eventObserver.lines[0], testSecretTokenConstant)

	for _, entry := range observerLogs.All() {
		require.NotContains(testInstance, entry.Message, testSecretTokenConstant)
		for _, value := range entry.ContextMap() {
			stringValue, isString := value.(string)
			if isString {
				require.NotContains(testInstance, stringValue, testSecretTokenConstant)
			}
		}
	}
}

func TestRedactValuesIgnoresEmptySecrets(testInstance *testing.T) {
	require.Equal(testInstance, "plain text", execshell.RedactValues("plain text", "", ""))
	require.Equal(testInstance, "a *** b ***", execshell.RedactValues("a token b token", "token"))
}
