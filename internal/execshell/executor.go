package execshell

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "shell executor logger not configured"
	commandRunnerNotConfiguredMessageConstant = "shell executor command runner not configured"
	commandFailedTemplateConstant             = "%s failed with exit code %d%s"
	commandExecutionFailedTemplateConstant    = "%s failed: %v"
	commandStartedLogMessageConstant          = "shell command started"
	commandCompletedLogMessageConstant        = "shell command completed"
	commandExecutionFailedLogMessageConstant  = "shell command execution failed"
	commandOutputLogMessageConstant           = "shell command output"
	logFieldCommandConstant                   = "command"
	logFieldWorkingDirectoryConstant          = "working_directory"
	logFieldExitCodeConstant                  = "exit_code"
	logFieldStreamConstant                    = "stream"
	logFieldLineConstant                      = "line"
	logFieldErrorConstant                     = "error"
)

var (
	// ErrLoggerNotConfigured indicates the executor was built without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates the executor was built without a runner.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a process that exited with a non-zero status.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failing command with credentials redacted.
func (failedError CommandFailedError) Error() string {
	formatter := CommandMessageFormatter{}
	return fmt.Sprintf(
		commandFailedTemplateConstant,
		formatter.formatCommandLabel(failedError.Command),
		failedError.Result.ExitCode,
		formatter.formatStandardErrorSuffix(failedError.Command.Redact(failedError.Result.StandardError)),
	)
}

// CommandExecutionError reports a process that could not be launched, drained or awaited.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure with credentials redacted.
func (executionError CommandExecutionError) Error() string {
	formatter := CommandMessageFormatter{}
	return executionError.Command.Redact(fmt.Sprintf(commandExecutionFailedTemplateConstant, formatter.formatCommandLabel(executionError.Command), executionError.Cause))
}

// Unwrap exposes the underlying cause.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// ShellExecutor runs commands through a CommandRunner and reports their lifecycle.
type ShellExecutor struct {
	logger    *zap.Logger
	runner    CommandRunner
	observers []CommandEventObserver
}

// NewShellExecutor constructs a ShellExecutor. Observers receive every lifecycle event.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, observers ...CommandEventObserver) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	activeObservers := make([]CommandEventObserver, 0, len(observers))
	for _, observer := range observers {
		if observer != nil {
			activeObservers = append(activeObservers, observer)
		}
	}

	return &ShellExecutor{logger: logger, runner: runner, observers: activeObservers}, nil
}

// Execute runs the command. A non-zero exit yields CommandFailedError and a
// launch or drain failure yields CommandExecutionError; both come with an
// empty ExecutionResult.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	formatter := CommandMessageFormatter{}
	commandLabel := formatter.formatCommandLabel(command)

	executor.logger.Debug(
		commandStartedLogMessageConstant,
		zap.String(logFieldCommandConstant, commandLabel),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	)
	for _, observer := range executor.observers {
		observer.CommandStarted(command)
	}

	outputSink := func(stream OutputStream, line string) {
		redactedLine := command.Redact(line)
		executor.logger.Debug(
			commandOutputLogMessageConstant,
			zap.String(logFieldCommandConstant, commandLabel),
			zap.Stringer(logFieldStreamConstant, stream),
			zap.String(logFieldLineConstant, redactedLine),
		)
		for _, observer := range executor.observers {
			observer.CommandOutput(command, stream, redactedLine)
		}
	}

	executionResult, runError := executor.runner.Run(executionContext, command, outputSink)
	if runError != nil {
		executor.logger.Debug(
			commandExecutionFailedLogMessageConstant,
			zap.String(logFieldCommandConstant, commandLabel),
			zap.String(logFieldErrorConstant, command.Redact(runError.Error())),
		)
		for _, observer := range executor.observers {
			observer.CommandExecutionFailed(command, runError)
		}
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	executor.logger.Debug(
		commandCompletedLogMessageConstant,
		zap.String(logFieldCommandConstant, commandLabel),
		zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
	)
	for _, observer := range executor.observers {
		observer.CommandCompleted(command, executionResult)
	}

	if executionResult.ExitCode != 0 {
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	return executionResult, nil
}

// ExecuteGit runs git with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}
