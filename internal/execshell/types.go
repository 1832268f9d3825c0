package execshell

import (
	"context"
	"strings"
)

const (
	redactedValuePlaceholderConstant = "***"
)

// CommandName identifies an executable supported by the executor.
type CommandName string

// Supported command names.
const (
	CommandGit CommandName = CommandName("git")
)

// OutputStream identifies the process stream a line was read from.
type OutputStream int

// Output stream enumerations.
const (
	StandardOutputStream OutputStream = iota
	StandardErrorStream
)

// String returns the conventional stream label.
func (stream OutputStream) String() string {
	if stream == StandardErrorStream {
		return "stderr"
	}
	return "stdout"
}

// CommandDetails describes arguments and environment for a single invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	// SensitiveValues are replaced with a placeholder in every log line,
	// observer notification and error message derived from the command.
	SensitiveValues []string
}

// ShellCommand couples an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// Redact replaces every sensitive value of the command found in text.
func (command ShellCommand) Redact(text string) string {
	return RedactValues(text, command.Details.SensitiveValues...)
}

// ExecutionResult captures the observable results of a finished process.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// OutputLineSink receives each line drained from a running process.
type OutputLineSink func(stream OutputStream, line string)

// CommandRunner launches a process and blocks until it exits.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand, sink OutputLineSink) (ExecutionResult, error)
}

// RedactValues replaces every non-empty secret found in text with a placeholder.
func RedactValues(text string, secrets ...string) string {
	redacted := text
	for _, secret := range secrets {
		if len(secret) == 0 {
			continue
		}
		redacted = strings.ReplaceAll(redacted, secret, redactedValuePlaceholderConstant)
	}
	return redacted
}
