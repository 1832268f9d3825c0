package execshell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

const (
	environmentAssignmentSeparatorConstant  = "="
	environmentAssignmentTemplateConstant   = "%s%s%s"
	lineDelimiterConstant                   = '\n'
	carriageReturnCutsetConstant            = "\r\n"
	standardOutputPipeErrorTemplateConstant = "unable to attach standard output: %w"
	standardErrorPipeErrorTemplateConstant  = "unable to attach standard error: %w"
	streamDrainErrorTemplateConstant        = "unable to drain %s: %w"
)

// OSCommandRunner executes commands using the operating system facilities.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run starts the command, drains stdout and stderr concurrently until both
// reach EOF, then waits on the process. A non-zero exit is reported through
// ExecutionResult.ExitCode; the returned error is reserved for launch, drain
// and cancellation failures.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand, sink OutputLineSink) (ExecutionResult, error) {
	commandArguments := append([]string{}, command.Details.Arguments...)
	executable := exec.CommandContext(executionContext, string(command.Name), commandArguments...)

	if len(command.Details.WorkingDirectory) > 0 {
		executable.Dir = command.Details.WorkingDirectory
	}

	if len(command.Details.EnvironmentVariables) > 0 {
		mergedEnvironment := append([]string{}, os.Environ()...)
		for environmentKey, environmentValue := range command.Details.EnvironmentVariables {
			mergedEnvironment = append(mergedEnvironment, fmt.Sprintf(environmentAssignmentTemplateConstant, environmentKey, environmentAssignmentSeparatorConstant, environmentValue))
		}
		executable.Env = mergedEnvironment
	}

	standardOutputPipe, standardOutputPipeError := executable.StdoutPipe()
	if standardOutputPipeError != nil {
		return ExecutionResult{}, fmt.Errorf(standardOutputPipeErrorTemplateConstant, standardOutputPipeError)
	}

	standardErrorPipe, standardErrorPipeError := executable.StderrPipe()
	if standardErrorPipeError != nil {
		return ExecutionResult{}, fmt.Errorf(standardErrorPipeErrorTemplateConstant, standardErrorPipeError)
	}

	if startError := executable.Start(); startError != nil {
		return ExecutionResult{}, startError
	}

	var standardOutputBuilder strings.Builder
	var standardErrorBuilder strings.Builder

	serializedSink := serializeSink(sink)

	var drainGroup errgroup.Group
	drainGroup.Go(func() error {
		return drainStream(standardOutputPipe, StandardOutputStream, &standardOutputBuilder, serializedSink)
	})
	drainGroup.Go(func() error {
		return drainStream(standardErrorPipe, StandardErrorStream, &standardErrorBuilder, serializedSink)
	})

	// Both pipes must reach EOF before Wait closes them.
	drainError := drainGroup.Wait()
	waitError := executable.Wait()

	executionResult := ExecutionResult{
		StandardOutput: standardOutputBuilder.String(),
		StandardError:  standardErrorBuilder.String(),
	}

	if contextError := executionContext.Err(); contextError != nil {
		executionResult.ExitCode = executable.ProcessState.ExitCode()
		return executionResult, contextError
	}

	if waitError != nil {
		exitError := &exec.ExitError{}
		if errors.As(waitError, &exitError) {
			executionResult.ExitCode = exitError.ExitCode()
			return executionResult, nil
		}
		return executionResult, waitError
	}

	if drainError != nil {
		return executionResult, drainError
	}

	return executionResult, nil
}

func serializeSink(sink OutputLineSink) OutputLineSink {
	if sink == nil {
		return nil
	}
	var sinkMutex sync.Mutex
	return func(stream OutputStream, line string) {
		sinkMutex.Lock()
		defer sinkMutex.Unlock()
		sink(stream, line)
	}
}

func drainStream(reader io.Reader, stream OutputStream, collector *strings.Builder, sink OutputLineSink) error {
	bufferedReader := bufio.NewReader(reader)
	for {
		line, readError := bufferedReader.ReadString(lineDelimiterConstant)
		if len(line) > 0 {
			collector.WriteString(line)
			if sink != nil {
				sink(stream, strings.TrimRight(line, carriageReturnCutsetConstant))
			}
		}
		if readError == nil {
			continue
		}
		if errors.Is(readError, io.EOF) || errors.Is(readError, os.ErrClosed) {
			return nil
		}
		_, _ = io.Copy(io.Discard, bufferedReader)
		return fmt.Errorf(streamDrainErrorTemplateConstant, stream, readError)
	}
}
