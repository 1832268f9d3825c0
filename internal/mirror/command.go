package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/forgeclone/internal/execshell"
	"github.com/temirov/forgeclone/internal/filesystem"
	"github.com/temirov/forgeclone/internal/forge"
	"github.com/temirov/forgeclone/internal/githubauth"
	"github.com/temirov/forgeclone/internal/materialize"
	"github.com/temirov/forgeclone/internal/prompt"
	"github.com/temirov/forgeclone/internal/ui"
	"github.com/temirov/forgeclone/internal/utils"
	"github.com/temirov/forgeclone/internal/utils/flags"
	pathutils "github.com/temirov/forgeclone/internal/utils/path"
)

const (
	cloneCommandUseConstant              = "clone"
	cloneCommandShortDescriptionConstant = "Clone or update every repository of a user or organization"
	cloneCommandLongDescriptionConstant  = "clone lists the repositories visible to the access token, asks for confirmation and clones each one below the target root, pulling working copies that already exist."
	listCommandUseConstant               = "list"
	listCommandShortDescriptionConstant  = "List the repositories of a user or organization"
	listCommandLongDescriptionConstant   = "list prints the repositories visible to the access token without touching the filesystem."
	cloneExecutionErrorTemplateConstant  = "clone failed: %w"
	listExecutionErrorTemplateConstant   = "list failed: %w"
	unexpectedArgumentsMessageConstant   = "command does not accept positional arguments"
	tokenNotFoundMessageConstant         = "access token not found: set --token, clone.token, GH_TOKEN, GITHUB_TOKEN or GITHUB_API_TOKEN"
	flagTokenNameConstant                = "token"
	flagTokenDescriptionConstant         = "Access token for the forge API (prefer GH_TOKEN or GITHUB_TOKEN)"
	flagOrganizationNameConstant         = "org"
	flagOrganizationDescriptionConstant  = "Organization whose repositories are listed instead of the authenticated user's"
	flagAPIBaseURLNameConstant           = "api-base-url"
	flagAPIBaseURLDescriptionConstant    = "Base URL of the forge REST API"
	flagHTTPTimeoutNameConstant          = "http-timeout"
	flagHTTPTimeoutDescriptionConstant   = "Timeout for each API request"
	flagTargetRootNameConstant           = "target-root"
	flagTargetRootDescriptionConstant    = "Directory receiving one working copy per repository"
	flagBackendNameConstant              = "backend"
	flagBackendDescriptionConstant       = "Clone backend."
	flagAssumeYesNameConstant            = "yes"
	flagAssumeYesDescriptionConstant     = "Skip the confirmation prompt"
	flagCloneTimeoutNameConstant         = "clone-timeout"
	flagCloneTimeoutDescriptionConstant  = "Timeout for each clone or pull (0 disables)"
	logFieldRunIdentifierConstant        = "run_id"
	logFieldCommandConstant              = "command"
	runStartedLogMessageConstant         = "Run started"
)

var (
	errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)
	// ErrTokenNotFound indicates no access token was configured or present in the environment.
	ErrTokenNotFound = errors.New(tokenNotFoundMessageConstant)
	backendChoices   = []string{materialize.BackendGitCLI, materialize.BackendGoGit}
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the loaded clone configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the clone and list commands.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConsoleLoggerProvider        LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        ConfigurationProvider
	// Environment is consulted for tokens before the process environment.
	Environment           map[string]string
	Input                 io.Reader
	Output                io.Writer
	PageFetcher           forge.PageFetcher
	Backend               materialize.Backend
	GitRunner             execshell.CommandRunner
	FileSystem            filesystem.FileSystem
	PathResolver          *pathutils.TargetRootResolver
	RunIdentifierProvider func() string
}

type commandFlagValues struct {
	token        string
	organization string
	apiBaseURL   string
	httpTimeout  time.Duration
	targetRoot   string
	backend      string
	assumeYes    bool
	cloneTimeout time.Duration
}

// BuildClone constructs the clone command.
func (builder *CommandBuilder) BuildClone() (*cobra.Command, error) {
	flagValues := &commandFlagValues{}
	command := &cobra.Command{
		Use:   cloneCommandUseConstant,
		Short: cloneCommandShortDescriptionConstant,
		Long:  cloneCommandLongDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.runClone(command, arguments, flagValues)
		},
	}

	builder.bindEnumerationFlags(command, flagValues)
	command.Flags().StringVar(&flagValues.targetRoot, flagTargetRootNameConstant, "", flagTargetRootDescriptionConstant)
	flags.AddChoiceFlag(command.Flags(), &flagValues.backend, flagBackendNameConstant, materialize.BackendGitCLI, backendChoices, flagBackendDescriptionConstant)
	command.Flags().BoolVar(&flagValues.assumeYes, flagAssumeYesNameConstant, false, flagAssumeYesDescriptionConstant)
	command.Flags().DurationVar(&flagValues.cloneTimeout, flagCloneTimeoutNameConstant, 0, flagCloneTimeoutDescriptionConstant)

	return command, nil
}

// BuildList constructs the list command.
func (builder *CommandBuilder) BuildList() (*cobra.Command, error) {
	flagValues := &commandFlagValues{}
	command := &cobra.Command{
		Use:   listCommandUseConstant,
		Short: listCommandShortDescriptionConstant,
		Long:  listCommandLongDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.runList(command, arguments, flagValues)
		},
	}

	builder.bindEnumerationFlags(command, flagValues)

	return command, nil
}

func (builder *CommandBuilder) bindEnumerationFlags(command *cobra.Command, flagValues *commandFlagValues) {
	command.Flags().StringVar(&flagValues.token, flagTokenNameConstant, "", flagTokenDescriptionConstant)
	command.Flags().StringVar(&flagValues.organization, flagOrganizationNameConstant, "", flagOrganizationDescriptionConstant)
	command.Flags().StringVar(&flagValues.apiBaseURL, flagAPIBaseURLNameConstant, "", flagAPIBaseURLDescriptionConstant)
	command.Flags().DurationVar(&flagValues.httpTimeout, flagHTTPTimeoutNameConstant, 0, flagHTTPTimeoutDescriptionConstant)
}

func (builder *CommandBuilder) runList(command *cobra.Command, arguments []string, flagValues *commandFlagValues) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	configuration, configurationError := builder.resolveConfiguration(command, flagValues)
	if configurationError != nil {
		return configurationError
	}

	executionContext, logger := builder.startRun(command)

	mode, modeError := configuration.EnumerationMode()
	if modeError != nil {
		return modeError
	}

	enumerator, enumeratorError := builder.buildEnumerator(configuration, logger)
	if enumeratorError != nil {
		return enumeratorError
	}

	service, serviceError := NewService(Dependencies{
		Enumerator: enumerator,
		Output:     builder.resolveOutput(command),
		Logger:     logger,
	})
	if serviceError != nil {
		return serviceError
	}

	if _, listError := service.List(executionContext, mode); listError != nil {
		return fmt.Errorf(listExecutionErrorTemplateConstant, listError)
	}
	return nil
}

func (builder *CommandBuilder) runClone(command *cobra.Command, arguments []string, flagValues *commandFlagValues) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	configuration, configurationError := builder.resolveConfiguration(command, flagValues)
	if configurationError != nil {
		return configurationError
	}

	executionContext, logger := builder.startRun(command)

	mode, modeError := configuration.EnumerationMode()
	if modeError != nil {
		return modeError
	}

	targetRoot, targetRootError := builder.resolvePathResolver().Resolve(configuration.TargetRoot, defaultTargetRootConstant)
	if targetRootError != nil {
		return targetRootError
	}

	enumerator, enumeratorError := builder.buildEnumerator(configuration, logger)
	if enumeratorError != nil {
		return enumeratorError
	}

	backend, backendError := builder.buildBackend(configuration, logger)
	if backendError != nil {
		return backendError
	}

	materializer, materializerError := materialize.NewMaterializer(
		materialize.Dependencies{Backend: backend, FileSystem: builder.FileSystem, Logger: logger},
		materialize.Options{OperationTimeout: configuration.CloneTimeout},
	)
	if materializerError != nil {
		return materializerError
	}

	output := builder.resolveOutput(command)
	service, serviceError := NewService(Dependencies{
		Enumerator:   enumerator,
		Materializer: materializer,
		Prompter:     prompt.NewIOConfirmationPrompter(builder.resolveInput(command), output),
		Output:       output,
		Logger:       logger,
	})
	if serviceError != nil {
		return serviceError
	}

	if _, cloneError := service.Clone(executionContext, CloneOptions{Mode: mode, TargetRoot: targetRoot, AssumeYes: configuration.AssumeYes}); cloneError != nil {
		return fmt.Errorf(cloneExecutionErrorTemplateConstant, cloneError)
	}
	return nil
}

// resolveConfiguration layers changed flags over the loaded configuration,
// resolves the token and validates the result.
func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command, flagValues *commandFlagValues) (Configuration, error) {
	configuration := DefaultConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	commandFlags := command.Flags()
	if commandFlags.Changed(flagTokenNameConstant) {
		configuration.Token = flagValues.token
	}
	if commandFlags.Changed(flagOrganizationNameConstant) {
		configuration.Organization = flagValues.organization
	}
	if commandFlags.Changed(flagAPIBaseURLNameConstant) {
		configuration.APIBaseURL = flagValues.apiBaseURL
	}
	if commandFlags.Changed(flagHTTPTimeoutNameConstant) {
		configuration.HTTPTimeout = flagValues.httpTimeout
	}
	if commandFlags.Changed(flagTargetRootNameConstant) {
		configuration.TargetRoot = flagValues.targetRoot
	}
	if commandFlags.Changed(flagBackendNameConstant) {
		configuration.Backend = flagValues.backend
	}
	if commandFlags.Changed(flagAssumeYesNameConstant) {
		configuration.AssumeYes = flagValues.assumeYes
	}
	if commandFlags.Changed(flagCloneTimeoutNameConstant) {
		configuration.CloneTimeout = flagValues.cloneTimeout
	}

	configuration = configuration.sanitize()
	if len(configuration.Backend) == 0 {
		configuration.Backend = materialize.BackendGitCLI
	}
	if len(configuration.TargetRoot) == 0 {
		configuration.TargetRoot = defaultTargetRootConstant
	}
	if validationError := configuration.Validate(); validationError != nil {
		return Configuration{}, validationError
	}

	token, tokenFound := githubauth.ResolveToken(configuration.Token, builder.Environment)
	if !tokenFound {
		return Configuration{}, ErrTokenNotFound
	}
	configuration.Token = token

	return configuration, nil
}

func (builder *CommandBuilder) startRun(command *cobra.Command) (context.Context, *zap.Logger) {
	runIdentifier := builder.newRunIdentifier()
	executionContext := utils.NewCommandContextAccessor().WithRunIdentifier(command.Context(), runIdentifier)
	command.SetContext(executionContext)

	logger := builder.resolveLogger().With(zap.String(logFieldRunIdentifierConstant, runIdentifier))
	logger.Debug(runStartedLogMessageConstant, zap.String(logFieldCommandConstant, command.Name()))
	return executionContext, logger
}

func (builder *CommandBuilder) newRunIdentifier() string {
	if builder.RunIdentifierProvider != nil {
		return builder.RunIdentifierProvider()
	}
	return uuid.NewString()
}

func (builder *CommandBuilder) buildEnumerator(configuration Configuration, logger *zap.Logger) (*forge.Enumerator, error) {
	fetcher := builder.PageFetcher
	if fetcher == nil {
		transport, transportError := forge.NewAPITransport(forge.TransportConfiguration{
			BaseURL:   configuration.APIBaseURL,
			Token:     configuration.Token,
			UserAgent: configuration.UserAgent,
			Timeout:   configuration.HTTPTimeout,
		})
		if transportError != nil {
			return nil, transportError
		}
		fetcher = transport
	}
	return forge.NewEnumerator(fetcher, logger)
}

func (builder *CommandBuilder) buildBackend(configuration Configuration, logger *zap.Logger) (materialize.Backend, error) {
	if builder.Backend != nil {
		return builder.Backend, nil
	}

	if configuration.Backend == materialize.BackendGoGit {
		return materialize.NewGoGitBackend(configuration.Token), nil
	}

	runner := builder.GitRunner
	if runner == nil {
		runner = execshell.NewOSCommandRunner()
	}

	observers := []execshell.CommandEventObserver{}
	if builder.humanReadableLogging() {
		observers = append(observers, ui.NewConsoleCommandEventLogger(builder.resolveConsoleLogger(logger)))
	}

	shellExecutor, executorError := execshell.NewShellExecutor(logger, runner, observers...)
	if executorError != nil {
		return nil, executorError
	}
	return materialize.NewGitCLIBackend(shellExecutor, configuration.Token, logger)
}

func (builder *CommandBuilder) humanReadableLogging() bool {
	if builder.HumanReadableLoggingProvider == nil {
		return false
	}
	return builder.HumanReadableLoggingProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandBuilder) resolveConsoleLogger(fallback *zap.Logger) *zap.Logger {
	if builder.ConsoleLoggerProvider == nil {
		return fallback
	}

	consoleLogger := builder.ConsoleLoggerProvider()
	if consoleLogger == nil {
		return fallback
	}

	return consoleLogger
}

func (builder *CommandBuilder) resolvePathResolver() *pathutils.TargetRootResolver {
	if builder.PathResolver != nil {
		return builder.PathResolver
	}
	return pathutils.NewTargetRootResolver()
}

func (builder *CommandBuilder) resolveInput(command *cobra.Command) io.Reader {
	if builder.Input != nil {
		return builder.Input
	}
	return command.InOrStdin()
}

func (builder *CommandBuilder) resolveOutput(command *cobra.Command) io.Writer {
	if builder.Output != nil {
		return builder.Output
	}
	return command.OutOrStdout()
}
