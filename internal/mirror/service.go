package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"github.com/temirov/forgeclone/internal/forge"
	"github.com/temirov/forgeclone/internal/materialize"
	"github.com/temirov/forgeclone/internal/utils"
)

const (
	enumeratorNotConfiguredMessageConstant   = "mirror enumerator not configured"
	materializerNotConfiguredMessageConstant = "mirror materializer not configured"
	prompterNotConfiguredMessageConstant     = "mirror confirmation prompter not configured"
	confirmationPromptTemplateConstant       = "Do you want to clone all %d repositories? (y/N) "
	confirmationErrorTemplateConstant        = "unable to read confirmation: %w"
	cancellationMessageConstant              = "Operation cancelled by user"
	emptyListingMessageConstant              = "No repositories found for %s\n"
	listingHeaderTemplateConstant            = "Repositories for %s (%d):\n"
	summaryHeaderConstant                    = "Clone summary:"
	summarySuccessfulTemplateConstant        = "  Successful: %d (cloned %d, updated %d)\n"
	summaryFailedTemplateConstant            = "  Failed: %d\n"
	summaryTargetRootTemplateConstant        = "  Target root: %s\n"
	summaryFailureLineTemplateConstant       = "  - %s: %v\n"
	summaryWarningLineTemplateConstant       = "  ! %s: %v\n"
	tableHeaderNameConstant                  = "Name"
	tableHeaderLanguageConstant              = "Language"
	tableHeaderPrivateConstant               = "Private"
	tableHeaderWebURLConstant                = "URL"
	runCancelledLogMessageConstant           = "Clone declined"
	runConfirmedLogMessageConstant           = "Clone confirmed"
	runSkippedConfirmationLogMessageConstant = "Confirmation skipped"
	logFieldModeConstant                     = "mode"
	logFieldRepositoryCountConstant          = "repository_count"
)

var (
	// ErrEnumeratorNotConfigured indicates the service was built without an enumerator.
	ErrEnumeratorNotConfigured = errors.New(enumeratorNotConfiguredMessageConstant)
	// ErrMaterializerNotConfigured indicates a clone was requested without a materializer.
	ErrMaterializerNotConfigured = errors.New(materializerNotConfiguredMessageConstant)
	// ErrPrompterNotConfigured indicates a confirmation was required without a prompter.
	ErrPrompterNotConfigured = errors.New(prompterNotConfiguredMessageConstant)
)

// RepositoryEnumerator lists repositories for a mode.
type RepositoryEnumerator interface {
	Enumerate(executionContext context.Context, mode forge.EnumerationMode) (forge.EnumerationResult, error)
}

// RepositoryMaterializer clones or updates repositories below a target root.
type RepositoryMaterializer interface {
	Materialize(executionContext context.Context, repositories []forge.Repository, targetRoot string) (materialize.Summary, error)
}

// ConfirmationPrompter asks the operator a yes/no question.
type ConfirmationPrompter interface {
	Confirm(prompt string) (bool, error)
}

// Dependencies supplies collaborators for the Service.
type Dependencies struct {
	Enumerator   RepositoryEnumerator
	Materializer RepositoryMaterializer
	Prompter     ConfirmationPrompter
	Output       io.Writer
	Logger       *zap.Logger
}

// CloneOptions describes one clone run.
type CloneOptions struct {
	Mode       forge.EnumerationMode
	TargetRoot string
	AssumeYes  bool
}

// CloneReport records what a clone run did.
type CloneReport struct {
	Enumeration forge.EnumerationResult
	Confirmed   bool
	Summary     materialize.Summary
}

// Service runs the list and clone workflows.
type Service struct {
	dependencies Dependencies
}

// NewService constructs a Service. Output defaults to io.Discard and Logger to a no-op logger.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Enumerator == nil {
		return nil, ErrEnumeratorNotConfigured
	}
	if dependencies.Output == nil {
		dependencies.Output = io.Discard
	}
	dependencies.Output = utils.NewFlushingWriter(dependencies.Output)
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	return &Service{dependencies: dependencies}, nil
}

// List enumerates repositories for mode and prints them as a table.
func (service *Service) List(executionContext context.Context, mode forge.EnumerationMode) (forge.EnumerationResult, error) {
	enumeration, enumerationError := service.dependencies.Enumerator.Enumerate(executionContext, mode)
	if enumerationError != nil {
		return forge.EnumerationResult{}, enumerationError
	}
	service.renderRepositories(mode, enumeration.Repositories)
	return enumeration, nil
}

// Clone lists repositories, asks for confirmation unless AssumeYes is set and
// materializes them. An empty listing or a declined confirmation returns a
// report with Confirmed unset and leaves the filesystem untouched.
func (service *Service) Clone(executionContext context.Context, options CloneOptions) (CloneReport, error) {
	if service.dependencies.Materializer == nil {
		return CloneReport{}, ErrMaterializerNotConfigured
	}

	enumeration, listError := service.List(executionContext, options.Mode)
	if listError != nil {
		return CloneReport{}, listError
	}
	report := CloneReport{Enumeration: enumeration}
	if len(enumeration.Repositories) == 0 {
		return report, nil
	}

	confirmed, confirmationError := service.confirm(options, len(enumeration.Repositories))
	if confirmationError != nil {
		return report, confirmationError
	}
	if !confirmed {
		fmt.Fprintln(service.dependencies.Output, cancellationMessageConstant)
		return report, nil
	}
	report.Confirmed = true

	summary, materializeError := service.dependencies.Materializer.Materialize(executionContext, enumeration.Repositories, options.TargetRoot)
	if materializeError != nil {
		return report, materializeError
	}
	report.Summary = summary
	service.renderSummary(summary)

	return report, nil
}

func (service *Service) confirm(options CloneOptions, repositoryCount int) (bool, error) {
	logger := service.dependencies.Logger.With(
		zap.Stringer(logFieldModeConstant, options.Mode),
		zap.Int(logFieldRepositoryCountConstant, repositoryCount),
	)

	if options.AssumeYes {
		logger.Debug(runSkippedConfirmationLogMessageConstant)
		return true, nil
	}
	if service.dependencies.Prompter == nil {
		return false, ErrPrompterNotConfigured
	}

	confirmed, promptError := service.dependencies.Prompter.Confirm(fmt.Sprintf(confirmationPromptTemplateConstant, repositoryCount))
	if promptError != nil {
		return false, fmt.Errorf(confirmationErrorTemplateConstant, promptError)
	}
	if confirmed {
		logger.Info(runConfirmedLogMessageConstant)
	} else {
		logger.Info(runCancelledLogMessageConstant)
	}
	return confirmed, nil
}

func (service *Service) renderRepositories(mode forge.EnumerationMode, repositories []forge.Repository) {
	output := service.dependencies.Output
	if len(repositories) == 0 {
		fmt.Fprintf(output, emptyListingMessageConstant, mode)
		return
	}

	fmt.Fprintf(output, listingHeaderTemplateConstant, mode, len(repositories))
	table := tablewriter.NewWriter(output)
	table.SetHeader([]string{tableHeaderNameConstant, tableHeaderLanguageConstant, tableHeaderPrivateConstant, tableHeaderWebURLConstant})
	table.SetAutoWrapText(false)
	for _, repository := range repositories {
		table.Append([]string{repository.Name, repository.Language, strconv.FormatBool(repository.IsPrivate), repository.WebURL})
	}
	table.Render()
}

func (service *Service) renderSummary(summary materialize.Summary) {
	output := service.dependencies.Output
	fmt.Fprintln(output, summaryHeaderConstant)
	fmt.Fprintf(output, summarySuccessfulTemplateConstant, summary.Successes(), summary.Cloned, summary.Updated)
	fmt.Fprintf(output, summaryFailedTemplateConstant, summary.Failures())
	for _, outcome := range summary.Outcomes {
		switch {
		case outcome.Failure != nil:
			fmt.Fprintf(output, summaryFailureLineTemplateConstant, outcome.RepositoryName, outcome.Failure)
		case outcome.Warning != nil:
			fmt.Fprintf(output, summaryWarningLineTemplateConstant, outcome.RepositoryName, outcome.Warning)
		}
	}
	fmt.Fprintf(output, summaryTargetRootTemplateConstant, summary.TargetRoot)
}
