package materialize

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/forgeclone/internal/filesystem"
	"github.com/temirov/forgeclone/internal/forge"
)

const (
	targetRootPermissionsConstant         = fs.FileMode(0o755)
	backendNotConfiguredMessageConstant   = "materializer backend not configured"
	targetRootErrorTemplateConstant       = "unable to prepare target root %s: %v"
	cloneErrorTemplateConstant            = "clone of %s into %s failed: %v"
	invalidNameTemplateConstant           = "repository name %q cannot be used as a directory name"
	targetOccupiedTemplateConstant        = "%s exists and is not a directory"
	inspectFailedTemplateConstant         = "unable to inspect %s: %w"
	cloningLogMessageConstant             = "Cloning repository"
	clonedLogMessageConstant              = "Cloned repository"
	cloneFailedLogMessageConstant         = "Clone failed"
	updatingLogMessageConstant            = "Repository exists, pulling latest changes"
	updatedLogMessageConstant             = "Updated repository"
	pullFailedLogMessageConstant          = "Pull failed, keeping existing copy"
	itemFailedLogMessageConstant          = "Skipping repository"
	materializationStartedMessageConstant = "Materializing repositories"
	materializationDoneMessageConstant    = "Materialization complete"
	currentDirectoryNameConstant          = "."
	parentDirectoryNameConstant           = ".."
	pathSeparatorCharactersConstant       = `/\`
	logFieldRepositoryConstant            = "repository"
	logFieldPositionConstant              = "position"
	logFieldTotalConstant                 = "total"
	logFieldTargetRootConstant            = "target_root"
	logFieldErrorConstant                 = "error"
	logFieldClonedConstant                = "cloned"
	logFieldUpdatedConstant               = "updated"
	logFieldFailedConstant                = "failed"
)

// ErrBackendNotConfigured indicates the materializer was built without a Backend.
var ErrBackendNotConfigured = errors.New(backendNotConfiguredMessageConstant)

// TargetRootError reports a target root that could not be created. It aborts the run.
type TargetRootError struct {
	Path  string
	Cause error
}

// Error describes the target root failure.
func (targetRootError TargetRootError) Error() string {
	return fmt.Sprintf(targetRootErrorTemplateConstant, targetRootError.Path, targetRootError.Cause)
}

// Unwrap exposes the underlying cause.
func (targetRootError TargetRootError) Unwrap() error {
	return targetRootError.Cause
}

// CloneError reports a failed clone of one repository.
type CloneError struct {
	RepositoryName string
	Path           string
	Cause          error
}

// Error describes the clone failure.
func (cloneError CloneError) Error() string {
	return fmt.Sprintf(cloneErrorTemplateConstant, cloneError.RepositoryName, cloneError.Path, cloneError.Cause)
}

// Unwrap exposes the underlying cause.
func (cloneError CloneError) Unwrap() error {
	return cloneError.Cause
}

// Dependencies supplies collaborators required by the Materializer.
type Dependencies struct {
	Backend    Backend
	FileSystem filesystem.FileSystem
	Logger     *zap.Logger
}

// Options tunes a Materializer.
type Options struct {
	// OperationTimeout bounds each clone or pull. Zero leaves them unbounded.
	OperationTimeout time.Duration
}

// Materializer clones missing repositories and updates present ones.
type Materializer struct {
	dependencies Dependencies
	options      Options
}

// NewMaterializer constructs a Materializer. FileSystem defaults to the
// operating system and Logger to a no-op logger.
func NewMaterializer(dependencies Dependencies, options Options) (*Materializer, error) {
	if dependencies.Backend == nil {
		return nil, ErrBackendNotConfigured
	}
	if dependencies.FileSystem == nil {
		dependencies.FileSystem = filesystem.OSFileSystem{}
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	return &Materializer{dependencies: dependencies, options: options}, nil
}

// Materialize processes repositories sequentially in input order below
// targetRoot. Only a target root that cannot be created is returned as an
// error; per-repository failures are recorded in the Summary.
func (materializer *Materializer) Materialize(executionContext context.Context, repositories []forge.Repository, targetRoot string) (Summary, error) {
	if mkdirError := materializer.dependencies.FileSystem.MkdirAll(targetRoot, targetRootPermissionsConstant); mkdirError != nil {
		return Summary{}, TargetRootError{Path: targetRoot, Cause: mkdirError}
	}

	logger := materializer.dependencies.Logger
	logger.Info(
		materializationStartedMessageConstant,
		zap.String(logFieldTargetRootConstant, targetRoot),
		zap.Int(logFieldTotalConstant, len(repositories)),
	)

	outcomes := make([]Outcome, 0, len(repositories))
	for repositoryIndex, repository := range repositories {
		itemLogger := logger.With(
			zap.String(logFieldRepositoryConstant, repository.Name),
			zap.Int(logFieldPositionConstant, repositoryIndex+1),
			zap.Int(logFieldTotalConstant, len(repositories)),
		)
		outcomes = append(outcomes, materializer.materializeOne(executionContext, itemLogger, repository, targetRoot))
	}

	summary := Summarize(targetRoot, outcomes)
	logger.Info(
		materializationDoneMessageConstant,
		zap.String(logFieldTargetRootConstant, targetRoot),
		zap.Int(logFieldClonedConstant, summary.Cloned),
		zap.Int(logFieldUpdatedConstant, summary.Updated),
		zap.Int(logFieldFailedConstant, summary.Failed),
	)
	return summary, nil
}

func (materializer *Materializer) materializeOne(executionContext context.Context, logger *zap.Logger, repository forge.Repository, targetRoot string) Outcome {
	if nameError := validateDirectoryName(repository.Name); nameError != nil {
		return materializer.failed(logger, repository.Name, targetRoot, nameError)
	}

	repositoryPath := filepath.Join(targetRoot, repository.Name)

	if contextError := executionContext.Err(); contextError != nil {
		return materializer.failed(logger, repository.Name, repositoryPath, contextError)
	}

	pathKind, inspectError := filesystem.InspectPath(materializer.dependencies.FileSystem, repositoryPath)
	if inspectError != nil {
		return materializer.failed(logger, repository.Name, repositoryPath, fmt.Errorf(inspectFailedTemplateConstant, repositoryPath, inspectError))
	}

	switch pathKind {
	case filesystem.PathDirectory:
		return materializer.update(executionContext, logger, repository, repositoryPath)
	case filesystem.PathMissing:
		return materializer.clone(executionContext, logger, repository, repositoryPath)
	default:
		return materializer.failed(logger, repository.Name, repositoryPath, fmt.Errorf(targetOccupiedTemplateConstant, repositoryPath))
	}
}

func (materializer *Materializer) clone(executionContext context.Context, logger *zap.Logger, repository forge.Repository, repositoryPath string) Outcome {
	logger.Info(cloningLogMessageConstant, zap.String(logFieldRepositoryPathConstant, repositoryPath))

	operationContext, cancel := materializer.operationContext(executionContext)
	defer cancel()

	if cloneError := materializer.dependencies.Backend.Clone(operationContext, repository, repositoryPath); cloneError != nil {
		failure := CloneError{RepositoryName: repository.Name, Path: repositoryPath, Cause: cloneError}
		logger.Error(cloneFailedLogMessageConstant, zap.String(logFieldErrorConstant, failure.Error()))
		return Outcome{RepositoryName: repository.Name, Path: repositoryPath, Kind: OutcomeFailed, Failure: failure}
	}

	logger.Info(clonedLogMessageConstant, zap.String(logFieldRepositoryPathConstant, repositoryPath))
	return Outcome{RepositoryName: repository.Name, Path: repositoryPath, Kind: OutcomeCloned}
}

func (materializer *Materializer) update(executionContext context.Context, logger *zap.Logger, repository forge.Repository, repositoryPath string) Outcome {
	logger.Info(updatingLogMessageConstant, zap.String(logFieldRepositoryPathConstant, repositoryPath))

	operationContext, cancel := materializer.operationContext(executionContext)
	defer cancel()

	outcome := Outcome{RepositoryName: repository.Name, Path: repositoryPath, Kind: OutcomeUpdated}
	if pullError := materializer.dependencies.Backend.Update(operationContext, repositoryPath); pullError != nil {
		logger.Warn(pullFailedLogMessageConstant, zap.String(logFieldErrorConstant, pullError.Error()))
		outcome.Warning = pullError
		return outcome
	}

	logger.Info(updatedLogMessageConstant, zap.String(logFieldRepositoryPathConstant, repositoryPath))
	return outcome
}

func (materializer *Materializer) failed(logger *zap.Logger, repositoryName string, repositoryPath string, failure error) Outcome {
	logger.Error(itemFailedLogMessageConstant, zap.String(logFieldErrorConstant, failure.Error()))
	return Outcome{RepositoryName: repositoryName, Path: repositoryPath, Kind: OutcomeFailed, Failure: failure}
}

func (materializer *Materializer) operationContext(executionContext context.Context) (context.Context, context.CancelFunc) {
	if materializer.options.OperationTimeout <= 0 {
		return context.WithCancel(executionContext)
	}
	return context.WithTimeout(executionContext, materializer.options.OperationTimeout)
}

func validateDirectoryName(name string) error {
	trimmedName := strings.TrimSpace(name)
	if len(trimmedName) == 0 ||
		trimmedName != name ||
		name == currentDirectoryNameConstant ||
		name == parentDirectoryNameConstant ||
		strings.ContainsAny(name, pathSeparatorCharactersConstant) {
		return fmt.Errorf(invalidNameTemplateConstant, name)
	}
	return nil
}
