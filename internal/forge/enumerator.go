package forge

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const (
	// PageSizeConstant is the number of repositories requested per listing page.
	PageSizeConstant = 100

	fetcherNotConfiguredMessageConstant = "forge page fetcher not configured"
	enumerationFailedTemplateConstant   = "enumerating repositories for %s failed on page %d: %w"
	enumerationStartedMessageConstant   = "Fetching repositories"
	pageRequestedMessageConstant        = "Fetching repository page"
	pageDecodedMessageConstant          = "Fetched repository page"
	enumerationCompletedMessageConstant = "Found repositories"
	logFieldModeConstant                = "mode"
	logFieldPageConstant                = "page"
	logFieldPageItemCountConstant       = "page_items"
	logFieldRunningCountConstant        = "repositories"
	logFieldRequestCountConstant        = "requests"
)

// ErrFetcherNotConfigured indicates the enumerator was built without a PageFetcher.
var ErrFetcherNotConfigured = errors.New(fetcherNotConfiguredMessageConstant)

// PageFetcher issues one authenticated GET against an API path and returns the raw body.
type PageFetcher interface {
	FetchPage(executionContext context.Context, path string) ([]byte, error)
}

// Enumerator pages through a listing endpoint and accumulates repositories.
type Enumerator struct {
	fetcher PageFetcher
	logger  *zap.Logger
}

// NewEnumerator constructs an Enumerator. A nil logger discards progress output.
func NewEnumerator(fetcher PageFetcher, logger *zap.Logger) (*Enumerator, error) {
	if fetcher == nil {
		return nil, ErrFetcherNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enumerator{fetcher: fetcher, logger: logger}, nil
}

// Enumerate requests pages 1, 2, ... until a page comes back empty. Any
// transport or decoding failure aborts the whole enumeration and no partial
// result is returned.
func (enumerator *Enumerator) Enumerate(executionContext context.Context, mode EnumerationMode) (EnumerationResult, error) {
	enumerator.logger.Info(enumerationStartedMessageConstant, zap.Stringer(logFieldModeConstant, mode))

	repositories := make([]Repository, 0, PageSizeConstant)
	requestCount := 0
	state := InitialPaginationState()

	for !state.Terminal() {
		enumerator.logger.Info(pageRequestedMessageConstant, zap.Int(logFieldPageConstant, state.Page))

		pageResult := enumerator.fetchPage(executionContext, mode, state.Page)
		requestCount++

		if pageResult.Failure == nil {
			repositories = append(repositories, pageResult.Repositories...)
			enumerator.logger.Debug(
				pageDecodedMessageConstant,
				zap.Int(logFieldPageConstant, state.Page),
				zap.Int(logFieldPageItemCountConstant, len(pageResult.Repositories)),
				zap.Int(logFieldRunningCountConstant, len(repositories)),
			)
		}

		state = Advance(state, pageResult)
	}

	if state.Phase == PhaseFailed {
		return EnumerationResult{}, fmt.Errorf(enumerationFailedTemplateConstant, mode, state.Page, state.Failure)
	}

	enumerator.logger.Info(
		enumerationCompletedMessageConstant,
		zap.Stringer(logFieldModeConstant, mode),
		zap.Int(logFieldRunningCountConstant, len(repositories)),
		zap.Int(logFieldRequestCountConstant, requestCount),
	)

	return EnumerationResult{Repositories: repositories, RequestCount: requestCount}, nil
}

func (enumerator *Enumerator) fetchPage(executionContext context.Context, mode EnumerationMode, page int) PageResult {
	body, fetchError := enumerator.fetcher.FetchPage(executionContext, mode.PagePath(page, PageSizeConstant))
	if fetchError != nil {
		return PageResult{Failure: fetchError}
	}
	pageRepositories, decodeError := DecodePage(body)
	if decodeError != nil {
		return PageResult{Failure: decodeError}
	}
	return PageResult{Repositories: pageRepositories}
}
