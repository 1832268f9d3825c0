package forge_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/forgeclone/internal/forge"
)

const (
	testOrganizationNameConstant       = "acme"
	testRepositoryNameTemplateConstant = "repo-%03d"
	testCloneURLTemplateConstant       = "https://github.com/acme/%s.git"
	testSSHURLTemplateConstant         = "git@github.com:acme/%s.git"
	testWebURLTemplateConstant         = "https://github.com/acme/%s"
	testDefaultBranchNameConstant      = "main"
	testEmptyPageBodyConstant          = "[]"
	testEnumerationPageOneConstant     = "/orgs/acme/repos?page=1&per_page=100"
	testEnumerationPageTwoConstant     = "/orgs/acme/repos?page=2&per_page=100"
)

type stubPageFetcher struct {
	pages          map[string][]byte
	failures       map[string]error
	requestedPaths []string
}

func (fetcher *stubPageFetcher) FetchPage(_ context.Context, path string) ([]byte, error) {
	fetcher.requestedPaths = append(fetcher.requestedPaths, path)
	if failure, exists := fetcher.failures[path]; exists {
		return nil, failure
	}
	if body, exists := fetcher.pages[path]; exists {
		return body, nil
	}
	return []byte(testEmptyPageBodyConstant), nil
}

type testRepositoryPayload struct {
	Name          string  `json:"name"`
	CloneURL      string  `json:"clone_url"`
	SSHURL        string  `json:"ssh_url"`
	HTMLURL       string  `json:"html_url"`
	Private       bool    `json:"private"`
	DefaultBranch string  `json:"default_branch"`
	Language      *string `json:"language"`
}

func buildPageBody(testInstance *testing.T, firstIndex int, count int) []byte {
	testInstance.Helper()
	payloads := make([]testRepositoryPayload, 0, count)
	for offset := 0; offset < count; offset++ {
		repositoryName := fmt.Sprintf(testRepositoryNameTemplateConstant, firstIndex+offset)
		payloads = append(payloads, testRepositoryPayload{
			Name:          repositoryName,
			CloneURL:      fmt.Sprintf(testCloneURLTemplateConstant, repositoryName),
			SSHURL:        fmt.Sprintf(testSSHURLTemplateConstant, repositoryName),
			HTMLURL:       fmt.Sprintf(testWebURLTemplateConstant, repositoryName),
			DefaultBranch: testDefaultBranchNameConstant,
		})
	}
	body, marshalError := json.Marshal(payloads)
	require.NoError(testInstance, marshalError)
	return body
}

func TestNewEnumeratorRequiresFetcher(testInstance *testing.T) {
	enumerator, creationError := forge.NewEnumerator(nil, zap.NewNop())
	require.ErrorIs(testInstance, creationError, forge.ErrFetcherNotConfigured)
	require.Nil(testInstance, enumerator)
}

func TestEnumeratorEnumerate(testInstance *testing.T) {
	testCases := []struct {
		name                 string
		pageSizes            []int
		expectedCount        int
		expectedRequestCount int
	}{
		{
			name:                 "one_hundred_one_items_take_three_requests",
			pageSizes:            []int{100, 1},
			expectedCount:        101,
			expectedRequestCount: 3,
		},
		{
			name:                 "exactly_one_full_page",
			pageSizes:            []int{100},
			expectedCount:        100,
			expectedRequestCount: 2,
		},
		{
			name:                 "no_repositories",
			pageSizes:            nil,
			expectedCount:        0,
			expectedRequestCount: 1,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fetcher := &stubPageFetcher{pages: map[string][]byte{}}
			firstIndex := 0
			for pageIndex, pageSize := range testCase.pageSizes {
				pagePath := fmt.Sprintf("/orgs/acme/repos?page=%d&per_page=100", pageIndex+1)
				fetcher.pages[pagePath] = buildPageBody(testInstance, firstIndex, pageSize)
				firstIndex += pageSize
			}

			observerCore, observerLogs := observer.New(zap.InfoLevel)
			enumerator, creationError := forge.NewEnumerator(fetcher, zap.New(observerCore))
			require.NoError(testInstance, creationError)

			mode, modeError := forge.OrganizationMode(testOrganizationNameConstant)
			require.NoError(testInstance, modeError)

			result, enumerationError := enumerator.Enumerate(context.Background(), mode)
			require.NoError(testInstance, enumerationError)
			require.Len(testInstance, result.Repositories, testCase.expectedCount)
			require.Equal(testInstance, testCase.expectedRequestCount, result.RequestCount)
			require.Len(testInstance, fetcher.requestedPaths, testCase.expectedRequestCount)

			for repositoryIndex, repository := range result.Repositories {
				require.Equal(testInstance, fmt.Sprintf(testRepositoryNameTemplateConstant, repositoryIndex), repository.Name)
				require.Equal(testInstance, forge.UnknownLanguageConstant, repository.Language)
			}

			require.NotEmpty(testInstance, observerLogs.FilterMessage("Fetching repository page").All())
			require.Len(testInstance, observerLogs.FilterMessage("Found repositories").All(), 1)
		})
	}
}

func TestEnumeratorUsesUserListingForAuthenticatedMode(testInstance *testing.T) {
	fetcher := &stubPageFetcher{pages: map[string][]byte{
		"/user/repos?page=1&per_page=100&sort=updated": buildPageBody(testInstance, 0, 2),
	}}
	enumerator, creationError := forge.NewEnumerator(fetcher, nil)
	require.NoError(testInstance, creationError)

	result, enumerationError := enumerator.Enumerate(context.Background(), forge.AuthenticatedUserMode())
	require.NoError(testInstance, enumerationError)
	require.Equal(testInstance, []string{"repo-000", "repo-001"}, result.Names())
	require.Equal(testInstance, []string{
		"/user/repos?page=1&per_page=100&sort=updated",
		"/user/repos?page=2&per_page=100&sort=updated",
	}, fetcher.requestedPaths)
}

func TestEnumeratorAbortsOnPageFailure(testInstance *testing.T) {
	statusFailure := forge.StatusError{StatusCode: 502, Path: testEnumerationPageTwoConstant}
	fetcher := &stubPageFetcher{
		pages:    map[string][]byte{testEnumerationPageOneConstant: buildPageBody(testInstance, 0, 100)},
		failures: map[string]error{testEnumerationPageTwoConstant: statusFailure},
	}
	enumerator, creationError := forge.NewEnumerator(fetcher, zap.NewNop())
	require.NoError(testInstance, creationError)

	mode, modeError := forge.OrganizationMode(testOrganizationNameConstant)
	require.NoError(testInstance, modeError)

	result, enumerationError := enumerator.Enumerate(context.Background(), mode)
	require.Error(testInstance, enumerationError)

	var typedError forge.StatusError
	require.ErrorAs(testInstance, enumerationError, &typedError)
	require.Equal(testInstance, 502, typedError.StatusCode)
	require.Contains(testInstance, enumerationError.Error(), "page 2")
	require.Empty(testInstance, result.Repositories)
	require.Len(testInstance, fetcher.requestedPaths, 2)
}

func TestEnumeratorAbortsOnDecodeFailure(testInstance *testing.T) {
	fetcher := &stubPageFetcher{pages: map[string][]byte{
		testEnumerationPageOneConstant: []byte(`[{"name":"widgets"}]`),
	}}
	enumerator, creationError := forge.NewEnumerator(fetcher, zap.NewNop())
	require.NoError(testInstance, creationError)

	mode, modeError := forge.OrganizationMode(testOrganizationNameConstant)
	require.NoError(testInstance, modeError)

	_, enumerationError := enumerator.Enumerate(context.Background(), mode)
	var decodeError forge.DecodeError
	require.ErrorAs(testInstance, enumerationError, &decodeError)
	require.Len(testInstance, fetcher.requestedPaths, 1)
}
