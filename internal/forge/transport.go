package forge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultAPIBaseURLConstant is the public GitHub REST endpoint.
	DefaultAPIBaseURLConstant = "https://api.github.com/"
	// DefaultUserAgentConstant identifies API requests made by this tool.
	DefaultUserAgentConstant = "forgeclone"
	// DefaultHTTPTimeoutConstant bounds a single API request.
	DefaultHTTPTimeoutConstant = 60 * time.Second

	tokenNotConfiguredMessageConstant = "forge API token not configured"
	invalidBaseURLTemplateConstant    = "invalid forge API base URL %q: %w"
	requestBuildTemplateConstant      = "unable to build request for %s: %w"
	statusErrorTemplateConstant       = "forge API request %s returned status %d"
	transportErrorTemplateConstant    = "forge API request %s failed: %v"
	responseReadTemplateConstant      = "unable to read response body for %s: %w"
	urlPathSeparatorConstant          = "/"
	acceptHeaderNameConstant          = "Accept"
	acceptHeaderValueConstant         = "application/vnd.github.v3+json"
)

// ErrTokenNotConfigured indicates the transport was built without an access token.
var ErrTokenNotConfigured = errors.New(tokenNotConfiguredMessageConstant)

// StatusError reports a non-2xx API response.
type StatusError struct {
	StatusCode int
	Path       string
}

// Error describes the failing request.
func (statusError StatusError) Error() string {
	return fmt.Sprintf(statusErrorTemplateConstant, statusError.Path, statusError.StatusCode)
}

// TransportError reports a request that produced no HTTP response.
type TransportError struct {
	Path  string
	Cause error
}

// Error describes the transport failure.
func (transportError TransportError) Error() string {
	return fmt.Sprintf(transportErrorTemplateConstant, transportError.Path, transportError.Cause)
}

// Unwrap exposes the underlying cause.
func (transportError TransportError) Unwrap() error {
	return transportError.Cause
}

// TransportConfiguration describes how APITransport reaches the forge.
type TransportConfiguration struct {
	BaseURL   string
	Token     string
	UserAgent string
	Timeout   time.Duration
	// HTTPClient overrides the base round tripper. Nil uses http.DefaultTransport.
	HTTPClient *http.Client
}

// APITransport issues authenticated GET requests against the forge REST API.
type APITransport struct {
	client *github.Client
}

// NewAPITransport builds a transport that authenticates with a bearer token.
func NewAPITransport(configuration TransportConfiguration) (*APITransport, error) {
	trimmedToken := strings.TrimSpace(configuration.Token)
	if len(trimmedToken) == 0 {
		return nil, ErrTokenNotConfigured
	}

	baseURLValue := strings.TrimSpace(configuration.BaseURL)
	if len(baseURLValue) == 0 {
		baseURLValue = DefaultAPIBaseURLConstant
	}
	if !strings.HasSuffix(baseURLValue, urlPathSeparatorConstant) {
		baseURLValue += urlPathSeparatorConstant
	}
	baseURL, parseError := url.Parse(baseURLValue)
	if parseError != nil {
		return nil, fmt.Errorf(invalidBaseURLTemplateConstant, baseURLValue, parseError)
	}

	clientContext := context.Background()
	if configuration.HTTPClient != nil {
		clientContext = context.WithValue(clientContext, oauth2.HTTPClient, configuration.HTTPClient)
	}
	httpClient := oauth2.NewClient(clientContext, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: trimmedToken}))

	timeout := configuration.Timeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeoutConstant
	}
	httpClient.Timeout = timeout

	client := github.NewClient(httpClient)
	client.BaseURL = baseURL

	userAgent := strings.TrimSpace(configuration.UserAgent)
	if len(userAgent) == 0 {
		userAgent = DefaultUserAgentConstant
	}
	client.UserAgent = userAgent

	return &APITransport{client: client}, nil
}

// FetchPage performs one GET against path, relative to the base URL, and returns the full body.
func (transport *APITransport) FetchPage(executionContext context.Context, path string) ([]byte, error) {
	relativePath := strings.TrimPrefix(path, urlPathSeparatorConstant)

	request, requestError := transport.client.NewRequest(http.MethodGet, relativePath, nil)
	if requestError != nil {
		return nil, fmt.Errorf(requestBuildTemplateConstant, path, requestError)
	}
	request.Header.Set(acceptHeaderNameConstant, acceptHeaderValueConstant)

	response, doError := transport.client.BareDo(executionContext, request)
	if doError != nil {
		var acceptedError *github.AcceptedError
		if errors.As(doError, &acceptedError) {
			return acceptedError.Raw, nil
		}
		if response != nil && response.Response != nil {
			return nil, StatusError{StatusCode: response.StatusCode, Path: path}
		}
		return nil, TransportError{Path: path, Cause: doError}
	}
	defer response.Body.Close()

	body, readError := io.ReadAll(response.Body)
	if readError != nil {
		return nil, TransportError{Path: path, Cause: fmt.Errorf(responseReadTemplateConstant, path, readError)}
	}
	return body, nil
}
