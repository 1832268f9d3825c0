package materialize

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/temirov/forgeclone/internal/execshell"
)

const (
	httpsSchemePrefixConstant       = "https://"
	invalidCloneURLTemplateConstant = "invalid clone URL: %w"
	credentialUsernameConstant      = "x-access-token"
	credentialSeparatorConstant     = ":"
)

// InjectCredential splices token into an HTTPS clone URL as inline
// credentials, producing https://<token>@host/path. An empty token or a
// non-HTTPS URL is returned unchanged.
func InjectCredential(cloneURL string, token string) (string, error) {
	trimmedToken := strings.TrimSpace(token)
	if len(trimmedToken) == 0 {
		return cloneURL, nil
	}

	trimmedURL := strings.TrimSpace(cloneURL)
	if !strings.HasPrefix(strings.ToLower(trimmedURL), httpsSchemePrefixConstant) {
		return cloneURL, nil
	}

	parsedURL, parseError := url.Parse(trimmedURL)
	if parseError != nil {
		return "", fmt.Errorf(invalidCloneURLTemplateConstant, errors.New(execshell.RedactValues(parseError.Error(), trimmedToken)))
	}

	parsedURL.User = url.User(trimmedToken)
	return parsedURL.String(), nil
}

// RedactCredentials removes every occurrence of token from text.
func RedactCredentials(text string, token string) string {
	return execshell.RedactValues(text, strings.TrimSpace(token))
}
