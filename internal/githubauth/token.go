// Package githubauth resolves the access token used for forge API calls and
// authenticated clones.
package githubauth

import (
	"os"
	"strings"
)

// Environment variable names consulted for an access token, in preference order.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

var tokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// ResolveToken returns the explicitly configured token when present, otherwise
// the first non-empty token observed in the provided environment map and then
// in the process environment.
func ResolveToken(explicitToken string, environment map[string]string) (string, bool) {
	if trimmedToken := strings.TrimSpace(explicitToken); len(trimmedToken) > 0 {
		return trimmedToken, true
	}
	for _, key := range tokenPreference {
		if value, ok := lookup(environment, key); ok {
			return value, true
		}
	}
	for _, key := range tokenPreference {
		if value, ok := os.LookupEnv(key); ok {
			value = strings.TrimSpace(value)
			if len(value) > 0 {
				return value, true
			}
		}
	}
	return "", false
}

func lookup(environment map[string]string, key string) (string, bool) {
	if environment == nil {
		return "", false
	}
	value, exists := environment[key]
	if !exists {
		return "", false
	}
	value = strings.TrimSpace(value)
	if len(value) == 0 {
		return "", false
	}
	return value, true
}
