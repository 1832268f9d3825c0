package mirror

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/temirov/forgeclone/internal/forge"
	"github.com/temirov/forgeclone/internal/materialize"
)

const (
	configurationKeySeparatorConstant    = "."
	tokenConfigurationKeyConstant        = "token"
	organizationConfigurationKeyConstant = "organization"
	targetRootConfigurationKeyConstant   = "target_root"
	apiBaseURLConfigurationKeyConstant   = "api_base_url"
	httpTimeoutConfigurationKeyConstant  = "http_timeout"
	cloneTimeoutConfigurationKeyConstant = "clone_timeout"
	backendConfigurationKeyConstant      = "backend"
	assumeYesConfigurationKeyConstant    = "assume_yes"
	userAgentConfigurationKeyConstant    = "user_agent"
	defaultTargetRootConstant            = "repositories"
	invalidConfigurationTemplateConstant = "invalid clone configuration: %w"
)

// Configuration captures the settings of the clone and list commands.
type Configuration struct {
	Token        string        `mapstructure:"token"`
	Organization string        `mapstructure:"organization" validate:"omitempty,excludesall=/\\ "`
	TargetRoot   string        `mapstructure:"target_root" validate:"required"`
	APIBaseURL   string        `mapstructure:"api_base_url" validate:"omitempty,url"`
	HTTPTimeout  time.Duration `mapstructure:"http_timeout" validate:"gte=0"`
	CloneTimeout time.Duration `mapstructure:"clone_timeout" validate:"gte=0"`
	Backend      string        `mapstructure:"backend" validate:"oneof=git go-git"`
	AssumeYes    bool          `mapstructure:"assume_yes"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// DefaultConfiguration provides baseline configuration values.
func DefaultConfiguration() Configuration {
	return Configuration{
		TargetRoot:   defaultTargetRootConstant,
		APIBaseURL:   forge.DefaultAPIBaseURLConstant,
		HTTPTimeout:  forge.DefaultHTTPTimeoutConstant,
		CloneTimeout: 0,
		Backend:      materialize.BackendGitCLI,
		UserAgent:    forge.DefaultUserAgentConstant,
	}
}

// DefaultConfigurationValues exposes the defaults keyed below rootKey for the configuration loader.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultConfiguration()
	prefix := strings.TrimSpace(rootKey)
	if len(prefix) > 0 {
		prefix += configurationKeySeparatorConstant
	}

	return map[string]any{
		prefix + tokenConfigurationKeyConstant:        defaults.Token,
		prefix + organizationConfigurationKeyConstant: defaults.Organization,
		prefix + targetRootConfigurationKeyConstant:   defaults.TargetRoot,
		prefix + apiBaseURLConfigurationKeyConstant:   defaults.APIBaseURL,
		prefix + httpTimeoutConfigurationKeyConstant:  defaults.HTTPTimeout.String(),
		prefix + cloneTimeoutConfigurationKeyConstant: defaults.CloneTimeout.String(),
		prefix + backendConfigurationKeyConstant:      defaults.Backend,
		prefix + assumeYesConfigurationKeyConstant:    defaults.AssumeYes,
		prefix + userAgentConfigurationKeyConstant:    defaults.UserAgent,
	}
}

// sanitize trims values and normalizes the backend name without applying implicit defaults.
func (configuration Configuration) sanitize() Configuration {
	sanitized := configuration
	sanitized.Token = strings.TrimSpace(configuration.Token)
	sanitized.Organization = strings.TrimSpace(configuration.Organization)
	sanitized.TargetRoot = strings.TrimSpace(configuration.TargetRoot)
	sanitized.APIBaseURL = strings.TrimSpace(configuration.APIBaseURL)
	sanitized.Backend = strings.ToLower(strings.TrimSpace(configuration.Backend))
	sanitized.UserAgent = strings.TrimSpace(configuration.UserAgent)
	return sanitized
}

// Validate checks the sanitized configuration.
func (configuration Configuration) Validate() error {
	if validationError := validator.New().Struct(configuration.sanitize()); validationError != nil {
		return fmt.Errorf(invalidConfigurationTemplateConstant, validationError)
	}
	return nil
}

// EnumerationMode selects organization mode when an organization is configured.
func (configuration Configuration) EnumerationMode() (forge.EnumerationMode, error) {
	organization := strings.TrimSpace(configuration.Organization)
	if len(organization) == 0 {
		return forge.AuthenticatedUserMode(), nil
	}
	return forge.OrganizationMode(organization)
}
