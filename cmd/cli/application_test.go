package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/temirov/forgeclone/cmd/cli"
	"github.com/temirov/forgeclone/internal/mirror"
)

const (
	testConfigurationFileNameConstant = "config.yaml"
	testConfigurationContentConstant  = "common:\n  log_level: debug\nclone:\n  organization: acme\n  backend: go-git\n  clone_timeout: 5m\n"
)

func TestEmbeddedDefaultConfigurationMatchesDefaults(testInstance *testing.T) {
	configuration := decodeEmbeddedApplicationConfiguration(testInstance)

	require.Equal(testInstance, "info", configuration.Common.LogLevel)
	require.Equal(testInstance, "structured", configuration.Common.LogFormat)

	expectedClone := mirror.DefaultConfiguration()
	require.Equal(testInstance, expectedClone, configuration.Clone)
}

func TestEmbeddedDefaultConfigurationIsCopied(testInstance *testing.T) {
	firstCopy, configurationType := cli.EmbeddedDefaultConfiguration()
	require.Equal(testInstance, "yaml", configurationType)
	require.NotEmpty(testInstance, firstCopy)

	firstCopy[0] = '#'
	secondCopy, _ := cli.EmbeddedDefaultConfiguration()
	require.NotEqual(testInstance, firstCopy[0], secondCopy[0])
}

func TestDefaultConfigurationValuesDecode(testInstance *testing.T) {
	var decoded mirror.Configuration
	decodeOptions(testInstance, map[string]any{
		"target_root":   "~/mirror",
		"http_timeout":  "30s",
		"clone_timeout": "2m",
		"backend":       "go-git",
		"assume_yes":    true,
	}, &decoded)

	require.Equal(testInstance, "~/mirror", decoded.TargetRoot)
	require.Equal(testInstance, 30*time.Second, decoded.HTTPTimeout)
	require.Equal(testInstance, 2*time.Minute, decoded.CloneTimeout)
	require.True(testInstance, decoded.AssumeYes)
	require.NoError(testInstance, decoded.Validate())
}

func TestApplicationListRequiresToken(testInstance *testing.T) {
	testInstance.Chdir(testInstance.TempDir())
	for _, key := range []string{"GH_TOKEN", "GITHUB_TOKEN", "GITHUB_API_TOKEN", "FORGECLONE_CLONE_TOKEN"} {
		testInstance.Setenv(key, "")
	}

	executionError := executeApplication(testInstance, "list")
	require.Error(testInstance, executionError)
	require.ErrorIs(testInstance, executionError, mirror.ErrTokenNotFound)
}

func TestApplicationRejectsUnknownLogFormat(testInstance *testing.T) {
	testInstance.Chdir(testInstance.TempDir())

	executionError := executeApplication(testInstance, "--log-format", "xml", "list")
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "expected one of structured, console")
}

func TestApplicationConfigurationFileOverridesDefaults(testInstance *testing.T) {
	configurationPath := filepath.Join(testInstance.TempDir(), testConfigurationFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(testConfigurationContentConstant), 0o600))

	viperInstance := viper.New()
	viperInstance.SetConfigFile(configurationPath)
	require.NoError(testInstance, viperInstance.ReadInConfig())

	var configuration cli.ApplicationConfiguration
	require.NoError(testInstance, viperInstance.Unmarshal(&configuration))
	require.Equal(testInstance, "debug", configuration.Common.LogLevel)
	require.Equal(testInstance, "acme", configuration.Clone.Organization)
	require.Equal(testInstance, "go-git", configuration.Clone.Backend)
	require.Equal(testInstance, 5*time.Minute, configuration.Clone.CloneTimeout)
}

func executeApplication(testInstance *testing.T, arguments ...string) error {
	testInstance.Helper()
	originalArguments := os.Args
	testInstance.Cleanup(func() { os.Args = originalArguments })
	os.Args = append([]string{"forgeclone"}, arguments...)
	return cli.NewApplication().Execute()
}

func decodeEmbeddedApplicationConfiguration(testingInstance testing.TB) cli.ApplicationConfiguration {
	testingInstance.Helper()

	configurationData, configurationType := cli.EmbeddedDefaultConfiguration()
	viperInstance := viper.New()
	viperInstance.SetConfigType(configurationType)

	readError := viperInstance.ReadConfig(bytes.NewReader(configurationData))
	require.NoError(testingInstance, readError)

	var configuration cli.ApplicationConfiguration
	unmarshalError := viperInstance.Unmarshal(&configuration)
	require.NoError(testingInstance, unmarshalError)

	return configuration
}

func decodeOptions(testingInstance testing.TB, options map[string]any, target any) {
	testingInstance.Helper()

	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "mapstructure",
		Result:     target,
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
	})
	require.NoError(testingInstance, decoderError)

	decodeError := decoder.Decode(options)
	require.NoError(testingInstance, decodeError)
}
