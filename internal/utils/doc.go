// Package utils exposes reusable helpers consumed by the CLI.
//
// ConfigurationLoader layers embedded defaults, configuration files, dotenv
// files and environment variables through Viper. LoggerFactory builds the
// diagnostic and console zap loggers. CommandContextAccessor carries per-run
// values such as the run identifier through command contexts.
package utils
