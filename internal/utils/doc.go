// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses the ConfigurationLoader and LoggerFactory abstractions that
// integrate Viper, environment variables, and zap logging for the CLI,
// plus the CommandContextAccessor used to thread bootstrap metadata
// through cobra command contexts.
package utils
