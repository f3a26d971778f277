package workspace

import "strings"

const defaultOrganizationNameConstant = "novaeco-tech"

// CommandConfiguration captures persistent settings for the init command.
type CommandConfiguration struct {
	Organization string `mapstructure:"organization"`
}

// DefaultCommandConfiguration returns baseline configuration values for the init command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Organization: defaultOrganizationNameConstant,
	}
}

// DefaultConfigurationValues exposes baseline values keyed beneath the provided configuration prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationKeyPrefix + ".organization": defaults.Organization,
	}
}

// Sanitize trims whitespace and applies defaults to unset configuration values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Organization = strings.TrimSpace(configuration.Organization)
	if len(sanitized.Organization) == 0 {
		sanitized.Organization = defaultOrganizationNameConstant
	}
	return sanitized
}
