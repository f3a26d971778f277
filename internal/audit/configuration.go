package audit

import "strings"

// CommandConfiguration captures persistent settings for the audit commands.
type CommandConfiguration struct {
	Targets []string `mapstructure:"targets"`
}

// DefaultCommandConfiguration returns baseline configuration values for the audit commands.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Targets: nil,
	}
}

// DefaultConfigurationValues exposes baseline values keyed beneath the provided configuration prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationKeyPrefix + ".targets": defaults.Targets,
	}
}

// Sanitize trims whitespace and removes empty entries from configured targets.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Targets = sanitizeTargets(configuration.Targets)
	return sanitized
}

func sanitizeTargets(raw []string) []string {
	sanitized := make([]string, 0, len(raw))
	for index := range raw {
		trimmed := strings.TrimSpace(raw[index])
		if len(trimmed) == 0 {
			continue
		}
		sanitized = append(sanitized, trimmed)
	}
	return sanitized
}
