package versioning

import (
	"os"

	"github.com/spf13/cobra"
)

const (
	commandUseConstant              = "version"
	commandShortDescriptionConstant = "Manage ecosystem versions"
	commandLongDescriptionConstant  = "Version bumps individual service version files or cuts a coordinated release across every service in the repository."

	patchCommandUseConstant              = "patch <service>"
	patchCommandShortDescriptionConstant = "Bump the patch segment of one service version (1.0.0 -> 1.0.1)"

	releaseCommandUseConstant              = "release <minor|major>"
	releaseCommandShortDescriptionConstant = "Bump the global version and align all service versions"

	commandExamplesConstant = `  # Patch a specific service (bug fix)
  novaeco version patch api

  # Create a new release (feature)
  novaeco version release minor
  novaeco version release major`
)

// CommandBuilder assembles the version cobra command group.
type CommandBuilder struct {
	WorkingDirectory string
}

// Build constructs the version command group with patch and release subcommands.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	versionCommand := &cobra.Command{
		Use:     commandUseConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExamplesConstant,
	}

	patchCommand := &cobra.Command{
		Use:           patchCommandUseConstant,
		Short:         patchCommandShortDescriptionConstant,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          builder.runPatch,
	}

	releaseCommand := &cobra.Command{
		Use:           releaseCommandUseConstant,
		Short:         releaseCommandShortDescriptionConstant,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          builder.runRelease,
	}

	versionCommand.AddCommand(patchCommand, releaseCommand)
	return versionCommand, nil
}

func (builder *CommandBuilder) runPatch(command *cobra.Command, arguments []string) error {
	service, serviceError := builder.resolveService(command)
	if serviceError != nil {
		return serviceError
	}
	return service.Patch(arguments[0])
}

func (builder *CommandBuilder) runRelease(command *cobra.Command, arguments []string) error {
	releaseType, parseError := ParseReleaseType(arguments[0])
	if parseError != nil {
		return parseError
	}

	service, serviceError := builder.resolveService(command)
	if serviceError != nil {
		return serviceError
	}
	return service.Release(releaseType)
}

func (builder *CommandBuilder) resolveService(command *cobra.Command) (*Service, error) {
	workingDirectory := builder.WorkingDirectory
	if len(workingDirectory) == 0 {
		resolvedDirectory, resolutionError := os.Getwd()
		if resolutionError != nil {
			return nil, resolutionError
		}
		workingDirectory = resolvedDirectory
	}
	return NewService(workingDirectory, command.OutOrStdout()), nil
}
