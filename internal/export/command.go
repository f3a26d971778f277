package export

import (
	"os"

	"github.com/spf13/cobra"
)

const (
	commandUseConstant              = "export [path]"
	commandShortDescriptionConstant = "Export text content of files into a single context file"
	commandLongDescriptionConstant  = "Export recursively reads files under the given path (default: current directory) and merges them into a single annotated text output."

	outputFlagNameConstant        = "output"
	outputFlagShorthandConstant   = "o"
	outputFlagDescriptionConstant = "Output file path"
	noDefaultsFlagNameConstant    = "no-defaults"
	noDefaultsFlagDescription     = "Ignore the default exclusion lists"
	excludeDirsFlagNameConstant   = "exclude-dirs"
	excludeDirsFlagDescription    = "Additional directory names to exclude"
	excludeExtsFlagNameConstant   = "exclude-exts"
	excludeExtsFlagDescription    = "Additional file extensions to exclude"
	excludePathsFlagNameConstant  = "exclude-paths"
	excludePathsFlagDescription   = "Additional path suffixes to exclude"

	commandExamplesConstant = `  # Export the current repository to context.txt
  novaeco export

  # Export a subtree to a custom file, skipping generated protobuf output
  novaeco export src -o review.txt --exclude-dirs generated`
)

// CommandBuilder assembles the export cobra command.
type CommandBuilder struct {
	WorkingDirectory string
}

// Build constructs the export command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	exportCommand := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		Example:       commandExamplesConstant,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, arguments)
		},
	}

	exportCommand.Flags().StringP(outputFlagNameConstant, outputFlagShorthandConstant, defaultOutputPathConstant, outputFlagDescriptionConstant)
	exportCommand.Flags().Bool(noDefaultsFlagNameConstant, false, noDefaultsFlagDescription)
	exportCommand.Flags().StringSlice(excludeDirsFlagNameConstant, nil, excludeDirsFlagDescription)
	exportCommand.Flags().StringSlice(excludeExtsFlagNameConstant, nil, excludeExtsFlagDescription)
	exportCommand.Flags().StringSlice(excludePathsFlagNameConstant, nil, excludePathsFlagDescription)
	return exportCommand, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	workingDirectory := builder.WorkingDirectory
	if len(workingDirectory) == 0 {
		resolvedDirectory, resolutionError := os.Getwd()
		if resolutionError != nil {
			return resolutionError
		}
		workingDirectory = resolvedDirectory
	}

	rootPath := ""
	if len(arguments) > 0 {
		rootPath = arguments[0]
	}
	outputPath, _ := command.Flags().GetString(outputFlagNameConstant)
	skipDefaults, _ := command.Flags().GetBool(noDefaultsFlagNameConstant)
	excludedDirectories, _ := command.Flags().GetStringSlice(excludeDirsFlagNameConstant)
	excludedExtensions, _ := command.Flags().GetStringSlice(excludeExtsFlagNameConstant)
	excludedPathSuffixes, _ := command.Flags().GetStringSlice(excludePathsFlagNameConstant)

	service := NewService(workingDirectory, command.OutOrStdout())
	return service.Export(Options{
		RootPath:              rootPath,
		OutputPath:            outputPath,
		SkipDefaultExclusions: skipDefaults,
		ExcludedDirectories:   excludedDirectories,
		ExcludedExtensions:    excludedExtensions,
		ExcludedPathSuffixes:  excludedPathSuffixes,
	})
}
