package buildartifacts

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/novaeco-tech/novaeco-devtools/internal/dependencies"
	"github.com/novaeco-tech/novaeco-devtools/internal/execshell"
)

const (
	commandUseConstant              = "build"
	commandShortDescriptionConstant = "Build artifacts (client SDKs, service packages)"
	commandLongDescriptionConstant  = "Build compiles protocol-buffer definitions into a distributable client SDK or packages a service source tree into a deployment tarball."

	clientCommandUseConstant              = "client"
	clientCommandShortDescriptionConstant = "Compile proto definitions into a Python client SDK"

	serviceCommandUseConstant              = "service"
	serviceCommandShortDescriptionConstant = "Package the service source tree for deployment"

	protoDirectoryFlagNameConstant        = "proto-dir"
	protoDirectoryFlagDescriptionConstant = "Directory containing .proto files"
	outputDirectoryFlagNameConstant       = "out-dir"
	clientOutputFlagDescriptionConstant   = "Staging directory for the client build"
	serviceOutputFlagDescriptionConstant  = "Output directory for the tarball"
	serviceNameFlagNameConstant           = "service-name"
	serviceNameFlagDescriptionConstant    = "Override service name (defaults to the repository folder name)"
	sourceDirectoryFlagNameConstant       = "src-dir"
	sourceDirectoryFlagDescription        = "Source code root directory"
	requirementsFlagNameConstant          = "reqs"
	requirementsFlagDescriptionConstant   = "Primary requirements file"

	commandExamplesConstant = `  # Compile protos from component/api/proto/v1 into a Python wheel
  novaeco build client

  # Build a client from a custom proto location
  novaeco build client --proto-dir api/protos --out-dir dist/sdk --service-name custom-auth

  # Package the current service source code for deployment
  novaeco build service

  # Package a service with a non-standard source directory
  novaeco build service --src-dir app/src --out-dir build_artifacts --reqs requirements-prod.txt`
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the build cobra command group with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	Executor              BuildToolExecutor
	ShellExecutor         *execshell.ShellExecutor
	CommandEventsObserver execshell.CommandEventObserver
	WorkingDirectory      string
}

// Build constructs the build command group with client and service subcommands.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	buildCommand := &cobra.Command{
		Use:     commandUseConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExamplesConstant,
	}

	clientCommand := &cobra.Command{
		Use:           clientCommandUseConstant,
		Short:         clientCommandShortDescriptionConstant,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          builder.runClient,
	}
	clientCommand.Flags().String(protoDirectoryFlagNameConstant, defaultProtoDirectoryConstant, protoDirectoryFlagDescriptionConstant)
	clientCommand.Flags().String(outputDirectoryFlagNameConstant, defaultClientOutputDirectoryConstant, clientOutputFlagDescriptionConstant)
	clientCommand.Flags().String(serviceNameFlagNameConstant, "", serviceNameFlagDescriptionConstant)

	serviceCommand := &cobra.Command{
		Use:           serviceCommandUseConstant,
		Short:         serviceCommandShortDescriptionConstant,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          builder.runService,
	}
	serviceCommand.Flags().String(sourceDirectoryFlagNameConstant, defaultSourceDirectoryConstant, sourceDirectoryFlagDescription)
	serviceCommand.Flags().String(outputDirectoryFlagNameConstant, defaultServiceOutputDirectoryConstant, serviceOutputFlagDescriptionConstant)
	serviceCommand.Flags().String(requirementsFlagNameConstant, defaultRequirementsFileConstant, requirementsFlagDescriptionConstant)

	buildCommand.AddCommand(clientCommand, serviceCommand)
	return buildCommand, nil
}

func (builder *CommandBuilder) runClient(command *cobra.Command, _ []string) error {
	protoDirectory, _ := command.Flags().GetString(protoDirectoryFlagNameConstant)
	outputDirectory, _ := command.Flags().GetString(outputDirectoryFlagNameConstant)
	serviceName, _ := command.Flags().GetString(serviceNameFlagNameConstant)

	service, serviceError := builder.resolveService(command)
	if serviceError != nil {
		return serviceError
	}

	return service.BuildClient(command.Context(), ClientBuildOptions{
		ProtoDirectory:  protoDirectory,
		OutputDirectory: outputDirectory,
		ServiceName:     serviceName,
	})
}

func (builder *CommandBuilder) runService(command *cobra.Command, _ []string) error {
	sourceDirectory, _ := command.Flags().GetString(sourceDirectoryFlagNameConstant)
	outputDirectory, _ := command.Flags().GetString(outputDirectoryFlagNameConstant)
	requirementsFile, _ := command.Flags().GetString(requirementsFlagNameConstant)

	service, serviceError := builder.resolveService(command)
	if serviceError != nil {
		return serviceError
	}

	return service.BuildService(command.Context(), ServiceBuildOptions{
		SourceDirectory:  sourceDirectory,
		OutputDirectory:  outputDirectory,
		RequirementsFile: requirementsFile,
	})
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

	executor := builder.Executor
	if executor == nil {
		shellExecutor, executorError := dependencies.ResolveShellExecutor(builder.ShellExecutor, builder.resolveLogger(), builder.CommandEventsObserver)
		if executorError != nil {
			return nil, executorError
		}
		executor = shellExecutor
	}

	return NewService(executor, workingDirectory, command.OutOrStdout()), nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
