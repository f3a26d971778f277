package audit

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/novaeco-tech/novaeco-devtools/internal/dependencies"
	"github.com/novaeco-tech/novaeco-devtools/internal/execshell"
)

const (
	commandUseConstant              = "audit"
	commandShortDescriptionConstant = "Audit repository structure and requirement traceability"
	commandLongDescriptionConstant  = "Audit checks repositories against the golden structure template for their archetype and cross-references documented requirements with verifying tests."

	structureCommandUseConstant              = "structure [targets...]"
	structureCommandShortDescriptionConstant = "Check repositories against their golden structure template"
	structureCommandLongDescription          = "Structure classifies each target repository and reports every required path missing from it."

	traceabilityCommandUseConstant              = "traceability [targets...]"
	traceabilityCommandShortDescriptionConstant = "Cross-reference documented requirements with verifying tests"
	traceabilityCommandLongDescription          = "Traceability scans documentation for requirement identifiers and reports which ones lack a verifying test annotation."
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the audit cobra command group with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	TopicResolver         TopicResolver
	Executor              *execshell.ShellExecutor
	CommandEventsObserver execshell.CommandEventObserver
	WorkingDirectory      string
	ConfigurationProvider func() CommandConfiguration
}

// Build constructs the audit command group with structure and traceability subcommands.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	auditCommand := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
	}

	structureCommand := &cobra.Command{
		Use:           structureCommandUseConstant,
		Short:         structureCommandShortDescriptionConstant,
		Long:          structureCommandLongDescription,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          builder.runStructure,
	}

	traceabilityCommand := &cobra.Command{
		Use:           traceabilityCommandUseConstant,
		Short:         traceabilityCommandShortDescriptionConstant,
		Long:          traceabilityCommandLongDescription,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          builder.runTraceability,
	}

	auditCommand.AddCommand(structureCommand, traceabilityCommand)
	return auditCommand, nil
}

func (builder *CommandBuilder) runStructure(command *cobra.Command, arguments []string) error {
	service, workingDirectory, serviceError := builder.resolveService(command)
	if serviceError != nil {
		return serviceError
	}
	return service.RunStructureAudit(command.Context(), workingDirectory, builder.resolveTargets(arguments))
}

func (builder *CommandBuilder) runTraceability(command *cobra.Command, arguments []string) error {
	service, workingDirectory, serviceError := builder.resolveService(command)
	if serviceError != nil {
		return serviceError
	}
	return service.RunTraceabilityAudit(command.Context(), workingDirectory, builder.resolveTargets(arguments))
}

func (builder *CommandBuilder) resolveService(command *cobra.Command) (*Service, string, error) {
	workingDirectory, workingDirectoryError := builder.resolveWorkingDirectory()
	if workingDirectoryError != nil {
		return nil, "", workingDirectoryError
	}

	topicResolver, resolverError := builder.resolveTopicResolver()
	if resolverError != nil {
		return nil, "", resolverError
	}

	service := NewService(topicResolver, command.OutOrStdout(), command.ErrOrStderr())
	return service, workingDirectory, nil
}

// resolveTargets prefers explicit arguments and falls back to configured targets.
func (builder *CommandBuilder) resolveTargets(arguments []string) []string {
	if len(arguments) > 0 {
		return append([]string{}, arguments...)
	}
	if builder.ConfigurationProvider == nil {
		return nil
	}
	return builder.ConfigurationProvider().Sanitize().Targets
}

func (builder *CommandBuilder) resolveWorkingDirectory() (string, error) {
	if len(builder.WorkingDirectory) > 0 {
		return builder.WorkingDirectory, nil
	}
	return os.Getwd()
}

// resolveTopicResolver builds a GitHub CLI-backed topic resolver unless one was
// injected. Resolution failures leave classification to filesystem heuristics.
func (builder *CommandBuilder) resolveTopicResolver() (TopicResolver, error) {
	if builder.TopicResolver != nil {
		return builder.TopicResolver, nil
	}

	executor, executorError := dependencies.ResolveShellExecutor(builder.Executor, builder.resolveLogger(), builder.CommandEventsObserver)
	if executorError != nil {
		return nil, executorError
	}

	githubClient, clientError := dependencies.ResolveGitHubClient(nil, executor)
	if clientError != nil {
		return nil, clientError
	}

	return githubClient, nil
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
