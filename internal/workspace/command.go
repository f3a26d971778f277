package workspace

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/novaeco-tech/novaeco-devtools/internal/dependencies"
	"github.com/novaeco-tech/novaeco-devtools/internal/execshell"
)

const (
	commandUseConstant              = "init"
	commandShortDescriptionConstant = "Clone organization repositories and build the editor workspace"
	commandLongDescriptionConstant  = "Init fetches the organization's repositories grouped by topic, clones them under the repos directory, and generates a categorized editor workspace file."

	forceFlagNameConstant        = "force"
	forceFlagDescriptionConstant = "Re-clone repositories that already exist locally"

	organizationFlagNameConstant        = "organization"
	organizationFlagDescriptionConstant = "GitHub organization to provision the workspace from"

	skipWorkspaceFlagNameConstant        = "skip-workspace"
	skipWorkspaceFlagDescriptionConstant = "Clone repositories without regenerating the workspace file"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the init cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	RepositoryLister      RepositoryLister
	GitExecutor           GitExecutor
	Executor              *execshell.ShellExecutor
	CommandEventsObserver execshell.CommandEventObserver
	WorkingDirectory      string
	ConfigurationProvider func() CommandConfiguration
}

// Build constructs the init cobra command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	initCommand := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          builder.run,
	}

	initCommand.Flags().Bool(forceFlagNameConstant, false, forceFlagDescriptionConstant)
	initCommand.Flags().String(organizationFlagNameConstant, "", organizationFlagDescriptionConstant)
	initCommand.Flags().Bool(skipWorkspaceFlagNameConstant, false, skipWorkspaceFlagDescriptionConstant)

	return initCommand, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	forceReclone, _ := command.Flags().GetBool(forceFlagNameConstant)
	organizationFlagValue, _ := command.Flags().GetString(organizationFlagNameConstant)
	skipWorkspace, _ := command.Flags().GetBool(skipWorkspaceFlagNameConstant)

	organization := builder.resolveConfiguration().Organization
	if command.Flags().Changed(organizationFlagNameConstant) {
		organization = organizationFlagValue
	}

	workingDirectory, workingDirectoryError := builder.resolveWorkingDirectory()
	if workingDirectoryError != nil {
		return workingDirectoryError
	}

	repositoryLister, gitExecutor, collaboratorError := builder.resolveCollaborators()
	if collaboratorError != nil {
		return collaboratorError
	}

	service := NewService(repositoryLister, gitExecutor, workingDirectory, command.OutOrStdout())
	return service.Provision(command.Context(), ProvisionOptions{
		Organization:  organization,
		ForceReclone:  forceReclone,
		SkipWorkspace: skipWorkspace,
	})
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveWorkingDirectory() (string, error) {
	if len(builder.WorkingDirectory) > 0 {
		return builder.WorkingDirectory, nil
	}
	return os.Getwd()
}

func (builder *CommandBuilder) resolveCollaborators() (RepositoryLister, GitExecutor, error) {
	if builder.RepositoryLister != nil && builder.GitExecutor != nil {
		return builder.RepositoryLister, builder.GitExecutor, nil
	}

	executor, executorError := dependencies.ResolveShellExecutor(builder.Executor, builder.resolveLogger(), builder.CommandEventsObserver)
	if executorError != nil {
		return nil, nil, executorError
	}

	repositoryLister := builder.RepositoryLister
	if repositoryLister == nil {
		githubClient, clientError := dependencies.ResolveGitHubClient(nil, executor)
		if clientError != nil {
			return nil, nil, clientError
		}
		repositoryLister = githubClient
	}

	gitExecutor := builder.GitExecutor
	if gitExecutor == nil {
		gitExecutor = executor
	}

	return repositoryLister, gitExecutor, nil
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
