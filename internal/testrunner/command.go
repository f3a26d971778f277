package testrunner

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/novaeco-tech/novaeco-devtools/internal/dependencies"
	"github.com/novaeco-tech/novaeco-devtools/internal/execshell"
)

const (
	commandUseConstant              = "test"
	commandShortDescriptionConstant = "Execute tests (unit, integration, e2e, system, acceptance, smoke)"
	commandLongDescriptionConstant  = "Test runs the requested test tier with the runtime detected from the repository layout: pytest for Python projects, npm scripts for Node.js projects."

	scopeCommandShortTemplateConstant = "Run %s tests"

	filterFlagNameConstant        = "filter"
	filterFlagShorthandConstant   = "f"
	filterFlagDescriptionConstant = "Filter tests by keyword"
	watchFlagNameConstant         = "watch"
	watchFlagDescriptionConstant  = "Run in watch mode (if supported)"

	commandExamplesConstant = `  # Run unit tests in the current repository (auto-detects Python/Node)
  novaeco test unit

  # Run integration tests with a keyword filter
  novaeco test integration --filter "database"

  # Run global acceptance tests
  novaeco test acceptance`
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the test cobra command group with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	Executor              TestExecutor
	ShellExecutor         *execshell.ShellExecutor
	CommandEventsObserver execshell.CommandEventObserver
	WorkingDirectory      string
}

// Build constructs the test command group with one subcommand per scope.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	testCommand := &cobra.Command{
		Use:     commandUseConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExamplesConstant,
	}

	for _, scope := range Scopes() {
		testCommand.AddCommand(builder.buildScopeCommand(scope))
	}

	return testCommand, nil
}

func (builder *CommandBuilder) buildScopeCommand(scope Scope) *cobra.Command {
	scopeCommand := &cobra.Command{
		Use:           string(scope),
		Short:         fmt.Sprintf(scopeCommandShortTemplateConstant, capitalizeScope(scope)),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(command *cobra.Command, _ []string) error {
			return builder.runScope(command, scope)
		},
	}

	scopeCommand.Flags().StringP(filterFlagNameConstant, filterFlagShorthandConstant, "", filterFlagDescriptionConstant)
	scopeCommand.Flags().Bool(watchFlagNameConstant, false, watchFlagDescriptionConstant)
	return scopeCommand
}

func (builder *CommandBuilder) runScope(command *cobra.Command, scope Scope) error {
	keywordFilter, _ := command.Flags().GetString(filterFlagNameConstant)
	watchMode, _ := command.Flags().GetBool(watchFlagNameConstant)

	service, serviceError := builder.resolveService(command)
	if serviceError != nil {
		return serviceError
	}

	return service.Run(command.Context(), RunOptions{
		Scope:     scope,
		Filter:    keywordFilter,
		WatchMode: watchMode,
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

func capitalizeScope(scope Scope) string {
	scopeName := string(scope)
	if len(scopeName) == 0 {
		return scopeName
	}
	return strings.ToUpper(scopeName[:1]) + scopeName[1:]
}
