package dependencies

import (
	"go.uber.org/zap"

	"github.com/novaeco-tech/novaeco-devtools/internal/execshell"
	"github.com/novaeco-tech/novaeco-devtools/internal/githubcli"
)

// ResolveShellExecutor returns the provided executor or constructs a shell-backed default.
func ResolveShellExecutor(existing *execshell.ShellExecutor, logger *zap.Logger, observers ...execshell.CommandEventObserver) (*execshell.ShellExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	shellExecutor, creationError := execshell.NewShellExecutor(logger, commandRunner, observers...)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveGitHubClient returns the provided client or creates a GitHub CLI-backed implementation.
func ResolveGitHubClient(existing *githubcli.Client, executor githubcli.GitHubCommandExecutor) (*githubcli.Client, error) {
	if existing != nil {
		return existing, nil
	}
	return githubcli.NewClient(executor)
}
