package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const workspaceRepositoriesDirectoryNameConstant = "repos"

// TargetAuditFunc audits a single resolved target and reports whether it passed.
type TargetAuditFunc func(executionContext context.Context, targetPath string) (bool, error)

// Dispatcher resolves audit targets and applies an audit function to each,
// aggregating pass and fail counts. Target resolution covers three modes:
// explicit targets, workspace roots holding a repos directory, and the
// current repository alone.
type Dispatcher struct {
	workingDirectory string
	errorWriter      io.Writer
}

// NewDispatcher constructs a Dispatcher rooted at the provided working directory.
func NewDispatcher(workingDirectory string, errorWriter io.Writer) *Dispatcher {
	return &Dispatcher{workingDirectory: workingDirectory, errorWriter: errorWriter}
}

// Dispatch audits the provided targets, or discovers targets when none are
// given. A failing or unresolvable target never aborts the remaining targets.
func (dispatcher *Dispatcher) Dispatch(executionContext context.Context, targets []string, auditTarget TargetAuditFunc) DispatchSummary {
	resolvedTargets := dispatcher.resolveTargets(targets)

	summary := DispatchSummary{}
	for _, targetPath := range resolvedTargets {
		targetPassed, auditError := auditTarget(executionContext, targetPath)
		if auditError != nil {
			fmt.Fprintf(dispatcher.errorWriter, targetAuditErrorTemplateConstant, targetPath, auditError)
			summary.FailedCount++
			continue
		}
		if targetPassed {
			summary.PassedCount++
			continue
		}
		summary.FailedCount++
	}

	return summary
}

func (dispatcher *Dispatcher) resolveTargets(targets []string) []string {
	if len(targets) > 0 {
		resolvedTargets := make([]string, 0, len(targets))
		for _, targetName := range targets {
			resolvedTargets = append(resolvedTargets, dispatcher.resolveExplicitTarget(targetName))
		}
		return resolvedTargets
	}

	workspaceRepositoriesDirectory := filepath.Join(dispatcher.workingDirectory, workspaceRepositoriesDirectoryNameConstant)
	if pathExists(workspaceRepositoriesDirectory) {
		return dispatcher.enumerateWorkspaceRepositories(workspaceRepositoriesDirectory)
	}

	return []string{dispatcher.workingDirectory}
}

// resolveExplicitTarget prefers a repository name under the workspace repos
// directory and falls back to treating the target as a path.
func (dispatcher *Dispatcher) resolveExplicitTarget(targetName string) string {
	workspaceCandidate := filepath.Join(dispatcher.workingDirectory, workspaceRepositoriesDirectoryNameConstant, targetName)
	if pathExists(workspaceCandidate) {
		return workspaceCandidate
	}
	if filepath.IsAbs(targetName) {
		return targetName
	}
	return filepath.Join(dispatcher.workingDirectory, targetName)
}

func (dispatcher *Dispatcher) enumerateWorkspaceRepositories(workspaceRepositoriesDirectory string) []string {
	directoryEntries, readError := os.ReadDir(workspaceRepositoriesDirectory)
	if readError != nil {
		return nil
	}

	repositoryPaths := make([]string, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		if !directoryEntry.IsDir() {
			continue
		}
		if strings.HasPrefix(directoryEntry.Name(), ".") {
			continue
		}
		repositoryPaths = append(repositoryPaths, filepath.Join(workspaceRepositoriesDirectory, directoryEntry.Name()))
	}

	sort.Strings(repositoryPaths)
	return repositoryPaths
}
