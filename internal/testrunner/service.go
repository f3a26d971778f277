package testrunner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/novaeco-tech/novaeco-devtools/internal/execshell"
)

const (
	nodeManifestFileNameConstant    = "package.json"
	pythonProjectFileNameConstant   = "pyproject.toml"
	pythonRequirementsFileName      = "requirements.txt"
	pythonSetupFileNameConstant     = "setup.py"
	testsDirectoryNameConstant      = "tests"
	scopedTestsDirectoryTemplate    = "tests/%s"
	pytestVerboseFlagConstant       = "-v"
	pytestKeywordFlagConstant       = "-k"
	npmRunSubcommandConstant        = "run"
	npmArgumentsSeparatorConstant   = "--"
	nodeScriptTemplateConstant      = "test:%s"
	runtimeUnknownMessageConstant   = "could not detect project runtime; no pyproject.toml, requirements.txt, setup.py, or package.json found"
	testsDirectoryMissingMessage    = "no tests directory found in the repository root"
	unknownScopeMessageTemplate     = "unknown test scope %q; expected one of %s"
	pythonRuntimeDetectedTemplate   = "Detected Python runtime. Running pytest on %s...\n"
	nodeRuntimeDetectedTemplate     = "Detected Node.js runtime. Running npm script %s...\n"
	scopedDirectoryMissingTemplate  = "Warning: directory %s not found.\n"
	watchModeUnsupportedWarning     = "Warning: watch mode requires pytest-watch; running a standard test pass.\n"
	scopeListSeparatorConstant      = ", "
	testScopeFailedMessageTemplate  = "%s tests failed: %w"
	nodeScriptFailedMessageTemplate = "npm run %s failed: %w"
)

// Runtime identifies the detected project toolchain.
type Runtime string

// Supported runtimes.
const (
	RuntimePython  Runtime = "python"
	RuntimeNode    Runtime = "node"
	RuntimeUnknown Runtime = "unknown"
)

// Scope names a test tier from the master testing matrix.
type Scope string

// Supported test scopes.
const (
	ScopeUnit        Scope = "unit"
	ScopeIntegration Scope = "integration"
	ScopeEndToEnd    Scope = "e2e"
	ScopeSystem      Scope = "system"
	ScopeAcceptance  Scope = "acceptance"
	ScopeSmoke       Scope = "smoke"
)

// Scopes lists every supported test scope in presentation order.
func Scopes() []Scope {
	return []Scope{ScopeUnit, ScopeIntegration, ScopeEndToEnd, ScopeSystem, ScopeAcceptance, ScopeSmoke}
}

// ParseScope validates a scope argument.
func ParseScope(raw string) (Scope, error) {
	normalized := Scope(strings.ToLower(strings.TrimSpace(raw)))
	for _, knownScope := range Scopes() {
		if normalized == knownScope {
			return normalized, nil
		}
	}
	return "", UnknownScopeError{RequestedScope: raw}
}

// UnknownScopeError reports an unsupported test scope argument.
type UnknownScopeError struct {
	RequestedScope string
}

// Error describes the unknown scope.
func (scopeError UnknownScopeError) Error() string {
	scopeNames := make([]string, 0, len(Scopes()))
	for _, knownScope := range Scopes() {
		scopeNames = append(scopeNames, string(knownScope))
	}
	return fmt.Sprintf(unknownScopeMessageTemplate, scopeError.RequestedScope, strings.Join(scopeNames, scopeListSeparatorConstant))
}

// UnknownRuntimeError reports a repository whose runtime could not be detected.
type UnknownRuntimeError struct{}

// Error describes the detection failure.
func (UnknownRuntimeError) Error() string {
	return runtimeUnknownMessageConstant
}

// TestsDirectoryMissingError reports a Python repository without a tests directory.
type TestsDirectoryMissingError struct{}

// Error describes the missing tests directory.
func (TestsDirectoryMissingError) Error() string {
	return testsDirectoryMissingMessage
}

// TestExecutor exposes the external test tools.
type TestExecutor interface {
	ExecutePytest(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteNpm(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RunOptions captures the configurable parameters for one test run.
type RunOptions struct {
	Scope     Scope
	Filter    string
	WatchMode bool
}

// Service runs scoped test suites for the repository rooted at its working directory.
type Service struct {
	executor         TestExecutor
	workingDirectory string
	outputWriter     io.Writer
}

// NewService constructs a testrunner Service.
func NewService(executor TestExecutor, workingDirectory string, outputWriter io.Writer) *Service {
	return &Service{executor: executor, workingDirectory: workingDirectory, outputWriter: outputWriter}
}

// DetectRuntime inspects the repository layout for runtime markers. A Node
// manifest takes precedence over Python project files.
func (service *Service) DetectRuntime() Runtime {
	if service.rootFileExists(nodeManifestFileNameConstant) {
		return RuntimeNode
	}
	pythonMarkers := []string{pythonProjectFileNameConstant, pythonRequirementsFileName, pythonSetupFileNameConstant}
	for _, markerName := range pythonMarkers {
		if service.rootFileExists(markerName) {
			return RuntimePython
		}
	}
	return RuntimeUnknown
}

// Run executes the requested test scope with the detected runtime.
func (service *Service) Run(executionContext context.Context, options RunOptions) error {
	switch service.DetectRuntime() {
	case RuntimePython:
		return service.runPytest(executionContext, options)
	case RuntimeNode:
		return service.runNpmScript(executionContext, options)
	default:
		return UnknownRuntimeError{}
	}
}

func (service *Service) runPytest(executionContext context.Context, options RunOptions) error {
	scopedDirectory := fmt.Sprintf(scopedTestsDirectoryTemplate, options.Scope)
	if !service.rootFileExists(scopedDirectory) {
		fmt.Fprintf(service.outputWriter, scopedDirectoryMissingTemplate, scopedDirectory)
		if !service.rootFileExists(testsDirectoryNameConstant) {
			return TestsDirectoryMissingError{}
		}
	}

	fmt.Fprintf(service.outputWriter, pythonRuntimeDetectedTemplate, scopedDirectory)

	pytestArguments := []string{scopedDirectory, pytestVerboseFlagConstant}
	if len(options.Filter) > 0 {
		pytestArguments = append(pytestArguments, pytestKeywordFlagConstant, options.Filter)
	}
	if options.WatchMode {
		fmt.Fprint(service.outputWriter, watchModeUnsupportedWarning)
	}

	pytestDetails := execshell.CommandDetails{Arguments: pytestArguments, WorkingDirectory: service.workingDirectory}
	if _, runError := service.executor.ExecutePytest(executionContext, pytestDetails); runError != nil {
		return fmt.Errorf(testScopeFailedMessageTemplate, options.Scope, runError)
	}
	return nil
}

func (service *Service) runNpmScript(executionContext context.Context, options RunOptions) error {
	scriptName := fmt.Sprintf(nodeScriptTemplateConstant, options.Scope)

	fmt.Fprintf(service.outputWriter, nodeRuntimeDetectedTemplate, scriptName)

	npmArguments := []string{npmRunSubcommandConstant, scriptName, npmArgumentsSeparatorConstant}
	if len(options.Filter) > 0 {
		npmArguments = append(npmArguments, options.Filter)
	}

	npmDetails := execshell.CommandDetails{Arguments: npmArguments, WorkingDirectory: service.workingDirectory}
	if _, runError := service.executor.ExecuteNpm(executionContext, npmDetails); runError != nil {
		return fmt.Errorf(nodeScriptFailedMessageTemplate, scriptName, runError)
	}
	return nil
}

func (service *Service) rootFileExists(relativePath string) bool {
	_, statError := os.Stat(filepath.Join(service.workingDirectory, filepath.FromSlash(relativePath)))
	return statError == nil
}
