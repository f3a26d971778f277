package buildartifacts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/novaeco-tech/novaeco-devtools/internal/execshell"
)

const (
	defaultProtoDirectoryConstant        = "component/api/proto/v1"
	defaultClientOutputDirectoryConstant = "dist/client"
	clientPackageSuffixConstant          = "_client"
	protoFilePatternConstant             = "*.proto"
	generatedGRPCFilePatternConstant     = "*_pb2_grpc.py"
	packageInitFileNameConstant          = "__init__.py"
	setupFileNameConstant                = "setup.py"
	wheelOutputDirectoryNameConstant     = "dist"
	protoIncludeFlagTemplateConstant     = "-I%s"
	pythonOutputFlagTemplateConstant     = "--python_out=%s"
	grpcPythonOutputFlagTemplateConstant = "--grpc_python_out=%s"
	pythonModuleFlagConstant             = "-m"
	buildModuleNameConstant              = "build"
	wheelFlagConstant                    = "--wheel"

	clientBuildHeaderTemplateConstant      = "Building client SDK: %s v%s\n"
	protoSourceMessageTemplateConstant     = "   Proto source: %s\n"
	compilingProtosMessageTemplateConstant = "   Compiling %d proto files...\n"
	fixingImportsMessageTemplateConstant   = "   Fixing relative imports in %s...\n"
	buildingWheelMessageConstant           = "   Building wheel artifact...\n"
	artifactsGeneratedMessageTemplate      = "Artifacts generated in %s:\n"
	artifactEntryTemplateConstant          = "   - %s\n"
	wheelOutputMissingWarningConstant      = "Warning: build succeeded but the dist directory is missing.\n"

	noProtoFilesMessageTemplateConstant = "no .proto files found in %s"

	versionFallbackConstant = "0.0.1-dev"
)

// versionFileCandidates lists version sources of truth in resolution order.
var versionFileCandidates = []string{
	"GLOBAL_VERSION",
	"component/api/VERSION",
	"api/VERSION",
	"VERSION",
}

// generatedImportPattern rewrites generated gRPC imports into package-relative form.
var generatedImportPattern = regexp.MustCompile(`import (\w+_pb2)`)

// setupFileTemplate is the generated setup.py that makes the SDK pip-installable.
const setupFileTemplate = `from setuptools import setup, find_packages

setup(
    name="%s-client",
    version="%s",
    packages=find_packages(),
    install_requires=[
        "grpcio>=1.60.0",
        "protobuf>=4.25.1"
    ],
    description="Auto-generated gRPC client for %s",
)
`

// BuildToolExecutor exposes the external tools required by artifact builds.
type BuildToolExecutor interface {
	ExecuteProtoc(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecutePython(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ClientBuildOptions captures the configurable parameters for client SDK builds.
type ClientBuildOptions struct {
	ProtoDirectory  string
	OutputDirectory string
	ServiceName     string
}

// NoProtoFilesError reports a proto directory without any .proto definitions.
type NoProtoFilesError struct {
	ProtoDirectory string
}

// Error describes the empty proto directory.
func (protoError NoProtoFilesError) Error() string {
	return fmt.Sprintf(noProtoFilesMessageTemplateConstant, protoError.ProtoDirectory)
}

// Service builds client SDK and service deployment artifacts for the
// repository rooted at its working directory.
type Service struct {
	executor         BuildToolExecutor
	workingDirectory string
	outputWriter     io.Writer
}

// NewService constructs a buildartifacts Service.
func NewService(executor BuildToolExecutor, workingDirectory string, outputWriter io.Writer) *Service {
	return &Service{executor: executor, workingDirectory: workingDirectory, outputWriter: outputWriter}
}

// BuildClient compiles the repository's proto definitions into a Python
// client SDK package and builds a wheel from it.
func (service *Service) BuildClient(executionContext context.Context, options ClientBuildOptions) error {
	options = service.applyClientDefaults(options)

	protoDirectory := filepath.Join(service.workingDirectory, filepath.FromSlash(options.ProtoDirectory))
	outputDirectory := filepath.Join(service.workingDirectory, filepath.FromSlash(options.OutputDirectory))
	packageName := strings.ReplaceAll(options.ServiceName, "-", "_") + clientPackageSuffixConstant
	packageDirectory := filepath.Join(outputDirectory, packageName)
	artifactVersion := service.resolveVersion()

	fmt.Fprintf(service.outputWriter, clientBuildHeaderTemplateConstant, packageName, artifactVersion)
	fmt.Fprintf(service.outputWriter, protoSourceMessageTemplateConstant, protoDirectory)

	protoFiles, protoGlobError := filepath.Glob(filepath.Join(protoDirectory, protoFilePatternConstant))
	if protoGlobError != nil {
		return protoGlobError
	}
	if len(protoFiles) == 0 {
		return NoProtoFilesError{ProtoDirectory: protoDirectory}
	}

	if cleanError := cleanDirectory(outputDirectory); cleanError != nil {
		return cleanError
	}
	if packageError := os.MkdirAll(packageDirectory, 0o755); packageError != nil {
		return packageError
	}

	fmt.Fprintf(service.outputWriter, compilingProtosMessageTemplateConstant, len(protoFiles))

	compileArguments := []string{
		fmt.Sprintf(protoIncludeFlagTemplateConstant, protoDirectory),
		fmt.Sprintf(pythonOutputFlagTemplateConstant, packageDirectory),
		fmt.Sprintf(grpcPythonOutputFlagTemplateConstant, packageDirectory),
	}
	compileArguments = append(compileArguments, protoFiles...)

	if _, compileError := service.executor.ExecuteProtoc(executionContext, execshell.CommandDetails{Arguments: compileArguments}); compileError != nil {
		return compileError
	}

	if rewriteError := service.rewriteGeneratedImports(packageDirectory); rewriteError != nil {
		return rewriteError
	}

	if initError := os.WriteFile(filepath.Join(packageDirectory, packageInitFileNameConstant), []byte{}, 0o644); initError != nil {
		return initError
	}

	setupContents := fmt.Sprintf(setupFileTemplate, options.ServiceName, artifactVersion, options.ServiceName)
	if setupError := os.WriteFile(filepath.Join(outputDirectory, setupFileNameConstant), []byte(setupContents), 0o644); setupError != nil {
		return setupError
	}

	fmt.Fprint(service.outputWriter, buildingWheelMessageConstant)
	wheelDetails := execshell.CommandDetails{
		Arguments:        []string{pythonModuleFlagConstant, buildModuleNameConstant, wheelFlagConstant},
		WorkingDirectory: outputDirectory,
	}
	if _, wheelError := service.executor.ExecutePython(executionContext, wheelDetails); wheelError != nil {
		return wheelError
	}

	service.reportWheelArtifacts(filepath.Join(outputDirectory, wheelOutputDirectoryNameConstant))
	return nil
}

func (service *Service) applyClientDefaults(options ClientBuildOptions) ClientBuildOptions {
	if len(options.ProtoDirectory) == 0 {
		options.ProtoDirectory = defaultProtoDirectoryConstant
	}
	if len(options.OutputDirectory) == 0 {
		options.OutputDirectory = defaultClientOutputDirectoryConstant
	}
	if len(options.ServiceName) == 0 {
		options.ServiceName = filepath.Base(service.workingDirectory)
	}
	return options
}

// resolveVersion walks the conventional version file locations and falls back
// to a development version when none exists.
func (service *Service) resolveVersion() string {
	for _, candidatePath := range versionFileCandidates {
		contents, readError := os.ReadFile(filepath.Join(service.workingDirectory, filepath.FromSlash(candidatePath)))
		if readError == nil {
			return strings.TrimSpace(string(contents))
		}
	}
	return versionFallbackConstant
}

// rewriteGeneratedImports converts absolute proto imports in generated gRPC
// stubs into package-relative imports.
func (service *Service) rewriteGeneratedImports(packageDirectory string) error {
	fmt.Fprintf(service.outputWriter, fixingImportsMessageTemplateConstant, packageDirectory)

	generatedFiles, globError := filepath.Glob(filepath.Join(packageDirectory, generatedGRPCFilePatternConstant))
	if globError != nil {
		return globError
	}

	for _, generatedFile := range generatedFiles {
		contents, readError := os.ReadFile(generatedFile)
		if readError != nil {
			return readError
		}
		rewritten := generatedImportPattern.ReplaceAll(contents, []byte("from . import $1"))
		if writeError := os.WriteFile(generatedFile, rewritten, 0o644); writeError != nil {
			return writeError
		}
	}

	return nil
}

func (service *Service) reportWheelArtifacts(wheelOutputDirectory string) {
	directoryEntries, readError := os.ReadDir(wheelOutputDirectory)
	if readError != nil {
		fmt.Fprint(service.outputWriter, wheelOutputMissingWarningConstant)
		return
	}

	artifactNames := make([]string, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		artifactNames = append(artifactNames, directoryEntry.Name())
	}
	sort.Strings(artifactNames)

	fmt.Fprintf(service.outputWriter, artifactsGeneratedMessageTemplate, wheelOutputDirectory)
	for _, artifactName := range artifactNames {
		fmt.Fprintf(service.outputWriter, artifactEntryTemplateConstant, artifactName)
	}
}

// cleanDirectory removes and recreates a directory.
func cleanDirectory(directoryPath string) error {
	if removalError := os.RemoveAll(directoryPath); removalError != nil {
		return removalError
	}
	return os.MkdirAll(directoryPath, 0o755)
}
