package buildartifacts_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/novaeco-tech/novaeco-devtools/internal/buildartifacts"
	"github.com/novaeco-tech/novaeco-devtools/internal/execshell"
)

const (
	testProtoDirectoryConstant        = "component/api/proto/v1"
	testProtoFileNameConstant         = "irrigation.proto"
	testGeneratedStubNameConstant     = "irrigation_pb2_grpc.py"
	testGeneratedStubContentsConstant = "import irrigation_pb2 as irrigation__pb2\n"
	testGlobalVersionConstant         = "3.2"
)

type stubBuildToolExecutor struct {
	protocDetails  []execshell.CommandDetails
	pythonDetails  []execshell.CommandDetails
	generateStubIn string
}

func (executor *stubBuildToolExecutor) ExecuteProtoc(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.protocDetails = append(executor.protocDetails, details)
	if len(executor.generateStubIn) > 0 {
		stubPath := filepath.Join(executor.generateStubIn, testGeneratedStubNameConstant)
		if writeError := os.WriteFile(stubPath, []byte(testGeneratedStubContentsConstant), 0o644); writeError != nil {
			return execshell.ExecutionResult{}, writeError
		}
	}
	return execshell.ExecutionResult{}, nil
}

func (executor *stubBuildToolExecutor) ExecutePython(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.pythonDetails = append(executor.pythonDetails, details)
	return execshell.ExecutionResult{}, nil
}

func createClientBuildFixture(testInstance *testing.T) string {
	testInstance.Helper()
	repositoryRoot := testInstance.TempDir()
	protoDirectory := filepath.Join(repositoryRoot, filepath.FromSlash(testProtoDirectoryConstant))
	require.NoError(testInstance, os.MkdirAll(protoDirectory, 0o755))
	require.NoError(testInstance, os.WriteFile(filepath.Join(protoDirectory, testProtoFileNameConstant), []byte("syntax = \"proto3\";\n"), 0o644))
	require.NoError(testInstance, os.WriteFile(filepath.Join(repositoryRoot, "GLOBAL_VERSION"), []byte(testGlobalVersionConstant+"\n"), 0o644))
	return repositoryRoot
}

func TestBuildClientCompilesAndPackagesSDK(testInstance *testing.T) {
	repositoryRoot := createClientBuildFixture(testInstance)
	packageDirectory := filepath.Join(repositoryRoot, "dist", "client", filepath.Base(repositoryRoot)+"_client")
	executor := &stubBuildToolExecutor{generateStubIn: packageDirectory}

	outputBuffer := &bytes.Buffer{}
	service := buildartifacts.NewService(executor, repositoryRoot, outputBuffer)

	require.NoError(testInstance, service.BuildClient(context.Background(), buildartifacts.ClientBuildOptions{}))

	require.Len(testInstance, executor.protocDetails, 1)
	compileArguments := executor.protocDetails[0].Arguments
	require.Contains(testInstance, compileArguments[0], "-I")
	require.Contains(testInstance, strings.Join(compileArguments, " "), "--python_out=")
	require.Contains(testInstance, strings.Join(compileArguments, " "), "--grpc_python_out=")
	require.Contains(testInstance, compileArguments[len(compileArguments)-1], testProtoFileNameConstant)

	rewrittenStub, readError := os.ReadFile(filepath.Join(packageDirectory, testGeneratedStubNameConstant))
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(rewrittenStub), "from . import irrigation_pb2")

	_, initStatError := os.Stat(filepath.Join(packageDirectory, "__init__.py"))
	require.NoError(testInstance, initStatError)

	setupContents, setupReadError := os.ReadFile(filepath.Join(repositoryRoot, "dist", "client", "setup.py"))
	require.NoError(testInstance, setupReadError)
	require.Contains(testInstance, string(setupContents), "version=\""+testGlobalVersionConstant+"\"")

	require.Len(testInstance, executor.pythonDetails, 1)
	require.Equal(testInstance, []string{"-m", "build", "--wheel"}, executor.pythonDetails[0].Arguments)
	require.Equal(testInstance, filepath.Join(repositoryRoot, "dist", "client"), executor.pythonDetails[0].WorkingDirectory)
}

func TestBuildClientUsesServiceNameOverride(testInstance *testing.T) {
	repositoryRoot := createClientBuildFixture(testInstance)
	executor := &stubBuildToolExecutor{}

	service := buildartifacts.NewService(executor, repositoryRoot, &bytes.Buffer{})
	require.NoError(testInstance, service.BuildClient(context.Background(), buildartifacts.ClientBuildOptions{ServiceName: "custom-auth"}))

	_, statError := os.Stat(filepath.Join(repositoryRoot, "dist", "client", "custom_auth_client"))
	require.NoError(testInstance, statError)

	setupContents, readError := os.ReadFile(filepath.Join(repositoryRoot, "dist", "client", "setup.py"))
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(setupContents), "name=\"custom-auth-client\"")
}

func TestBuildClientFallsBackToDevelopmentVersion(testInstance *testing.T) {
	repositoryRoot := createClientBuildFixture(testInstance)
	require.NoError(testInstance, os.Remove(filepath.Join(repositoryRoot, "GLOBAL_VERSION")))

	service := buildartifacts.NewService(&stubBuildToolExecutor{}, repositoryRoot, &bytes.Buffer{})
	require.NoError(testInstance, service.BuildClient(context.Background(), buildartifacts.ClientBuildOptions{}))

	setupContents, readError := os.ReadFile(filepath.Join(repositoryRoot, "dist", "client", "setup.py"))
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(setupContents), "version=\"0.0.1-dev\"")
}

func TestBuildClientRejectsEmptyProtoDirectory(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	require.NoError(testInstance, os.MkdirAll(filepath.Join(repositoryRoot, filepath.FromSlash(testProtoDirectoryConstant)), 0o755))

	service := buildartifacts.NewService(&stubBuildToolExecutor{}, repositoryRoot, &bytes.Buffer{})
	buildError := service.BuildClient(context.Background(), buildartifacts.ClientBuildOptions{})

	var noProtoError buildartifacts.NoProtoFilesError
	require.ErrorAs(testInstance, buildError, &noProtoError)
}
