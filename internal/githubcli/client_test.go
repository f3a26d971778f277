package githubcli_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/novaeco-tech/novaeco-devtools/internal/execshell"
	"github.com/novaeco-tech/novaeco-devtools/internal/githubcli"
)

const (
	testRepositoryDirectoryConstant        = "/workspace/repos/novaeco-platform"
	testOrganizationNameConstant           = "novaeco-tech"
	testTopicsResponseConstant             = `{"repositoryTopics":[{"name":"sector"},{"name":"ecosystem"}]}`
	testEmptyTopicsResponseConstant        = `{"repositoryTopics":[]}`
	testRepositoryListResponseConstant     = `[{"name":"novaeco-platform","sshUrl":"git@github.com:novaeco-tech/novaeco-platform.git","repositoryTopics":[{"name":"sector"}]},{"name":"novaeco-meta","sshUrl":"git@github.com:novaeco-tech/novaeco-meta.git","repositoryTopics":[]}]`
	testMalformedResponseConstant          = "{not-json"
	testExecutionFailureMessageConstant    = "command failed"
	testWhitespaceOnlyInputConstant        = "   "
	testTopicsSuccessCaseNameConstant      = "topics_success"
	testTopicsEmptyCaseNameConstant        = "topics_empty"
	testTopicsDecodeFailureCaseName        = "topics_decode_failure"
	testTopicsExecutionFailureCaseName     = "topics_execution_failure"
	testListSuccessCaseNameConstant        = "list_success"
	testListDecodeFailureCaseNameConstant  = "list_decode_failure"
	testListExecutionFailureCaseName       = "list_execution_failure"
	testMissingExecutorCaseNameConstant    = "missing_executor"
	testConfiguredExecutorCaseNameConstant = "configured_executor"
)

type stubGitHubCommandExecutor struct {
	recordedDetails execshell.CommandDetails
	result          execshell.ExecutionResult
	executionError  error
}

func (executor *stubGitHubCommandExecutor) ExecuteGitHubCLI(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedDetails = details
	return executor.result, executor.executionError
}

func TestNewClientValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		executor      githubcli.GitHubCommandExecutor
		expectedError error
	}{
		{
			name:          testMissingExecutorCaseNameConstant,
			executor:      nil,
			expectedError: githubcli.ErrExecutorNotConfigured,
		},
		{
			name:          testConfiguredExecutorCaseNameConstant,
			executor:      &stubGitHubCommandExecutor{},
			expectedError: nil,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client, constructionError := githubcli.NewClient(testCase.executor)
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, constructionError, testCase.expectedError)
				require.Nil(testInstance, client)
				return
			}
			require.NoError(testInstance, constructionError)
			require.NotNil(testInstance, client)
		})
	}
}

func TestCheckInstallation(testInstance *testing.T) {
	testCases := []struct {
		name              string
		executor          *stubGitHubCommandExecutor
		expectUnavailable bool
	}{
		{
			name:     "binary_present",
			executor: &stubGitHubCommandExecutor{result: execshell.ExecutionResult{StandardOutput: "gh version 2.52.0"}},
		},
		{
			name:              "binary_missing",
			executor:          &stubGitHubCommandExecutor{executionError: errors.New(testExecutionFailureMessageConstant)},
			expectUnavailable: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client, constructionError := githubcli.NewClient(testCase.executor)
			require.NoError(testInstance, constructionError)

			installationError := client.CheckInstallation(context.Background())

			require.Equal(testInstance, []string{"--version"}, testCase.executor.recordedDetails.Arguments)
			if testCase.expectUnavailable {
				var unavailableError githubcli.CLIUnavailableError
				require.ErrorAs(testInstance, installationError, &unavailableError)
				require.Contains(testInstance, installationError.Error(), "https://cli.github.com/")
				require.ErrorContains(testInstance, unavailableError.Unwrap(), testExecutionFailureMessageConstant)
				return
			}
			require.NoError(testInstance, installationError)
		})
	}
}

func TestResolveRepositoryTopics(testInstance *testing.T) {
	testCases := []struct {
		name                string
		repositoryDirectory string
		executor            *stubGitHubCommandExecutor
		expectedTopics      []string
		expectInvalidInput  bool
		expectOperationErr  bool
		expectDecodingErr   bool
	}{
		{
			name:                testTopicsSuccessCaseNameConstant,
			repositoryDirectory: testRepositoryDirectoryConstant,
			executor:            &stubGitHubCommandExecutor{result: execshell.ExecutionResult{StandardOutput: testTopicsResponseConstant}},
			expectedTopics:      []string{"sector", "ecosystem"},
		},
		{
			name:                testTopicsEmptyCaseNameConstant,
			repositoryDirectory: testRepositoryDirectoryConstant,
			executor:            &stubGitHubCommandExecutor{result: execshell.ExecutionResult{StandardOutput: testEmptyTopicsResponseConstant}},
			expectedTopics:      []string{},
		},
		{
			name:                testTopicsDecodeFailureCaseName,
			repositoryDirectory: testRepositoryDirectoryConstant,
			executor:            &stubGitHubCommandExecutor{result: execshell.ExecutionResult{StandardOutput: testMalformedResponseConstant}},
			expectDecodingErr:   true,
		},
		{
			name:                testTopicsExecutionFailureCaseName,
			repositoryDirectory: testRepositoryDirectoryConstant,
			executor:            &stubGitHubCommandExecutor{executionError: errors.New(testExecutionFailureMessageConstant)},
			expectOperationErr:  true,
		},
		{
			name:                "missing_directory",
			repositoryDirectory: testWhitespaceOnlyInputConstant,
			executor:            &stubGitHubCommandExecutor{},
			expectInvalidInput:  true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client, constructionError := githubcli.NewClient(testCase.executor)
			require.NoError(testInstance, constructionError)

			topics, resolutionError := client.ResolveRepositoryTopics(context.Background(), testCase.repositoryDirectory)

			switch {
			case testCase.expectInvalidInput:
				var invalidInputError githubcli.InvalidInputError
				require.ErrorAs(testInstance, resolutionError, &invalidInputError)
			case testCase.expectOperationErr:
				var operationError githubcli.OperationError
				require.ErrorAs(testInstance, resolutionError, &operationError)
			case testCase.expectDecodingErr:
				var decodingError githubcli.ResponseDecodingError
				require.ErrorAs(testInstance, resolutionError, &decodingError)
			default:
				require.NoError(testInstance, resolutionError)
				require.Equal(testInstance, testCase.expectedTopics, topics)
				require.Equal(testInstance, testRepositoryDirectoryConstant, testCase.executor.recordedDetails.WorkingDirectory)
				require.Equal(testInstance, []string{"repo", "view", "--json", "repositoryTopics"}, testCase.executor.recordedDetails.Arguments)
			}
		})
	}
}

func TestListOrganizationRepositories(testInstance *testing.T) {
	testCases := []struct {
		name                 string
		organization         string
		executor             *stubGitHubCommandExecutor
		expectedRepositories []githubcli.OrganizationRepository
		expectInvalidInput   bool
		expectOperationErr   bool
		expectDecodingErr    bool
	}{
		{
			name:         testListSuccessCaseNameConstant,
			organization: testOrganizationNameConstant,
			executor:     &stubGitHubCommandExecutor{result: execshell.ExecutionResult{StandardOutput: testRepositoryListResponseConstant}},
			expectedRepositories: []githubcli.OrganizationRepository{
				{
					Name:   "novaeco-platform",
					SSHURL: "git@github.com:novaeco-tech/novaeco-platform.git",
					Topics: []string{"sector"},
				},
				{
					Name:   "novaeco-meta",
					SSHURL: "git@github.com:novaeco-tech/novaeco-meta.git",
					Topics: []string{},
				},
			},
		},
		{
			name:              testListDecodeFailureCaseNameConstant,
			organization:      testOrganizationNameConstant,
			executor:          &stubGitHubCommandExecutor{result: execshell.ExecutionResult{StandardOutput: testMalformedResponseConstant}},
			expectDecodingErr: true,
		},
		{
			name:               testListExecutionFailureCaseName,
			organization:       testOrganizationNameConstant,
			executor:           &stubGitHubCommandExecutor{executionError: errors.New(testExecutionFailureMessageConstant)},
			expectOperationErr: true,
		},
		{
			name:               "missing_organization",
			organization:       testWhitespaceOnlyInputConstant,
			executor:           &stubGitHubCommandExecutor{},
			expectInvalidInput: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client, constructionError := githubcli.NewClient(testCase.executor)
			require.NoError(testInstance, constructionError)

			repositories, listError := client.ListOrganizationRepositories(context.Background(), testCase.organization)

			switch {
			case testCase.expectInvalidInput:
				var invalidInputError githubcli.InvalidInputError
				require.ErrorAs(testInstance, listError, &invalidInputError)
			case testCase.expectOperationErr:
				var operationError githubcli.OperationError
				require.ErrorAs(testInstance, listError, &operationError)
			case testCase.expectDecodingErr:
				var decodingError githubcli.ResponseDecodingError
				require.ErrorAs(testInstance, listError, &decodingError)
			default:
				require.NoError(testInstance, listError)
				require.Equal(testInstance, testCase.expectedRepositories, repositories)
				require.Equal(testInstance, []string{
					"repo",
					"list",
					testOrganizationNameConstant,
					"--limit",
					"1000",
					"--json",
					"name,sshUrl,repositoryTopics",
					"--no-archived",
				}, testCase.executor.recordedDetails.Arguments)
			}
		})
	}
}
