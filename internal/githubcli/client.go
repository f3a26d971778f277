package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/novaeco-tech/novaeco-devtools/internal/execshell"
)

const (
	repoSubcommandConstant                   = "repo"
	viewSubcommandConstant                   = "view"
	listSubcommandConstant                   = "list"
	jsonFlagConstant                         = "--json"
	limitFlagConstant                        = "--limit"
	noArchivedFlagConstant                   = "--no-archived"
	versionFlagConstant                      = "--version"
	cliUnavailableMessageConstant            = "GitHub CLI (gh) not found. Please install it: https://cli.github.com/"
	organizationFieldNameConstant            = "organization"
	directoryFieldNameConstant               = "directory"
	requiredValueMessageConstant             = "value required"
	executorNotConfiguredMessageConstant     = "github cli executor not configured"
	repositoryListLimitConstant              = 1000
	repositoryTopicsJSONFieldConstant        = "repositoryTopics"
	repositoryListJSONFieldsConstant         = "name,sshUrl,repositoryTopics"
	operationErrorMessageTemplateConstant    = "%s operation failed"
	operationErrorWithCauseTemplateConstant  = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant    = "%s response decoding failed: %s"
	invalidInputErrorTemplateConstant        = "%s: %s"
	repositoryTopicsOperationNameConstant    = OperationName("ResolveRepositoryTopics")
	listOrgRepositoriesOperationNameConstant = OperationName("ListOrganizationRepositories")
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// OrganizationRepository contains the repository details consumed by workspace provisioning.
type OrganizationRepository struct {
	Name   string
	SSHURL string
	Topics []string
}

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor GitHubCommandExecutor
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// CLIUnavailableError reports that the gh binary could not be invoked at all.
type CLIUnavailableError struct {
	Cause error
}

// Error describes the missing binary and how to obtain it.
func (unavailableError CLIUnavailableError) Error() string {
	return cliUnavailableMessageConstant
}

// Unwrap exposes the underlying invocation error.
func (unavailableError CLIUnavailableError) Unwrap() error {
	return unavailableError.Cause
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// NewClient constructs a GitHub CLI client.
func NewClient(executor GitHubCommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

// CheckInstallation confirms the gh binary can be invoked by running gh --version.
func (client *Client) CheckInstallation(executionContext context.Context) error {
	commandDetails := execshell.CommandDetails{Arguments: []string{versionFlagConstant}}
	if _, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails); executionError != nil {
		return CLIUnavailableError{Cause: executionError}
	}
	return nil
}

// ResolveRepositoryTopics retrieves the topic labels of the repository checked out at the provided directory.
func (client *Client) ResolveRepositoryTopics(executionContext context.Context, repositoryDirectory string) ([]string, error) {
	trimmedDirectory := strings.TrimSpace(repositoryDirectory)
	if len(trimmedDirectory) == 0 {
		return nil, InvalidInputError{FieldName: directoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			repoSubcommandConstant,
			viewSubcommandConstant,
			jsonFlagConstant,
			repositoryTopicsJSONFieldConstant,
		},
		WorkingDirectory: trimmedDirectory,
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return nil, OperationError{Operation: repositoryTopicsOperationNameConstant, Cause: executionError}
	}

	var response struct {
		RepositoryTopics []struct {
			Name string `json:"name"`
		} `json:"repositoryTopics"`
	}

	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return nil, ResponseDecodingError{Operation: repositoryTopicsOperationNameConstant, Cause: decodingError}
	}

	topics := make([]string, 0, len(response.RepositoryTopics))
	for _, topicEntry := range response.RepositoryTopics {
		topics = append(topics, topicEntry.Name)
	}

	return topics, nil
}

// ListOrganizationRepositories enumerates active repositories of an organization using gh repo list.
func (client *Client) ListOrganizationRepositories(executionContext context.Context, organization string) ([]OrganizationRepository, error) {
	trimmedOrganization := strings.TrimSpace(organization)
	if len(trimmedOrganization) == 0 {
		return nil, InvalidInputError{FieldName: organizationFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			repoSubcommandConstant,
			listSubcommandConstant,
			trimmedOrganization,
			limitFlagConstant,
			strconv.Itoa(repositoryListLimitConstant),
			jsonFlagConstant,
			repositoryListJSONFieldsConstant,
			noArchivedFlagConstant,
		},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return nil, OperationError{Operation: listOrgRepositoriesOperationNameConstant, Cause: executionError}
	}

	var response []struct {
		Name             string `json:"name"`
		SSHURL           string `json:"sshUrl"`
		RepositoryTopics []struct {
			Name string `json:"name"`
		} `json:"repositoryTopics"`
	}

	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return nil, ResponseDecodingError{Operation: listOrgRepositoriesOperationNameConstant, Cause: decodingError}
	}

	repositories := make([]OrganizationRepository, 0, len(response))
	for _, repositoryEntry := range response {
		topics := make([]string, 0, len(repositoryEntry.RepositoryTopics))
		for _, topicEntry := range repositoryEntry.RepositoryTopics {
			topics = append(topics, topicEntry.Name)
		}
		repositories = append(repositories, OrganizationRepository{
			Name:   repositoryEntry.Name,
			SSHURL: repositoryEntry.SSHURL,
			Topics: topics,
		})
	}

	return repositories, nil
}
