package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/novaeco-tech/novaeco-devtools/internal/execshell"
	"github.com/novaeco-tech/novaeco-devtools/internal/githubcli"
)

const (
	repositoriesDirectoryNameConstant = "repos"
	workspaceFileNameConstant         = "novaeco.code-workspace"
	uncategorizedBucketNameConstant   = "uncategorized"
	gitCloneSubcommandConstant        = "clone"
	workspaceFileIndentConstant       = "  "

	fetchingRepositoriesMessageTemplate  = "Fetching repository list from %s...\n"
	processingCategoryMessageTemplate    = "Processing category: %s\n"
	repositoryExistsMessageTemplate      = "  %s already exists (skipping)\n"
	removingRepositoryMessageTemplate    = "  Removing existing %s...\n"
	cloningRepositoryMessageTemplate     = "  Cloning %s...\n"
	workspaceGeneratedMessageTemplate    = "Generated workspace file: %s\n"
	setupCompleteMessageConstant         = "Development environment setup complete.\n"
	openWorkspaceHintMessageTemplate     = "Run: code %s\n"
	repositoryListErrorTemplateConstant  = "listing repositories for %s: %w"
	repositoryCloneErrorTemplateConstant = "cloning %s: %w"
)

// topicPriority orders workspace categories; a repository joins the first
// bucket whose topic it carries.
var topicPriority = []string{
	"meta",
	"ecosystem",
	"enabler",
	"sector",
	"worker",
	"product",
}

// RepositoryLister enumerates the active repositories of an organization.
// CheckInstallation runs before any listing so a missing gh binary surfaces
// as an install hint instead of a failed list call.
type RepositoryLister interface {
	CheckInstallation(executionContext context.Context) error
	ListOrganizationRepositories(executionContext context.Context, organization string) ([]githubcli.OrganizationRepository, error)
}

// GitExecutor exposes the git operations required for cloning.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ProvisionOptions captures the configurable parameters for workspace provisioning.
type ProvisionOptions struct {
	Organization  string
	ForceReclone  bool
	SkipWorkspace bool
}

// Service clones organization repositories and generates the workspace file.
type Service struct {
	repositoryLister RepositoryLister
	gitExecutor      GitExecutor
	workingDirectory string
	outputWriter     io.Writer
}

// NewService constructs a workspace Service.
func NewService(repositoryLister RepositoryLister, gitExecutor GitExecutor, workingDirectory string, outputWriter io.Writer) *Service {
	return &Service{
		repositoryLister: repositoryLister,
		gitExecutor:      gitExecutor,
		workingDirectory: workingDirectory,
		outputWriter:     outputWriter,
	}
}

// Provision fetches the organization's repositories, clones them into the
// repos directory grouped by topic category, and writes the workspace file.
func (service *Service) Provision(executionContext context.Context, options ProvisionOptions) error {
	if installationError := service.repositoryLister.CheckInstallation(executionContext); installationError != nil {
		return installationError
	}

	fmt.Fprintf(service.outputWriter, fetchingRepositoriesMessageTemplate, options.Organization)

	repositories, listError := service.repositoryLister.ListOrganizationRepositories(executionContext, options.Organization)
	if listError != nil {
		return fmt.Errorf(repositoryListErrorTemplateConstant, options.Organization, listError)
	}

	categorized := categorizeRepositories(repositories)

	if cloneError := service.cloneRepositories(executionContext, categorized, options.ForceReclone); cloneError != nil {
		return cloneError
	}

	if options.SkipWorkspace {
		return nil
	}

	workspaceFilePath, generationError := service.generateWorkspaceFile(categorized)
	if generationError != nil {
		return generationError
	}

	fmt.Fprintf(service.outputWriter, workspaceGeneratedMessageTemplate, workspaceFilePath)
	fmt.Fprint(service.outputWriter, setupCompleteMessageConstant)
	fmt.Fprintf(service.outputWriter, openWorkspaceHintMessageTemplate, workspaceFileNameConstant)
	return nil
}

// categorizedRepositories maps category names to their member repositories.
type categorizedRepositories map[string][]githubcli.OrganizationRepository

// categorizeRepositories assigns each repository to the first priority topic
// it carries, collecting the rest under the uncategorized bucket.
func categorizeRepositories(repositories []githubcli.OrganizationRepository) categorizedRepositories {
	categorized := make(categorizedRepositories)
	for _, repository := range repositories {
		categorized[categoryFor(repository)] = append(categorized[categoryFor(repository)], repository)
	}
	for categoryName := range categorized {
		sortRepositoriesByName(categorized[categoryName])
	}
	return categorized
}

func categoryFor(repository githubcli.OrganizationRepository) string {
	for _, topicName := range topicPriority {
		for _, repositoryTopic := range repository.Topics {
			if repositoryTopic == topicName {
				return topicName
			}
		}
	}
	return uncategorizedBucketNameConstant
}

func sortRepositoriesByName(repositories []githubcli.OrganizationRepository) {
	sort.Slice(repositories, func(firstIndex int, secondIndex int) bool {
		return repositories[firstIndex].Name < repositories[secondIndex].Name
	})
}

func (service *Service) cloneRepositories(executionContext context.Context, categorized categorizedRepositories, forceReclone bool) error {
	repositoriesDirectory := filepath.Join(service.workingDirectory, repositoriesDirectoryNameConstant)
	if directoryError := os.MkdirAll(repositoriesDirectory, 0o755); directoryError != nil {
		return directoryError
	}

	for _, categoryName := range orderedCategories() {
		categoryRepositories := categorized[categoryName]
		if len(categoryRepositories) == 0 {
			continue
		}

		fmt.Fprintf(service.outputWriter, processingCategoryMessageTemplate, strings.ToUpper(categoryName))

		for _, repository := range categoryRepositories {
			localPath := filepath.Join(repositoriesDirectory, repository.Name)

			if pathExists(localPath) {
				if !forceReclone {
					fmt.Fprintf(service.outputWriter, repositoryExistsMessageTemplate, repository.Name)
					continue
				}
				fmt.Fprintf(service.outputWriter, removingRepositoryMessageTemplate, repository.Name)
				if removalError := os.RemoveAll(localPath); removalError != nil {
					return removalError
				}
			}

			fmt.Fprintf(service.outputWriter, cloningRepositoryMessageTemplate, repository.Name)
			cloneDetails := execshell.CommandDetails{Arguments: []string{gitCloneSubcommandConstant, repository.SSHURL, localPath}}
			if _, cloneError := service.gitExecutor.ExecuteGit(executionContext, cloneDetails); cloneError != nil {
				return fmt.Errorf(repositoryCloneErrorTemplateConstant, repository.Name, cloneError)
			}
		}
	}

	return nil
}

type workspaceFolder struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type workspaceDocument struct {
	Folders  []workspaceFolder `json:"folders"`
	Settings map[string]any    `json:"settings"`
}

// generateWorkspaceFile writes the editor workspace file with folders ordered
// by category priority and alphabetically within each category.
func (service *Service) generateWorkspaceFile(categorized categorizedRepositories) (string, error) {
	folders := make([]workspaceFolder, 0)
	for _, categoryName := range orderedCategories() {
		for _, repository := range categorized[categoryName] {
			folders = append(folders, workspaceFolder{
				Name: repository.Name,
				Path: fmt.Sprintf("%s/%s", repositoriesDirectoryNameConstant, repository.Name),
			})
		}
	}

	document := workspaceDocument{
		Folders: folders,
		Settings: map[string]any{
			"files.exclude": map[string]bool{
				"**/.git":         true,
				"**/.svn":         true,
				"**/.hg":          true,
				"**/CVS":          true,
				"**/.DS_Store":    true,
				"**/Thumbs.db":    true,
				"**/node_modules": true,
				"**/__pycache__":  true,
				"**/.venv":        true,
			},
			"explorer.compactFolders": false,
		},
	}

	encodedDocument, encodeError := json.MarshalIndent(document, "", workspaceFileIndentConstant)
	if encodeError != nil {
		return "", encodeError
	}
	encodedDocument = append(encodedDocument, '\n')

	workspaceFilePath := filepath.Join(service.workingDirectory, workspaceFileNameConstant)
	if writeError := os.WriteFile(workspaceFilePath, encodedDocument, 0o644); writeError != nil {
		return "", writeError
	}

	return workspaceFilePath, nil
}

func orderedCategories() []string {
	return append(append([]string{}, topicPriority...), uncategorizedBucketNameConstant)
}

func pathExists(candidatePath string) bool {
	_, statError := os.Stat(candidatePath)
	return statError == nil
}
