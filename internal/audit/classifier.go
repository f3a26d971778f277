package audit

import (
	"context"
	"os"
	"path/filepath"
)

const (
	authDirectoryNameConstant = "auth"
	apiDirectoryNameConstant  = "api"
	websiteDirectoryName      = "website"
	sourceDirectoryName       = "src"
	dockerfileNameConstant    = "Dockerfile"
)

// TopicResolver looks up repository topic labels from the hosting provider.
type TopicResolver interface {
	ResolveRepositoryTopics(executionContext context.Context, repositoryDirectory string) ([]string, error)
}

// Classifier determines the archetype of a repository rooted at a directory.
// Topic metadata is authoritative when available; filesystem heuristics cover
// the rest, and the sector archetype is the guaranteed default.
type Classifier struct {
	topicResolver TopicResolver
}

// NewClassifier constructs a Classifier. The topic resolver may be nil, in
// which case only the filesystem heuristics apply.
func NewClassifier(topicResolver TopicResolver) *Classifier {
	return &Classifier{topicResolver: topicResolver}
}

type classificationStrategy func(executionContext context.Context, rootPath string) (RepositoryType, bool)

// Classify resolves the repository archetype. Classification never fails:
// every strategy degrades silently and the final default always resolves.
func (classifier *Classifier) Classify(executionContext context.Context, rootPath string) RepositoryType {
	strategies := []classificationStrategy{
		classifier.classifyFromTopics,
		classifier.classifyFromLayout,
	}

	for _, strategy := range strategies {
		if repositoryType, resolved := strategy(executionContext, rootPath); resolved {
			return repositoryType
		}
	}

	return RepositoryTypeSector
}

func (classifier *Classifier) classifyFromTopics(executionContext context.Context, rootPath string) (RepositoryType, bool) {
	if classifier.topicResolver == nil {
		return "", false
	}

	topics, resolutionError := classifier.topicResolver.ResolveRepositoryTopics(executionContext, rootPath)
	if resolutionError != nil {
		return "", false
	}

	for _, topicLabel := range topics {
		if repositoryType, recognized := ParseRepositoryType(topicLabel); recognized {
			return repositoryType, true
		}
	}

	return "", false
}

func (classifier *Classifier) classifyFromLayout(_ context.Context, rootPath string) (RepositoryType, bool) {
	authExists := pathExists(filepath.Join(rootPath, authDirectoryNameConstant))
	apiExists := pathExists(filepath.Join(rootPath, apiDirectoryNameConstant))
	websiteExists := pathExists(filepath.Join(rootPath, websiteDirectoryName))
	sourceExists := pathExists(filepath.Join(rootPath, sourceDirectoryName))
	dockerfileExists := pathExists(filepath.Join(rootPath, dockerfileNameConstant))

	switch {
	case authExists && apiExists:
		return RepositoryTypeCore, true
	case apiExists && websiteExists:
		return RepositoryTypeSector, true
	case sourceExists && dockerfileExists && !apiExists:
		return RepositoryTypeWorker, true
	default:
		return "", false
	}
}

func pathExists(candidatePath string) bool {
	_, statError := os.Stat(candidatePath)
	return statError == nil
}
