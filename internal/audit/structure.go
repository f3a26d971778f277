package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// StructureAuditor checks a repository tree against the golden template for its archetype.
type StructureAuditor struct {
	classifier *Classifier
}

// NewStructureAuditor constructs a StructureAuditor using the provided classifier.
func NewStructureAuditor(classifier *Classifier) *StructureAuditor {
	return &StructureAuditor{classifier: classifier}
}

// AuditStructure classifies the repository at rootPath and reports every
// required path missing from it, in rule order.
func (auditor *StructureAuditor) AuditStructure(executionContext context.Context, rootPath string) (StructureAuditResult, error) {
	absoluteRoot, resolutionError := resolveDirectory(rootPath)
	if resolutionError != nil {
		return StructureAuditResult{}, resolutionError
	}

	repositoryType := auditor.classifier.Classify(executionContext, absoluteRoot)
	rules := StructureRules(repositoryType)

	missingPaths := make([]string, 0)
	for _, rulePath := range rules {
		if !pathExists(filepath.Join(absoluteRoot, rulePath)) {
			missingPaths = append(missingPaths, rulePath)
		}
	}

	warnings := make([]string, 0)
	if repositoryType != RepositoryTypeWorker && repositoryType != RepositoryTypeCore {
		if !pathExists(filepath.Join(absoluteRoot, auxiliaryRequirementsPathConstant)) {
			warnings = append(warnings, fmt.Sprintf(auxiliaryFileWarningTemplateConstant, auxiliaryRequirementsPathConstant))
		}
	}

	return StructureAuditResult{
		TargetPath:     absoluteRoot,
		RepositoryType: repositoryType,
		MissingPaths:   missingPaths,
		Warnings:       warnings,
		Passed:         len(missingPaths) == 0,
	}, nil
}

// resolveDirectory resolves a target to an absolute path and validates it is an existing directory.
func resolveDirectory(targetPath string) (string, error) {
	absolutePath, absoluteError := filepath.Abs(targetPath)
	if absoluteError != nil {
		return "", TargetNotDirectoryError{TargetPath: targetPath}
	}

	pathInformation, statError := os.Stat(absolutePath)
	if statError != nil || !pathInformation.IsDir() {
		return "", TargetNotDirectoryError{TargetPath: absolutePath}
	}

	return absolutePath, nil
}
