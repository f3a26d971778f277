package audit

import (
	"context"
	"fmt"
	"io"
	"strings"
)

const (
	targetNotDirectoryMessageTemplateConstant = "target is not a directory: %s"
	auditFailedMessageTemplateConstant        = "audit failed for %d target(s)"
	auxiliaryFileWarningTemplateConstant      = "%s missing; dependency graph tooling may fail"
	targetAuditErrorTemplateConstant          = "audit error for %s: %v\n"

	structureAuditHeaderTemplateConstant    = "Auditing %s repository structure at %s\n"
	structureMissingPathsHeaderConstant     = "Missing standard paths:\n"
	structureMissingPathTemplateConstant    = "   - %s\n"
	structureCompliantMessageConstant       = "Structure complies with ecosystem standards.\n"
	structureWarningTemplateConstant        = "Warning: %s\n"
	traceabilityHeaderTemplateConstant      = "Requirement traceability for %s\n"
	traceabilityPassRowTemplateConstant     = "%s %s %s verified by %s\n"
	traceabilityMissingRowTemplateConstant  = "%s %s %s\n"
	traceabilityEmptyMessageConstant        = "No requirement definitions found; nothing to verify.\n"
	traceabilityCoverageTemplateConstant    = "Coverage: %d passed, %d missing\n"
	dispatchSummaryTemplateConstant         = "Summary: %d passed, %d failed\n"
	verificationFileSeparatorConstant       = ", "
	verificationTruncationMarkerConstant    = "..."
	displayedVerificationFilesLimitConstant = 2
)

// Service runs structure and traceability audits across dispatched targets
// and renders their outcomes.
type Service struct {
	structureAuditor   *StructureAuditor
	requirementScanner *RequirementScanner
	outputWriter       io.Writer
	errorWriter        io.Writer
}

// NewService constructs a Service. The topic resolver may be nil, leaving
// classification to filesystem heuristics alone.
func NewService(topicResolver TopicResolver, outputWriter io.Writer, errorWriter io.Writer) *Service {
	classifier := NewClassifier(topicResolver)
	return &Service{
		structureAuditor:   NewStructureAuditor(classifier),
		requirementScanner: NewRequirementScanner(),
		outputWriter:       outputWriter,
		errorWriter:        errorWriter,
	}
}

// RunStructureAudit audits the structure of every dispatched target and
// returns an AuditFailedError when any target fails.
func (service *Service) RunStructureAudit(executionContext context.Context, workingDirectory string, targets []string) error {
	dispatcher := NewDispatcher(workingDirectory, service.errorWriter)
	summary := dispatcher.Dispatch(executionContext, targets, service.auditStructureTarget)
	return service.finalizeSummary(summary)
}

// RunTraceabilityAudit builds the traceability matrix for every dispatched
// target and returns an AuditFailedError when any target reports missing coverage.
func (service *Service) RunTraceabilityAudit(executionContext context.Context, workingDirectory string, targets []string) error {
	dispatcher := NewDispatcher(workingDirectory, service.errorWriter)
	summary := dispatcher.Dispatch(executionContext, targets, service.auditTraceabilityTarget)
	return service.finalizeSummary(summary)
}

func (service *Service) auditStructureTarget(executionContext context.Context, targetPath string) (bool, error) {
	auditResult, auditError := service.structureAuditor.AuditStructure(executionContext, targetPath)
	if auditError != nil {
		return false, auditError
	}

	fmt.Fprintf(service.outputWriter, structureAuditHeaderTemplateConstant, auditResult.RepositoryType, auditResult.TargetPath)

	for _, warningMessage := range auditResult.Warnings {
		fmt.Fprintf(service.errorWriter, structureWarningTemplateConstant, warningMessage)
	}

	if len(auditResult.MissingPaths) > 0 {
		fmt.Fprint(service.outputWriter, structureMissingPathsHeaderConstant)
		for _, missingPath := range auditResult.MissingPaths {
			fmt.Fprintf(service.outputWriter, structureMissingPathTemplateConstant, missingPath)
		}
		return false, nil
	}

	fmt.Fprint(service.outputWriter, structureCompliantMessageConstant)
	return true, nil
}

func (service *Service) auditTraceabilityTarget(executionContext context.Context, targetPath string) (bool, error) {
	traceabilityReport, auditError := service.requirementScanner.AuditTraceability(executionContext, targetPath)
	if auditError != nil {
		return false, auditError
	}

	fmt.Fprintf(service.outputWriter, traceabilityHeaderTemplateConstant, traceabilityReport.TargetPath)

	if len(traceabilityReport.Rows) == 0 {
		fmt.Fprint(service.outputWriter, traceabilityEmptyMessageConstant)
		return true, nil
	}

	for _, traceabilityRow := range traceabilityReport.Rows {
		if traceabilityRow.Status == CoverageStatusPass {
			fmt.Fprintf(
				service.outputWriter,
				traceabilityPassRowTemplateConstant,
				traceabilityRow.Identifier,
				traceabilityRow.Status,
				traceabilityRow.DefinitionFile,
				formatVerificationFiles(traceabilityRow.VerificationFiles),
			)
			continue
		}
		fmt.Fprintf(
			service.outputWriter,
			traceabilityMissingRowTemplateConstant,
			traceabilityRow.Identifier,
			traceabilityRow.Status,
			traceabilityRow.DefinitionFile,
		)
	}

	fmt.Fprintf(service.outputWriter, traceabilityCoverageTemplateConstant, traceabilityReport.PassedCount, traceabilityReport.MissingCount)
	return traceabilityReport.Passed, nil
}

func (service *Service) finalizeSummary(summary DispatchSummary) error {
	if summary.PassedCount+summary.FailedCount > 1 {
		fmt.Fprintf(service.outputWriter, dispatchSummaryTemplateConstant, summary.PassedCount, summary.FailedCount)
	}
	if !summary.Passed() {
		return AuditFailedError{FailedCount: summary.FailedCount}
	}
	return nil
}

// formatVerificationFiles renders a verification file list, truncating the
// display after the first two entries.
func formatVerificationFiles(verificationFiles []string) string {
	if len(verificationFiles) <= displayedVerificationFilesLimitConstant {
		return strings.Join(verificationFiles, verificationFileSeparatorConstant)
	}
	displayedFiles := append([]string{}, verificationFiles[:displayedVerificationFilesLimitConstant]...)
	displayedFiles = append(displayedFiles, verificationTruncationMarkerConstant)
	return strings.Join(displayedFiles, verificationFileSeparatorConstant)
}
