package audit

import "fmt"

// RepositoryType enumerates the repository archetypes recognized by the auditor.
type RepositoryType string

// Repository archetypes managed across the ecosystem.
const (
	RepositoryTypeCore    RepositoryType = "core"
	RepositoryTypeEnabler RepositoryType = "enabler"
	RepositoryTypeSector  RepositoryType = "sector"
	RepositoryTypeProduct RepositoryType = "product"
	RepositoryTypeWorker  RepositoryType = "worker"
)

// CoverageStatus reports whether a documented requirement is verified by tests.
type CoverageStatus string

// Supported coverage statuses.
const (
	CoverageStatusPass    CoverageStatus = "PASS"
	CoverageStatusMissing CoverageStatus = "MISSING"
)

// StructureAuditResult captures the outcome of auditing one repository against its golden template.
type StructureAuditResult struct {
	TargetPath     string
	RepositoryType RepositoryType
	MissingPaths   []string
	Warnings       []string
	Passed         bool
}

// TraceabilityRow cross-references one documented requirement with its verifying test files.
type TraceabilityRow struct {
	Identifier        string
	Status            CoverageStatus
	DefinitionFile    string
	VerificationFiles []string
}

// TraceabilityReport aggregates requirement coverage for one repository.
type TraceabilityReport struct {
	TargetPath   string
	Rows         []TraceabilityRow
	PassedCount  int
	MissingCount int
	Passed       bool
}

// DispatchSummary tallies audit outcomes across dispatched targets.
type DispatchSummary struct {
	PassedCount int
	FailedCount int
}

// Passed reports whether every dispatched target passed its audit.
func (summary DispatchSummary) Passed() bool {
	return summary.FailedCount == 0
}

// TargetNotDirectoryError reports an audit target that does not resolve to an existing directory.
type TargetNotDirectoryError struct {
	TargetPath string
}

// Error describes the invalid target.
func (targetError TargetNotDirectoryError) Error() string {
	return fmt.Sprintf(targetNotDirectoryMessageTemplateConstant, targetError.TargetPath)
}

// AuditFailedError reports dispatched targets that did not pass.
type AuditFailedError struct {
	FailedCount int
}

// Error describes how many targets failed.
func (auditError AuditFailedError) Error() string {
	return fmt.Sprintf(auditFailedMessageTemplateConstant, auditError.FailedCount)
}
