package audit_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/novaeco-tech/novaeco-devtools/internal/audit"
)

func TestServiceStructureAuditAggregatesWorkspaceOutcomes(testInstance *testing.T) {
	workspaceRoot := testInstance.TempDir()
	repositoriesDirectory := filepath.Join(workspaceRoot, "repos")

	for _, repositoryName := range []string{"worker-one", "worker-two"} {
		repositoryRoot := filepath.Join(repositoriesDirectory, repositoryName)
		require.NoError(testInstance, os.MkdirAll(repositoryRoot, 0o755))
		for _, rulePath := range audit.StructureRules(audit.RepositoryTypeWorker) {
			createFixturePath(testInstance, repositoryRoot, rulePath)
		}
		createFixturePath(testInstance, repositoryRoot, "Dockerfile")
	}

	brokenRepositoryRoot := filepath.Join(repositoriesDirectory, "worker-broken")
	require.NoError(testInstance, os.MkdirAll(brokenRepositoryRoot, 0o755))
	createFixturePath(testInstance, brokenRepositoryRoot, "src")
	createFixturePath(testInstance, brokenRepositoryRoot, "Dockerfile")

	standardOutput := &bytes.Buffer{}
	errorOutput := &bytes.Buffer{}
	service := audit.NewService(nil, standardOutput, errorOutput)

	runError := service.RunStructureAudit(context.Background(), workspaceRoot, nil)

	var auditFailure audit.AuditFailedError
	require.ErrorAs(testInstance, runError, &auditFailure)
	require.Equal(testInstance, 1, auditFailure.FailedCount)
	require.Contains(testInstance, standardOutput.String(), "Summary: 2 passed, 1 failed")
	require.Contains(testInstance, standardOutput.String(), "Missing standard paths:")
	require.Contains(testInstance, standardOutput.String(), "requirements.txt")
}

func TestServiceStructureAuditSingleRepositorySuccess(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	for _, rulePath := range audit.StructureRules(audit.RepositoryTypeWorker) {
		createFixturePath(testInstance, repositoryRoot, rulePath)
	}
	createFixturePath(testInstance, repositoryRoot, "Dockerfile")

	standardOutput := &bytes.Buffer{}
	service := audit.NewService(nil, standardOutput, &bytes.Buffer{})

	runError := service.RunStructureAudit(context.Background(), repositoryRoot, nil)

	require.NoError(testInstance, runError)
	require.Contains(testInstance, standardOutput.String(), "Auditing worker repository structure")
	require.Contains(testInstance, standardOutput.String(), "Structure complies with ecosystem standards.")
	require.NotContains(testInstance, standardOutput.String(), "Summary:")
}

func TestServiceStructureAuditEmitsAuxiliaryWarningToErrorOutput(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	for _, rulePath := range audit.StructureRules(audit.RepositoryTypeSector) {
		createFixturePath(testInstance, repositoryRoot, rulePath)
	}

	standardOutput := &bytes.Buffer{}
	errorOutput := &bytes.Buffer{}
	service := audit.NewService(&stubTopicResolver{topics: []string{"sector"}}, standardOutput, errorOutput)

	runError := service.RunStructureAudit(context.Background(), repositoryRoot, nil)

	require.NoError(testInstance, runError)
	require.Contains(testInstance, errorOutput.String(), "Warning: api/requirements-internal.txt missing")
}

func TestServiceTraceabilityAuditRendersCoverageTable(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	documentContents := "## REQ-AGRO-FUNC-001: Irrigation control\n## REQ-AGRO-FUNC-002: Moisture sensing\n"
	writeFixtureFile(testInstance, repositoryRoot, "website/docs/requirements/functional.md", documentContents)
	writeFixtureFile(testInstance, repositoryRoot, "tests/integration/test_irrigation.py", "@verifies(\"REQ-AGRO-FUNC-001\")\ndef test_irrigation():\n    pass\n")

	standardOutput := &bytes.Buffer{}
	service := audit.NewService(nil, standardOutput, &bytes.Buffer{})

	runError := service.RunTraceabilityAudit(context.Background(), repositoryRoot, nil)

	var auditFailure audit.AuditFailedError
	require.ErrorAs(testInstance, runError, &auditFailure)
	require.Contains(testInstance, standardOutput.String(), "REQ-AGRO-FUNC-001 PASS")
	require.Contains(testInstance, standardOutput.String(), "REQ-AGRO-FUNC-002 MISSING")
	require.Contains(testInstance, standardOutput.String(), "Coverage: 1 passed, 1 missing")
}

func TestServiceTraceabilityAuditTruncatesVerificationFileDisplay(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeFixtureFile(testInstance, repositoryRoot, "website/docs/requirements/functional.md", "## REQ-AGRO-FUNC-001: Irrigation control\n")
	annotation := "@verifies(\"REQ-AGRO-FUNC-001\")\ndef test_case():\n    pass\n"
	writeFixtureFile(testInstance, repositoryRoot, "tests/test_alpha.py", annotation)
	writeFixtureFile(testInstance, repositoryRoot, "tests/test_beta.py", annotation)
	writeFixtureFile(testInstance, repositoryRoot, "tests/test_gamma.py", annotation)

	standardOutput := &bytes.Buffer{}
	service := audit.NewService(nil, standardOutput, &bytes.Buffer{})

	runError := service.RunTraceabilityAudit(context.Background(), repositoryRoot, nil)

	require.NoError(testInstance, runError)
	require.Contains(testInstance, standardOutput.String(), "tests/test_alpha.py, tests/test_beta.py, ...")
	require.NotContains(testInstance, standardOutput.String(), "test_gamma")
}

func TestServiceTraceabilityAuditVacuousSuccess(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()

	standardOutput := &bytes.Buffer{}
	service := audit.NewService(nil, standardOutput, &bytes.Buffer{})

	runError := service.RunTraceabilityAudit(context.Background(), repositoryRoot, nil)

	require.NoError(testInstance, runError)
	require.Contains(testInstance, standardOutput.String(), "No requirement definitions found; nothing to verify.")
}

func TestServiceStructureAuditReportsInvalidExplicitTarget(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()

	standardOutput := &bytes.Buffer{}
	errorOutput := &bytes.Buffer{}
	service := audit.NewService(nil, standardOutput, errorOutput)

	runError := service.RunStructureAudit(context.Background(), workingDirectory, []string{"missing-repository"})

	var auditFailure audit.AuditFailedError
	require.ErrorAs(testInstance, runError, &auditFailure)
	require.Contains(testInstance, errorOutput.String(), "target is not a directory")
}
