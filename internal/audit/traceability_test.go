package audit_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/novaeco-tech/novaeco-devtools/internal/audit"
)

const (
	testRequirementIdentifierConstant       = "REQ-AGRO-FUNC-001"
	testSecondRequirementIdentifierConstant = "REQ-AGRO-FUNC-002"
	testFunctionalDocumentPathConstant      = "website/docs/requirements/functional.md"
	testFallbackDocumentPathConstant        = "docs/overview.md"
	testVerifyingTestPathConstant           = "tests/integration/test_irrigation.py"
	testRequirementHeadingLineConstant      = "## REQ-AGRO-FUNC-001: Irrigation control"
	testVerifyingAnnotationConstant         = "@verifies(\"REQ-AGRO-FUNC-001\")\ndef test_irrigation_control():\n    pass\n"
)

func writeFixtureFile(testInstance *testing.T, fixtureRoot string, relativePath string, contents string) {
	testInstance.Helper()
	absolutePath := filepath.Join(fixtureRoot, filepath.FromSlash(relativePath))
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(absolutePath), 0o755))
	require.NoError(testInstance, os.WriteFile(absolutePath, []byte(contents), 0o644))
}

func TestAuditTraceabilityVerifiedRequirementPasses(testInstance *testing.T) {
	fixtureRoot := testInstance.TempDir()
	writeFixtureFile(testInstance, fixtureRoot, testFunctionalDocumentPathConstant, testRequirementHeadingLineConstant+"\n")
	writeFixtureFile(testInstance, fixtureRoot, testVerifyingTestPathConstant, testVerifyingAnnotationConstant)

	scanner := audit.NewRequirementScanner()
	traceabilityReport, auditError := scanner.AuditTraceability(context.Background(), fixtureRoot)

	require.NoError(testInstance, auditError)
	require.Len(testInstance, traceabilityReport.Rows, 1)
	require.Equal(testInstance, testRequirementIdentifierConstant, traceabilityReport.Rows[0].Identifier)
	require.Equal(testInstance, audit.CoverageStatusPass, traceabilityReport.Rows[0].Status)
	require.Equal(testInstance, testFunctionalDocumentPathConstant, traceabilityReport.Rows[0].DefinitionFile)
	require.Equal(testInstance, []string{testVerifyingTestPathConstant}, traceabilityReport.Rows[0].VerificationFiles)
	require.True(testInstance, traceabilityReport.Passed)
}

func TestAuditTraceabilityUnverifiedRequirementFails(testInstance *testing.T) {
	fixtureRoot := testInstance.TempDir()
	writeFixtureFile(testInstance, fixtureRoot, testFunctionalDocumentPathConstant, testRequirementHeadingLineConstant+"\n")
	writeFixtureFile(testInstance, fixtureRoot, testVerifyingTestPathConstant, "def test_placeholder():\n    pass\n")

	scanner := audit.NewRequirementScanner()
	traceabilityReport, auditError := scanner.AuditTraceability(context.Background(), fixtureRoot)

	require.NoError(testInstance, auditError)
	require.Len(testInstance, traceabilityReport.Rows, 1)
	require.Equal(testInstance, audit.CoverageStatusMissing, traceabilityReport.Rows[0].Status)
	require.Equal(testInstance, 1, traceabilityReport.MissingCount)
	require.False(testInstance, traceabilityReport.Passed)
}

func TestAuditTraceabilityNoDefinitionsIsVacuousSuccess(testInstance *testing.T) {
	fixtureRoot := testInstance.TempDir()
	writeFixtureFile(testInstance, fixtureRoot, testVerifyingTestPathConstant, testVerifyingAnnotationConstant)

	scanner := audit.NewRequirementScanner()
	traceabilityReport, auditError := scanner.AuditTraceability(context.Background(), fixtureRoot)

	require.NoError(testInstance, auditError)
	require.Empty(testInstance, traceabilityReport.Rows)
	require.True(testInstance, traceabilityReport.Passed)
}

func TestAuditTraceabilityUsesFallbackDocumentationGlob(testInstance *testing.T) {
	fixtureRoot := testInstance.TempDir()
	writeFixtureFile(testInstance, fixtureRoot, testFallbackDocumentPathConstant, testRequirementHeadingLineConstant+"\n")
	writeFixtureFile(testInstance, fixtureRoot, testVerifyingTestPathConstant, testVerifyingAnnotationConstant)

	scanner := audit.NewRequirementScanner()
	traceabilityReport, auditError := scanner.AuditTraceability(context.Background(), fixtureRoot)

	require.NoError(testInstance, auditError)
	require.Len(testInstance, traceabilityReport.Rows, 1)
	require.Equal(testInstance, testFallbackDocumentPathConstant, traceabilityReport.Rows[0].DefinitionFile)
}

func TestAuditTraceabilityStructuredGlobSuppressesFallback(testInstance *testing.T) {
	fixtureRoot := testInstance.TempDir()
	writeFixtureFile(testInstance, fixtureRoot, testFunctionalDocumentPathConstant, testRequirementHeadingLineConstant+"\n")
	writeFixtureFile(testInstance, fixtureRoot, testFallbackDocumentPathConstant, "## "+testSecondRequirementIdentifierConstant+": Fallback only\n")

	scanner := audit.NewRequirementScanner()
	traceabilityReport, auditError := scanner.AuditTraceability(context.Background(), fixtureRoot)

	require.NoError(testInstance, auditError)
	require.Len(testInstance, traceabilityReport.Rows, 1)
	require.Equal(testInstance, testRequirementIdentifierConstant, traceabilityReport.Rows[0].Identifier)
}

func TestAuditTraceabilityDuplicateDefinitionKeepsLastScanned(testInstance *testing.T) {
	fixtureRoot := testInstance.TempDir()
	writeFixtureFile(testInstance, fixtureRoot, "website/docs/requirements/functional.md", testRequirementHeadingLineConstant+"\n")
	writeFixtureFile(testInstance, fixtureRoot, "website/docs/requirements/non-functional.md", testRequirementHeadingLineConstant+"\n")

	scanner := audit.NewRequirementScanner()
	traceabilityReport, auditError := scanner.AuditTraceability(context.Background(), fixtureRoot)

	require.NoError(testInstance, auditError)
	require.Len(testInstance, traceabilityReport.Rows, 1)
	require.Equal(testInstance, "website/docs/requirements/non-functional.md", traceabilityReport.Rows[0].DefinitionFile)
}

func TestAuditTraceabilityRowsSortedByIdentifier(testInstance *testing.T) {
	fixtureRoot := testInstance.TempDir()
	documentContents := "## " + testSecondRequirementIdentifierConstant + ": Second\n" + testRequirementHeadingLineConstant + "\n"
	writeFixtureFile(testInstance, fixtureRoot, testFunctionalDocumentPathConstant, documentContents)

	scanner := audit.NewRequirementScanner()
	traceabilityReport, auditError := scanner.AuditTraceability(context.Background(), fixtureRoot)

	require.NoError(testInstance, auditError)
	require.Len(testInstance, traceabilityReport.Rows, 2)
	require.Equal(testInstance, testRequirementIdentifierConstant, traceabilityReport.Rows[0].Identifier)
	require.Equal(testInstance, testSecondRequirementIdentifierConstant, traceabilityReport.Rows[1].Identifier)
}

func TestAuditTraceabilityVerificationOnlyIdentifiersProduceNoRows(testInstance *testing.T) {
	fixtureRoot := testInstance.TempDir()
	writeFixtureFile(testInstance, fixtureRoot, testFunctionalDocumentPathConstant, testRequirementHeadingLineConstant+"\n")
	annotations := testVerifyingAnnotationConstant + "@verifies(\"REQ-AGRO-PERF-999\")\ndef test_unrelated():\n    pass\n"
	writeFixtureFile(testInstance, fixtureRoot, testVerifyingTestPathConstant, annotations)

	scanner := audit.NewRequirementScanner()
	traceabilityReport, auditError := scanner.AuditTraceability(context.Background(), fixtureRoot)

	require.NoError(testInstance, auditError)
	require.Len(testInstance, traceabilityReport.Rows, 1)
	require.Equal(testInstance, testRequirementIdentifierConstant, traceabilityReport.Rows[0].Identifier)
}

func TestAuditTraceabilityCollectsEveryVerifyingFile(testInstance *testing.T) {
	fixtureRoot := testInstance.TempDir()
	writeFixtureFile(testInstance, fixtureRoot, testFunctionalDocumentPathConstant, testRequirementHeadingLineConstant+"\n")
	writeFixtureFile(testInstance, fixtureRoot, "tests/integration/test_alpha.py", testVerifyingAnnotationConstant)
	writeFixtureFile(testInstance, fixtureRoot, "tests/integration/test_beta.py", testVerifyingAnnotationConstant)
	writeFixtureFile(testInstance, fixtureRoot, "tests/unit/verify.spec.ts", "verifies('REQ-AGRO-FUNC-001')\n")

	scanner := audit.NewRequirementScanner()
	traceabilityReport, auditError := scanner.AuditTraceability(context.Background(), fixtureRoot)

	require.NoError(testInstance, auditError)
	require.Len(testInstance, traceabilityReport.Rows, 1)
	require.Len(testInstance, traceabilityReport.Rows[0].VerificationFiles, 3)
}

func TestAuditTraceabilityAnnotationQuotesMustMatch(testInstance *testing.T) {
	fixtureRoot := testInstance.TempDir()
	writeFixtureFile(testInstance, fixtureRoot, testFunctionalDocumentPathConstant, testRequirementHeadingLineConstant+"\n")
	annotations := "@verifies(\"REQ-AGRO-FUNC-001')\ndef test_mismatched():\n    pass\n" +
		"@verifies('REQ-AGRO-FUNC-001\")\ndef test_mismatched_reversed():\n    pass\n"
	writeFixtureFile(testInstance, fixtureRoot, testVerifyingTestPathConstant, annotations)

	scanner := audit.NewRequirementScanner()
	traceabilityReport, auditError := scanner.AuditTraceability(context.Background(), fixtureRoot)

	require.NoError(testInstance, auditError)
	require.Len(testInstance, traceabilityReport.Rows, 1)
	require.Equal(testInstance, audit.CoverageStatusMissing, traceabilityReport.Rows[0].Status)
}

func TestAuditTraceabilityAcceptsBothQuoteStyles(testInstance *testing.T) {
	fixtureRoot := testInstance.TempDir()
	documentContents := testRequirementHeadingLineConstant + "\n## " + testSecondRequirementIdentifierConstant + ": Second\n"
	writeFixtureFile(testInstance, fixtureRoot, testFunctionalDocumentPathConstant, documentContents)
	annotations := "@verifies(\"REQ-AGRO-FUNC-001\")\ndef test_double_quoted():\n    pass\n" +
		"@verifies('REQ-AGRO-FUNC-002')\ndef test_single_quoted():\n    pass\n"
	writeFixtureFile(testInstance, fixtureRoot, testVerifyingTestPathConstant, annotations)

	scanner := audit.NewRequirementScanner()
	traceabilityReport, auditError := scanner.AuditTraceability(context.Background(), fixtureRoot)

	require.NoError(testInstance, auditError)
	require.Len(testInstance, traceabilityReport.Rows, 2)
	require.Equal(testInstance, audit.CoverageStatusPass, traceabilityReport.Rows[0].Status)
	require.Equal(testInstance, audit.CoverageStatusPass, traceabilityReport.Rows[1].Status)
	require.True(testInstance, traceabilityReport.Passed)
}

func TestAuditTraceabilityScansOversizedDocumentationLines(testInstance *testing.T) {
	fixtureRoot := testInstance.TempDir()
	oversizedLine := strings.Repeat("x", 128*1024) + " " + testRequirementIdentifierConstant + "\n"
	writeFixtureFile(testInstance, fixtureRoot, testFunctionalDocumentPathConstant, oversizedLine)
	writeFixtureFile(testInstance, fixtureRoot, testVerifyingTestPathConstant, testVerifyingAnnotationConstant)

	scanner := audit.NewRequirementScanner()
	traceabilityReport, auditError := scanner.AuditTraceability(context.Background(), fixtureRoot)

	require.NoError(testInstance, auditError)
	require.Len(testInstance, traceabilityReport.Rows, 1)
	require.Equal(testInstance, testRequirementIdentifierConstant, traceabilityReport.Rows[0].Identifier)
	require.True(testInstance, traceabilityReport.Passed)
}

func TestAuditTraceabilityRejectsMissingTarget(testInstance *testing.T) {
	scanner := audit.NewRequirementScanner()

	_, auditError := scanner.AuditTraceability(context.Background(), filepath.Join(testInstance.TempDir(), "absent"))

	var targetError audit.TargetNotDirectoryError
	require.ErrorAs(testInstance, auditError, &targetError)
}
