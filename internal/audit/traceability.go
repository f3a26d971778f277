package audit

import (
	"bufio"
	"context"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	structuredRequirementDocumentsGlobConstant = "website/docs/requirements/*.md"
	fallbackRequirementDocumentsGlobConstant   = "docs/*.md"
	verificationFilesGlobConstant              = "tests/**"
	documentLineBufferSizeConstant             = 64 * 1024
	maximumDocumentLineSizeConstant            = 4 * 1024 * 1024
)

var (
	requirementIdentifierPattern  = regexp.MustCompile(`REQ-[A-Z]+-[A-Z]+-\d+`)
	verificationAnnotationPattern = regexp.MustCompile(`verifies\(\s*(?:"(REQ-[^"']+)"|'(REQ-[^"']+)')\s*\)`)
	verificationFileSuffixes      = []string{".py", ".js", ".ts"}
)

// RequirementScanner cross-references requirement identifiers found in
// documentation against verification annotations found under tests.
type RequirementScanner struct{}

// NewRequirementScanner constructs a RequirementScanner.
func NewRequirementScanner() *RequirementScanner {
	return &RequirementScanner{}
}

// AuditTraceability builds the traceability matrix for the repository at
// rootPath. A repository without any documented requirements yields an empty
// passing report.
func (scanner *RequirementScanner) AuditTraceability(_ context.Context, rootPath string) (TraceabilityReport, error) {
	absoluteRoot, resolutionError := resolveDirectory(rootPath)
	if resolutionError != nil {
		return TraceabilityReport{}, resolutionError
	}

	repositoryFileSystem := os.DirFS(absoluteRoot)

	definitions, definitionError := scanner.collectDefinitions(repositoryFileSystem)
	if definitionError != nil {
		return TraceabilityReport{}, definitionError
	}

	verifications, verificationError := scanner.collectVerifications(repositoryFileSystem)
	if verificationError != nil {
		return TraceabilityReport{}, verificationError
	}

	identifiers := make([]string, 0, len(definitions))
	for identifier := range definitions {
		identifiers = append(identifiers, identifier)
	}
	sort.Strings(identifiers)

	report := TraceabilityReport{TargetPath: absoluteRoot, Rows: make([]TraceabilityRow, 0, len(identifiers))}
	for _, identifier := range identifiers {
		verificationFiles := verifications[identifier]
		rowStatus := CoverageStatusMissing
		if len(verificationFiles) > 0 {
			rowStatus = CoverageStatusPass
			report.PassedCount++
		} else {
			report.MissingCount++
		}
		report.Rows = append(report.Rows, TraceabilityRow{
			Identifier:        identifier,
			Status:            rowStatus,
			DefinitionFile:    definitions[identifier],
			VerificationFiles: verificationFiles,
		})
	}

	report.Passed = report.MissingCount == 0
	return report, nil
}

// collectDefinitions scans documentation files for requirement identifiers,
// taking the first match per line. A later file redefining an identifier
// overwrites the earlier definition.
func (scanner *RequirementScanner) collectDefinitions(repositoryFileSystem fs.FS) (map[string]string, error) {
	documentPaths, globError := doublestar.Glob(repositoryFileSystem, structuredRequirementDocumentsGlobConstant)
	if globError != nil {
		return nil, globError
	}
	if len(documentPaths) == 0 {
		documentPaths, globError = doublestar.Glob(repositoryFileSystem, fallbackRequirementDocumentsGlobConstant)
		if globError != nil {
			return nil, globError
		}
	}

	definitions := make(map[string]string)
	for _, documentPath := range documentPaths {
		documentFile, openError := repositoryFileSystem.Open(documentPath)
		if openError != nil {
			continue
		}

		lineScanner := bufio.NewScanner(documentFile)
		lineScanner.Buffer(make([]byte, 0, documentLineBufferSizeConstant), maximumDocumentLineSizeConstant)
		for lineScanner.Scan() {
			identifier := requirementIdentifierPattern.FindString(lineScanner.Text())
			if len(identifier) > 0 {
				definitions[identifier] = documentPath
			}
		}
		_ = documentFile.Close()
	}

	return definitions, nil
}

// collectVerifications scans test files for verification annotations, mapping
// each referenced identifier to the test files that declare it in discovery order.
func (scanner *RequirementScanner) collectVerifications(repositoryFileSystem fs.FS) (map[string][]string, error) {
	candidatePaths, globError := doublestar.Glob(repositoryFileSystem, verificationFilesGlobConstant)
	if globError != nil {
		return nil, globError
	}

	verifications := make(map[string][]string)
	for _, candidatePath := range candidatePaths {
		if !isVerificationFile(candidatePath) {
			continue
		}

		fileContents, readError := fs.ReadFile(repositoryFileSystem, candidatePath)
		if readError != nil {
			continue
		}

		annotationMatches := verificationAnnotationPattern.FindAllStringSubmatch(string(fileContents), -1)
		for _, annotationMatch := range annotationMatches {
			identifier := annotationMatch[1]
			if len(identifier) == 0 {
				identifier = annotationMatch[2]
			}
			if !containsPath(verifications[identifier], candidatePath) {
				verifications[identifier] = append(verifications[identifier], candidatePath)
			}
		}
	}

	return verifications, nil
}

func isVerificationFile(candidatePath string) bool {
	for _, suffix := range verificationFileSuffixes {
		if strings.HasSuffix(candidatePath, suffix) {
			return true
		}
	}
	return false
}

func containsPath(knownPaths []string, candidatePath string) bool {
	for _, knownPath := range knownPaths {
		if knownPath == candidatePath {
			return true
		}
	}
	return false
}
