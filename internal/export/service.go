package export

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	defaultRootPathConstant   = "."
	defaultOutputPathConstant = "context.txt"

	fileBannerRuleConstant     = "================================================================================"
	fileBannerHeaderTemplate   = "### FILE: %s"
	exportSourceTemplate       = "Exporting content from: %s\n"
	exportTargetTemplate       = "Output target: %s\n"
	exportedFileTemplate       = "   + %s\n"
	skippedUnreadableTemplate  = "     skipping binary/unreadable: %s\n"
	exportSummaryTemplate      = "\nExported %d files to %s\n"
	rootPathMissingTemplate    = "path %s does not exist"
	extensionSeparatorConstant = "."
)

// defaultExcludedDirectories names directory entries pruned from the walk.
var defaultExcludedDirectories = []string{
	".git", ".pytest_cache", "node_modules", "dist", "build",
	"__pycache__", ".idea", ".vscode", ".venv", "venv", "bin", "obj",
	".docusaurus", ".ruff_cache",
}

// defaultExcludedExtensions names file extensions skipped during export.
var defaultExcludedExtensions = []string{
	"png", "jpg", "jpeg", "gif", "ico", "svg", "webp",
	"zip", "tar", "gz", "7z", "rar",
	"exe", "dll", "so", "dylib", "bin", "pyc", "class", "jar",
	"lock",
}

// defaultExcludedPathSuffixes names path suffixes skipped during export.
var defaultExcludedPathSuffixes = []string{
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"poetry.lock",
	"Cargo.lock",
}

// RootPathMissingError reports an export root that does not exist.
type RootPathMissingError struct {
	RootPath string
}

// Error describes the missing root path.
func (pathError RootPathMissingError) Error() string {
	return fmt.Sprintf(rootPathMissingTemplate, pathError.RootPath)
}

// Options captures the configurable parameters for one export run.
type Options struct {
	RootPath              string
	OutputPath            string
	SkipDefaultExclusions bool
	ExcludedDirectories   []string
	ExcludedExtensions    []string
	ExcludedPathSuffixes  []string
}

type exclusionRules struct {
	directories  map[string]struct{}
	extensions   map[string]struct{}
	pathSuffixes []string
}

// Service writes flattened repository content relative to its working directory.
type Service struct {
	workingDirectory string
	outputWriter     io.Writer
}

// NewService constructs an export Service.
func NewService(workingDirectory string, outputWriter io.Writer) *Service {
	return &Service{workingDirectory: workingDirectory, outputWriter: outputWriter}
}

// Export concatenates every readable file under the root path into the
// output file, honoring the configured exclusion rules.
func (service *Service) Export(options Options) error {
	rootPath := service.resolvePath(options.RootPath, defaultRootPathConstant)
	outputPath := service.resolvePath(options.OutputPath, defaultOutputPathConstant)
	rules := buildExclusionRules(options)

	fmt.Fprintf(service.outputWriter, exportSourceTemplate, rootPath)
	fmt.Fprintf(service.outputWriter, exportTargetTemplate, outputPath)

	rootInfo, statError := os.Stat(rootPath)
	if statError != nil {
		return RootPathMissingError{RootPath: rootPath}
	}

	outputFile, createError := os.Create(outputPath)
	if createError != nil {
		return createError
	}
	defer outputFile.Close()

	processedCount := 0
	if !rootInfo.IsDir() {
		written, processError := service.processFile(outputFile, rootPath)
		if processError != nil {
			return processError
		}
		if written {
			processedCount = 1
		}
	} else {
		walkedCount, walkError := service.walkDirectory(outputFile, rootPath, outputPath, rules)
		if walkError != nil {
			return walkError
		}
		processedCount = walkedCount
	}

	fmt.Fprintf(service.outputWriter, exportSummaryTemplate, processedCount, outputPath)
	return nil
}

func (service *Service) walkDirectory(outputFile io.Writer, rootPath string, outputPath string, rules exclusionRules) (int, error) {
	processedCount := 0
	walkError := filepath.WalkDir(rootPath, func(currentPath string, entry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return entryError
		}
		if entry.IsDir() {
			if currentPath != rootPath {
				if _, excluded := rules.directories[entry.Name()]; excluded {
					return filepath.SkipDir
				}
			}
			return nil
		}

		displayPath := service.displayPath(currentPath)
		if rules.excludesFile(displayPath) {
			return nil
		}
		if currentPath == outputPath {
			return nil
		}

		fmt.Fprintf(service.outputWriter, exportedFileTemplate, displayPath)
		written, processError := service.processFile(outputFile, currentPath)
		if processError != nil {
			return processError
		}
		if written {
			processedCount++
		} else {
			fmt.Fprintf(service.outputWriter, skippedUnreadableTemplate, displayPath)
		}
		return nil
	})
	return processedCount, walkError
}

// processFile appends one banner-framed file to the output. Binary and
// unreadable files are skipped rather than failing the export.
func (service *Service) processFile(outputFile io.Writer, filePath string) (bool, error) {
	contents, readError := os.ReadFile(filePath)
	if readError != nil {
		return false, nil
	}
	if !utf8.Valid(contents) {
		return false, nil
	}

	banner := fileBannerRuleConstant + "\n" +
		fmt.Sprintf(fileBannerHeaderTemplate, service.displayPath(filePath)) + "\n" +
		fileBannerRuleConstant + "\n\n"
	if _, writeError := io.WriteString(outputFile, banner); writeError != nil {
		return false, writeError
	}
	if _, writeError := outputFile.Write(contents); writeError != nil {
		return false, writeError
	}
	if _, writeError := io.WriteString(outputFile, "\n\n"); writeError != nil {
		return false, writeError
	}
	return true, nil
}

func (service *Service) resolvePath(candidate string, fallback string) string {
	trimmed := strings.TrimSpace(candidate)
	if len(trimmed) == 0 {
		trimmed = fallback
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Join(service.workingDirectory, trimmed)
}

func (service *Service) displayPath(absolutePath string) string {
	relativePath, relativeError := filepath.Rel(service.workingDirectory, absolutePath)
	if relativeError != nil {
		return absolutePath
	}
	return filepath.ToSlash(relativePath)
}

func buildExclusionRules(options Options) exclusionRules {
	rules := exclusionRules{
		directories: make(map[string]struct{}),
		extensions:  make(map[string]struct{}),
	}
	if !options.SkipDefaultExclusions {
		rules.addDirectories(defaultExcludedDirectories)
		rules.addExtensions(defaultExcludedExtensions)
		rules.pathSuffixes = append(rules.pathSuffixes, defaultExcludedPathSuffixes...)
	}
	rules.addDirectories(options.ExcludedDirectories)
	rules.addExtensions(options.ExcludedExtensions)
	rules.pathSuffixes = append(rules.pathSuffixes, options.ExcludedPathSuffixes...)
	return rules
}

func (rules *exclusionRules) addDirectories(directoryNames []string) {
	for _, directoryName := range directoryNames {
		rules.directories[directoryName] = struct{}{}
	}
}

func (rules *exclusionRules) addExtensions(extensionNames []string) {
	for _, extensionName := range extensionNames {
		rules.extensions[strings.ToLower(extensionName)] = struct{}{}
	}
}

func (rules exclusionRules) excludesFile(displayPath string) bool {
	fileName := filepath.Base(displayPath)
	if strings.Contains(fileName, extensionSeparatorConstant) {
		extensionParts := strings.Split(fileName, extensionSeparatorConstant)
		extension := strings.ToLower(extensionParts[len(extensionParts)-1])
		if _, excluded := rules.extensions[extension]; excluded {
			return true
		}
	}
	for _, pathSuffix := range rules.pathSuffixes {
		if strings.HasSuffix(displayPath, pathSuffix) || strings.HasSuffix(displayPath, "/"+pathSuffix) {
			return true
		}
	}
	return false
}
