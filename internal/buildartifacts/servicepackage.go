package buildartifacts

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	defaultSourceDirectoryConstant        = "src"
	defaultServiceOutputDirectoryConstant = "dist"
	defaultRequirementsFileConstant       = "requirements.txt"
	internalRequirementsFileConstant      = "requirements-internal.txt"
	projectManifestFileNameConstant       = "pyproject.toml"
	serviceArchiveNameTemplateConstant    = "novaeco-%s.tar.gz"
	sourceArchivePrefixConstant           = "src"

	servicePackagingHeaderTemplateConstant = "Packaging service artifact: %s...\n"
	packagingSourceMessageTemplate         = "   Source: %s\n"
	packagingTargetMessageTemplate         = "   Target: %s\n"
	archiveEntryAddedMessageTemplate       = "   + Adding %s\n"
	serviceArtifactCreatedMessageTemplate  = "Service artifact created: %s\n"

	sourceDirectoryMissingMessageTemplateConstant = "source directory %s not found"
)

// ServiceBuildOptions captures the configurable parameters for service packaging.
type ServiceBuildOptions struct {
	SourceDirectory  string
	OutputDirectory  string
	RequirementsFile string
}

// SourceDirectoryMissingError reports a service build without a source tree.
type SourceDirectoryMissingError struct {
	SourceDirectory string
}

// Error describes the missing source directory.
func (sourceError SourceDirectoryMissingError) Error() string {
	return fmt.Sprintf(sourceDirectoryMissingMessageTemplateConstant, sourceError.SourceDirectory)
}

// BuildService packages the repository's source tree, requirement files, and
// project manifest into a gzip-compressed tarball used as a deployment context.
func (service *Service) BuildService(_ context.Context, options ServiceBuildOptions) error {
	options = applyServiceDefaults(options)

	sourceDirectory := filepath.Join(service.workingDirectory, filepath.FromSlash(options.SourceDirectory))
	outputDirectory := filepath.Join(service.workingDirectory, filepath.FromSlash(options.OutputDirectory))
	serviceName := filepath.Base(service.workingDirectory)

	if !directoryExists(sourceDirectory) {
		return SourceDirectoryMissingError{SourceDirectory: sourceDirectory}
	}

	if outputDirectory != service.workingDirectory {
		if removalError := os.RemoveAll(outputDirectory); removalError != nil {
			return removalError
		}
	}
	if directoryError := os.MkdirAll(outputDirectory, 0o755); directoryError != nil {
		return directoryError
	}

	archiveName := fmt.Sprintf(serviceArchiveNameTemplateConstant, serviceName)
	archivePath := filepath.Join(outputDirectory, archiveName)

	fmt.Fprintf(service.outputWriter, servicePackagingHeaderTemplateConstant, serviceName)
	fmt.Fprintf(service.outputWriter, packagingSourceMessageTemplate, sourceDirectory)
	fmt.Fprintf(service.outputWriter, packagingTargetMessageTemplate, archivePath)

	archiveFile, createError := os.Create(archivePath)
	if createError != nil {
		return createError
	}
	defer archiveFile.Close()

	gzipWriter := gzip.NewWriter(archiveFile)
	defer gzipWriter.Close()

	tarWriter := tar.NewWriter(gzipWriter)
	defer tarWriter.Close()

	fmt.Fprintf(service.outputWriter, archiveEntryAddedMessageTemplate, options.SourceDirectory+"/")
	if sourceError := addDirectoryToArchive(tarWriter, sourceDirectory, sourceArchivePrefixConstant); sourceError != nil {
		return sourceError
	}

	optionalEntries := []string{options.RequirementsFile, internalRequirementsFileConstant, projectManifestFileNameConstant}
	for _, entryName := range optionalEntries {
		entryPath := filepath.Join(service.workingDirectory, entryName)
		if !fileExists(entryPath) {
			continue
		}
		fmt.Fprintf(service.outputWriter, archiveEntryAddedMessageTemplate, entryName)
		if entryError := addFileToArchive(tarWriter, entryPath, entryName); entryError != nil {
			return entryError
		}
	}

	fmt.Fprintf(service.outputWriter, serviceArtifactCreatedMessageTemplate, archivePath)
	return nil
}

func applyServiceDefaults(options ServiceBuildOptions) ServiceBuildOptions {
	if len(options.SourceDirectory) == 0 {
		options.SourceDirectory = defaultSourceDirectoryConstant
	}
	if len(options.OutputDirectory) == 0 {
		options.OutputDirectory = defaultServiceOutputDirectoryConstant
	}
	if len(options.RequirementsFile) == 0 {
		options.RequirementsFile = defaultRequirementsFileConstant
	}
	return options
}

func addDirectoryToArchive(tarWriter *tar.Writer, directoryPath string, archivePrefix string) error {
	return filepath.WalkDir(directoryPath, func(currentPath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			return walkError
		}

		relativePath, relativeError := filepath.Rel(directoryPath, currentPath)
		if relativeError != nil {
			return relativeError
		}

		archiveName := archivePrefix
		if relativePath != "." {
			archiveName = archivePrefix + "/" + filepath.ToSlash(relativePath)
		}

		entryInformation, informationError := directoryEntry.Info()
		if informationError != nil {
			return informationError
		}

		header, headerError := tar.FileInfoHeader(entryInformation, "")
		if headerError != nil {
			return headerError
		}
		header.Name = archiveName
		if directoryEntry.IsDir() {
			header.Name += "/"
		}

		if writeError := tarWriter.WriteHeader(header); writeError != nil {
			return writeError
		}

		if directoryEntry.IsDir() {
			return nil
		}
		return copyFileIntoArchive(tarWriter, currentPath)
	})
}

func addFileToArchive(tarWriter *tar.Writer, filePath string, archiveName string) error {
	fileInformation, statError := os.Stat(filePath)
	if statError != nil {
		return statError
	}

	header, headerError := tar.FileInfoHeader(fileInformation, "")
	if headerError != nil {
		return headerError
	}
	header.Name = archiveName

	if writeError := tarWriter.WriteHeader(header); writeError != nil {
		return writeError
	}
	return copyFileIntoArchive(tarWriter, filePath)
}

func copyFileIntoArchive(tarWriter *tar.Writer, filePath string) error {
	fileHandle, openError := os.Open(filePath)
	if openError != nil {
		return openError
	}
	defer fileHandle.Close()

	_, copyError := io.Copy(tarWriter, fileHandle)
	return copyError
}

func directoryExists(candidatePath string) bool {
	pathInformation, statError := os.Stat(candidatePath)
	return statError == nil && pathInformation.IsDir()
}

func fileExists(candidatePath string) bool {
	pathInformation, statError := os.Stat(candidatePath)
	return statError == nil && !pathInformation.IsDir()
}
