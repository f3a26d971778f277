package versioning

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	globalVersionFileNameConstant    = "GLOBAL_VERSION"
	defaultGlobalVersionConstant     = "1.0"
	versionFieldNameConstant         = "version"
	versionSegmentSeparatorConstant  = "."
	packageManifestIndentConstant    = "    "
	serviceVersionTemplateConstant   = "%d.%d.%d"
	globalVersionTemplateConstant    = "%d.%d"
	alignedVersionTemplateConstant   = "%s.0"
	patchAnnouncementTemplate        = "Bumping PATCH for %s: %s -> %s\n"
	releaseAnnouncementTemplate      = "Bumping GLOBAL (%s): %s -> %s\n"
	versionFileUpdateTemplate        = "  -> Updating %s to %s\n"
	noServicesDetectedWarningMessage = "Warning: no standard service version files found in this repository.\n"

	unknownServiceMessageTemplateConstant       = "service %q not found in this repository; available services: %s"
	versionFormatMessageTemplateConstant        = "could not parse version %q in %s; expected format X.Y.Z"
	globalVersionFormatMessageTemplateConstant  = "global version file contains invalid format %q; expected X.Y"
	manifestVersionMissingMessageTemplate       = "manifest %s does not declare a %s field"
	unsupportedReleaseTypeMessageTemplateFormat = "unsupported release type %q; expected minor or major"
)

// VersionFileFormat distinguishes plain-text version files from JSON manifests.
type VersionFileFormat string

// Supported version file formats.
const (
	VersionFileFormatText VersionFileFormat = "text"
	VersionFileFormatJSON VersionFileFormat = "json"
)

// ReleaseType selects which global version segment a release bumps.
type ReleaseType string

// Supported release types.
const (
	ReleaseTypeMinor ReleaseType = "minor"
	ReleaseTypeMajor ReleaseType = "major"
)

// ParseReleaseType validates a release type argument.
func ParseReleaseType(raw string) (ReleaseType, error) {
	normalized := ReleaseType(strings.ToLower(strings.TrimSpace(raw)))
	switch normalized {
	case ReleaseTypeMinor, ReleaseTypeMajor:
		return normalized, nil
	default:
		return "", UnsupportedReleaseTypeError{RequestedType: raw}
	}
}

// ServiceVersionLocation describes where one service keeps its version.
type ServiceVersionLocation struct {
	ServiceName  string
	RelativePath string
	Format       VersionFileFormat
}

// serviceVersionLocations lists every service version file the ecosystem convention defines.
var serviceVersionLocations = []ServiceVersionLocation{
	{ServiceName: "api", RelativePath: "api/VERSION", Format: VersionFileFormatText},
	{ServiceName: "auth", RelativePath: "auth/VERSION", Format: VersionFileFormatText},
	{ServiceName: "app", RelativePath: "app/VERSION", Format: VersionFileFormatText},
	{ServiceName: "website", RelativePath: "website/package.json", Format: VersionFileFormatJSON},
}

// UnknownServiceError reports a patch request for a service absent from the repository.
type UnknownServiceError struct {
	ServiceName       string
	AvailableServices []string
}

// Error describes the unknown service.
func (serviceError UnknownServiceError) Error() string {
	return fmt.Sprintf(unknownServiceMessageTemplateConstant, serviceError.ServiceName, strings.Join(serviceError.AvailableServices, ", "))
}

// VersionFormatError reports a version value that does not parse as X.Y.Z.
type VersionFormatError struct {
	FilePath string
	Value    string
}

// Error describes the malformed version.
func (formatError VersionFormatError) Error() string {
	return fmt.Sprintf(versionFormatMessageTemplateConstant, formatError.Value, formatError.FilePath)
}

// GlobalVersionFormatError reports a global version value that does not parse as X.Y.
type GlobalVersionFormatError struct {
	Value string
}

// Error describes the malformed global version.
func (formatError GlobalVersionFormatError) Error() string {
	return fmt.Sprintf(globalVersionFormatMessageTemplateConstant, formatError.Value)
}

// ManifestVersionMissingError reports a JSON manifest without a version field.
type ManifestVersionMissingError struct {
	FilePath string
}

// Error describes the missing manifest field.
func (manifestError ManifestVersionMissingError) Error() string {
	return fmt.Sprintf(manifestVersionMissingMessageTemplate, manifestError.FilePath, versionFieldNameConstant)
}

// UnsupportedReleaseTypeError reports an unrecognized release type argument.
type UnsupportedReleaseTypeError struct {
	RequestedType string
}

// Error describes the unsupported release type.
func (releaseError UnsupportedReleaseTypeError) Error() string {
	return fmt.Sprintf(unsupportedReleaseTypeMessageTemplateFormat, releaseError.RequestedType)
}

// Service bumps version files for the repository rooted at its working directory.
type Service struct {
	workingDirectory string
	outputWriter     io.Writer
}

// NewService constructs a versioning Service for the provided repository root.
func NewService(workingDirectory string, outputWriter io.Writer) *Service {
	return &Service{workingDirectory: workingDirectory, outputWriter: outputWriter}
}

// DetectServices returns the service version locations present in the repository,
// preserving the conventional declaration order.
func (service *Service) DetectServices() []ServiceVersionLocation {
	detected := make([]ServiceVersionLocation, 0, len(serviceVersionLocations))
	for _, location := range serviceVersionLocations {
		if service.locationExists(location) {
			detected = append(detected, location)
		}
	}
	return detected
}

// Patch bumps the patch segment of one detected service's version.
func (service *Service) Patch(serviceName string) error {
	detectedServices := service.DetectServices()
	if len(detectedServices) == 0 {
		fmt.Fprint(service.outputWriter, noServicesDetectedWarningMessage)
	}

	location, found := findService(detectedServices, serviceName)
	if !found {
		return UnknownServiceError{ServiceName: serviceName, AvailableServices: serviceNames(detectedServices)}
	}

	currentVersion, readError := service.readVersion(location)
	if readError != nil {
		return readError
	}

	majorSegment, minorSegment, patchSegment, parseError := parseServiceVersion(currentVersion)
	if parseError != nil {
		return VersionFormatError{FilePath: location.RelativePath, Value: currentVersion}
	}

	bumpedVersion := fmt.Sprintf(serviceVersionTemplateConstant, majorSegment, minorSegment, patchSegment+1)
	fmt.Fprintf(service.outputWriter, patchAnnouncementTemplate, location.ServiceName, currentVersion, bumpedVersion)
	return service.writeVersion(location, bumpedVersion)
}

// Release bumps the global version and aligns every detected service with it.
func (service *Service) Release(releaseType ReleaseType) error {
	detectedServices := service.DetectServices()
	if len(detectedServices) == 0 {
		fmt.Fprint(service.outputWriter, noServicesDetectedWarningMessage)
	}

	currentGlobal := service.readGlobalVersion()

	majorSegment, minorSegment, parseError := parseGlobalVersion(currentGlobal)
	if parseError != nil {
		return GlobalVersionFormatError{Value: currentGlobal}
	}

	switch releaseType {
	case ReleaseTypeMajor:
		majorSegment++
		minorSegment = 0
	case ReleaseTypeMinor:
		minorSegment++
	default:
		return UnsupportedReleaseTypeError{RequestedType: string(releaseType)}
	}

	bumpedGlobal := fmt.Sprintf(globalVersionTemplateConstant, majorSegment, minorSegment)
	alignedServiceVersion := fmt.Sprintf(alignedVersionTemplateConstant, bumpedGlobal)

	fmt.Fprintf(service.outputWriter, releaseAnnouncementTemplate, releaseType, currentGlobal, bumpedGlobal)

	globalVersionPath := filepath.Join(service.workingDirectory, globalVersionFileNameConstant)
	if writeError := os.WriteFile(globalVersionPath, []byte(bumpedGlobal), 0o644); writeError != nil {
		return writeError
	}

	for _, location := range detectedServices {
		if writeError := service.writeVersion(location, alignedServiceVersion); writeError != nil {
			return writeError
		}
	}

	return nil
}

func (service *Service) locationExists(location ServiceVersionLocation) bool {
	_, statError := os.Stat(service.absolutePath(location))
	return statError == nil
}

func (service *Service) absolutePath(location ServiceVersionLocation) string {
	return filepath.Join(service.workingDirectory, filepath.FromSlash(location.RelativePath))
}

func (service *Service) readGlobalVersion() string {
	contents, readError := os.ReadFile(filepath.Join(service.workingDirectory, globalVersionFileNameConstant))
	if readError != nil {
		return defaultGlobalVersionConstant
	}
	return strings.TrimSpace(string(contents))
}

func (service *Service) readVersion(location ServiceVersionLocation) (string, error) {
	contents, readError := os.ReadFile(service.absolutePath(location))
	if readError != nil {
		return "", readError
	}

	if location.Format == VersionFileFormatText {
		return strings.TrimSpace(string(contents)), nil
	}

	var manifest map[string]any
	if decodeError := json.Unmarshal(contents, &manifest); decodeError != nil {
		return "", decodeError
	}

	versionValue, declared := manifest[versionFieldNameConstant].(string)
	if !declared {
		return "", ManifestVersionMissingError{FilePath: location.RelativePath}
	}
	return versionValue, nil
}

func (service *Service) writeVersion(location ServiceVersionLocation, newVersion string) error {
	fmt.Fprintf(service.outputWriter, versionFileUpdateTemplate, location.RelativePath, newVersion)

	if location.Format == VersionFileFormatText {
		return os.WriteFile(service.absolutePath(location), []byte(newVersion), 0o644)
	}

	contents, readError := os.ReadFile(service.absolutePath(location))
	if readError != nil {
		return readError
	}

	var manifest map[string]any
	if decodeError := json.Unmarshal(contents, &manifest); decodeError != nil {
		return decodeError
	}
	manifest[versionFieldNameConstant] = newVersion

	encodedManifest, encodeError := json.MarshalIndent(manifest, "", packageManifestIndentConstant)
	if encodeError != nil {
		return encodeError
	}
	encodedManifest = append(encodedManifest, '\n')

	return os.WriteFile(service.absolutePath(location), encodedManifest, 0o644)
}

func findService(locations []ServiceVersionLocation, serviceName string) (ServiceVersionLocation, bool) {
	for _, location := range locations {
		if location.ServiceName == serviceName {
			return location, true
		}
	}
	return ServiceVersionLocation{}, false
}

func serviceNames(locations []ServiceVersionLocation) []string {
	names := make([]string, 0, len(locations))
	for _, location := range locations {
		names = append(names, location.ServiceName)
	}
	sort.Strings(names)
	return names
}

func parseServiceVersion(rawVersion string) (int, int, int, error) {
	segments := strings.Split(rawVersion, versionSegmentSeparatorConstant)
	if len(segments) != 3 {
		return 0, 0, 0, fmt.Errorf(versionFormatMessageTemplateConstant, rawVersion, "")
	}

	parsedSegments := make([]int, 0, len(segments))
	for _, segment := range segments {
		parsedSegment, parseError := strconv.Atoi(segment)
		if parseError != nil {
			return 0, 0, 0, parseError
		}
		parsedSegments = append(parsedSegments, parsedSegment)
	}

	return parsedSegments[0], parsedSegments[1], parsedSegments[2], nil
}

func parseGlobalVersion(rawVersion string) (int, int, error) {
	segments := strings.Split(rawVersion, versionSegmentSeparatorConstant)
	if len(segments) != 2 {
		return 0, 0, fmt.Errorf(globalVersionFormatMessageTemplateConstant, rawVersion)
	}

	majorSegment, majorError := strconv.Atoi(segments[0])
	if majorError != nil {
		return 0, 0, majorError
	}
	minorSegment, minorError := strconv.Atoi(segments[1])
	if minorError != nil {
		return 0, 0, minorError
	}

	return majorSegment, minorSegment, nil
}
