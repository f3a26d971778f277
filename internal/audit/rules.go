package audit

import "strings"

// Auxiliary file consumed by the dependency graph tooling; absence is a warning, not a failure.
const auxiliaryRequirementsPathConstant = "api/requirements-internal.txt"

// structureRuleSets is the golden template: the ordered relative paths every repository
// of a given archetype must contain.
var structureRuleSets = map[RepositoryType][]string{
	RepositoryTypeCore: {
		"api/src/main.py", "api/requirements.txt", "api/Dockerfile",
		"app/app.py", "app/requirements.txt",
		"auth/src/main.py", "auth/api/proto/v1/auth.proto",
		"website/docs/requirements/functional.md", "website/docusaurus.config.js",
		".github/workflows/ci.yml", ".github/CODEOWNERS",
	},
	RepositoryTypeEnabler: {
		"api/src/main.py", "api/requirements.txt",
		"app/app.py",
		"website/docs/requirements/functional.md",
		"website/docs/requirements/non-functional.md",
		"tests/integration",
	},
	RepositoryTypeSector: {
		"api/src/main.py", "api/requirements.txt",
		"app/app.py",
		"website/docs/requirements/functional.md",
		"website/docs/requirements/non-functional.md",
		"tests/integration",
	},
	RepositoryTypeProduct: {
		"api/src/main.py", "api/requirements.txt",
		"app/app.py",
		"website/docs/requirements/functional.md",
		"website/docs/requirements/non-functional.md",
		"tests/integration",
	},
	RepositoryTypeWorker: {
		"src/main.py", "requirements.txt",
		"tests",
	},
}

// StructureRules returns the golden template for the provided archetype,
// defaulting to the sector rules when no explicit entry exists.
func StructureRules(repositoryType RepositoryType) []string {
	rules, found := structureRuleSets[repositoryType]
	if !found {
		rules = structureRuleSets[RepositoryTypeSector]
	}
	return append([]string{}, rules...)
}

// KnownRepositoryTypes lists every archetype with an explicit golden template.
func KnownRepositoryTypes() []RepositoryType {
	return []RepositoryType{
		RepositoryTypeCore,
		RepositoryTypeEnabler,
		RepositoryTypeSector,
		RepositoryTypeProduct,
		RepositoryTypeWorker,
	}
}

// ParseRepositoryType resolves a topic label to a known archetype.
func ParseRepositoryType(label string) (RepositoryType, bool) {
	normalized := RepositoryType(strings.ToLower(strings.TrimSpace(label)))
	switch normalized {
	case RepositoryTypeCore, RepositoryTypeEnabler, RepositoryTypeSector, RepositoryTypeProduct, RepositoryTypeWorker:
		return normalized, true
	default:
		return "", false
	}
}
