// Package githubcli wraps the GitHub CLI to resolve repository topic
// metadata and enumerate organization repositories for workspace
// provisioning.
package githubcli
