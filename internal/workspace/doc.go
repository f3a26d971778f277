// Package workspace provisions a local development workspace by cloning
// organization repositories and generating a categorized editor workspace file.
package workspace
