// Package dependencies provides fallback constructors shared by command
// builders that accept injectable collaborators.
package dependencies
