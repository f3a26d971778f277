// Package export flattens repository contents into a single annotated text
// file suitable for sharing as review or analysis context.
package export
