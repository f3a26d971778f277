// Package testrunner executes scoped test suites with the runtime detected
// from the repository layout.
package testrunner
