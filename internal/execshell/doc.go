// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging via ShellExecutor, exposes OSCommandRunner
// for default process execution, and defines the abstractions used
// throughout novaeco-devtools to run git, gh, protoc, pytest, npm, and
// python in a testable manner.
package execshell
