// Package audit implements repository structure compliance checks and
// requirement traceability reporting across one or many repositories.
package audit
