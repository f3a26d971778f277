// Package buildartifacts produces deployable artifacts: protocol-buffer
// client SDK packages and service source tarballs.
package buildartifacts
