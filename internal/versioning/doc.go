// Package versioning bumps service version files and aligns them with the
// repository's global release version.
package versioning
