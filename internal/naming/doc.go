// Package naming derives output paths from source paths and guards against
// two sources in one run writing the same output.
package naming
