// Package archive bundles every per-language subtitle file of a project into
// a single zip archive.
package archive
