// Package updater orchestrates installing, updating, and checking a Bedrock
// dedicated server installation.
//
// The package wires the catalog resolver, archive fetcher, extractor, and
// install pipeline into three operations selected by Mode. All operations
// share the same collaborators and configuration; only the install and
// update modes mutate the target directory.
package updater
