// Package version exposes the updater tool's own build metadata, injected
// via ldflags. This is the version of the updater binary, not of the game
// server it manages.
package version
