// Package marker persists and recovers the installed server version.
//
// The marker is a single free-text file; recovery additionally scans files
// the server distribution ships, so the probe is heuristic by design.
package marker
