// Package install manipulates the live installation tree: it strips
// configured names from the extracted archive, snapshots the current
// installation, and merges the new tree over it while leaving entries the
// archive does not ship untouched.
package install
