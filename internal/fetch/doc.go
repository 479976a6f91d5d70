// Package fetch downloads server archives to a scratch directory.
//
// Transfers run on a background worker while the caller renders a progress
// bar by polling the shared byte counters; failed attempts are retried from
// a clean destination file up to the configured limit.
package fetch
