// Package catalog resolves server download links from the vendor API.
//
// It queries the primary endpoint with a fixed fallback, retries transient
// failures, and selects the catalog entry matching the computed download type
// key for the detected platform and release channel. It also recovers the
// version token embedded in download URLs.
package catalog
