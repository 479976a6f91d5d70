// Package platform detects the host operating system and maps it to the
// closed set of platforms the server vendor distributes for.
package platform
