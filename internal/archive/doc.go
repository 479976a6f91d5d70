// Package archive validates and extracts downloaded server archives.
package archive
