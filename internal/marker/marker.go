package marker

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// Filename is the version marker written after every successful
// install or update.
const Filename = "bedrock_server_exe.version"

// probeCandidates are scanned in order; the marker this tool writes comes
// first, followed by files the server distribution itself ships.
var probeCandidates = []string{
	Filename,
	"version.txt",
	"CHANGES.txt",
}

// versionPattern matches four dot-separated integer groups.
var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+\.\d+`)

// Write records the installed version in the marker file as free text.
func Write(installDir, version string) error {
	path := filepath.Join(installDir, Filename)
	contents := fmt.Sprintf("Bedrock Server %s\n", version)

	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("write version marker: %w", err)
	}

	return nil
}

// Probe recovers the currently installed version from the installation
// directory. It scans the candidate files in order and returns the first
// version-shaped substring found. Read errors and non-matching files advance
// to the next candidate. The result is best-effort and advisory, never
// authoritative: the second return value is false when nothing matched.
func Probe(installDir string) (string, bool) {
	for _, candidate := range probeCandidates {
		contents, err := os.ReadFile(filepath.Join(installDir, candidate))
		if err != nil {
			continue
		}

		if match := versionPattern.FindString(string(contents)); match != "" {
			return match, true
		}
	}

	return "", false
}
