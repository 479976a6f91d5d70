package catalog

import "strings"

const (
	archivePrefix = "bedrock-server-"
	archiveSuffix = ".zip"

	// UnknownVersion is the sentinel returned when no version token can be
	// recovered from a URL. Callers must treat it as valid but uninformative
	// and never use it for equality-based skip decisions.
	UnknownVersion = "unknown"
)

// ExtractVersion parses the version token out of a download URL's filename,
// e.g. ".../bedrock-server-1.21.120.4.zip" yields "1.21.120.4". The second
// return value reports whether a real token was found; on failure the
// sentinel UnknownVersion is returned instead of an error.
func ExtractVersion(url string) (string, bool) {
	segment := url
	if idx := strings.LastIndex(url, "/"); idx >= 0 {
		segment = url[idx+1:]
	}

	if !strings.HasPrefix(segment, archivePrefix) || !strings.HasSuffix(segment, archiveSuffix) {
		return UnknownVersion, false
	}

	version := strings.TrimSuffix(strings.TrimPrefix(segment, archivePrefix), archiveSuffix)
	if version == "" {
		return UnknownVersion, false
	}

	return version, true
}
