package platform

import (
	"runtime"
	"strings"
)

// Platform identifies the host operating system for download purposes.
// It is derived once at startup and never changes for the process lifetime.
type Platform int

const (
	// Unknown covers every operating system the server is not distributed for.
	Unknown Platform = iota
	// Windows is the Windows server distribution target.
	Windows
	// Linux is the Linux server distribution target.
	Linux
	// MacOS is detected distinctly but has no server distribution.
	MacOS
)

// Detect returns the platform of the running host.
func Detect() Platform {
	return FromOSName(runtime.GOOS)
}

// FromOSName maps an operating system name to a Platform using a
// case-insensitive substring match. Unrecognized names map to Unknown,
// which is a valid value rather than an error.
func FromOSName(name string) Platform {
	osName := strings.ToLower(name)

	switch {
	case strings.Contains(osName, "windows"):
		return Windows
	case strings.Contains(osName, "linux"):
		return Linux
	case strings.Contains(osName, "darwin"):
		return MacOS
	default:
		return Unknown
	}
}

// String returns the display name used in download type keys and log output.
func (p Platform) String() string {
	switch p {
	case Windows:
		return "Windows"
	case Linux:
		return "Linux"
	case MacOS:
		return "MacOS"
	default:
		return "Unknown"
	}
}

// Supported reports whether the vendor publishes a server distribution
// for this platform. MacOS is detected but never served.
func (p Platform) Supported() bool {
	return p == Windows || p == Linux
}
