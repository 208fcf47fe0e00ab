package speech

import "runtime"

// Platform identifies the operating system the process runs on.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformDarwin  Platform = "darwin"
	PlatformWindows Platform = "windows"
	PlatformFreeBSD Platform = "freebsd"
	PlatformUnknown Platform = "unknown"
)

// unsupportedPlatforms lists platforms where no backend is wired up yet.
var unsupportedPlatforms = map[Platform]bool{
	PlatformDarwin: true,
}

// CurrentPlatform returns the platform of the running process.
func CurrentPlatform() Platform {
	return PlatformFromGOOS(runtime.GOOS)
}

// PlatformFromGOOS maps a GOOS value to a Platform.
func PlatformFromGOOS(goos string) Platform {
	switch goos {
	case "linux":
		return PlatformLinux
	case "darwin":
		return PlatformDarwin
	case "windows":
		return PlatformWindows
	case "freebsd":
		return PlatformFreeBSD
	default:
		return PlatformUnknown
	}
}

// Supported reports whether speech may be initialized on p.
func (p Platform) Supported() bool {
	return !unsupportedPlatforms[p]
}

func (p Platform) String() string {
	return string(p)
}
