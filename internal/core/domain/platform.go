package domain

import "runtime"

// NoarchSubdir holds packages that run on every platform.
const NoarchSubdir = "noarch"

// Subdir returns the platform directory artifacts are written to, e.g. "linux-64".
func Subdir() string {
	return subdirFor(runtime.GOOS, runtime.GOARCH)
}

func subdirFor(goos, goarch string) string {
	platform := goos
	switch goos {
	case "darwin":
		platform = "osx"
	case "windows":
		platform = "win"
	}

	arch := goarch
	switch goarch {
	case "amd64":
		arch = "64"
	case "386":
		arch = "32"
	case "arm64":
		if goos == "linux" {
			arch = "aarch64"
		}
	}
	return platform + "-" + arch
}
