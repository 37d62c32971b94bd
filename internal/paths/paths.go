// Package paths provides the default locations kiln reads and writes when
// kiln.yaml does not name them.
//
// All paths follow XDG conventions on Linux and platform-native conventions
// on macOS and Windows.
package paths

import (
	"path/filepath"

	"github.com/adrg/xdg"
	"go.trai.ch/kiln/internal/core/domain"
)

const appName = "kiln"

// Workspace is the default build root.
//
//	Linux:   $XDG_DATA_HOME/kiln/bld
//	macOS:   ~/Library/Application Support/kiln/bld
func Workspace() string {
	return filepath.Join(xdg.DataHome, appName, "bld")
}

// GlobalConfig is the kiln.yaml used when none is found above the working directory.
//
//	Linux:   $XDG_CONFIG_HOME/kiln/kiln.yaml
//	macOS:   ~/Library/Application Support/kiln/kiln.yaml
func GlobalConfig() string {
	return filepath.Join(xdg.ConfigHome, appName, domain.ConfigFileName)
}
