package domain

import "path/filepath"

const (
	// KilnDirName is the name of the internal directory inside the build root.
	KilnDirName = ".kiln"

	// StoreDirName is the name of the build record store directory.
	StoreDirName = "store"

	// CacheDirName is the name of the channel index cache directory.
	CacheDirName = "cache"

	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "kiln.yaml"

	// ManifestFileName is the name of the recipe metadata file.
	ManifestFileName = "meta.yaml"

	// BuildScriptName is the recipe build script run when build/script is empty.
	BuildScriptName = "build.sh"

	// LockFileName is the advisory lock file inside the build root.
	LockFileName = ".kiln.lock"

	// WorkDirName is the directory the source is staged into.
	WorkDirName = "work"

	// PrefixDirName is the install prefix a build script writes into.
	PrefixDirName = "_build"

	// TestDirName is the scratch prefix packages are tested in.
	TestDirName = "test_tmp"

	// SourceCacheDirName holds downloaded source archives.
	SourceCacheDirName = "src_cache"

	// RepodataFileName is the channel index file name.
	RepodataFileName = "repodata.json"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// StorePath returns the build record store inside the build root.
func StorePath(croot string) string {
	return filepath.Join(croot, KilnDirName, StoreDirName)
}

// CachePath returns the channel index cache inside the build root.
func CachePath(croot string) string {
	return filepath.Join(croot, KilnDirName, CacheDirName)
}

// ArtifactDir returns the directory built packages for subdir are written to.
func ArtifactDir(croot, subdir string) string {
	return filepath.Join(croot, subdir)
}

// WorkPath returns the source staging directory.
func WorkPath(croot string) string {
	return filepath.Join(croot, WorkDirName)
}

// PrefixPath returns the install prefix of the current build.
func PrefixPath(croot string) string {
	return filepath.Join(croot, PrefixDirName)
}

// TestPrefixPath returns the scratch prefix used by tests.
func TestPrefixPath(croot string) string {
	return filepath.Join(croot, TestDirName)
}

// LockPath returns the advisory lock file of the build root.
func LockPath(croot string) string {
	return filepath.Join(croot, LockFileName)
}

// SourceCachePath returns the download cache of source archives.
func SourceCachePath(croot string) string {
	return filepath.Join(croot, SourceCacheDirName)
}
