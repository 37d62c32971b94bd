package domain

import (
	"context"
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrNoRecipes is returned when a build request names no recipe locations.
	ErrNoRecipes = zerr.New("no recipe paths specified")

	// ErrNotARecipe is returned by the resolver for files that are neither a
	// directory nor a recognized recipe archive.
	ErrNotARecipe = zerr.New("not a recipe")

	// ErrRecipeDirNotFound is returned when a recipe location does not exist.
	ErrRecipeDirNotFound = zerr.New("no such directory")

	// ErrArchiveExtractFailed is returned when a recipe or source archive cannot be extracted.
	ErrArchiveExtractFailed = zerr.New("failed to extract archive")

	// ErrManifestNotFound is returned when a recipe directory has no meta.yaml.
	ErrManifestNotFound = zerr.New("no meta.yaml found in recipe directory")

	// ErrManifestParse is returned when meta.yaml is not valid YAML or has the wrong shape.
	ErrManifestParse = zerr.New("failed to parse recipe metadata")

	// ErrManifestInvalidField is returned by field validation for unknown or malformed fields.
	ErrManifestInvalidField = zerr.New("invalid recipe metadata field")

	// ErrInvalidAxisValue is returned when a version axis value cannot be encoded.
	ErrInvalidAxisValue = zerr.New("invalid version value")

	// ErrAllNotSupported is returned when "all" is requested for an axis without known versions.
	ErrAllNotSupported = zerr.New("'all' is not supported for this axis")

	// ErrUnknownAxis is returned when a configuration file names an axis kiln does not know.
	ErrUnknownAxis = zerr.New("unknown version axis")

	// ErrLockCreateFailed is returned when the build root lock cannot be created.
	ErrLockCreateFailed = zerr.New("failed to create build root lock")

	// ErrLockAcquireFailed is returned when waiting for the build root lock fails.
	ErrLockAcquireFailed = zerr.New("failed to acquire build root lock")

	// ErrDependencyCycle is returned when a rediscovered dependency is itself waiting on its dependent.
	ErrDependencyCycle = zerr.New("dependency cycle detected")

	// ErrDependencyStillUnsatisfied is returned when a dependency remains missing
	// after its candidate recipes were built.
	ErrDependencyStillUnsatisfied = zerr.New("dependency still unsatisfied after building candidate recipes")

	// ErrRecipeDeferred marks an attempt that ended because the recipe was
	// requeued behind its dependencies.
	ErrRecipeDeferred = zerr.New("waiting for dependencies")

	// ErrBuildExecutionFailed is returned when a build script exits with an error.
	ErrBuildExecutionFailed = zerr.New("build script failed")

	// ErrTestFailed is returned when a package's test commands fail.
	ErrTestFailed = zerr.New("package tests failed")

	// ErrNoBuildScript is returned when a recipe has neither build.sh nor build/script.
	ErrNoBuildScript = zerr.New("recipe has no build script")

	// ErrArtifactNotFound is returned when a package artifact is expected but missing.
	ErrArtifactNotFound = zerr.New("package artifact not found")

	// ErrPackagingFailed is returned when the build prefix cannot be packed into an artifact.
	ErrPackagingFailed = zerr.New("failed to package artifact")

	// ErrSourceFetchFailed is returned when the source section cannot be staged.
	ErrSourceFetchFailed = zerr.New("failed to fetch source")

	// ErrChannelFetchFailed is returned when channel repodata cannot be downloaded.
	ErrChannelFetchFailed = zerr.New("failed to fetch channel index")

	// ErrPublisherUnavailable is returned when no publish backend can be used.
	ErrPublisherUnavailable = zerr.New("cannot locate upload tool")

	// ErrPublishDeclined is returned when the user declines the publish prompt.
	ErrPublishDeclined = zerr.New("upload declined")

	// ErrPublishFailed is returned when the upload itself fails.
	ErrPublishFailed = zerr.New("upload failed")

	// ErrStoreCreateFailed is returned when the build record store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create build record store directory")

	// ErrStoreReadFailed is returned when a build record cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read build record")

	// ErrStoreUnmarshalFailed is returned when a build record cannot be unmarshaled.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal build record")

	// ErrStoreMarshalFailed is returned when a build record cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal build record")

	// ErrStoreWriteFailed is returned when a build record cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write build record")

	// ErrConfigReadFailed is returned when kiln.yaml cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when kiln.yaml cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidUsage is returned when the command line cannot be parsed.
	ErrInvalidUsage = zerr.New("invalid usage")

	// ErrFailedToGetCwd is returned when the working directory cannot be determined.
	ErrFailedToGetCwd = zerr.New("failed to get current working directory")
)

// Reportable reports whether err is outside every known failure kind and
// should be presented as a bug. Interrupts are never reportable.
func Reportable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	for _, known := range []error{
		ErrNoRecipes, ErrNotARecipe, ErrRecipeDirNotFound, ErrArchiveExtractFailed,
		ErrManifestNotFound, ErrManifestParse, ErrManifestInvalidField,
		ErrInvalidAxisValue, ErrAllNotSupported, ErrUnknownAxis,
		ErrLockCreateFailed, ErrLockAcquireFailed,
		ErrDependencyUnsatisfied, ErrDependencyCycle, ErrDependencyStillUnsatisfied, ErrRecipeDeferred,
		ErrBuildExecutionFailed, ErrTestFailed, ErrNoBuildScript,
		ErrArtifactNotFound, ErrPackagingFailed, ErrSourceFetchFailed, ErrChannelFetchFailed,
		ErrPublisherUnavailable, ErrPublishDeclined, ErrPublishFailed,
		ErrStoreCreateFailed, ErrStoreReadFailed, ErrStoreUnmarshalFailed,
		ErrStoreMarshalFailed, ErrStoreWriteFailed,
		ErrConfigReadFailed, ErrConfigParseFailed, ErrInvalidUsage, ErrFailedToGetCwd,
	} {
		if errors.Is(err, known) {
			return false
		}
	}
	return true
}
