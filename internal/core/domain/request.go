package domain

// ActionMode selects what the pipeline does with a resolved recipe.
type ActionMode int

const (
	// ModeBuild runs a full build, optionally followed by test and publish.
	ModeBuild ActionMode = iota
	// ModeCheck only validates the recipe metadata.
	ModeCheck
	// ModeOutput only prints the artifact path the recipe would produce.
	ModeOutput
	// ModeTest tests an already built artifact.
	ModeTest
	// ModeSource only fetches and stages the source tree.
	ModeSource
)

// String returns the mode name.
func (m ActionMode) String() string {
	switch m {
	case ModeCheck:
		return "check"
	case ModeOutput:
		return "output"
	case ModeTest:
		return "test"
	case ModeSource:
		return "source"
	default:
		return "build"
	}
}

// BuildPhase restricts a full build to part of its lifecycle.
type BuildPhase int

const (
	// PhaseAll runs the build script and the post-build packaging.
	PhaseAll BuildPhase = iota
	// PhaseBuildOnly runs the build script without packaging.
	PhaseBuildOnly
	// PhasePostOnly runs the packaging of a previously built prefix.
	PhasePostOnly
)

// BuildRequest is everything the user asked for on the command line,
// merged with kiln.yaml defaults.
type BuildRequest struct {
	// Recipes are the recipe directories or archives, in the order given.
	Recipes []string

	// Versions holds the requested values per axis. A single AllVersions
	// entry expands to the axis' known values.
	Versions map[Axis][]string

	// KnownVersions overrides DefaultKnownVersions for "all" expansion.
	KnownVersions map[Axis][]string

	Check     bool
	Output    bool
	Test      bool
	Source    bool
	BuildOnly bool
	Post      bool

	NoTest        bool
	SkipExisting  bool
	Quiet         bool
	IncludeRecipe bool
	Publish       bool

	// PublishConfig selects the upload backend used when Publish is set.
	PublishConfig PublishSettings

	Channels         []string
	OverrideChannels bool

	// SearchRoot is where missing dependency recipes are looked for.
	SearchRoot string

	// Workspace is the build root (croot) guarded by the build root lock.
	Workspace string
}

// Mode applies the flag precedence: check > output > test > source > build.
func (r *BuildRequest) Mode() ActionMode {
	switch {
	case r.Check:
		return ModeCheck
	case r.Output:
		return ModeOutput
	case r.Test:
		return ModeTest
	case r.Source:
		return ModeSource
	default:
		return ModeBuild
	}
}

// Phase returns the build sub-mode. Build-only wins over post-only.
func (r *BuildRequest) Phase() BuildPhase {
	switch {
	case r.BuildOnly:
		return PhaseBuildOnly
	case r.Post:
		return PhasePostOnly
	default:
		return PhaseAll
	}
}

// RunTests reports whether a full build is followed by its tests.
func (r *BuildRequest) RunTests() bool {
	return r.Phase() == PhaseAll && !r.NoTest
}

// PublishEnabled reports whether a successful build is uploaded.
func (r *BuildRequest) PublishEnabled() bool {
	return r.Phase() == PhaseAll && r.Publish
}

// Known returns the enumeration "all" expands to for axis.
func (r *BuildRequest) Known(axis Axis) []string {
	if known, ok := r.KnownVersions[axis]; ok {
		return known
	}
	return DefaultKnownVersions()[axis]
}

// BuildOptions are the per-variant options threaded into every collaborator call.
type BuildOptions struct {
	Variant          Variant
	Phase            BuildPhase
	Workspace        string
	Channels         []string
	OverrideChannels bool
	IncludeRecipe    bool
	Quiet            bool
}

// Options derives the collaborator options for variant.
func (r *BuildRequest) Options(variant Variant) BuildOptions {
	return BuildOptions{
		Variant:          variant,
		Phase:            r.Phase(),
		Workspace:        r.Workspace,
		Channels:         r.Channels,
		OverrideChannels: r.OverrideChannels,
		IncludeRecipe:    r.IncludeRecipe,
		Quiet:            r.Quiet,
	}
}
