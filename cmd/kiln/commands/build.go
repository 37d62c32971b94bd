package commands

import (
	"slices"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// outputModes are the values accepted by --output-mode.
var outputModes = []string{"auto", "tui", "linear", "ci"}

// axisFlags maps version axes to their flag names.
var axisFlags = []struct {
	axis domain.Axis
	flag string
	help string
}{
	{axis: domain.AxisPython, flag: "python", help: `Python version to build against, e.g. 3.4, or "all"`},
	{axis: domain.AxisNumpy, flag: "numpy", help: `NumPy version to build against, e.g. 1.9, or "all"`},
	{axis: domain.AxisPerl, flag: "perl", help: "Perl version to build against"},
	{axis: domain.AxisR, flag: "R", help: "R version to build against"},
}

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build RECIPE_PATH...",
		Short: "Build packages from recipe directories or tarballs",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, opts := buildRequest(cmd, args)
			if !slices.Contains(outputModes, opts.OutputMode) {
				return zerr.With(zerr.New("invalid output mode"), "mode", opts.OutputMode)
			}
			c.dispatched = true
			return c.app.Build(cmd.Context(), req, opts)
		},
	}

	f := cmd.Flags()
	f.Bool("check", false, "Only check (validate) the recipe metadata")
	f.Bool("output", false, "Output the package path the recipe would produce, and exit")
	f.BoolP("source", "s", false, "Only obtain the source (but don't build)")
	f.BoolP("test", "t", false, "Test the already built package")
	f.BoolP("build-only", "b", false, "Only run the build script, without packaging or testing")
	f.BoolP("post", "p", false, "Run the post-build packaging on a previously built prefix")
	f.Bool("no-test", false, "Do not test the package after building")
	f.Bool("skip-existing", false, "Skip recipes whose package already exists")
	f.BoolP("quiet", "q", false, "Do not display build output")
	f.Bool("no-include-recipe", false, "Do not include the recipe in the package")
	f.Bool("publish", false, "Upload the package after a successful build")
	f.Bool("no-publish", false, "Do not upload the package after a successful build")
	cmd.MarkFlagsMutuallyExclusive("publish", "no-publish")

	for _, af := range axisFlags {
		f.StringArray(af.flag, nil, af.help)
	}

	f.StringArrayP("channel", "c", nil, "Additional channel to search for packages")
	f.Bool("override-channels", false, "Only search the channels given with --channel")
	f.String("croot", "", "Build root (default from kiln.yaml)")
	f.String("output-mode", "auto", "Progress display: auto, tui or linear")
	f.Bool("ci", false, "Use linear progress output (shorthand for --output-mode=linear)")
	f.String("search-root", "", "Directory searched for recipes of missing dependencies (default: current directory)")

	return cmd
}

func buildRequest(cmd *cobra.Command, args []string) (*domain.BuildRequest, app.RunOptions) {
	f := cmd.Flags()
	flag := func(name string) bool {
		v, _ := f.GetBool(name)
		return v
	}

	req := &domain.BuildRequest{
		Recipes:          args,
		Versions:         make(map[domain.Axis][]string),
		Check:            flag("check"),
		Output:           flag("output"),
		Test:             flag("test"),
		Source:           flag("source"),
		BuildOnly:        flag("build-only"),
		Post:             flag("post"),
		NoTest:           flag("no-test"),
		SkipExisting:     flag("skip-existing"),
		Quiet:            flag("quiet"),
		IncludeRecipe:    !flag("no-include-recipe"),
		OverrideChannels: flag("override-channels"),
	}

	for _, af := range axisFlags {
		if values, _ := f.GetStringArray(af.flag); len(values) > 0 {
			req.Versions[af.axis] = values
		}
	}
	req.Channels, _ = f.GetStringArray("channel")
	req.Workspace, _ = f.GetString("croot")
	req.SearchRoot, _ = f.GetString("search-root")

	var opts app.RunOptions
	opts.OutputMode, _ = f.GetString("output-mode")
	if flag("ci") {
		opts.OutputMode = "linear"
	}

	switch {
	case flag("publish"):
		enabled := true
		opts.Publish = &enabled
	case flag("no-publish"):
		disabled := false
		opts.Publish = &disabled
	}
	return req, opts
}
