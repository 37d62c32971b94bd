// Package builder runs recipe build scripts and packs the install prefix into
// a package artifact.
package builder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.trai.ch/kiln/internal/archive"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.BuildEngine = (*Engine)(nil)

// Engine implements ports.BuildEngine.
type Engine struct {
	Executor ports.Executor
	Stager   ports.SourceStager
	Index    ports.BuildIndex
	// Subdir is the platform directory artifacts are written to.
	Subdir string
	// Now stamps archive entries.
	Now func() time.Time
}

// NewEngine creates an Engine for the host platform.
func NewEngine(executor ports.Executor, stager ports.SourceStager, index ports.BuildIndex) *Engine {
	return &Engine{
		Executor: executor,
		Stager:   stager,
		Index:    index,
		Subdir:   domain.Subdir(),
		Now:      time.Now,
	}
}

// indexJSON is written to info/index.json of every artifact.
type indexJSON struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Build       string   `json:"build"`
	BuildNumber int      `json:"build_number"`
	Depends     []string `json:"depends"`
	Subdir      string   `json:"subdir"`
	Noarch      string   `json:"noarch,omitempty"`
}

// ArtifactPath is <croot>/<subdir>/<package id>.
func (e *Engine) ArtifactPath(recipe *domain.ResolvedRecipe, opts domain.BuildOptions) string {
	return filepath.Join(domain.ArtifactDir(opts.Workspace, e.subdir(recipe)), packageID(recipe, opts))
}

// Build checks the build requirements, runs the build script in the staged
// source and packs the prefix. The phase in opts can stop after the script or
// skip straight to packaging.
func (e *Engine) Build(ctx context.Context, recipe *domain.ResolvedRecipe, opts domain.BuildOptions, out io.Writer) (*domain.Artifact, error) {
	recipe, opts, err := anchor(recipe, opts)
	if err != nil {
		return nil, err
	}

	m := recipe.Manifest
	prefix := domain.PrefixPath(opts.Workspace)
	id := packageID(recipe, opts)

	if opts.Phase != domain.PhasePostOnly {
		if err := e.checkRequirements(ctx, m.Requirements.Build, opts); err != nil {
			return nil, err
		}

		args, err := buildCommand(recipe)
		if err != nil {
			return nil, err
		}

		if err := os.RemoveAll(prefix); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to reset build prefix"), "path", prefix)
		}
		if err := os.MkdirAll(prefix, domain.DirPerm); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to create build prefix"), "path", prefix)
		}

		srcDir, err := e.Stager.Stage(ctx, recipe.Dir, m.Source, domain.WorkPath(opts.Workspace))
		if err != nil {
			return nil, zerr.With(err, "recipe", recipe.Dir)
		}

		if len(args) > 0 {
			cmd := &domain.Command{
				Args: args,
				Dir:  srcDir,
				Env:  e.environment(recipe, opts, prefix, srcDir),
			}
			if err := e.Executor.Execute(ctx, cmd, out, out); err != nil {
				return nil, zerr.With(fmt.Errorf("%w: %w", domain.ErrBuildExecutionFailed, err), "recipe", recipe.Dir)
			}
		}

		if opts.Phase == domain.PhaseBuildOnly {
			return &domain.Artifact{PackageID: id}, nil
		}
	}

	if info, err := os.Stat(prefix); err != nil || !info.IsDir() {
		return nil, zerr.With(zerr.Wrap(domain.ErrPackagingFailed, "no build prefix to package"), "path", prefix)
	}

	dest := e.ArtifactPath(recipe, opts)
	files, err := e.pack(recipe, opts, prefix, dest)
	if err != nil {
		return nil, zerr.With(fmt.Errorf("%w: %w", domain.ErrPackagingFailed, err), "path", dest)
	}
	_, _ = fmt.Fprintf(out, "Packaged %d files into %s\n", files, dest)

	return &domain.Artifact{PackageID: id, Path: dest, Files: files}, nil
}

// Test extracts the artifact into a scratch prefix and runs the recipe's
// test commands there.
func (e *Engine) Test(ctx context.Context, recipe *domain.ResolvedRecipe, opts domain.BuildOptions, out io.Writer) error {
	recipe, opts, err := anchor(recipe, opts)
	if err != nil {
		return err
	}

	m := recipe.Manifest
	path := e.ArtifactPath(recipe, opts)
	if _, err := os.Stat(path); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrArtifactNotFound, "cannot test "+recipe.Dist), "path", path)
	}

	commands := testCommands(m.Test)
	if len(commands) == 0 {
		_, _ = fmt.Fprintf(out, "Nothing to test for: %s\n", recipe.Dist)
		return nil
	}

	if err := e.checkRequirements(ctx, m.Test.Requires, opts); err != nil {
		return err
	}

	root := domain.TestPrefixPath(opts.Workspace)
	prefix := filepath.Join(root, "prefix")
	workDir := filepath.Join(root, "work")
	if err := os.RemoveAll(root); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to reset test prefix"), "path", root)
	}
	if err := archive.Extract(path, prefix); err != nil {
		return zerr.With(fmt.Errorf("%w: %w", domain.ErrArchiveExtractFailed, err), "path", path)
	}
	if err := os.MkdirAll(workDir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create test directory"), "path", workDir)
	}
	for _, name := range m.Test.Files {
		if err := copyInto(recipe.Dir, name, workDir); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to copy test file"), "file", name)
		}
	}

	cmd := &domain.Command{
		Args: []string{"sh", "-e", "-c", strings.Join(commands, "\n")},
		Dir:  workDir,
		Env:  e.environment(recipe, opts, prefix, workDir),
	}
	if err := e.Executor.Execute(ctx, cmd, out, out); err != nil {
		return zerr.With(fmt.Errorf("%w: %w", domain.ErrTestFailed, err), "recipe", recipe.Dir)
	}

	_, _ = fmt.Fprintf(out, "TEST END: %s\n", recipe.Dist)
	return nil
}

// anchor returns recipe and opts with an absolute recipe directory and build
// root. Scripts run in the work directory, where relative paths break.
func anchor(recipe *domain.ResolvedRecipe, opts domain.BuildOptions) (*domain.ResolvedRecipe, domain.BuildOptions, error) {
	dir, err := filepath.Abs(recipe.Dir)
	if err != nil {
		return nil, opts, zerr.With(zerr.Wrap(err, "cannot resolve recipe path"), "path", recipe.Dir)
	}
	workspace, err := filepath.Abs(opts.Workspace)
	if err != nil {
		return nil, opts, zerr.With(zerr.Wrap(err, "cannot resolve build root"), "path", opts.Workspace)
	}

	anchored := *recipe
	anchored.Dir = dir
	opts.Workspace = workspace
	return &anchored, opts, nil
}

// checkRequirements returns a DependencyUnsatisfiedError for the first spec
// no known package satisfies.
func (e *Engine) checkRequirements(ctx context.Context, specs []string, opts domain.BuildOptions) error {
	if len(specs) == 0 {
		return nil
	}

	idx, err := e.Index.Snapshot(ctx, opts.Workspace, opts.Channels, opts.OverrideChannels)
	if err != nil {
		return err
	}
	for _, spec := range specs {
		if _, ok := idx.Find(domain.ParseMatchSpec(spec).Pinned(opts.Variant)); !ok {
			return &domain.DependencyUnsatisfiedError{Spec: spec}
		}
	}
	return nil
}

// buildCommand picks build/script over build.sh. A recipe without either is
// a metapackage only when it has no source to build.
func buildCommand(recipe *domain.ResolvedRecipe) ([]string, error) {
	m := recipe.Manifest
	if len(m.Build.Script) > 0 {
		return []string{"sh", "-e", "-c", strings.Join(m.Build.Script, "\n")}, nil
	}

	script := filepath.Join(recipe.Dir, domain.BuildScriptName)
	if info, err := os.Stat(script); err == nil && !info.IsDir() {
		return []string{"sh", "-e", script}, nil
	}

	if m.Source.Empty() {
		return nil, nil
	}
	return nil, zerr.With(
		zerr.Wrap(domain.ErrNoBuildScript, "expected build/script or "+domain.BuildScriptName),
		"recipe", recipe.Dir,
	)
}

func (e *Engine) environment(recipe *domain.ResolvedRecipe, opts domain.BuildOptions, prefix, srcDir string) map[string]string {
	m := recipe.Manifest
	env := map[string]string{
		"PREFIX":           prefix,
		"SRC_DIR":          srcDir,
		"RECIPE_DIR":       recipe.Dir,
		"PKG_NAME":         m.Package.Name,
		"PKG_VERSION":      m.Package.Version,
		"PKG_BUILDNUM":     strconv.Itoa(m.Build.Number),
		"PKG_BUILD_STRING": m.BuildString(opts.Variant),
		"SUBDIR":           e.subdir(recipe),
		"PATH":             filepath.Join(prefix, "bin"),
	}
	for _, kv := range opts.Variant.Env() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	for _, name := range m.Build.ScriptEnv {
		if v, ok := os.LookupEnv(name); ok {
			env[name] = v
		}
	}
	return env
}

// pack writes prefix and the package metadata to dest and returns the number
// of payload files.
func (e *Engine) pack(recipe *domain.ResolvedRecipe, opts domain.BuildOptions, prefix, dest string) (int, error) {
	files, err := listFiles(prefix)
	if err != nil {
		return 0, err
	}

	m := recipe.Manifest
	meta := indexJSON{
		Name:        m.Package.Name,
		Version:     m.Package.Version,
		Build:       m.BuildString(opts.Variant),
		BuildNumber: m.Build.Number,
		Depends:     make([]string, 0, len(m.Requirements.Run)),
		Subdir:      e.subdir(recipe),
	}
	if m.Build.NoarchPython {
		meta.Noarch = "python"
	}
	for _, spec := range m.Requirements.Run {
		meta.Depends = append(meta.Depends, domain.ParseMatchSpec(spec).Pinned(opts.Variant).String())
	}
	index, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(dest), domain.DirPerm); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".kiln-*"+domain.ArtifactExt)
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	if err := errors.Join(e.writeArtifact(tmp, recipe, opts, prefix, files, index), tmp.Close()); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, err
	}
	return len(files), nil
}

func (e *Engine) writeArtifact(
	w io.Writer,
	recipe *domain.ResolvedRecipe,
	opts domain.BuildOptions,
	prefix string,
	files []string,
	index []byte,
) error {
	tw, err := archive.NewWriter(w, e.now())
	if err != nil {
		return err
	}

	for _, rel := range files {
		if err := tw.AddFile(prefix, rel); err != nil {
			return err
		}
	}
	if err := tw.AddBytes("info/index.json", index); err != nil {
		return err
	}
	listing := strings.Join(files, "\n")
	if len(files) > 0 {
		listing += "\n"
	}
	if err := tw.AddBytes("info/files", []byte(listing)); err != nil {
		return err
	}

	if opts.IncludeRecipe {
		recipeFiles, err := listFiles(recipe.Dir)
		if err != nil {
			return err
		}
		for _, rel := range recipeFiles {
			if err := tw.AddFileAs(filepath.Join(recipe.Dir, rel), "info/recipe/"+rel); err != nil {
				return err
			}
		}
	}

	return tw.Close()
}

func (e *Engine) subdir(recipe *domain.ResolvedRecipe) string {
	if recipe.Manifest != nil && recipe.Manifest.Build.NoarchPython {
		return domain.NoarchSubdir
	}
	return e.Subdir
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func packageID(recipe *domain.ResolvedRecipe, opts domain.BuildOptions) string {
	if recipe.PackageID != "" {
		return recipe.PackageID
	}
	return recipe.Manifest.PackageID(opts.Variant)
}

// testCommands turns test/imports into python import checks that run after
// test/commands.
func testCommands(t domain.TestSection) []string {
	commands := slices.Clone(t.Commands)
	for _, mod := range t.Imports {
		commands = append(commands, fmt.Sprintf("python -c 'import %s'", mod))
	}
	return commands
}

// listFiles returns the slash separated paths of every non-directory entry
// below root, sorted.
func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	slices.Sort(files)
	return files, err
}

// copyInto copies dir/name, a file or a directory, to dest/name.
func copyInto(dir, name, dest string) error {
	if !filepath.IsLocal(name) {
		return fmt.Errorf("test file %q escapes the recipe", name)
	}
	src := filepath.Join(dir, name)
	target := filepath.Join(dest, name)

	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return os.CopyFS(target, os.DirFS(src))
	}

	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return err
	}
	// #nosec G304 -- src is inside the recipe directory
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(target, data, info.Mode().Perm())
}
