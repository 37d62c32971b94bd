// Package config provides the kiln.yaml configuration loader.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/paths"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
	// GlobalPath is consulted when no kiln.yaml is found above the working directory.
	GlobalPath string
	// DefaultCroot is the build root used when kiln.yaml does not name one.
	DefaultCroot string
}

// NewLoader creates a Loader with the XDG defaults.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{
		Logger:       logger,
		GlobalPath:   paths.GlobalConfig(),
		DefaultCroot: paths.Workspace(),
	}
}

// Load finds kiln.yaml starting at cwd and returns the settings with defaults
// applied. A missing file yields the defaults.
func (l *Loader) Load(cwd string) (*domain.Settings, error) {
	configPath := l.findConfiguration(cwd)
	if configPath == "" {
		return l.defaults(), nil
	}

	var file Kilnfile
	if err := readAndUnmarshalYAML(configPath, &file); err != nil {
		return nil, zerr.With(err, "path", configPath)
	}

	settings, err := l.apply(configPath, &file)
	if err != nil {
		return nil, zerr.With(err, "path", configPath)
	}
	return settings, nil
}

// findConfiguration walks from cwd to the filesystem root, then falls back to
// the global file. It returns "" when neither exists.
func (l *Loader) findConfiguration(cwd string) string {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	if l.GlobalPath != "" {
		if info, err := os.Stat(l.GlobalPath); err == nil && !info.IsDir() {
			return l.GlobalPath
		}
	}
	return ""
}

func (l *Loader) defaults() *domain.Settings {
	return &domain.Settings{
		Croot:         l.DefaultCroot,
		KnownVersions: domain.DefaultKnownVersions(),
		Publish: domain.PublishSettings{
			Backend: domain.PublishTool,
			Tool:    domain.DefaultUploadTool,
			S3:      domain.S3Settings{Secure: true},
		},
	}
}

func (l *Loader) apply(configPath string, file *Kilnfile) (*domain.Settings, error) {
	settings := l.defaults()
	settings.Path = configPath
	configDir := filepath.Dir(configPath)

	if file.Croot != "" {
		settings.Croot = resolvePath(configDir, file.Croot)
	}
	if file.SearchRoot != "" {
		settings.SearchRoot = resolvePath(configDir, file.SearchRoot)
	}
	settings.Channels = file.Channels
	settings.OverrideChannels = file.OverrideChannels

	for name, values := range file.Versions {
		axis, err := domain.ParseAxis(name)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			if _, err := domain.EncodeVersion(axis, v); err != nil {
				return nil, zerr.With(err, "key", "versions."+name)
			}
		}
		settings.KnownVersions[axis] = values
	}

	if file.Publish != nil {
		publish, err := l.applyPublish(file.Publish, settings.Publish)
		if err != nil {
			return nil, err
		}
		settings.Publish = publish
	}

	return settings, nil
}

func (l *Loader) applyPublish(dto *PublishDTO, base domain.PublishSettings) (domain.PublishSettings, error) {
	publish := base
	publish.Enabled = dto.Enabled
	publish.Confirm = dto.Confirm
	if dto.Tool != "" {
		publish.Tool = dto.Tool
	}

	switch domain.PublishBackend(dto.Backend) {
	case "", domain.PublishTool:
		publish.Backend = domain.PublishTool
		if dto.S3 != nil {
			l.Logger.Warn(fmt.Sprintf("'publish.s3' in %s has no effect unless publish.backend is %q",
				domain.ConfigFileName, domain.PublishS3))
		}
	case domain.PublishS3:
		publish.Backend = domain.PublishS3
	default:
		return publish, zerr.With(
			zerr.Wrap(domain.ErrConfigParseFailed, "unknown publish backend"),
			"backend", dto.Backend,
		)
	}

	if dto.S3 != nil {
		publish.S3.Endpoint = dto.S3.Endpoint
		publish.S3.Bucket = dto.S3.Bucket
		publish.S3.Prefix = dto.S3.Prefix
		publish.S3.AccessKey = os.ExpandEnv(dto.S3.AccessKey)
		publish.S3.SecretKey = os.ExpandEnv(dto.S3.SecretKey)
		if dto.S3.Secure != nil {
			publish.S3.Secure = *dto.S3.Secure
		}
	}
	return publish, nil
}

func resolvePath(configDir, configured string) string {
	if filepath.IsAbs(configured) {
		return filepath.Clean(configured)
	}
	return filepath.Clean(filepath.Join(configDir, configured))
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is found by walking up from the working directory
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfigReadFailed, err)
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfigParseFailed, parseErr)
	}

	return nil
}
