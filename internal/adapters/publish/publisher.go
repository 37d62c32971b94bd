// Package publish uploads built artifacts to an object store or through an
// external upload tool.
package publish

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.trai.ch/kiln/internal/adapters/detector"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Publisher = (*Publisher)(nil)

// Publisher implements ports.Publisher.
type Publisher struct {
	Executor ports.Executor
	Env      detector.Environment

	// In and Out carry the confirmation prompt.
	In  io.Reader
	Out io.Writer

	// LookPath finds the upload tool.
	LookPath func(file string) (string, error)
}

// NewPublisher creates a Publisher prompting on the standard streams.
func NewPublisher(executor ports.Executor, env detector.Environment) *Publisher {
	return &Publisher{
		Executor: executor,
		Env:      env,
		In:       os.Stdin,
		Out:      os.Stderr,
		LookPath: exec.LookPath,
	}
}

// Publish uploads the artifact at artifactPath, asking first when cfg.Confirm
// is set. Without a terminal to ask on, the upload is declined.
func (p *Publisher) Publish(ctx context.Context, artifactPath string, cfg domain.PublishSettings) error {
	if cfg.Confirm {
		if err := p.confirm(artifactPath); err != nil {
			return err
		}
	}

	if cfg.Backend == domain.PublishS3 {
		return p.publishS3(ctx, artifactPath, cfg.S3)
	}
	return p.publishTool(ctx, artifactPath, tool(cfg))
}

// Instructions tells the user how to upload artifactPath by hand.
func (p *Publisher) Instructions(artifactPath string, cfg domain.PublishSettings) string {
	var sb strings.Builder
	sb.WriteString("# If you want to upload this package later, type:\n#\n")
	if cfg.Backend == domain.PublishS3 && cfg.S3.Bucket != "" {
		fmt.Fprintf(&sb, "# $ mc cp %s <alias>/%s/%s\n", artifactPath, cfg.S3.Bucket, objectKey(cfg.S3.Prefix, artifactPath))
	} else {
		fmt.Fprintf(&sb, "# $ %s upload %s\n", tool(cfg), artifactPath)
	}
	sb.WriteString("#\n# To have kiln upload automatically, set publish.enabled to true in kiln.yaml\n")
	return sb.String()
}

func (p *Publisher) confirm(artifactPath string) error {
	if !p.Env.CanPrompt() {
		return zerr.Wrap(domain.ErrPublishDeclined, "cannot ask for confirmation without a terminal")
	}

	_, _ = fmt.Fprintf(p.Out, "Upload %s? [y/N] ", filepath.Base(artifactPath))
	answer, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && answer == "" {
		return zerr.Wrap(domain.ErrPublishDeclined, "no answer")
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return domain.ErrPublishDeclined
	}
}

func (p *Publisher) publishTool(ctx context.Context, artifactPath, name string) error {
	binary, err := p.LookPath(name)
	if err != nil {
		return zerr.With(fmt.Errorf("%w: %w", domain.ErrPublisherUnavailable, err), "tool", name)
	}

	cmd := &domain.Command{Args: []string{binary, "upload", artifactPath}, Dir: filepath.Dir(artifactPath)}
	if err := p.Executor.Execute(ctx, cmd, p.Out, p.Out); err != nil {
		return zerr.With(fmt.Errorf("%w: %w", domain.ErrPublishFailed, err), "tool", name)
	}
	return nil
}

func (p *Publisher) publishS3(ctx context.Context, artifactPath string, cfg domain.S3Settings) error {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return zerr.Wrap(domain.ErrPublisherUnavailable, "publish.s3 needs an endpoint and a bucket")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.Secure,
		Region:       "us-east-1",
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return zerr.With(fmt.Errorf("%w: %w", domain.ErrPublisherUnavailable, err), "endpoint", cfg.Endpoint)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return zerr.With(fmt.Errorf("%w: %w", domain.ErrPublishFailed, err), "bucket", cfg.Bucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return zerr.With(fmt.Errorf("%w: %w", domain.ErrPublishFailed, err), "bucket", cfg.Bucket)
		}
	}

	key := objectKey(cfg.Prefix, artifactPath)
	if _, err := client.FPutObject(ctx, cfg.Bucket, key, artifactPath, minio.PutObjectOptions{
		ContentType: "application/x-bzip2",
	}); err != nil {
		return zerr.With(zerr.With(fmt.Errorf("%w: %w", domain.ErrPublishFailed, err), "bucket", cfg.Bucket), "key", key)
	}
	_, _ = fmt.Fprintf(p.Out, "Uploaded %s to %s/%s\n", filepath.Base(artifactPath), cfg.Bucket, key)
	return nil
}

// objectKey is <prefix>/<subdir>/<file>, mirroring the build root layout.
func objectKey(prefix, artifactPath string) string {
	subdir := filepath.Base(filepath.Dir(artifactPath))
	return strings.TrimPrefix(path.Join(prefix, subdir, filepath.Base(artifactPath)), "/")
}

func tool(cfg domain.PublishSettings) string {
	if cfg.Tool != "" {
		return cfg.Tool
	}
	return domain.DefaultUploadTool
}
