package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sabaimran/vox-locus/pkg/artifact"
	"github.com/sabaimran/vox-locus/pkg/cli"
)

// newMirrorStore builds the S3-backed artifact store for a mirror
// config. Credentials come from the ambient AWS environment.
func newMirrorStore(ctx context.Context, mc *cli.MirrorConfig) (*artifact.S3, error) {
	var opts []func(*config.LoadOptions) error
	if mc.Region != "" {
		opts = append(opts, config.WithRegion(mc.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if mc.Endpoint != "" {
			o.BaseEndpoint = aws.String(mc.Endpoint)
			o.UsePathStyle = true
		}
	})
	return artifact.NewS3(client, mc.Bucket, mc.Prefix), nil
}

// mirrorArtifacts uploads the session directory to the configured
// bucket. Failures are logged, not fatal: the local files stay the
// source of truth.
func mirrorArtifacts(ctx context.Context, mc *cli.MirrorConfig, dir string) []string {
	store, err := newMirrorStore(ctx, mc)
	if err != nil {
		slog.Error("vox: mirror unavailable", "bucket", mc.Bucket, "error", err)
		return nil
	}
	uploaded, err := artifact.MirrorDir(ctx, store, dir)
	if err != nil {
		slog.Error("vox: mirror failed", "bucket", mc.Bucket, "error", err)
		return uploaded
	}
	slog.Info("vox: session mirrored", "bucket", mc.Bucket, "files", len(uploaded))
	return uploaded
}
