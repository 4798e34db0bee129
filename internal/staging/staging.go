// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package staging resolves the Cloud Storage bucket used for job inputs and outputs.
package staging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/go-a2a/aiplatform-go/pkg/logging"
)

const scheme = "gs://"

// DefaultBucketName returns the bucket created when no staging bucket is configured.
func DefaultBucketName(project, location string) string {
	return fmt.Sprintf("%s-vertex-staging-%s", project, location)
}

// ParseURI splits "gs://bucket/object" into its bucket and object.
func ParseURI(uri string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(uri, scheme)
	if !ok || rest == "" {
		return "", "", fmt.Errorf("invalid Cloud Storage URI %q: want gs://bucket[/object]", uri)
	}
	bucket, object, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("invalid Cloud Storage URI %q: empty bucket", uri)
	}
	return bucket, strings.TrimSuffix(object, "/"), nil
}

// JoinURI appends elems to a Cloud Storage URI.
func JoinURI(uri string, elems ...string) string {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		bucket = strings.TrimPrefix(uri, scheme)
	}
	p := path.Join(append([]string{object}, elems...)...)
	if p == "" || p == "." {
		return scheme + bucket
	}
	return scheme + bucket + "/" + p
}

// Stager ensures staging buckets exist.
type Stager struct {
	client *storage.Client
	logger *slog.Logger
	now    func() time.Time
}

// New returns a stager backed by client.
func New(client *storage.Client, logger *slog.Logger) *Stager {
	if logger == nil {
		logger = logging.Default()
	}
	return &Stager{client: client, logger: logger, now: time.Now}
}

// Resolve returns configured as a URI when set. Otherwise it returns the
// default bucket of project and location, creating it in location when it
// does not exist.
func (s *Stager) Resolve(ctx context.Context, configured, project, location string) (string, error) {
	if configured != "" {
		if !strings.HasPrefix(configured, scheme) {
			configured = scheme + configured
		}
		if _, _, err := ParseURI(configured); err != nil {
			return "", err
		}
		return strings.TrimSuffix(configured, "/"), nil
	}
	if project == "" {
		return "", errors.New("a project is required to derive the staging bucket")
	}

	name := DefaultBucketName(project, location)
	bucket := s.client.Bucket(name)
	_, err := bucket.Attrs(ctx)
	switch {
	case err == nil:
		return scheme + name, nil
	case !errors.Is(err, storage.ErrBucketNotExist):
		return "", fmt.Errorf("look up staging bucket %s: %w", name, err)
	}

	s.logger.InfoContext(ctx, "Creating staging bucket",
		slog.String("bucket", name),
		slog.String("location", location),
	)
	if err := bucket.Create(ctx, project, &storage.BucketAttrs{Location: location}); err != nil {
		return "", fmt.Errorf("create staging bucket %s: %w", name, err)
	}
	return scheme + name, nil
}

// TimestampedPrefix returns "{base}/{prefix}-{YYYYMMDDhhmmss}" for a new job output.
func (s *Stager) TimestampedPrefix(base, prefix string) string {
	return JoinURI(base, prefix+"-"+s.now().UTC().Format("20060102150405"))
}
