// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package initializer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/auth"
	"cloud.google.com/go/auth/credentials"
	"cloud.google.com/go/auth/oauth2adapt"
	"golang.org/x/oauth2"
)

// Environment variables read during discovery.
const (
	EnvProject         = "GOOGLE_CLOUD_PROJECT"
	EnvGCloudProject   = "GCLOUD_PROJECT"
	EnvCloudSDKProject = "CLOUDSDK_CORE_PROJECT"
	EnvRegion          = "GOOGLE_CLOUD_REGION"
	EnvMLRegion        = "CLOUD_ML_REGION"
	EnvProduct         = "VERTEX_PRODUCT"
	EnvCredentials     = "GOOGLE_APPLICATION_CREDENTIALS"
	EnvUseClientCert   = "GOOGLE_API_USE_CLIENT_CERTIFICATE"
	EnvUseMTLSEndpoint = "GOOGLE_API_USE_MTLS_ENDPOINT"
)

// discovery is the cached outcome of a single discovery pass.
type discovery struct {
	project     string
	credentials *auth.Credentials
	err         error
}

// discover runs discovery once and caches its outcome until the project or the credentials are reconfigured.
func (c *Config) discover(ctx context.Context) *discovery {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.discovery != nil {
		return c.discovery
	}

	d := &discovery{}
	for _, key := range []string{EnvProject, EnvGCloudProject, EnvCloudSDKProject} {
		if v := strings.TrimSpace(c.getenv(key)); v != "" {
			d.project = v
			break
		}
	}

	creds := c.credentials
	if creds == nil {
		var err error
		creds, err = c.detect(&credentials.DetectOptions{
			Scopes: []string{CloudPlatformScope},
		})
		if err != nil {
			d.err = fmt.Errorf("detect default credentials: %w", err)
		}
	}
	d.credentials = creds

	if d.project == "" && creds != nil {
		project, err := creds.ProjectID(ctx)
		switch {
		case err != nil:
			d.err = errors.Join(d.err, fmt.Errorf("project from credentials: %w", err))
		default:
			d.project = project
		}
	}

	if d.err != nil {
		c.logger.DebugContext(ctx, "Discovery finished with errors", "error", d.err)
	}
	c.discovery = d
	return d
}

func credentialsFromTokenSource(ts oauth2.TokenSource, project string) *auth.Credentials {
	return auth.NewCredentials(&auth.CredentialsOptions{
		TokenProvider: oauth2adapt.TokenProviderFromTokenSource(ts),
		ProjectIDProvider: auth.CredentialsPropertyFunc(func(context.Context) (string, error) {
			return project, nil
		}),
	})
}

// MTLSMode is the preference for the mutual TLS endpoint.
type MTLSMode string

const (
	MTLSNever  MTLSMode = "never"
	MTLSAlways MTLSMode = "always"
	MTLSAuto   MTLSMode = "auto"
)

// MTLSMode returns the mTLS endpoint preference from GOOGLE_API_USE_MTLS_ENDPOINT, defaulting to [MTLSAuto].
func (c *Config) MTLSMode() MTLSMode {
	switch m := MTLSMode(strings.ToLower(strings.TrimSpace(c.Getenv(EnvUseMTLSEndpoint)))); m {
	case MTLSNever, MTLSAlways:
		return m
	default:
		return MTLSAuto
	}
}

// UseClientCertificate reports whether GOOGLE_API_USE_CLIENT_CERTIFICATE opts into client certificates.
func (c *Config) UseClientCertificate() bool {
	v, err := strconv.ParseBool(strings.TrimSpace(c.Getenv(EnvUseClientCert)))
	return err == nil && v
}
