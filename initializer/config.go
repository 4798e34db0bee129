// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package initializer holds the process-wide defaults shared by every client:
// project, location, credentials, staging bucket, endpoint override, transport
// and request metadata.
//
// Configuration is meant to happen once at startup:
//
//	if err := initializer.Init(
//		initializer.WithProject("my-project"),
//		initializer.WithLocation("us-central1"),
//	); err != nil {
//		log.Fatal(err)
//	}
//
// Unset values are discovered lazily from the environment and from
// Application Default Credentials on first read. Changing the project or the
// location while operations are in flight has undefined results for those
// operations.
package initializer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"cloud.google.com/go/auth"
	"cloud.google.com/go/auth/credentials"
	"github.com/tiendc/go-deepcopy"

	"github.com/go-a2a/aiplatform-go/pkg/logging"
	"github.com/go-a2a/aiplatform-go/resourcename"
	"github.com/go-a2a/aiplatform-go/vertexerr"
)

// CloudPlatformScope is the OAuth2 scope requested for discovered credentials.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// Config is a set of defaults shared by the clients built from it.
//
// The zero value is not usable; use [New] or [Global].
type Config struct {
	mu sync.RWMutex

	project          string
	location         string
	credentials      *auth.Credentials
	asyncCredentials *auth.Credentials
	encryptionKey    string
	network          string
	serviceAccount   string
	stagingBucket    string
	apiEndpoint      string
	apiKey           string
	transport        Transport
	requestMetadata  []string

	experiment *ExperimentTracker
	logger     *slog.Logger

	discovery *discovery

	getenv func(string) string
	detect func(opts *credentials.DetectOptions) (*auth.Credentials, error)
}

// New returns an empty configuration that discovers its values from the process environment.
func New() *Config {
	return &Config{
		experiment: &ExperimentTracker{},
		logger:     logging.Default(),
		getenv:     os.Getenv,
		detect:     credentials.DetectDefault,
	}
}

var global = sync.OnceValue(New)

// Global returns the process-wide configuration.
func Global() *Config { return global() }

// Init applies opts to the [Global] configuration.
func Init(opts ...Option) error { return Global().Init(opts...) }

// Init validates opts and then writes exactly the fields they supply.
//
// Changing the project or the location resets the experiment tracker.
// On error the configuration is left untouched.
func (c *Config) Init(opts ...Option) error {
	const op = "initializer.Init"

	var s settings
	for _, o := range opts {
		o(&s)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if s.transport != nil {
		switch *s.transport {
		case TransportGRPC, TransportREST, TransportRESTAsync:
		default:
			return vertexerr.InvalidArgument(op, "unsupported transport %q, want one of %q or %q", *s.transport, TransportGRPC, TransportREST)
		}
	}

	// Checked against the merged state so that a location and a transport
	// set by separate calls are validated together.
	loc, transport := c.location, c.transport
	if s.location != nil {
		loc = *s.location
		if loc != resourcename.Global {
			if err := resourcename.ValidateRegion(loc); err != nil {
				return err
			}
		}
	}
	if s.transport != nil {
		transport = *s.transport
	}
	var forceREST bool
	if loc == resourcename.Global {
		if transport != "" && transport != TransportREST {
			return vertexerr.InvalidArgument(op, "location %q only supports the %q transport, got %q", loc, TransportREST, transport)
		}
		forceREST = transport == ""
	}

	if s.metadataSet && len(s.requestMetadata)%2 != 0 {
		return vertexerr.InvalidArgument(op, "request metadata must be key/value pairs, got %d elements", len(s.requestMetadata))
	}

	if s.project != nil && s.apiKey != nil && *s.project != "" && *s.apiKey != "" {
		logger := c.logger
		if s.logger != nil {
			logger = s.logger
		}
		logger.Info("Both a project and an API key were provided, the project takes precedence",
			slog.String("project", *s.project))
	}

	reset := (s.project != nil && *s.project != c.project) || (s.location != nil && *s.location != c.location)

	if s.logger != nil {
		c.logger = s.logger
	}
	if s.project != nil {
		c.project = *s.project
	}
	if s.location != nil {
		c.location = *s.location
	}
	if s.credentials != nil {
		c.credentials = s.credentials
	}
	if s.tokenSource != nil {
		c.credentials = credentialsFromTokenSource(s.tokenSource, c.project)
	}
	if s.asyncCredentials != nil {
		c.asyncCredentials = s.asyncCredentials
	}
	if s.encryptionKey != nil {
		c.encryptionKey = *s.encryptionKey
	}
	if s.network != nil {
		c.network = *s.network
	}
	if s.serviceAccount != nil {
		c.serviceAccount = *s.serviceAccount
	}
	if s.stagingBucket != nil {
		c.stagingBucket = *s.stagingBucket
	}
	if s.apiEndpoint != nil {
		c.apiEndpoint = *s.apiEndpoint
	}
	if s.apiKey != nil {
		c.apiKey = *s.apiKey
	}
	if s.transport != nil {
		c.transport = *s.transport
	}
	if forceREST {
		c.transport = TransportREST
	}
	if s.metadataSet {
		c.requestMetadata = s.requestMetadata
	}

	if reset {
		c.experiment.Reset()
	}
	if s.experiment != nil {
		c.experiment.Set(*s.experiment, *s.experimentRun)
	}
	if s.credentials != nil || s.tokenSource != nil || s.project != nil {
		c.discovery = nil
	}

	return nil
}

// Location returns the configured location, then GOOGLE_CLOUD_REGION or
// CLOUD_ML_REGION, and finally [resourcename.DefaultLocation].
func (c *Config) Location() (string, error) {
	c.mu.RLock()
	loc := c.location
	getenv := c.getenv
	c.mu.RUnlock()

	if loc != "" {
		return loc, nil
	}
	for _, key := range []string{EnvRegion, EnvMLRegion} {
		v := getenv(key)
		if v == "" {
			continue
		}
		if v != resourcename.Global {
			if err := resourcename.ValidateRegion(v); err != nil {
				return "", fmt.Errorf("region from %s: %w", key, err)
			}
		}
		return v, nil
	}
	return resourcename.DefaultLocation, nil
}

// EncryptionKey returns the default encryption key name.
func (c *Config) EncryptionKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.encryptionKey
}

// Network returns the default VPC network.
func (c *Config) Network() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.network
}

// ServiceAccount returns the default service account.
func (c *Config) ServiceAccount() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serviceAccount
}

// StagingBucket returns the default staging location.
func (c *Config) StagingBucket() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stagingBucket
}

// APIEndpoint returns the endpoint override.
func (c *Config) APIEndpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiEndpoint
}

// APIKey returns the API key.
func (c *Config) APIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

// Transport returns the explicitly configured transport, or "" when none was set.
func (c *Config) Transport() Transport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.transport
}

// AsyncCredentials returns the credentials of asynchronous REST clients, if any.
func (c *Config) AsyncCredentials() *auth.Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.asyncCredentials
}

// RequestMetadata returns a copy of the key/value pairs sent with every request.
func (c *Config) RequestMetadata() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.requestMetadata)
}

// Experiment returns the experiment tracker.
func (c *Config) Experiment() *ExperimentTracker {
	return c.experiment
}

// Logger returns the configuration logger.
func (c *Config) Logger() *slog.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}

// Getenv reads an environment variable through the configuration.
func (c *Config) Getenv(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.getenv(key)
}

// Environment returns the hosting runtime tag from VERTEX_PRODUCT, e.g. "colab-enterprise".
func (c *Config) Environment() string {
	v := strings.TrimSpace(c.Getenv(EnvProduct))
	if v == "" {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(v), "_", "-")
}

// Settings is a plain copy of the explicitly configured values.
type Settings struct {
	Project         string
	Location        string
	EncryptionKey   string
	Network         string
	ServiceAccount  string
	StagingBucket   string
	APIEndpoint     string
	APIKey          string
	Transport       Transport
	RequestMetadata []string
	Experiment      string
	ExperimentRun   string
}

// Snapshot returns a deep copy of the explicitly configured values.
func (c *Config) Snapshot() (Settings, error) {
	c.mu.RLock()
	src := Settings{
		Project:         c.project,
		Location:        c.location,
		EncryptionKey:   c.encryptionKey,
		Network:         c.network,
		ServiceAccount:  c.serviceAccount,
		StagingBucket:   c.stagingBucket,
		APIEndpoint:     c.apiEndpoint,
		APIKey:          c.apiKey,
		Transport:       c.transport,
		RequestMetadata: c.requestMetadata,
	}
	c.mu.RUnlock()
	src.Experiment, src.ExperimentRun = c.experiment.Current()

	var dst Settings
	if err := deepcopy.Copy(&dst, src); err != nil {
		return Settings{}, fmt.Errorf("copy settings: %w", err)
	}
	return dst, nil
}

// Project returns the project, discovering it when unset.
// See [Config.Credentials] for the discovery order.
func (c *Config) Project(ctx context.Context) (string, error) {
	c.mu.RLock()
	project, apiKey := c.project, c.apiKey
	c.mu.RUnlock()
	if project != "" {
		return project, nil
	}

	d := c.discover(ctx)
	if d.project != "" {
		return d.project, nil
	}
	if apiKey != "" {
		return "", nil
	}
	return "", &vertexerr.Error{
		Kind:   vertexerr.KindConfigIncomplete,
		Op:     "initializer.Project",
		Detail: remediation,
		Err:    d.err,
	}
}

const remediation = "unable to determine the project, either\n" +
	"  1. call initializer.Init(initializer.WithProject(...)),\n" +
	"  2. set the " + EnvProject + " environment variable, or\n" +
	"  3. run `gcloud auth application-default login` and `gcloud config set project`"

// Credentials returns the configured credentials, discovering Application
// Default Credentials when unset.
//
// With only an API key configured, discovery failures are not an error and
// nil credentials are returned.
func (c *Config) Credentials(ctx context.Context) (*auth.Credentials, error) {
	c.mu.RLock()
	creds, apiKey, project := c.credentials, c.apiKey, c.project
	c.mu.RUnlock()
	if creds != nil {
		return creds, nil
	}

	d := c.discover(ctx)
	if d.credentials != nil {
		return d.credentials, nil
	}
	if apiKey != "" && project == "" {
		return nil, nil
	}
	return nil, &vertexerr.Error{
		Kind:   vertexerr.KindConfigIncomplete,
		Op:     "initializer.Credentials",
		Detail: "unable to find default credentials, run `gcloud auth application-default login` or set " + EnvCredentials,
		Err:    d.err,
	}
}
