// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package initializer

import (
	"log/slog"

	"cloud.google.com/go/auth"
	"golang.org/x/oauth2"
)

// Transport selects the wire transport of service clients.
type Transport string

const (
	TransportGRPC      Transport = "grpc"
	TransportREST      Transport = "rest"
	TransportRESTAsync Transport = "rest_async"
)

// settings collects the fields supplied to a single [Config.Init] call.
// A nil pointer means the field was not supplied.
type settings struct {
	project          *string
	location         *string
	credentials      *auth.Credentials
	asyncCredentials *auth.Credentials
	tokenSource      oauth2.TokenSource
	encryptionKey    *string
	network          *string
	serviceAccount   *string
	stagingBucket    *string
	apiEndpoint      *string
	apiKey           *string
	transport        *Transport
	requestMetadata  []string
	metadataSet      bool
	experiment       *string
	experimentRun    *string
	logger           *slog.Logger
}

// Option configures [Config.Init].
type Option func(*settings)

// WithProject sets the default project id or number.
func WithProject(project string) Option {
	return func(s *settings) { s.project = &project }
}

// WithLocation sets the default location, a supported region or "global".
func WithLocation(location string) Option {
	return func(s *settings) { s.location = &location }
}

// WithCredentials sets the credentials used by every client.
func WithCredentials(creds *auth.Credentials) Option {
	return func(s *settings) { s.credentials = creds }
}

// WithAsyncCredentials sets the credentials used by asynchronous REST clients.
// Without them, asynchronous clients fall back from [TransportRESTAsync] to [TransportGRPC].
func WithAsyncCredentials(creds *auth.Credentials) Option {
	return func(s *settings) { s.asyncCredentials = creds }
}

// WithTokenSource sets an OAuth2 token source as the credentials of every client.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(s *settings) { s.tokenSource = ts }
}

// WithEncryptionKey sets the default customer managed encryption key.
func WithEncryptionKey(keyName string) Option {
	return func(s *settings) { s.encryptionKey = &keyName }
}

// WithNetwork sets the default VPC network for peered resources.
func WithNetwork(network string) Option {
	return func(s *settings) { s.network = &network }
}

// WithServiceAccount sets the default service account of jobs.
func WithServiceAccount(serviceAccount string) Option {
	return func(s *settings) { s.serviceAccount = &serviceAccount }
}

// WithStagingBucket sets the default Cloud Storage staging location, e.g. "gs://bucket/path".
func WithStagingBucket(bucket string) Option {
	return func(s *settings) { s.stagingBucket = &bucket }
}

// WithAPIEndpoint overrides the service endpoint host.
func WithAPIEndpoint(endpoint string) Option {
	return func(s *settings) { s.apiEndpoint = &endpoint }
}

// WithAPIKey sets an API key used when no project is configured.
func WithAPIKey(key string) Option {
	return func(s *settings) { s.apiKey = &key }
}

// WithTransport sets the wire transport.
func WithTransport(t Transport) Option {
	return func(s *settings) { s.transport = &t }
}

// WithRequestMetadata sets key/value pairs sent with every request.
// kv must hold an even number of elements.
func WithRequestMetadata(kv ...string) Option {
	return func(s *settings) {
		s.requestMetadata = append([]string(nil), kv...)
		s.metadataSet = true
	}
}

// WithExperiment sets the current experiment and, optionally, run.
func WithExperiment(experiment, run string) Option {
	return func(s *settings) {
		s.experiment = &experiment
		s.experimentRun = &run
	}
}

// WithLogger sets the logger used by the configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}
