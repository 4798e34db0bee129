// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package clientfactory builds versioned service clients from an [initializer.Config].
//
// A [Factory] resolves the endpoint, transport, credentials and user agent of
// a client, constructs it lazily on first use and caches it. Construction does
// not perform any RPC.
package clientfactory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"cloud.google.com/go/auth"
	"google.golang.org/api/option"

	aiplatform "github.com/go-a2a/aiplatform-go"
	"github.com/go-a2a/aiplatform-go/initializer"
	"github.com/go-a2a/aiplatform-go/internal/goruntime"
	"github.com/go-a2a/aiplatform-go/resourcename"
	"github.com/go-a2a/aiplatform-go/vertexerr"
)

// Version is a wire-protocol version of the service.
type Version string

const (
	V1      Version = "v1"
	V1Beta1 Version = "v1beta1"
)

// Kind names a service.
type Kind string

const (
	KindModelMonitoring Kind = "ModelMonitoringService"
	KindSchedule        Kind = "ScheduleService"
	KindModelGarden     Kind = "ModelGardenService"
	KindJob             Kind = "JobService"
)

const (
	defaultBase = "aiplatform.googleapis.com"
	mtlsBase    = "aiplatform.mtls.googleapis.com"

	modulePrefix = "github.com/go-a2a/aiplatform-go/"
)

type options struct {
	credentials       *auth.Credentials
	locationOverride  string
	prediction        bool
	async             bool
	apiBaseOverride   string
	apiKey            string
	appendedUserAgent []string
	appendedVersion   string
	version           Version
	logger            *slog.Logger
}

// Option configures a [Factory].
type Option func(*options)

// WithCredentials overrides the configured credentials.
func WithCredentials(creds *auth.Credentials) Option {
	return func(o *options) { o.credentials = creds }
}

// WithLocationOverride addresses a location other than the configured one.
func WithLocationOverride(location string) Option {
	return func(o *options) { o.locationOverride = location }
}

// WithPrediction marks the clients as prediction-plane clients.
// They are cached apart from control-plane clients of the same kind.
func WithPrediction() Option {
	return func(o *options) { o.prediction = true }
}

// WithAsync requests the asynchronous variant of a client, which honors the rest_async transport.
func WithAsync() Option {
	return func(o *options) { o.async = true }
}

// WithAPIBaseOverride replaces the "aiplatform.googleapis.com" base of composed endpoints.
func WithAPIBaseOverride(base string) Option {
	return func(o *options) { o.apiBaseOverride = base }
}

// WithAPIKey overrides the configured API key.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithAppendedUserAgent appends tool tags to the user agent.
func WithAppendedUserAgent(tools ...string) Option {
	return func(o *options) { o.appendedUserAgent = append(o.appendedUserAgent, tools...) }
}

// WithAppendedVersion appends a suffix to the library version of the user agent.
func WithAppendedVersion(suffix string) Option {
	return func(o *options) { o.appendedVersion = suffix }
}

// WithVersion selects the API version, [V1] by default.
func WithVersion(v Version) Option {
	return func(o *options) { o.version = v }
}

// WithLogger sets the logger of the factory.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

type cacheKey struct {
	kind       Kind
	version    Version
	transport  initializer.Transport
	location   string
	prediction bool
}

// cache is shared by a factory and the siblings returned by [Factory.SelectVersion].
type cache struct {
	mu      sync.Mutex
	clients map[cacheKey]any
}

// Factory builds and caches service clients. It is safe for concurrent use.
type Factory struct {
	cfg   *initializer.Config
	opts  options
	cache *cache
}

// New returns a factory reading its defaults from cfg.
func New(cfg *initializer.Config, opts ...Option) *Factory {
	o := options{version: V1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = cfg.Logger()
	}
	return &Factory{
		cfg:   cfg,
		opts:  o,
		cache: &cache{clients: make(map[cacheKey]any)},
	}
}

// Config returns the configuration of the factory.
func (f *Factory) Config() *initializer.Config { return f.cfg }

// Version returns the API version of the factory.
func (f *Factory) Version() Version { return f.opts.version }

// SelectVersion returns a sibling factory for version v that shares the client cache.
func (f *Factory) SelectVersion(v Version) *Factory {
	if v == f.opts.version {
		return f
	}
	o := f.opts
	o.version = v
	return &Factory{cfg: f.cfg, opts: o, cache: f.cache}
}

// Settings is the outcome of endpoint, transport and credential resolution.
type Settings struct {
	// Host is the endpoint host without scheme or port.
	Host      string
	Transport initializer.Transport
	Location  string
	Project   string
	UserAgent string

	// APIKey is set when the client authenticates with an API key instead of credentials.
	APIKey      string
	Credentials *auth.Credentials
}

// Endpoint returns the endpoint in the form expected by the transport:
// "host:443" for gRPC and "https://host" for REST.
func (s *Settings) Endpoint() string {
	if s.Transport == initializer.TransportGRPC {
		return s.Host + ":443"
	}
	return "https://" + s.Host
}

// Resolve computes the settings of the clients built by f.
func (f *Factory) Resolve(ctx context.Context) (*Settings, error) {
	const op = "clientfactory.Resolve"

	location := f.opts.locationOverride
	if location == "" {
		var err error
		location, err = f.cfg.Location()
		if err != nil {
			return nil, err
		}
	} else if location != resourcename.Global {
		if err := resourcename.ValidateRegion(location); err != nil {
			return nil, err
		}
	}

	apiKey := f.opts.apiKey
	if apiKey == "" {
		apiKey = f.cfg.APIKey()
	}

	project, err := f.cfg.Project(ctx)
	if err != nil && apiKey == "" {
		return nil, err
	}

	s := &Settings{
		Location:  location,
		Project:   project,
		Transport: f.transport(ctx, project, location),
		UserAgent: f.UserAgent(),
	}
	if location == resourcename.Global && s.Transport == initializer.TransportGRPC {
		return nil, vertexerr.InvalidArgument(op, "location %q requires the %q transport", location, initializer.TransportREST)
	}
	s.Host = f.host(location, project == "" && apiKey != "")

	switch {
	case project == "" && apiKey != "":
		s.APIKey = apiKey
	case f.opts.credentials != nil:
		s.Credentials = f.opts.credentials
	case s.Transport == initializer.TransportRESTAsync:
		s.Credentials = f.cfg.AsyncCredentials()
	default:
		creds, err := f.cfg.Credentials(ctx)
		if err != nil {
			return nil, err
		}
		s.Credentials = creds
	}

	return s, nil
}

func (f *Factory) host(location string, apiKeyOnly bool) string {
	if ep := f.cfg.APIEndpoint(); ep != "" {
		return strings.TrimSuffix(strings.TrimPrefix(ep, "https://"), ":443")
	}

	base := defaultBase
	switch mode := f.cfg.MTLSMode(); {
	case f.opts.apiBaseOverride != "":
		base = f.opts.apiBaseOverride
	case mode == initializer.MTLSAlways, mode == initializer.MTLSAuto && f.cfg.UseClientCertificate():
		base = mtlsBase
	}

	if location == resourcename.Global || apiKeyOnly {
		return base
	}
	return location + "-" + base
}

func (f *Factory) transport(ctx context.Context, project, location string) initializer.Transport {
	t := f.cfg.Transport()
	switch {
	case t == "" && (project == "" || location == resourcename.Global):
		return initializer.TransportREST
	case t == "":
		return initializer.TransportGRPC
	case t == initializer.TransportRESTAsync && !f.opts.async:
		return initializer.TransportREST
	case t == initializer.TransportRESTAsync && f.cfg.AsyncCredentials() == nil:
		f.opts.logger.WarnContext(ctx, "The rest_async transport requires async credentials, falling back to grpc")
		return initializer.TransportGRPC
	default:
		return t
	}
}

// UserAgent returns "{product}/{version}[+tool+{t}]...[+environment+{env}][+caller+{fn}]".
func (f *Factory) UserAgent() string {
	var sb strings.Builder
	sb.WriteString(aiplatform.Product)
	sb.WriteByte('/')
	sb.WriteString(aiplatform.Version)
	if f.opts.appendedVersion != "" {
		sb.WriteByte('+')
		sb.WriteString(f.opts.appendedVersion)
	}
	for _, tool := range f.opts.appendedUserAgent {
		sb.WriteString("+tool+")
		sb.WriteString(tool)
	}
	if env := f.cfg.Environment(); env != "" {
		sb.WriteString("+environment+")
		sb.WriteString(env)
	}
	if fn, ok := goruntime.TopCaller(modulePrefix, 1); ok {
		sb.WriteString("+caller+")
		sb.WriteString(fn)
	}
	return sb.String()
}

// ClientOptions resolves f and returns the options that configure a client with the result.
func (f *Factory) ClientOptions(ctx context.Context) ([]option.ClientOption, *Settings, error) {
	s, err := f.Resolve(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts := []option.ClientOption{
		option.WithEndpoint(s.Endpoint()),
		option.WithUserAgent(s.UserAgent),
	}
	switch {
	case s.APIKey != "":
		opts = append(opts, option.WithAPIKey(s.APIKey))
	case s.Credentials != nil:
		opts = append(opts, option.WithAuthCredentials(s.Credentials))
	}
	return opts, s, nil
}

// Constructor builds a client from client options, e.g. aiplatform.NewJobClient.
type Constructor[T any] func(ctx context.Context, opts ...option.ClientOption) (T, error)

// Client returns the cached client of kind for the transport and version of f,
// building it with grpcCtor or restCtor on first use.
func Client[T any](ctx context.Context, f *Factory, kind Kind, grpcCtor, restCtor Constructor[T]) (T, error) {
	var zero T

	opts, s, err := f.ClientOptions(ctx)
	if err != nil {
		return zero, err
	}
	key := cacheKey{
		kind:       kind,
		version:    f.opts.version,
		transport:  s.Transport,
		location:   s.Location,
		prediction: f.opts.prediction,
	}

	f.cache.mu.Lock()
	defer f.cache.mu.Unlock()

	if c, ok := f.cache.clients[key]; ok {
		if typed, ok := c.(T); ok {
			return typed, nil
		}
		return zero, fmt.Errorf("cached %s client has type %T", kind, c)
	}

	ctor := grpcCtor
	if s.Transport != initializer.TransportGRPC {
		ctor = restCtor
	}
	if ctor == nil {
		return zero, vertexerr.InvalidArgument("clientfactory.Client", "%s %s has no %s client", kind, f.opts.version, s.Transport)
	}

	f.opts.logger.DebugContext(ctx, "Creating service client",
		slog.String("kind", string(kind)),
		slog.String("version", string(f.opts.version)),
		slog.String("transport", string(s.Transport)),
		slog.String("endpoint", s.Endpoint()),
	)
	c, err := ctor(ctx, opts...)
	if err != nil {
		return zero, fmt.Errorf("failed to create %s client: %w", kind, err)
	}
	f.cache.clients[key] = c
	return c, nil
}

// Close closes every cached client.
func (f *Factory) Close() error {
	f.cache.mu.Lock()
	defer f.cache.mu.Unlock()

	var errs []error
	for key, c := range f.cache.clients {
		if cl, ok := c.(io.Closer); ok {
			if err := cl.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		delete(f.cache.clients, key)
	}
	return errors.Join(errs...)
}
