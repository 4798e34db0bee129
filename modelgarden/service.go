// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package modelgarden

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"

	aiplatformv1 "cloud.google.com/go/aiplatform/apiv1"
	aiplatform "cloud.google.com/go/aiplatform/apiv1beta1"
	aiplatformpb "cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"
	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/go-a2a/aiplatform-go/initializer"
	"github.com/go-a2a/aiplatform-go/internal/clientfactory"
	"github.com/go-a2a/aiplatform-go/internal/staging"
	"github.com/go-a2a/aiplatform-go/internal/xiter"
	"github.com/go-a2a/aiplatform-go/lro"
	"github.com/go-a2a/aiplatform-go/resource"
	"github.com/go-a2a/aiplatform-go/vertexerr"
)

// Service gives access to the open models of Model Garden.
type Service struct {
	cfg     *initializer.Config
	api     API
	factory *clientfactory.Factory
	driver  *lro.Driver
	logger  *slog.Logger

	driverOpts []lro.DriverOption

	storageMu    sync.Mutex
	storage      *storage.Client
	ownedStorage bool
	stager       *staging.Stager
}

// Option configures a [Service].
type Option func(*Service)

// WithAPI replaces the generated clients, e.g. with a fake in tests.
func WithAPI(api API) Option {
	return func(s *Service) { s.api = api }
}

// WithLogger sets the logger of the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithStorageClient sets the Cloud Storage client used to resolve the staging
// bucket. By default one is built on first use from the configured credentials.
func WithStorageClient(c *storage.Client) Option {
	return func(s *Service) { s.storage = c }
}

// WithDriverOptions configures the operation driver.
func WithDriverOptions(opts ...lro.DriverOption) Option {
	return func(s *Service) { s.driverOpts = append(s.driverOpts, opts...) }
}

// NewService returns a service configured by cfg. A nil cfg means [initializer.Global].
func NewService(ctx context.Context, cfg *initializer.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = initializer.Global()
	}
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = cfg.Logger()
	}

	if s.api == nil {
		s.factory = clientfactory.New(cfg,
			clientfactory.WithVersion(clientfactory.V1Beta1),
			clientfactory.WithLogger(s.logger),
		)
		garden, err := clientfactory.Client[*aiplatform.ModelGardenClient](ctx, s.factory, clientfactory.KindModelGarden,
			aiplatform.NewModelGardenClient, aiplatform.NewModelGardenRESTClient)
		if err != nil {
			return nil, err
		}
		// The v1 job service has no REST client; it is built on the first
		// batch prediction so that a REST service can still browse and deploy.
		v1 := s.factory.SelectVersion(clientfactory.V1)
		jobs := func(ctx context.Context) (*aiplatformv1.JobClient, error) {
			return clientfactory.Client[*aiplatformv1.JobClient](ctx, v1, clientfactory.KindJob, aiplatformv1.NewJobClient, nil)
		}
		s.api = &gapicAPI{garden: garden, jobs: jobs, decorate: s.factory.Decorate}
	}

	s.driver = lro.NewDriver(s.api, append([]lro.DriverOption{lro.WithLogger(s.logger)}, s.driverOpts...)...)
	return s, nil
}

// Close releases the clients built by the service.
func (s *Service) Close() error {
	var err error
	if s.factory != nil {
		err = s.factory.Close()
	}
	s.storageMu.Lock()
	defer s.storageMu.Unlock()
	if s.ownedStorage && s.storage != nil {
		if cerr := s.storage.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// staging returns the stager, building a storage client on first use.
func (s *Service) staging(ctx context.Context) (*staging.Stager, error) {
	s.storageMu.Lock()
	defer s.storageMu.Unlock()

	if s.stager != nil {
		return s.stager, nil
	}
	if s.storage == nil {
		creds, err := s.cfg.Credentials(ctx)
		if err != nil {
			return nil, err
		}
		c, err := storage.NewClient(ctx, option.WithAuthCredentials(creds))
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		s.storage, s.ownedStorage = c, true
	}
	s.stager = staging.New(s.storage, s.logger)
	return s.stager, nil
}

const verifiedDeployment = "labels.VERIFIED_DEPLOYMENT_CONFIG=VERIFIED_DEPLOYMENT_SUCCEED"

// ListDeployableOptions narrows [Service.ListDeployable].
type ListDeployableOptions struct {
	// ThirdParty lists Hugging Face models instead of native ones.
	ThirdParty bool

	// Filter keeps models whose id or display name contains it, ignoring case.
	Filter string

	PageSize int32
}

// ListDeployable iterates the models with a verified deployment configuration.
// Native models are named "{publisher}/{model}@{version}" and third-party
// models "{org}/{model}".
func (s *Service) ListDeployable(ctx context.Context, opts ListDeployableOptions) iter.Seq2[string, error] {
	const op = "PublisherModel.ListDeployable"
	filter := deployableFilter(opts.ThirdParty, opts.Filter)
	pager := resource.NewPager(func(ctx context.Context, token string) (*resource.Page[*aiplatformpb.PublisherModel], error) {
		page, err := s.api.ListPublisherModels(ctx, &aiplatformpb.ListPublisherModelsRequest{
			Parent:          "publishers/*",
			Filter:          filter,
			PageSize:        opts.PageSize,
			PageToken:       token,
			ListAllVersions: true,
		})
		return page, vertexerr.FromRPC(op, "publishers/*", err)
	})

	s.logger.DebugContext(ctx, "Listing deployable models", slog.String("filter", filter))
	return xiter.Map(pager.All(ctx), func(pm *aiplatformpb.PublisherModel) (string, error) {
		return deployableName(pm, opts.ThirdParty), nil
	})
}

func deployableFilter(thirdParty bool, match string) string {
	filter := fmt.Sprintf("is_hf_wildcard(%t) AND %s", thirdParty, verifiedDeployment)
	if match != "" {
		filter += fmt.Sprintf(` AND (model_user_id=~"(?i).*%[1]s.*" OR display_name=~"(?i).*%[1]s.*")`, match)
	}
	return filter
}

// deployableName shortens a publisher model name for display.
func deployableName(pm *aiplatformpb.PublisherModel, thirdParty bool) string {
	v := publisherModel.Parse(strings.SplitN(pm.GetName(), "@", 2)[0])
	if v == nil {
		return pm.GetName()
	}
	if thirdParty {
		return strings.TrimPrefix(v["publisher"], hfPrefix) + "/" + v["model"]
	}
	name := v["publisher"] + "/" + v["model"]
	if ver := pm.GetVersionId(); ver != "" {
		name += "@" + ver
	}
	return name
}
