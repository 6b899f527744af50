package lookup

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Bogdan-dragos/vrm-api/internal/config"
	"github.com/Bogdan-dragos/vrm-api/internal/httpclient"
	"github.com/Bogdan-dragos/vrm-api/internal/models"
	"github.com/Bogdan-dragos/vrm-api/internal/providers"
)

// Outcome is one completed lookup: the merged record plus every
// upstream attempt made along the way, in provider order.
type Outcome struct {
	Record   models.VehicleRecord
	Attempts []models.Attempt
}

// Service fans a VRM out to the configured providers concurrently and
// merges their contributions. It holds no per-request state.
type Service struct {
	providers []providers.Provider
	policy    Policy
	budget    time.Duration
	logger    *zap.Logger
}

// New wires the three provider adapters onto a shared HTTP client.
// Providers without credentials stay in the list and no-op, so the
// merge sees a uniform set of partials.
func New(cfg config.Config, logger *zap.Logger) *Service {
	client := httpclient.New(cfg.HTTPTimeout)
	return &Service{
		providers: []providers.Provider{
			providers.NewDVLA(cfg.DVLA, client, logger),
			providers.NewDVSA(cfg.DVSA, client, logger),
			providers.NewVDG(cfg.VDG, client, logger),
		},
		policy: DefaultPolicy(),
		budget: cfg.LookupBudget,
		logger: logger,
	}
}

// Lookup runs all providers concurrently under a shared deadline. A
// provider that fails, times out or panics contributes an empty partial
// record; the merged record is always produced.
func (s *Service) Lookup(ctx context.Context, vrm string) Outcome {
	if s.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.budget)
		defer cancel()
	}

	partials := make([]models.PartialVehicleRecord, len(s.providers))
	traces := make([]*providers.Trace, len(s.providers))

	g, ctx := errgroup.WithContext(ctx)
	for i, p := range s.providers {
		i, p := i, p
		traces[i] = &providers.Trace{}
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("provider panicked",
						zap.String("provider", p.Name()), zap.Any("panic", r))
					partials[i] = models.PartialVehicleRecord{}
				}
			}()
			partials[i] = p.Lookup(ctx, vrm, traces[i])
			return nil
		})
	}
	g.Wait()

	byProvider := make(map[string]models.PartialVehicleRecord, len(s.providers))
	var attempts []models.Attempt
	for i, p := range s.providers {
		byProvider[p.Name()] = partials[i]
		attempts = append(attempts, traces[i].Attempts()...)
	}

	return Outcome{
		Record:   Merge(s.policy, vrm, byProvider),
		Attempts: attempts,
	}
}
