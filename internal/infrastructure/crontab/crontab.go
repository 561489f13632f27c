package crontab

import (
	"context"
	"fmt"
	"time"

	"github.com/mileusna/crontab"

	"nevis-server/internal/config"
	"nevis-server/internal/domain/generation"
	"nevis-server/internal/infrastructure/logger"
	"nevis-server/internal/infrastructure/metrics"
	"nevis-server/internal/utils/platformerrors"
)

const (
	DefaultSweepInterval = 5               // in minutes
	CronJobTimeout       = 2 * time.Minute // timeout for each sweep execution
)

// Crontab runs the periodic model health sweep, evicting dead cached
// instances so a recovered provider is picked up without a restart.
type Crontab struct {
	ctab    *crontab.Crontab
	factory *generation.Factory
	cfg     *config.Config
}

func NewCrontab(factory *generation.Factory, cfg *config.Config) *Crontab {
	return &Crontab{
		ctab:    crontab.New(),
		factory: factory,
		cfg:     cfg,
	}
}

func (c *Crontab) Run(ctx context.Context) error {
	log := logger.GetLogger()

	// execute once on server start
	c.sweep(ctx)

	if c.cfg.HealthSweepEnabled {
		interval := c.cfg.HealthSweepIntervalMinutes
		if interval <= 0 {
			interval = DefaultSweepInterval
		}
		cronExpr := fmt.Sprintf("*/%d * * * *", interval)
		if err := c.ctab.AddJob(cronExpr, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), CronJobTimeout)
			defer cancel()
			c.sweep(jobCtx)
		}); err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to add health sweep job")
		}
		log.Info().Msgf("Model health sweep scheduled: every %d minute(s)", interval)
	}

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

func (c *Crontab) sweep(ctx context.Context) {
	log := logger.GetLogger()
	health := c.factory.HealthCheck(ctx)
	unhealthy := 0
	for _, ok := range health {
		if !ok {
			unhealthy++
		}
	}
	metrics.ModelInstancesCached.Set(float64(len(health) - unhealthy))
	if unhealthy > 0 {
		log.Warn().Int("evicted", unhealthy).Int("checked", len(health)).Msg("health sweep evicted model instances")
		return
	}
	log.Debug().Int("checked", len(health)).Msg("health sweep completed")
}
