package sweeper

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tiyeni/coachpay/pkg/config"
)

// registerCron schedules the sweep and ties the cron runner to the app
// lifecycle.
func registerCron(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *config.Config, svc *Service) error {
	c := cron.New()
	if _, err := c.AddFunc(cfg.Sweep.Schedule, func() {
		svc.Run(context.Background())
	}); err != nil {
		log.Errorf("invalid sweep schedule %q: %v", cfg.Sweep.Schedule, err)
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting expiry sweep", "schedule", cfg.Sweep.Schedule)
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping expiry sweep")
			<-c.Stop().Done()
			return nil
		},
	})
	return nil
}

var Module = fx.Options(
	fx.Provide(NewService),
	fx.Invoke(registerCron),
)
