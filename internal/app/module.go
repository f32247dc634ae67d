package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/tiyeni/coachpay/internal/app/api/server"
	"github.com/tiyeni/coachpay/internal/app/service/callbacklog"
	"github.com/tiyeni/coachpay/internal/app/service/payment"
	"github.com/tiyeni/coachpay/internal/app/service/settlement"
	"github.com/tiyeni/coachpay/internal/app/service/statistics"
	"github.com/tiyeni/coachpay/internal/app/service/subscription"
	"github.com/tiyeni/coachpay/internal/app/service/sweeper"
	"github.com/tiyeni/coachpay/internal/platform/db"
	"github.com/tiyeni/coachpay/internal/platform/paychangu"
	"github.com/tiyeni/coachpay/pkg/config"
	"github.com/tiyeni/coachpay/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	paychangu.Module,
	server.Module,
	subscription.Module,
	payment.Module,
	settlement.Module,
	callbacklog.Module,
	statistics.Module,
	sweeper.Module,
)
