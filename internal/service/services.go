package service

import (
	"log/slog"

	redisx "github.com/gatepass/gatepass/internal/redis"
	postgres "github.com/gatepass/gatepass/internal/repository/postgres"
	redis "github.com/gatepass/gatepass/internal/repository/redis"
	"github.com/gatepass/gatepass/internal/service/admin"
	"github.com/gatepass/gatepass/internal/service/booking"
	"github.com/gatepass/gatepass/internal/service/discount"
	"github.com/gatepass/gatepass/internal/service/payment"
	"github.com/gatepass/gatepass/internal/service/query"
	"github.com/gatepass/gatepass/internal/service/sweeper"
)

type Services struct {
	Booking  *booking.Service
	Payment  *payment.Service
	Discount *discount.Service
	Sweeper  *sweeper.Service
	Query    *query.Service
	Admin    *admin.Service
}

type Config struct {
	Booking booking.Config
	Query   query.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redisx.EventsPubSub,
	limiter *redis.SlidingWindowLimiter,
	logger *slog.Logger,
	cfg Config,
) *Services {
	return &Services{
		Booking:  booking.New(store.Bookings(), store.Events(), store.Discounts(), cache, pubsub, limiter, logger, cfg.Booking),
		Payment:  payment.New(store.Bookings()),
		Discount: discount.New(store.Discounts()),
		Sweeper:  sweeper.New(store.Bookings(), cache, pubsub, logger),
		Query:    query.New(store, cache, cfg.Query),
		Admin:    admin.New(store, cache, pubsub),
	}
}
