package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"service-dispatch/internal/config"
	"service-dispatch/internal/http/handlers"
	"service-dispatch/internal/http/middleware/ratelimit"
	"service-dispatch/internal/http/pprofserver"
	"service-dispatch/internal/http/router"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/metrics"
	"service-dispatch/internal/presence"
	"service-dispatch/internal/service/call"
	"service-dispatch/internal/service/chat"
	"service-dispatch/internal/service/delivery"
	"service-dispatch/internal/service/dispatch"
	"service-dispatch/internal/service/location"
	"service-dispatch/internal/service/otp"
	"service-dispatch/internal/transport/ws"
)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	logFatalf func(string, ...interface{})
}

// NewContainerBuilder returns a new dig container builder
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		logFatalf: log.Fatalf,
	}
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds and returns a new dig container
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

// build builds and returns a new dig container
func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerMetrics(container); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if err := registerGateway(container); err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}
	if err := registerServices(container); err != nil {
		return nil, fmt.Errorf("services: %w", err)
	}
	if err := registerKafka(container); err != nil {
		return nil, fmt.Errorf("kafka: %w", err)
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds and returns a new dig container
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context) error {
	return provideAll(container,
		func() context.Context { return ctx },
		func() *log.Logger { return log.Default() },
		config.Load,
		NewLogger,
	)
}

func registerMetrics(container *dig.Container) error {
	named := []struct {
		name     string
		provider any
	}{
		{"rate_limit_exceeded_total", metrics.NewRateLimitExceededTotal},
		{"gateway_retries_total", metrics.NewGatewayRetriesTotal},
		{"assignment_accepts_total", metrics.NewAssignmentAcceptsTotal},
		{"assignment_race_lost_total", metrics.NewAssignmentRaceLostTotal},
		{"slow_consumer_drops_total", metrics.NewSlowConsumerDropsTotal},
		{"otp_failures_total", metrics.NewOTPFailuresTotal},
	}
	for _, m := range named {
		if err := container.Provide(m.provider, dig.Name(m.name)); err != nil {
			return fmt.Errorf("provide %s: %w", m.name, err)
		}
	}
	return nil
}

func registerGateway(container *dig.Container) error {
	return provideAll(container,
		newHTTPGateway,
		newRetryingGateway,
		newDispatchOrderNotifier,
		newDeliveryOrderNotifier,
		newOrdersGateway,
	)
}

func registerServices(container *dig.Container) error {
	return provideAll(container,
		newPresenceRegistry,
		newNotifier,
		newCodeService,
		func(s *otp.Service) delivery.CodeService { return s },
		newDispatcher,
		func(codes delivery.CodeService, reg *presence.Registry, orders delivery.OrderNotifier, logger logx.Logger) *delivery.Service {
			return delivery.NewService(codes, reg, orders, logger)
		},
		func(svc *delivery.Service, reg *presence.Registry, logger logx.Logger) *location.Relay {
			return location.NewRelay(svc, reg, logger)
		},
		newChatProducer,
		newChatMirror,
		newSuggestionGenerator,
		func(cfg *config.Config, reg *presence.Registry, mirror chat.Mirror, sg chat.SuggestionGenerator, logger logx.Logger) *chat.Service {
			return chat.NewService(reg, mirror, sg, cfg.Chat.TypingTimeout, logger)
		},
		func(cfg *config.Config, reg *presence.Registry, logger logx.Logger) *call.Service {
			return call.NewService(reg, cfg.Call.RingTimeout, logger)
		},
	)
}

func registerKafka(container *dig.Container) error {
	return provideAll(container,
		newOrdersProcessor,
		makeOrdersKafka,
		newOrdersConsumer,
	)
}

func registerHTTP(container *dig.Container) error {
	wsProvider := func(cfg *config.Config, reg *presence.Registry, chatSvc *chat.Service, callSvc *call.Service, relay *location.Relay, logger logx.Logger) *ws.Handler {
		return ws.NewHandler(wsPresence{reg: reg}, chatSvc, callSvc, relay, cfg.WS.SendBuffer, logger)
	}
	depsProvider := func(
		cfg *config.Config,
		base *handlers.Handlers,
		dispatchH *handlers.DispatchHandler,
		deliveryH *handlers.DeliveryHandler,
		presenceH *handlers.PresenceHandler,
		wsH *ws.Handler,
		rl *ratelimit.Middleware,
		logger logx.Logger,
	) router.Deps {
		d := router.Deps{
			Base:      base,
			Dispatch:  dispatchH,
			Delivery:  deliveryH,
			Presence:  presenceH,
			WS:        wsH,
			RateLimit: rl,
			Logger:    logger,
		}
		if cfg.Pprof.Enabled {
			d.Pprof = pprofserver.Handler(pprofserver.Config{
				User: cfg.Pprof.User,
				Pass: cfg.Pprof.Pass,
			})
		}
		return d
	}
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	return provideAll(container,
		handlers.New,
		handlers.NewDispatchUsecase,
		handlers.NewDispatchHandler,
		handlers.NewDeliveryUsecase,
		handlers.NewDeliveryHandler,
		handlers.NewPresenceReader,
		handlers.NewSuggester,
		handlers.NewPresenceHandler,
		newRateLimitClock,
		newRateLimiter,
		newRateLimitMiddleware,
		wsProvider,
		depsProvider,
		router.New,
		serverProvider,
	)
}

type presenceIn struct {
	dig.In
	Cfg    *config.Config
	Logger logx.Logger
	Drops  prometheus.Counter `name:"slow_consumer_drops_total"`
}

func newPresenceRegistry(in presenceIn) *presence.Registry {
	return presence.NewRegistry(in.Cfg.Presence.OfflineGrace, in.Logger, in.Drops)
}

type otpIn struct {
	dig.In
	Cfg      *config.Config
	Notifier otp.Notifier
	Logger   logx.Logger
	Failures prometheus.Counter `name:"otp_failures_total"`
}

func newCodeService(in otpIn) *otp.Service {
	o := in.Cfg.OTP
	return otp.NewService(in.Notifier, o.TTL, o.Digits, o.MaxAttempts, in.Logger, in.Failures)
}

type dispatcherIn struct {
	dig.In
	Cfg      *config.Config
	Registry *presence.Registry
	Orders   dispatch.OrderNotifier
	Logger   logx.Logger
	Accepts  prometheus.Counter `name:"assignment_accepts_total"`
	RaceLost prometheus.Counter `name:"assignment_race_lost_total"`
}

func newDispatcher(in dispatcherIn) *dispatch.Dispatcher {
	return dispatch.NewDispatcher(in.Registry, in.Orders, in.Cfg.Dispatch.BroadcastWindow, in.Logger, in.Accepts, in.RaceLost)
}
