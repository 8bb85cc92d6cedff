package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"go.uber.org/dig"

	"service-dispatch/internal/logx"
	"service-dispatch/internal/transport/kafka"
)

// MustRun starts the HTTP server using the provided DI container
func MustRun(container *dig.Container) {
	if err := run(container); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			log.Println("shutdown requested, exiting")
			return
		case errors.Is(err, context.DeadlineExceeded):
			log.Println("startup aborted: startup timeout exceeded")
			return
		default:
			log.Fatalf("run error: %v", err)
		}
	}
}

// The order-event consumer shares the process with the HTTP server: dispatch
// state is in-memory and cannot be split across binaries.
func run(container *dig.Container) error {
	return container.Invoke(func(
		server *http.Server,
		ctx context.Context,
		consumer *kafka.Consumer,
		producer *kafka.Producer,
		appLogger logx.Logger,
		logger *log.Logger,
	) error {
		startConsumer(ctx, consumer, appLogger)
		startServer(server, logger)
		waitForShutdown(ctx, logger)
		gracefulShutdown(server, logger, 15*time.Second)
		closeResources(server, consumer, producer, logger)
		return nil
	})
}

func startConsumer(ctx context.Context, c *kafka.Consumer, logger logx.Logger) {
	if c == nil {
		return
	}
	go func() {
		if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("orders consumer stopped", logx.Any("err", err))
		}
	}()
}

func startServer(server *http.Server, logger *log.Logger) {
	go func() {
		logger.Printf("service-dispatch listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen error: %v", err)
		}
	}()
}

func waitForShutdown(ctx context.Context, logger *log.Logger) {
	<-ctx.Done()
	logger.Println("shutting down service-dispatch...")
}

func gracefulShutdown(srv *http.Server, logger *log.Logger, timeout time.Duration) {
	shCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Printf("graceful shutdown error: %v", err)
	}
}

func closeResources(server *http.Server, consumer *kafka.Consumer, producer *kafka.Producer, logger *log.Logger) {
	if err := consumer.Close(); err != nil {
		logger.Printf("kafka consumer close error: %v", err)
	}
	if err := producer.Close(); err != nil {
		logger.Printf("kafka producer close error: %v", err)
	}
	if err := server.Close(); err != nil {
		logger.Printf("server close error: %v", err)
	}
}
