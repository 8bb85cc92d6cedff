package app

import (
	"context"
	"time"

	"service-dispatch/internal/config"
	"service-dispatch/internal/service/delivery"
	"service-dispatch/internal/service/dispatch"
	"service-dispatch/internal/service/orders"
	"service-dispatch/internal/transport/kafka"
)

func newOrdersProcessor(dispatcher *dispatch.Dispatcher, deliveries *delivery.Service, gw orders.Gateway) *orders.Processor {
	return orders.NewProcessor(dispatcher, deliveries, gw)
}

// makeOrdersKafka enriches bus events with the authoritative order status
// before handing them to the processor. Events often carry a stale status;
// the orders service is the source of truth.
func makeOrdersKafka(p *orders.Processor, gw orders.Gateway) kafka.HandleFunc {
	return func(ctx context.Context, event orders.Event) error {
		if gw == nil {
			return p.Handle(ctx, event)
		}

		gwCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		ord, err := gw.GetByID(gwCtx, event.OrderID)
		if err != nil {
			return err
		}
		if ord == nil {
			return nil
		}

		event.Status = ord.Status
		return p.Handle(ctx, event)
	}
}

func newOrdersConsumer(cfg *config.Config, h kafka.HandleFunc) (*kafka.Consumer, error) {
	return kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic, h)
}
