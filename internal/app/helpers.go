package app

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"service-dispatch/internal/config"
	"service-dispatch/internal/domain"
	ordergw "service-dispatch/internal/gateway/orders"
	"service-dispatch/internal/genai"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/notify"
	"service-dispatch/internal/presence"
	"service-dispatch/internal/service/chat"
	"service-dispatch/internal/service/delivery"
	"service-dispatch/internal/service/dispatch"
	"service-dispatch/internal/service/orders"
	"service-dispatch/internal/service/otp"
	"service-dispatch/internal/transport/kafka"
	"service-dispatch/internal/transport/ws"
)

// wsPresence narrows *ws.Conn down to the registry's Sink.
type wsPresence struct {
	reg *presence.Registry
}

func (w wsPresence) Register(identity string, conn *ws.Conn)   { w.reg.Register(identity, conn) }
func (w wsPresence) Unregister(identity string, conn *ws.Conn) { w.reg.Unregister(identity, conn) }
func (w wsPresence) SetStatus(identity string, status domain.PresenceStatus) {
	w.reg.SetStatus(identity, status)
}
func (w wsPresence) Watch(observer, target string)   { w.reg.Watch(observer, target) }
func (w wsPresence) Unwatch(observer, target string) { w.reg.Unwatch(observer, target) }

func newHTTPGateway(cfg *config.Config) *ordergw.HTTPGateway {
	return ordergw.NewHTTPGateway(cfg.Orders.BaseURL, nil)
}

type retryingGatewayIn struct {
	dig.In
	Cfg     *config.Config
	Next    *ordergw.HTTPGateway
	Logger  logx.Logger
	Retries prometheus.Counter `name:"gateway_retries_total"`
}

func newRetryingGateway(in retryingGatewayIn) *ordergw.RetryingGateway {
	if in.Next == nil {
		return nil
	}
	o := in.Cfg.Orders
	return ordergw.NewRetryingGateway(in.Next, in.Logger, in.Retries, ordergw.RetryConfig{
		MaxAttempts: o.MaxAttempts,
		BaseDelay:   o.BaseDelay,
		MaxDelay:    o.MaxDelay,
	})
}

func newDispatchOrderNotifier(gw *ordergw.RetryingGateway) dispatch.OrderNotifier {
	if gw == nil {
		return nil
	}
	return gw
}

func newDeliveryOrderNotifier(gw *ordergw.RetryingGateway, logger logx.Logger) delivery.OrderNotifier {
	if gw == nil {
		return nopOrderNotifier{logger: logger}
	}
	return gw
}

// nopOrderNotifier stands in when no orders endpoint is configured; terminal
// transitions still complete locally.
type nopOrderNotifier struct {
	logger logx.Logger
}

func (n nopOrderNotifier) DeliveryCompleted(_ context.Context, orderID string) error {
	n.logger.Debug("orders endpoint not configured, completion not forwarded",
		logx.String("order_id", orderID),
	)
	return nil
}

func (n nopOrderNotifier) DeliveryCancelled(_ context.Context, orderID, _ string) error {
	n.logger.Debug("orders endpoint not configured, cancellation not forwarded",
		logx.String("order_id", orderID),
	)
	return nil
}

// ordersGatewayAdapter maps the wire-level order onto the processor's view.
type ordersGatewayAdapter struct {
	gw *ordergw.RetryingGateway
}

func (a ordersGatewayAdapter) GetByID(ctx context.Context, id string) (*orders.OrderDetails, error) {
	ord, err := a.gw.GetByID(ctx, id)
	if err != nil || ord == nil {
		return nil, err
	}
	return &orders.OrderDetails{
		ID:         ord.ID,
		Status:     ord.Status,
		CustomerID: ord.CustomerID,
		Drop:       ord.Drop,
	}, nil
}

func (a ordersGatewayAdapter) Candidates(ctx context.Context, id string) ([]string, error) {
	return a.gw.Candidates(ctx, id)
}

func newOrdersGateway(gw *ordergw.RetryingGateway) orders.Gateway {
	if gw == nil {
		return nil
	}
	return ordersGatewayAdapter{gw: gw}
}

func newNotifier(cfg *config.Config, logger logx.Logger) (otp.Notifier, error) {
	t := cfg.Twilio
	if t.AccountSID == "" {
		return notify.NewNopSender(logger), nil
	}
	return notify.NewTwilioSender(t.AccountSID, t.AuthToken, t.From, logger)
}

func newChatProducer(cfg *config.Config, logger logx.Logger) (*kafka.Producer, error) {
	return kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ChatTopic, logger)
}

func newChatMirror(p *kafka.Producer) chat.Mirror {
	if p == nil {
		return nil
	}
	return p
}

func newSuggestionGenerator(logger logx.Logger) chat.SuggestionGenerator {
	c, err := genai.NewClient()
	if err != nil {
		logger.Info("reply suggestions disabled", logx.Any("reason", err))
		return nil
	}
	return c
}
