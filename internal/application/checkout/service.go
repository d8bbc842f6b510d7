// Package checkout turns the cart into a submitted order and lists order
// history.
package checkout

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/takeout/client/internal/client"
	"github.com/takeout/client/internal/domain/cart"
	"github.com/takeout/client/internal/domain/shared"
	"github.com/takeout/client/internal/infrastructure/storage"
	"github.com/takeout/client/internal/infrastructure/telemetry"
)

// IdempotencyKeyHeader carries the snapshot id with the submitted order
const IdempotencyKeyHeader = "Idempotency-Key"

// Checkout outcomes recorded in metrics
const (
	OutcomeSubmitted = "submitted"
	OutcomeRejected  = "rejected"
	OutcomeEmpty     = "empty"
	OutcomeError     = "error"
)

// Sessions is the part of the session service checkout needs
type Sessions interface {
	ValidToken(ctx context.Context) (string, error)
	ExpireOnUnauthorized(ctx context.Context, err error) error
}

// Receipt describes a submitted order
type Receipt struct {
	Snapshot *cart.OrderSnapshot
	Message  string
	Data     json.RawMessage
}

// Service submits orders built from the cart
type Service struct {
	cart     *cart.Store
	api      *client.Client
	sessions Sessions
	store    storage.Store
	metrics  *telemetry.ClientMetrics
	logger   *zap.Logger
}

// NewService creates a checkout service. metrics may be nil.
func NewService(
	cartStore *cart.Store,
	api *client.Client,
	sessions Sessions,
	store storage.Store,
	metrics *telemetry.ClientMetrics,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cart:     cartStore,
		api:      api,
		sessions: sessions,
		store:    store,
		metrics:  metrics,
		logger:   logger,
	}
}

// ToOrderCreateDTO maps a snapshot to the save-order request body
func ToOrderCreateDTO(snap *cart.OrderSnapshot) client.OrderCreateDTO {
	items := make([]client.OrderItemCreate, len(snap.Items))
	for i, item := range snap.Items {
		items[i] = client.OrderItemCreate{CommodityID: item.ID, Quanity: item.Quantity}
	}
	return client.OrderCreateDTO{BusinessID: snap.BusinessID, OrderItems: items}
}

// Checkout snapshots the cart and submits it. On success the cart and the
// current order are cleared and the empty cart is persisted; on failure
// the cart is left as it was.
func (s *Service) Checkout(ctx context.Context) (*Receipt, error) {
	ctx, span := telemetry.StartSpan(ctx, "checkout.submit")
	defer span.End()

	token, err := s.sessions.ValidToken(ctx)
	if err != nil {
		s.metrics.ObserveCheckout(OutcomeError)
		return nil, err
	}

	snap, ok := s.cart.CreateOrder()
	if !ok {
		s.metrics.ObserveCheckout(OutcomeEmpty)
		return nil, shared.ErrEmptyCart
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrBusinessID, snap.BusinessID,
		telemetry.SpanAttrItemCount, snap.TotalQuantity(),
	)

	order := ToOrderCreateDTO(snap)
	resp, err := s.api.SavedOrder(ctx, &order,
		client.WithBearerToken(token),
		client.WithHeader(IdempotencyKeyHeader, snap.ID.String()),
	)
	if err := client.CheckResponse(resp, err); err != nil {
		s.metrics.ObserveCheckout(OutcomeError)
		telemetry.RecordError(span, err)
		s.logger.Warn("Order submission failed",
			zap.String("snapshot_id", snap.ID.String()),
			zap.Int64("business_id", snap.BusinessID),
			zap.Error(err),
		)
		return nil, s.sessions.ExpireOnUnauthorized(ctx, err)
	}
	if !resp.Data.Success {
		s.metrics.ObserveCheckout(OutcomeRejected)
		s.logger.Warn("Order rejected",
			zap.String("snapshot_id", snap.ID.String()),
			zap.String("reason", resp.Data.Message),
		)
		return nil, shared.NewDomainError(shared.ErrOrderRejected.Code, resp.Data.Message)
	}

	s.cart.ClearCart()
	s.cart.ClearCurrentOrder()
	if err := s.SaveCart(ctx); err != nil {
		s.logger.Warn("Failed to persist cleared cart", zap.Error(err))
	}

	s.metrics.ObserveCheckout(OutcomeSubmitted)
	s.logger.Info("Order submitted",
		zap.String("snapshot_id", snap.ID.String()),
		zap.Int64("business_id", snap.BusinessID),
		zap.String("total", snap.Total().Display()),
	)
	return &Receipt{Snapshot: snap, Message: resp.Data.Message, Data: resp.Data.Data}, nil
}

// Orders lists paid or unpaid orders of the logged-in user
func (s *Service) Orders(ctx context.Context, paid bool) ([]client.OrderTableDTO, error) {
	ctx, span := telemetry.StartSpan(ctx, "checkout.orders", telemetry.WithAttribute("paid", paid))
	defer span.End()

	token, err := s.sessions.ValidToken(ctx)
	if err != nil {
		return nil, err
	}

	var resp *client.Response[client.Result[[]client.OrderTableDTO]]
	if paid {
		resp, err = s.api.GetPayedOrder(ctx, client.WithBearerToken(token))
	} else {
		resp, err = s.api.GetUnpayOrder(ctx, client.WithBearerToken(token))
	}
	if err := client.CheckResponse(resp, err); err != nil {
		telemetry.RecordError(span, err)
		return nil, s.sessions.ExpireOnUnauthorized(ctx, err)
	}
	return resp.Data.Data, nil
}

// LoadCart restores the persisted cart, if any
func (s *Service) LoadCart(ctx context.Context) error {
	var st cart.State
	err := storage.GetJSON(ctx, s.store, storage.KeyCart, &st)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.cart.Restore(st)
	return nil
}

// SaveCart persists the cart
func (s *Service) SaveCart(ctx context.Context) error {
	return storage.SetJSON(ctx, s.store, storage.KeyCart, s.cart.State())
}
