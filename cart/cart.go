package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"storefront-bff/clients"
	"storefront-bff/fault"
	"storefront-bff/logger"
	"storefront-bff/models"
	"storefront-bff/session"
	"storefront-bff/store"
)

var validate = validator.New()

// Synchronizer mirrors the backend's authoritative cart for each session.
// Every mutation is a round trip whose response replaces the whole mirror;
// totals are never recomputed locally. Mutations carry a monotonically
// increasing sequence number per session so a response that arrives after a
// newer one has already been applied is discarded instead of overwriting it.
type Synchronizer struct {
	kv      store.KV
	gateway *clients.GatewayClient
	ttl     time.Duration
}

func NewSynchronizer(kv store.KV, gateway *clients.GatewayClient, ttl time.Duration) *Synchronizer {
	return &Synchronizer{kv: kv, gateway: gateway, ttl: ttl}
}

// mirror is the persisted form of a session's cart.
type mirror struct {
	Seq  int64        `json:"seq"`
	Cart *models.Cart `json:"cart"`
}

func mirrorKey(sessionID string) string { return "cart:" + sessionID }
func seqKey(sessionID string) string    { return "cart:seq:" + sessionID }

// Get returns the current mirror, or nil when none is held.
func (s *Synchronizer) Get(ctx context.Context, sess *session.Session) *models.Cart {
	data, err := s.kv.Get(ctx, mirrorKey(sess.ID))
	if err != nil {
		return nil
	}
	var m mirror
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil
	}
	return m.Cart
}

// Refresh fetches the backend cart into the mirror. When the session is not
// authenticated it only clears the mirror and issues no request. Called on
// every authentication-state transition.
func (s *Synchronizer) Refresh(ctx context.Context, sess *session.Session) (*models.Cart, error) {
	if !sess.IsAuthenticated() {
		s.Drop(ctx, sess)
		return nil, nil
	}
	return s.sync(ctx, sess, http.MethodGet, "/api/cart", nil)
}

// Add puts quantity units of a product in the cart.
func (s *Synchronizer) Add(ctx context.Context, sess *session.Session, productID int64, quantity int) (*models.Cart, error) {
	req := models.AddCartItemRequest{ProductID: productID, Quantity: quantity}
	if err := validate.Struct(req); err != nil {
		return nil, fault.New(http.StatusBadRequest, "Quantity must be at least 1", err)
	}
	return s.sync(ctx, sess, http.MethodPost, "/api/cart/items", clients.JSONBody(req))
}

// SetQuantity changes a line item's quantity. A quantity below 1 is rejected
// before dispatch and issues no request.
func (s *Synchronizer) SetQuantity(ctx context.Context, sess *session.Session, itemID int64, quantity int) (*models.Cart, error) {
	req := models.UpdateCartItemRequest{Quantity: quantity}
	if err := validate.Struct(req); err != nil {
		return nil, fault.New(http.StatusBadRequest, "Quantity must be at least 1", err)
	}
	return s.sync(ctx, sess, http.MethodPut, fmt.Sprintf("/api/cart/items/%d", itemID), clients.JSONBody(req))
}

// Remove deletes a line item.
func (s *Synchronizer) Remove(ctx context.Context, sess *session.Session, itemID int64) (*models.Cart, error) {
	return s.sync(ctx, sess, http.MethodDelete, fmt.Sprintf("/api/cart/items/%d", itemID), nil)
}

// Clear empties the cart.
func (s *Synchronizer) Clear(ctx context.Context, sess *session.Session) (*models.Cart, error) {
	return s.sync(ctx, sess, http.MethodDelete, "/api/cart", nil)
}

// Drop discards the mirror without contacting the backend, for logout.
func (s *Synchronizer) Drop(ctx context.Context, sess *session.Session) {
	if err := s.kv.Del(ctx, mirrorKey(sess.ID)); err != nil {
		logger.Error(ctx, "Failed to drop cart mirror", err)
	}
}

// ItemCount is the sum of quantities in the current mirror, derived on every
// call.
func (s *Synchronizer) ItemCount(ctx context.Context, sess *session.Session) int {
	return s.Get(ctx, sess).ItemCount()
}

// sync performs one round trip and replaces the mirror wholesale with the
// backend's response, unless a newer mutation has been applied meanwhile.
func (s *Synchronizer) sync(ctx context.Context, sess *session.Session, method, path string, body io.Reader) (*models.Cart, error) {
	seq, err := s.kv.Incr(ctx, seqKey(sess.ID))
	if err != nil {
		return nil, fault.New(http.StatusInternalServerError, "Failed to sequence cart mutation", err)
	}

	var cart models.Cart
	if err := s.gateway.DoJSON(ctx, method, path, nil, body, &cart); err != nil {
		return nil, err
	}

	s.apply(ctx, sess, seq, &cart)
	return &cart, nil
}

// apply writes the mirror if seq is not older than the last-applied
// sequence. Stale responses leave the mirror untouched.
func (s *Synchronizer) apply(ctx context.Context, sess *session.Session, seq int64, cart *models.Cart) {
	if data, err := s.kv.Get(ctx, mirrorKey(sess.ID)); err == nil {
		var current mirror
		if err := json.Unmarshal([]byte(data), &current); err == nil && current.Seq > seq {
			logger.Warn(ctx, "Discarding stale cart response")
			return
		}
	}

	data, _ := json.Marshal(mirror{Seq: seq, Cart: cart})
	if err := s.kv.Set(ctx, mirrorKey(sess.ID), string(data), s.ttl); err != nil {
		logger.Error(ctx, "Failed to persist cart mirror", err)
	}
}
