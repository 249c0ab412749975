package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/repository"
	"content-marketplace/internal/infra/logging"
	"content-marketplace/internal/infra/redis"
)

type checkoutRequest struct {
	Items      []model.CartItem `json:"items"`
	CouponCode string           `json:"coupon_code"`
	PayType    string           `json:"pay_type"`
}

type checkoutResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	Discount      int64  `json:"discount"`
	PayURL        string `json:"pay_url,omitempty"`
	Completed     bool   `json:"completed"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buyer := buyerID(ctx)

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, redis.CheckoutKey(buyer), s.checkoutRate, time.Minute)
		if err != nil {
			logging.With(ctx, s.log).Warn().Err(err).Msg("rate limiter unavailable")
		} else if !ok {
			http.Error(w, domain.ErrRateLimited.Error(), http.StatusTooManyRequests)
			return
		}
	}

	res, err := s.checkoutUC.Checkout(ctx, buyer, req.Items, req.CouponCode, req.PayType)
	if err != nil {
		s.writeCheckoutError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, checkoutResponse{
		Success:       true,
		TransactionID: res.TransactionID,
		Amount:        res.Amount,
		Discount:      res.Discount,
		PayURL:        res.PayURL,
		Completed:     res.Completed,
	})
}

func (s *Server) writeCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrCouponNotApplicable),
		errors.Is(err, domain.ErrCouponExhausted),
		errors.Is(err, domain.ErrGatewayNotConfigured):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		s.log.Error().Err(err).Msg("checkout failed")
		http.Error(w, "checkout failed", http.StatusBadGateway)
	}
}

type couponValidateRequest struct {
	Code        string   `json:"code"`
	ProductRefs []string `json:"product_refs"`
}

func (s *Server) handleValidateCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req couponValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := s.couponUC.Validate(ctx, req.Code, req.ProductRefs)
	if err != nil {
		http.Error(w, "Failed to validate coupon", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products, err := s.products.ListAll(ctx, repository.NoTX)
	if err != nil {
		http.Error(w, "Failed to list products", http.StatusInternalServerError)
		return
	}

	type productView struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Price         int64  `json:"price"`
		AccessID      string `json:"access_id"`
		DurationValue int    `json:"duration_value"`
		DurationUnit  string `json:"duration_unit"`
	}
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, productView{
			ID: p.ID, Name: p.Name, Price: p.Price,
			AccessID: p.AccessID, DurationValue: p.DurationValue, DurationUnit: string(p.DurationUnit),
		})
	}

	writeJSON(w, http.StatusOK, struct {
		Data []productView `json:"data"`
	}{Data: out})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
