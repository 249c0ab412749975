// File: internal/usecase/coupon_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/repository"
	"content-marketplace/internal/infra/metrics"
)

// Compile-time check
var _ CouponUseCase = (*couponUC)(nil)

type CouponUseCase interface {
	// Validate checks a code against a set of products using catalog
	// prices. It does not consume usage slots.
	Validate(ctx context.Context, code string, productIDs []string) (*model.CouponValidation, error)

	// RedeemForCart consumes one usage slot per coupon row matching a
	// cart product and returns the applied effects, discounts clamped to
	// the captured cart prices. Rows whose limit is reached mid-flight
	// contribute nothing. Returns domain.ErrCouponNotApplicable when no
	// row could be redeemed at all.
	RedeemForCart(ctx context.Context, code string, items []model.CartItem) ([]model.AppliedCoupon, error)
}

type couponUC struct {
	coupons  repository.CouponRepository
	products repository.ProductRepository
	log      *zerolog.Logger
}

func NewCouponUseCase(coupons repository.CouponRepository, products repository.ProductRepository, logger *zerolog.Logger) *couponUC {
	return &couponUC{coupons: coupons, products: products, log: logger}
}

func (u *couponUC) Validate(ctx context.Context, code string, productIDs []string) (*model.CouponValidation, error) {
	res := &model.CouponValidation{Coupons: []model.AppliedCoupon{}}
	if code == "" || len(productIDs) == 0 {
		return res, nil
	}

	found, err := u.coupons.FindByCode(ctx, repository.NoTX, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return res, nil
		}
		return nil, err
	}

	requested := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		requested[id] = true
	}

	for _, c := range found {
		if c.Exhausted() || !requested[c.ProductID] {
			continue
		}
		p, err := u.products.FindByID(ctx, repository.NoTX, c.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		d := c.DiscountFor(p.Price)
		res.Coupons = append(res.Coupons, model.AppliedCoupon{Code: c.Code, ProductID: c.ProductID, Discount: d})
		res.Discount += d
	}

	res.Valid = len(res.Coupons) > 0
	return res, nil
}

func (u *couponUC) RedeemForCart(ctx context.Context, code string, items []model.CartItem) ([]model.AppliedCoupon, error) {
	found, err := u.coupons.FindByCode(ctx, repository.NoTX, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrCouponNotApplicable
		}
		return nil, err
	}

	// captured cart price per product; first occurrence wins
	priceFor := make(map[string]int64, len(items))
	for _, it := range items {
		if _, ok := priceFor[it.ProductID]; !ok {
			priceFor[it.ProductID] = it.Price
		}
	}

	var applied []model.AppliedCoupon
	for _, c := range found {
		price, inCart := priceFor[c.ProductID]
		if !inCart {
			continue
		}
		if err := u.coupons.ConsumeUse(ctx, repository.NoTX, c.ID); err != nil {
			if errors.Is(err, domain.ErrCouponExhausted) {
				metrics.IncCouponRedemption("exhausted")
				u.log.Debug().Str("coupon_code", code).Str("product_id", c.ProductID).Msg("coupon exhausted during redemption")
				continue
			}
			return nil, err
		}
		metrics.IncCouponRedemption("redeemed")
		applied = append(applied, model.AppliedCoupon{Code: c.Code, ProductID: c.ProductID, Discount: c.DiscountFor(price)})
	}

	if len(applied) == 0 {
		return nil, domain.ErrCouponNotApplicable
	}
	return applied, nil
}
