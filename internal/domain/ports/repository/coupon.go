package repository

import (
	"context"

	"content-marketplace/internal/domain/model"
)

// CouponRepository is the port for discount codes.
type CouponRepository interface {
	Save(ctx context.Context, tx Tx, c *model.Coupon) error

	// FindByCode returns every non-exhausted coupon row for the code.
	// One code may discount several products independently.
	FindByCode(ctx context.Context, tx Tx, code string) ([]*model.Coupon, error)

	// ConsumeUse increments used_count for the coupon row as a single
	// atomic check-and-increment against the durable counter. Returns
	// domain.ErrCouponExhausted when the limit would be exceeded.
	ConsumeUse(ctx context.Context, tx Tx, id string) error
}
