package repository

import (
	"context"

	"content-marketplace/internal/domain/model"
)

// ProductRepository is the port for the purchasable catalog.
type ProductRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Product) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Product, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Product, error)
}
