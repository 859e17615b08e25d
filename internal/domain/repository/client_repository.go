package repository

import (
	"context"

	"github.com/jhoicas/facturas-api/internal/domain/entity"
)

// ClientRepository puerto de persistencia de clientes.
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	Update(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, id string) (*entity.Client, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Client, error)
}
