package repository

import (
	"context"

	"github.com/jhoicas/facturas-api/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia de facturas.
//
// Create y Update escriben cabecera y líneas como una sola pieza; la
// atomicidad la garantiza el caller ejecutándolos dentro de TxRunner. Update
// reemplaza el conjunto de líneas completo (delete + reinsert) con números de
// línea densos 1..N.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	Update(ctx context.Context, invoice *entity.Invoice) error
	Delete(ctx context.Context, id string) error
	// GetByID devuelve la factura con sus líneas ordenadas por line_number,
	// o nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// ListByCompany devuelve solo cabeceras, ordenadas por serie y número.
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Invoice, error)
	// ExistsNumber comprueba si (empresa, serie, número) ya está en uso,
	// excluyendo opcionalmente la factura que se está editando.
	ExistsNumber(ctx context.Context, companyID, series, number, excludingID string) (bool, error)
	// NextNumber calcula el siguiente número secuencial de la serie. Debe
	// ejecutarse dentro de la misma transacción que el insert posterior.
	NextNumber(ctx context.Context, companyID, series string) (string, error)
}
