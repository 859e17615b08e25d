package billing

import (
	"context"

	"github.com/jhoicas/facturas-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción con un repositorio de
// facturas atado a esa transacción. La asignación de número, la comprobación
// de unicidad y las escrituras de cabecera y líneas deben ver el mismo
// snapshot: por eso todas van dentro del mismo callback.
type TxRunner interface {
	RunInvoice(ctx context.Context, fn func(invoiceRepo repository.InvoiceRepository) error) error
}
