package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una factura.
const (
	InvoiceStatusDraft     = "DRAFT"     // Editable, aún no emitida
	InvoiceStatusIssued    = "ISSUED"    // Emitida (numerada y persistida)
	InvoiceStatusPaid      = "PAID"      // Cobrada
	InvoiceStatusCancelled = "CANCELLED" // Anulada
)

// Métodos de pago admitidos.
const (
	PaymentCash     = "CASH"
	PaymentTransfer = "TRANSFER"
	PaymentCard     = "CARD"
	PaymentCheck    = "CHECK"
)

// InvoiceRef es el identificador de negocio de una factura: serie + número
// dentro de una empresa. Es distinto del ID de fila (UUID), que solo existe
// para las claves foráneas de las líneas.
type InvoiceRef struct {
	CompanyID string
	Series    string
	Number    string
}

// String formatea la referencia como "SERIE-NÚMERO", p. ej. "A-000042".
func (r InvoiceRef) String() string {
	return r.Series + "-" + r.Number
}

// Invoice representa la cabecera de una factura con sus líneas.
// Los cuatro totales son derivados: siempre se recalculan a partir de las
// líneas antes de persistir, nunca se aceptan del cliente.
type Invoice struct {
	ID            string
	CompanyID     string
	ClientID      string
	Series        string
	Number        string
	IssueDate     time.Time
	PaymentMethod string
	Notes         string
	Status        string

	Subtotal         decimal.Decimal
	VATTotal         decimal.Decimal
	WithholdingTotal decimal.Decimal // Retención (IRPF) total, se resta del total
	GrandTotal       decimal.Decimal

	Lines []*InvoiceLine

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Ref devuelve el identificador de negocio (empresa, serie, número).
func (i *Invoice) Ref() InvoiceRef {
	return InvoiceRef{CompanyID: i.CompanyID, Series: i.Series, Number: i.Number}
}
