package entity

import "github.com/shopspring/decimal"

// InvoiceLine representa una línea de una factura. Pertenece a exactamente una
// factura y se destruye cuando el conjunto de líneas se reemplaza (update).
//
// LineNumber es 1..N denso: se reasigna en cada guardado según el orden de las
// líneas recibidas. Subtotal, VATAmount, WithholdingAmount y Total son
// derivados y se recalculan siempre en el servidor.
type InvoiceLine struct {
	ID          string
	InvoiceID   string
	LineNumber  int
	ProductID   string // opcional: referencia a producto, o vacío si es línea libre
	Description string

	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	DiscountPct    decimal.Decimal // 0..100, 0 por defecto
	VATPct         decimal.Decimal // 0..100
	WithholdingPct decimal.Decimal // 0..100, 0 por defecto

	Subtotal          decimal.Decimal
	VATAmount         decimal.Decimal
	WithholdingAmount decimal.Decimal
	Total             decimal.Decimal
}
