package billing

import (
	"github.com/jhoicas/facturas-api/internal/domain"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// LineInput entrada cruda de una línea: cantidad, precio y porcentajes tal y
// como llegan del formulario. Los porcentajes van en 0..100.
type LineInput struct {
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	DiscountPct    decimal.Decimal
	VATPct         decimal.Decimal
	WithholdingPct decimal.Decimal
}

// LineResult importes derivados de una línea, ya redondeados a céntimo.
type LineResult struct {
	Subtotal          decimal.Decimal
	VATAmount         decimal.Decimal
	WithholdingAmount decimal.Decimal
	Total             decimal.Decimal
}

// InvoiceTotals totales de cabecera producidos por Aggregate.
type InvoiceTotals struct {
	Subtotal         decimal.Decimal
	VATTotal         decimal.Decimal
	WithholdingTotal decimal.Decimal
	GrandTotal       decimal.Decimal
}

// ComputeLine calcula los importes derivados de una línea:
//
//	bruto     = cantidad × precio
//	subtotal  = Round2(bruto − Round2(bruto × descuento/100))
//	iva       = Round2(subtotal × iva%/100)
//	retención = Round2(subtotal × retención%/100)
//	total     = Round2(subtotal + iva − retención)
//
// Retorna domain.ErrInvalidInput si cantidad ≤ 0 o precio < 0. Los porcentajes
// fuera de 0..100 se rechazan en la capa de caso de uso, no aquí.
func ComputeLine(in LineInput) (LineResult, error) {
	if !in.Quantity.GreaterThan(decimal.Zero) || in.UnitPrice.LessThan(decimal.Zero) {
		return LineResult{}, domain.ErrInvalidInput
	}

	gross := in.Quantity.Mul(in.UnitPrice)
	subtotal := Round2(gross)
	if in.DiscountPct.GreaterThan(decimal.Zero) {
		discount := Round2(gross.Mul(in.DiscountPct).Div(oneHundred))
		subtotal = Round2(gross.Sub(discount))
	}

	vat := decimal.Zero
	if in.VATPct.GreaterThan(decimal.Zero) {
		vat = Round2(subtotal.Mul(in.VATPct).Div(oneHundred))
	}
	withholding := decimal.Zero
	if in.WithholdingPct.GreaterThan(decimal.Zero) {
		withholding = Round2(subtotal.Mul(in.WithholdingPct).Div(oneHundred))
	}

	return LineResult{
		Subtotal:          subtotal,
		VATAmount:         vat,
		WithholdingAmount: withholding,
		Total:             Round2(subtotal.Add(vat).Sub(withholding)),
	}, nil
}

// Aggregate suma los cuatro importes por línea de forma independiente y
// redondea cada suma. Una lista vacía produce totales a cero: rechazar una
// factura sin líneas es responsabilidad del caso de uso, no de esta función.
func Aggregate(lines []LineResult) InvoiceTotals {
	var subtotal, vat, withholding decimal.Decimal
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal)
		vat = vat.Add(l.VATAmount)
		withholding = withholding.Add(l.WithholdingAmount)
	}
	subtotal = Round2(subtotal)
	vat = Round2(vat)
	withholding = Round2(withholding)
	return InvoiceTotals{
		Subtotal:         subtotal,
		VATTotal:         vat,
		WithholdingTotal: withholding,
		GrandTotal:       Round2(subtotal.Add(vat).Sub(withholding)),
	}
}
