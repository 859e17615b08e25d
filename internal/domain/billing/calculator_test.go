package billing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturas-api/internal/domain"
	"github.com/jhoicas/facturas-api/internal/domain/billing"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func lineInput(qty, price, disc, vat, ret string) billing.LineInput {
	return billing.LineInput{
		Quantity:       dec(qty),
		UnitPrice:      dec(price),
		DiscountPct:    dec(disc),
		VATPct:         dec(vat),
		WithholdingPct: dec(ret),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Round2
// ──────────────────────────────────────────────────────────────────────────────

func TestRound2_HalfAwayFromZero(t *testing.T) {
	cases := []struct{ in, want string }{
		{"10.005", "10.01"},
		{"10.004", "10.00"},
		{"-10.005", "-10.01"},
		{"0.125", "0.13"},
		{"2.675", "2.68"}, // el clásico que falla con floats binarios
		{"100", "100"},
	}
	for _, c := range cases {
		got := billing.Round2(dec(c.in))
		assert.True(t, got.Equal(dec(c.want)), "Round2(%s) = %s, esperado %s", c.in, got, c.want)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// ComputeLine
// ──────────────────────────────────────────────────────────────────────────────

// TestComputeLine_VectorReferencia es el vector de referencia del motor:
// 3 × 100.00 con 10% de descuento y 21% de IVA.
func TestComputeLine_VectorReferencia(t *testing.T) {
	res, err := billing.ComputeLine(lineInput("3", "100.00", "10", "21", "0"))
	require.NoError(t, err)

	assert.True(t, res.Subtotal.Equal(dec("270.00")), "subtotal = %s", res.Subtotal)
	assert.True(t, res.VATAmount.Equal(dec("56.70")), "iva = %s", res.VATAmount)
	assert.True(t, res.WithholdingAmount.Equal(dec("0")), "retención = %s", res.WithholdingAmount)
	assert.True(t, res.Total.Equal(dec("326.70")), "total = %s", res.Total)
}

func TestComputeLine_ConRetencion(t *testing.T) {
	// Servicio profesional típico: 1 × 1000, 21% IVA, 15% retención IRPF.
	res, err := billing.ComputeLine(lineInput("1", "1000.00", "0", "21", "15"))
	require.NoError(t, err)

	assert.True(t, res.Subtotal.Equal(dec("1000.00")))
	assert.True(t, res.VATAmount.Equal(dec("210.00")))
	assert.True(t, res.WithholdingAmount.Equal(dec("150.00")))
	assert.True(t, res.Total.Equal(dec("1060.00")))
}

func TestComputeLine_DescuentoRedondeaAntesDeRestar(t *testing.T) {
	// bruto = 3 × 33.33 = 99.99; descuento 7% = 6.9993 → 7.00 (redondeado
	// antes de restar); subtotal = 92.99.
	res, err := billing.ComputeLine(lineInput("3", "33.33", "7", "21", "0"))
	require.NoError(t, err)

	assert.True(t, res.Subtotal.Equal(dec("92.99")), "subtotal = %s", res.Subtotal)
	assert.True(t, res.VATAmount.Equal(dec("19.53")), "iva = %s", res.VATAmount)
	assert.True(t, res.Total.Equal(dec("112.52")), "total = %s", res.Total)
}

func TestComputeLine_Determinista(t *testing.T) {
	in := lineInput("2.5", "19.99", "5", "10", "7")
	r1, err1 := billing.ComputeLine(in)
	r2, err2 := billing.ComputeLine(in)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.True(t, r1.Subtotal.Equal(r2.Subtotal))
	assert.True(t, r1.VATAmount.Equal(r2.VATAmount))
	assert.True(t, r1.WithholdingAmount.Equal(r2.WithholdingAmount))
	assert.True(t, r1.Total.Equal(r2.Total))
}

func TestComputeLine_EntradasInvalidas(t *testing.T) {
	_, err := billing.ComputeLine(lineInput("0", "10.00", "0", "21", "0"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad cero debe rechazarse")

	_, err = billing.ComputeLine(lineInput("-1", "10.00", "0", "21", "0"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad negativa debe rechazarse")

	_, err = billing.ComputeLine(lineInput("1", "-0.01", "0", "21", "0"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "precio negativo debe rechazarse")
}

func TestComputeLine_PrecioCeroValido(t *testing.T) {
	res, err := billing.ComputeLine(lineInput("5", "0", "0", "21", "0"))
	require.NoError(t, err)
	assert.True(t, res.Total.IsZero())
}

// ──────────────────────────────────────────────────────────────────────────────
// Aggregate
// ──────────────────────────────────────────────────────────────────────────────

func TestAggregate_DosLineasIguales(t *testing.T) {
	line, err := billing.ComputeLine(lineInput("3", "100.00", "10", "21", "0"))
	require.NoError(t, err)

	totals := billing.Aggregate([]billing.LineResult{line, line})
	assert.True(t, totals.Subtotal.Equal(dec("540.00")), "subtotal = %s", totals.Subtotal)
	assert.True(t, totals.VATTotal.Equal(dec("113.40")), "iva = %s", totals.VATTotal)
	assert.True(t, totals.WithholdingTotal.Equal(dec("0")))
	assert.True(t, totals.GrandTotal.Equal(dec("653.40")), "total = %s", totals.GrandTotal)
}

func TestAggregate_ListaVaciaEsCero(t *testing.T) {
	totals := billing.Aggregate(nil)
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.VATTotal.IsZero())
	assert.True(t, totals.WithholdingTotal.IsZero())
	assert.True(t, totals.GrandTotal.IsZero())
}

func TestAggregate_Idempotente(t *testing.T) {
	lines := make([]billing.LineResult, 0, 3)
	for _, in := range []billing.LineInput{
		lineInput("1", "10.01", "0", "21", "0"),
		lineInput("7", "3.33", "2", "10", "0"),
		lineInput("2", "450.00", "0", "21", "15"),
	} {
		res, err := billing.ComputeLine(in)
		require.NoError(t, err)
		lines = append(lines, res)
	}
	t1 := billing.Aggregate(lines)
	t2 := billing.Aggregate(lines)
	assert.True(t, t1.Subtotal.Equal(t2.Subtotal))
	assert.True(t, t1.GrandTotal.Equal(t2.GrandTotal))
}

// TestAggregate_LeyDeRedondeoPorLinea fija el contrato de redondeo: el
// subtotal agregado es la suma de los subtotales YA redondeados por línea, no
// el redondeo de la suma exacta. Con tres líneas de 0.125 la diferencia es
// observable: 3 × Round2(0.125) = 0.39, mientras que Round2(0.375) = 0.38.
func TestAggregate_LeyDeRedondeoPorLinea(t *testing.T) {
	line, err := billing.ComputeLine(lineInput("0.5", "0.25", "0", "0", "0"))
	require.NoError(t, err)
	require.True(t, line.Subtotal.Equal(dec("0.13")), "cada línea redondea 0.125 → 0.13")

	totals := billing.Aggregate([]billing.LineResult{line, line, line})
	assert.True(t, totals.Subtotal.Equal(dec("0.39")),
		"la suma de líneas redondeadas (0.39) debe prevalecer sobre Round2(0.375)=0.38")

	// Y la suma de los subtotales por línea siempre coincide con el agregado.
	manual := line.Subtotal.Add(line.Subtotal).Add(line.Subtotal)
	assert.True(t, totals.Subtotal.Equal(manual))
}
