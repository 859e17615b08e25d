package xmlexport_test

import (
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturas-api/internal/domain/entity"
	"github.com/jhoicas/facturas-api/internal/infrastructure/xmlexport"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleInvoice() (*entity.Invoice, *entity.Company, *entity.Client) {
	invoice := &entity.Invoice{
		ID:               "inv-1",
		CompanyID:        "co-1",
		ClientID:         "cl-1",
		Series:           "A",
		Number:           "000042",
		IssueDate:        time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		PaymentMethod:    entity.PaymentTransfer,
		Notes:            "Pago a 30 días",
		Status:           entity.InvoiceStatusIssued,
		Subtotal:         dec("270.00"),
		VATTotal:         dec("56.70"),
		WithholdingTotal: dec("0.00"),
		GrandTotal:       dec("326.70"),
		Lines: []*entity.InvoiceLine{
			{
				ID:                "l-1",
				InvoiceID:         "inv-1",
				LineNumber:        1,
				Description:       "Consultoría",
				Quantity:          dec("3"),
				UnitPrice:         dec("100.00"),
				DiscountPct:       dec("10"),
				VATPct:            dec("21"),
				WithholdingPct:    decimal.Zero,
				Subtotal:          dec("270.00"),
				VATAmount:         dec("56.70"),
				WithholdingAmount: dec("0.00"),
				Total:             dec("326.70"),
			},
		},
	}
	company := &entity.Company{ID: "co-1", Name: "Acme SL", TaxID: "B12345678", Address: "Calle Mayor 1"}
	client := &entity.Client{ID: "cl-1", CompanyID: "co-1", Name: "Cliente SA", TaxID: "A87654321"}
	return invoice, company, client
}

// El XML generado debe poder re-parsearse y conservar serie, número, partes y
// totales exactamente como los calculó el motor.
func TestExport_DocumentoCompleto(t *testing.T) {
	invoice, company, client := sampleInvoice()

	out, err := xmlexport.NewInvoiceXMLExporter().Export(invoice, company, client)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))

	root := doc.SelectElement("Factura")
	require.NotNil(t, root)
	assert.Equal(t, "A", root.SelectAttrValue("serie", ""))
	assert.Equal(t, "000042", root.SelectAttrValue("numero", ""))
	assert.Equal(t, "2026-01-15", root.SelectElement("FechaEmision").Text())

	assert.Equal(t, "Acme SL", root.FindElement("Emisor/Nombre").Text())
	assert.Equal(t, "B12345678", root.FindElement("Emisor/NIF").Text())
	assert.Equal(t, "Cliente SA", root.FindElement("Receptor/Nombre").Text())

	lines := root.FindElements("Lineas/Linea")
	require.Len(t, lines, 1)
	assert.Equal(t, "1", lines[0].SelectAttrValue("numero", ""))
	assert.Equal(t, "270.00", lines[0].SelectElement("BaseImponible").Text())
	assert.Equal(t, "56.70", lines[0].SelectElement("CuotaIVA").Text())

	assert.Equal(t, "270.00", root.FindElement("Totales/BaseImponible").Text())
	assert.Equal(t, "56.70", root.FindElement("Totales/TotalIVA").Text())
	assert.Equal(t, "326.70", root.FindElement("Totales/TotalFactura").Text())
	assert.Equal(t, "Pago a 30 días", root.SelectElement("Observaciones").Text())
}

// Los elementos opcionales (dirección, observaciones, producto) no deben
// aparecer vacíos en el documento.
func TestExport_OmiteOpcionalesVacios(t *testing.T) {
	invoice, company, client := sampleInvoice()
	invoice.Notes = ""
	company.Address = ""
	invoice.Lines[0].ProductID = ""

	out, err := xmlexport.NewInvoiceXMLExporter().Export(invoice, company, client)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	root := doc.SelectElement("Factura")
	require.NotNil(t, root)

	assert.Nil(t, root.SelectElement("Observaciones"))
	assert.Nil(t, root.FindElement("Emisor/Direccion"))
	assert.Nil(t, root.FindElement("Lineas/Linea/ProductoID"))
}
