// Package xmlexport serializa una factura calculada a un XML plano para
// intercambio con gestorías y programas de contabilidad. Sin lógica de
// negocio: los importes vienen ya derivados de la entidad.
package xmlexport

import (
	"strconv"

	"github.com/beevik/etree"

	appbilling "github.com/jhoicas/facturas-api/internal/application/billing"
	"github.com/jhoicas/facturas-api/internal/domain/entity"
)

var _ appbilling.InvoiceXMLExporter = (*InvoiceXMLExporter)(nil)

// InvoiceXMLExporter implementa billing.InvoiceXMLExporter con etree.
type InvoiceXMLExporter struct{}

// NewInvoiceXMLExporter construye el exportador.
func NewInvoiceXMLExporter() *InvoiceXMLExporter { return &InvoiceXMLExporter{} }

// Export genera el documento XML de la factura.
func (e *InvoiceXMLExporter) Export(invoice *entity.Invoice, company *entity.Company, client *entity.Client) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Factura")
	root.CreateAttr("serie", invoice.Series)
	root.CreateAttr("numero", invoice.Number)
	root.CreateElement("FechaEmision").SetText(invoice.IssueDate.Format("2006-01-02"))
	root.CreateElement("FormaPago").SetText(invoice.PaymentMethod)
	root.CreateElement("Estado").SetText(invoice.Status)

	issuer := root.CreateElement("Emisor")
	issuer.CreateElement("Nombre").SetText(company.Name)
	issuer.CreateElement("NIF").SetText(company.TaxID)
	if company.Address != "" {
		issuer.CreateElement("Direccion").SetText(company.Address)
	}

	receiver := root.CreateElement("Receptor")
	receiver.CreateElement("Nombre").SetText(client.Name)
	receiver.CreateElement("NIF").SetText(client.TaxID)
	if client.Address != "" {
		receiver.CreateElement("Direccion").SetText(client.Address)
	}

	lines := root.CreateElement("Lineas")
	for _, l := range invoice.Lines {
		line := lines.CreateElement("Linea")
		line.CreateAttr("numero", strconv.Itoa(l.LineNumber))
		if l.ProductID != "" {
			line.CreateElement("ProductoID").SetText(l.ProductID)
		}
		if l.Description != "" {
			line.CreateElement("Descripcion").SetText(l.Description)
		}
		line.CreateElement("Cantidad").SetText(l.Quantity.String())
		line.CreateElement("PrecioUnitario").SetText(l.UnitPrice.StringFixed(2))
		line.CreateElement("Descuento").SetText(l.DiscountPct.StringFixed(2))
		line.CreateElement("TipoIVA").SetText(l.VATPct.StringFixed(2))
		line.CreateElement("TipoRetencion").SetText(l.WithholdingPct.StringFixed(2))
		line.CreateElement("BaseImponible").SetText(l.Subtotal.StringFixed(2))
		line.CreateElement("CuotaIVA").SetText(l.VATAmount.StringFixed(2))
		line.CreateElement("CuotaRetencion").SetText(l.WithholdingAmount.StringFixed(2))
		line.CreateElement("Importe").SetText(l.Total.StringFixed(2))
	}

	totals := root.CreateElement("Totales")
	totals.CreateElement("BaseImponible").SetText(invoice.Subtotal.StringFixed(2))
	totals.CreateElement("TotalIVA").SetText(invoice.VATTotal.StringFixed(2))
	totals.CreateElement("TotalRetencion").SetText(invoice.WithholdingTotal.StringFixed(2))
	totals.CreateElement("TotalFactura").SetText(invoice.GrandTotal.StringFixed(2))

	if invoice.Notes != "" {
		root.CreateElement("Observaciones").SetText(invoice.Notes)
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}
