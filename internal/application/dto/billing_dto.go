package dto

import "github.com/shopspring/decimal"

// SaveInvoiceRequest body para POST /api/invoices y PUT /api/invoices/:id.
// Number es opcional: si va vacío, el servidor asigna el siguiente de la serie.
// Los totales NO se aceptan del cliente: el servidor los recalcula siempre.
type SaveInvoiceRequest struct {
	ClientID      string               `json:"client_id"`
	Series        string               `json:"series"`
	Number        string               `json:"number,omitempty"`
	IssueDate     string               `json:"issue_date"` // YYYY-MM-DD; vacío = hoy
	PaymentMethod string               `json:"payment_method"`
	Notes         string               `json:"notes,omitempty"`
	Status        string               `json:"status,omitempty"`
	Lines         []InvoiceLineRequest `json:"lines"`
}

// InvoiceLineRequest línea de factura tal y como llega del formulario.
type InvoiceLineRequest struct {
	ProductID      string          `json:"product_id,omitempty"`
	Description    string          `json:"description,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountPct    decimal.Decimal `json:"discount_pct"`
	VATPct         decimal.Decimal `json:"vat_pct"`
	WithholdingPct decimal.Decimal `json:"withholding_pct"`
}

// InvoiceResponse factura completa para GET /api/invoices/:id.
type InvoiceResponse struct {
	ID               string                `json:"id"`
	CompanyID        string                `json:"company_id"`
	ClientID         string                `json:"client_id"`
	ClientName       string                `json:"client_name,omitempty"`
	Series           string                `json:"series"`
	Number           string                `json:"number"`
	IssueDate        string                `json:"issue_date"`
	PaymentMethod    string                `json:"payment_method"`
	Notes            string                `json:"notes,omitempty"`
	Status           string                `json:"status"`
	Subtotal         decimal.Decimal       `json:"subtotal"`
	VATTotal         decimal.Decimal       `json:"vat_total"`
	WithholdingTotal decimal.Decimal       `json:"withholding_total"`
	GrandTotal       decimal.Decimal       `json:"grand_total"`
	Lines            []InvoiceLineResponse `json:"lines"`
}

// InvoiceLineResponse línea con sus importes derivados.
type InvoiceLineResponse struct {
	ID                string          `json:"id"`
	LineNumber        int             `json:"line_number"`
	ProductID         string          `json:"product_id,omitempty"`
	Description       string          `json:"description,omitempty"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	DiscountPct       decimal.Decimal `json:"discount_pct"`
	VATPct            decimal.Decimal `json:"vat_pct"`
	WithholdingPct    decimal.Decimal `json:"withholding_pct"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	VATAmount         decimal.Decimal `json:"vat_amount"`
	WithholdingAmount decimal.Decimal `json:"withholding_amount"`
	Total             decimal.Decimal `json:"total"`
}

// InvoiceSummaryResponse cabecera para listados.
type InvoiceSummaryResponse struct {
	ID         string          `json:"id"`
	ClientID   string          `json:"client_id"`
	Series     string          `json:"series"`
	Number     string          `json:"number"`
	IssueDate  string          `json:"issue_date"`
	Status     string          `json:"status"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// PreviewTotalsRequest body para POST /api/invoices/preview (cálculo puro,
// sin I/O, para previsualizar totales mientras se edita el formulario).
type PreviewTotalsRequest struct {
	Lines []InvoiceLineRequest `json:"lines"`
}

// PreviewTotalsResponse totales previsualizados con sus líneas calculadas.
type PreviewTotalsResponse struct {
	Subtotal         decimal.Decimal       `json:"subtotal"`
	VATTotal         decimal.Decimal       `json:"vat_total"`
	WithholdingTotal decimal.Decimal       `json:"withholding_total"`
	GrandTotal       decimal.Decimal       `json:"grand_total"`
	Lines            []InvoiceLineResponse `json:"lines"`
}

// NextNumberResponse respuesta de GET /api/invoices/next-number.
type NextNumberResponse struct {
	Series string `json:"series"`
	Number string `json:"number"`
}
