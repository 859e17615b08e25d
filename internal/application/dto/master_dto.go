package dto

import "github.com/shopspring/decimal"

// CreateCompanyRequest body para POST /api/companies.
type CreateCompanyRequest struct {
	Name       string `json:"name"`
	TaxID      string `json:"tax_id"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// CompanyResponse empresa en respuestas.
type CompanyResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TaxID      string `json:"tax_id"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// SaveClientRequest body para POST /api/clients y PUT /api/clients/:id.
type SaveClientRequest struct {
	Name       string `json:"name"`
	TaxID      string `json:"tax_id"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// ClientResponse cliente en respuestas.
type ClientResponse struct {
	ID         string `json:"id"`
	CompanyID  string `json:"company_id"`
	Name       string `json:"name"`
	TaxID      string `json:"tax_id"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// SaveProductRequest body para POST /api/products y PUT /api/products/:id.
// Los porcentajes por defecto solo sirven para autocompletar líneas en el
// formulario; el motor de cálculo usa los porcentajes de cada línea.
type SaveProductRequest struct {
	Code                  string          `json:"code,omitempty"`
	Name                  string          `json:"name"`
	Price                 decimal.Decimal `json:"price"`
	DefaultVATPct         decimal.Decimal `json:"default_vat_pct"`
	DefaultWithholdingPct decimal.Decimal `json:"default_withholding_pct"`
}

// ProductResponse producto en respuestas.
type ProductResponse struct {
	ID                    string          `json:"id"`
	CompanyID             string          `json:"company_id"`
	Code                  string          `json:"code,omitempty"`
	Name                  string          `json:"name"`
	Price                 decimal.Decimal `json:"price"`
	DefaultVATPct         decimal.Decimal `json:"default_vat_pct"`
	DefaultWithholdingPct decimal.Decimal `json:"default_withholding_pct"`
}
