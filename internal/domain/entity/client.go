package entity

import "time"

// Client representa un cliente receptor de facturas (pertenece a una empresa).
type Client struct {
	ID         string
	CompanyID  string
	Name       string
	TaxID      string // NIF/CIF
	Address    string
	City       string
	PostalCode string
	Email      string
	Phone      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
