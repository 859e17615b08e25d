package entity

import "time"

// Company representa una empresa emisora de facturas.
type Company struct {
	ID         string
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
