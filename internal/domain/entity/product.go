package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o servicio facturable.
// DefaultVATPct y DefaultWithholdingPct solo sirven para autocompletar el
// formulario: el motor de cálculo únicamente usa los porcentajes guardados en
// cada línea.
type Product struct {
	ID                    string
	CompanyID             string
	Code                  string
	Name                  string
	Price                 decimal.Decimal
	DefaultVATPct         decimal.Decimal
	DefaultWithholdingPct decimal.Decimal
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
