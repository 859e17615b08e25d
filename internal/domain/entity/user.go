package entity

import "time"

// Roles de usuario.
const (
	RoleAdmin    = "admin"
	RoleFacturas = "facturas"
)

// User representa un usuario de la aplicación (pertenece a una empresa).
type User struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	Status       string // active | disabled
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
