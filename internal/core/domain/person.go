package domain

import "time"

// Person models a registered account holder.
type Person struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"nombre_completo"`
	Phone        string    `json:"telefono,omitempty"`
	Address      string    `json:"direccion,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
