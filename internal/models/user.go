package models

// User represents a system user
type User struct {
	BaseModel

	Email    string `json:"email" db:"email" validate:"required,email"`
	Username string `json:"username" db:"username"`

	PasswordHash string `json:"-" db:"password_hash"`

	IsAdmin  bool `json:"isAdmin" db:"is_admin"`
	IsActive bool `json:"isActive" db:"is_active"`

	Settings Variables `json:"settings" db:"settings"`
}
