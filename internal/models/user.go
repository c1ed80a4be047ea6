package models

// Role grants access to the storefront or the back office.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User represents a customer or an administrator.
type User struct {
	BaseModel
	Phone    string  `gorm:"uniqueIndex;size:20" json:"phone"`
	Name     *string `gorm:"size:100" json:"name"`
	Email    *string `gorm:"uniqueIndex;size:255" json:"email"`
	Password *string `json:"-"`
	Role     Role    `gorm:"size:16;default:USER" json:"role"`
	IsActive bool    `gorm:"not null" json:"isActive"`
	Token    *string `json:"-"`
	Orders   []Order `json:"orders,omitempty"`
}

// IsAdmin reports whether the user may access the back office.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
