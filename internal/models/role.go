package models

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Role is an application role. The seeded rows use their name as the ID.
type Role struct {
	BaseModel

	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`
	IsSystem    bool   `gorm:"default:false" json:"is_system"`

	Users []User `gorm:"many2many:user_roles;" json:"-"`
}

// ValidRole reports whether id names a known role.
func ValidRole(id string) bool {
	return id == RoleAdmin || id == RoleUser
}
