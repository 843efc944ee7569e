package models

// Account roles. Drivers report completions; admins plan routes and manage the catalog.
const (
	RoleDriver = "driver"
	RoleAdmin  = "admin"
)

// ValidRole reports whether role is one the users table accepts
func ValidRole(role string) bool {
	return role == RoleDriver || role == RoleAdmin
}

// User is a login account. A driver's Name usually names the truck they run.
type User struct {
	ID        string `json:"id" db:"id"`
	Email     string `json:"email" db:"email"`
	Password  string `json:"-" db:"password"` // Never return password in JSON
	Name      string `json:"name" db:"name"`
	Role      string `json:"role" db:"role"` // RoleDriver or RoleAdmin
	CreatedAt int64  `json:"created_at" db:"created_at"`
	UpdatedAt int64  `json:"updated_at" db:"updated_at"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"created_at"`
}

func (u *User) ToUserResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
