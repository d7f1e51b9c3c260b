package user

import (
	"time"

	"tracker-service/internal/domain"

	"github.com/uptrace/bun"
)

// User is an account. Role never changes after registration.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64       `bun:"id,pk,autoincrement" json:"id"`
	Email        string      `bun:"email,unique,notnull" json:"email"`
	Name         string      `bun:"name,notnull" json:"name"`
	PasswordHash string      `bun:"password_hash,notnull" json:"-"`
	Role         domain.Role `bun:"role,notnull" json:"role"`
	CreatedAt    time.Time   `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// Summary is the public projection shown to linked accounts.
type Summary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Email: u.Email}
}
