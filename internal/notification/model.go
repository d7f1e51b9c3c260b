package notification

import (
	"time"

	"github.com/uptrace/bun"
)

// Notification is an in-app inbox entry.
type Notification struct {
	bun.BaseModel `bun:"table:notifications,alias:n"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64     `bun:"user_id,notnull" json:"userId"`
	Title     string    `bun:"title,notnull" json:"title"`
	Message   string    `bun:"message,notnull" json:"message"`
	Type      string    `bun:"type,notnull" json:"type"`
	Read      bool      `bun:"is_read,notnull,default:false" json:"read"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

const (
	TypeTaskUpdate = "task_update"
	TypeLink       = "link"
)

// InboxLimit caps how many notifications a listing returns.
const InboxLimit = 100
