package subject

import (
	"time"

	"github.com/uptrace/bun"
)

type Subject struct {
	bun.BaseModel `bun:"table:subjects,alias:s"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	OwnerID   int64     `bun:"owner_id,notnull" json:"studentId"`
	Name      string    `bun:"name,notnull" json:"name"`
	Color     string    `bun:"color,notnull" json:"color"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

type CreateSubjectRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"required,hexcolor,len=7"`
}

// Defaults are seeded for every new student.
var Defaults = []struct {
	Name  string
	Color string
}{
	{"Mathematics", "#3B82F6"},
	{"Science", "#10B981"},
	{"English", "#F59E0B"},
	{"History", "#EF4444"},
	{"Geography", "#8B5CF6"},
	{"Art", "#EC4899"},
	{"Physical Education", "#06B6D4"},
	{"Music", "#84CC16"},
}
