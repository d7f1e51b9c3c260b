package link

import (
	"time"

	"github.com/uptrace/bun"
)

// Edge records that a parent observes a student. ID order is insertion order.
type Edge struct {
	bun.BaseModel `bun:"table:link_edges,alias:le"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	ParentID  int64     `bun:"parent_id,notnull,unique:parent_student" json:"parentId"`
	StudentID int64     `bun:"student_id,notnull,unique:parent_student" json:"studentId"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}
