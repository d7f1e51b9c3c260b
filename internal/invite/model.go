package invite

import (
	"time"

	"github.com/uptrace/bun"
)

// Invite is a single-use code issued by a student. Consumed never reverts to false.
type Invite struct {
	bun.BaseModel `bun:"table:invites,alias:i"`

	ID          int64      `bun:"id,pk,autoincrement" json:"id"`
	Code        string     `bun:"code,unique,notnull" json:"code"`
	StudentID   int64      `bun:"student_id,notnull" json:"studentId"`
	ParentEmail *string    `bun:"parent_email" json:"parentEmail,omitempty"`
	Consumed    bool       `bun:"consumed,notnull,default:false" json:"consumed"`
	ConsumedBy  *int64     `bun:"consumed_by" json:"consumedBy,omitempty"`
	ConsumedAt  *time.Time `bun:"consumed_at" json:"consumedAt,omitempty"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

type CreateInviteRequest struct {
	ParentEmail *string `json:"parentEmail" validate:"omitempty,email"`
}

type AcceptInviteRequest struct {
	Code string `json:"code" validate:"required"`
}

type CreateInviteResponse struct {
	Code        string    `json:"code"`
	StudentID   int64     `json:"studentId"`
	ParentEmail *string   `json:"parentEmail,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type AcceptInviteResponse struct {
	StudentID int64 `json:"studentId"`
}
