package todos

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a todo does not exist or belongs to another
// user; the two cases are indistinguishable to callers.
var ErrNotFound = errors.New("todo not found")

// Todo is a single task owned by one user.
type Todo struct {
	ID        int64     `json:"id" bson:"_id"`
	UserID    int64     `json:"userId" bson:"userId"`
	Title     string    `json:"title" bson:"title"`
	Completed bool      `json:"completed" bson:"completed"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Update is a tagged union over the two write shapes. FullUpdate replaces
// both mutable fields; PartialUpdate changes only the fields that are set.
type Update interface {
	isUpdate()
}

// FullUpdate replaces title and completed wholesale (PUT semantics).
type FullUpdate struct {
	Title     string
	Completed bool
}

func (FullUpdate) isUpdate() {}

// PartialUpdate applies only the non-nil fields (PATCH semantics).
type PartialUpdate struct {
	Title     *string
	Completed *bool
}

func (PartialUpdate) isUpdate() {}
