package domain

import "time"

// Lifecycle holds the record timestamps shared by persisted entities.
// It is embedded by value; there is no entity base type.
type Lifecycle struct {
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}

// Deleted reports whether the record carries a tombstone.
func (l Lifecycle) Deleted() bool { return l.DeletedAt != nil }
