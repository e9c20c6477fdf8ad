package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User owns an ordered set of pending task ids. pendingTasks is kept in sync
// with Task.assignedUser by the services; duplicates are avoided on insert.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name         string               `bson:"name" json:"name"`
	Email        string               `bson:"email" json:"email"`
	PendingTasks []primitive.ObjectID `bson:"pendingTasks" json:"pendingTasks"`
	DateCreated  time.Time            `bson:"dateCreated" json:"dateCreated"`
}
