package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UnassignedName is stored in assignedUserName while a task has no assignee.
const UnassignedName = "unassigned"

// Task is a unit of work, optionally assigned to a user. JSON and bson field
// names are identical so documents round-trip through the API unchanged.
type Task struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Name             string              `bson:"name" json:"name"`
	Description      string              `bson:"description" json:"description"`
	Deadline         time.Time           `bson:"deadline" json:"deadline"`
	Completed        bool                `bson:"completed" json:"completed"`
	AssignedUser     *primitive.ObjectID `bson:"assignedUser" json:"assignedUser"`
	AssignedUserName string              `bson:"assignedUserName" json:"assignedUserName"`
	DateCreated      time.Time           `bson:"dateCreated" json:"dateCreated"`
}

// Pending reports whether the task should appear in its assignee's pendingTasks.
func (t Task) Pending() bool {
	return t.AssignedUser != nil && !t.Completed
}
