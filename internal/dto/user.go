package dto

// UserRequest is the JSON body for POST and PUT /api/users. A nil
// PendingTasks means the field was absent, which leaves the stored list
// untouched on update; an empty array clears it.
type UserRequest struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PendingTasks *[]string `json:"pendingTasks"`
}
