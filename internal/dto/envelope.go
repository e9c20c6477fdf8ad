package dto

// Envelope wraps every response body, success or failure. Data is null on
// errors and on delete.
type Envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}
