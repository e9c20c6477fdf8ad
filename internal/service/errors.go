package service

import "errors"

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrTaskFieldsRequired   = errors.New("name and deadline are required")
	ErrUserFieldsRequired   = errors.New("name and email are required")
	ErrAssignedUserNotFound = errors.New("assigned user not found")
	ErrInvalidEmail         = errors.New("invalid email")
	ErrEmailTaken           = errors.New("email already exists")
)
