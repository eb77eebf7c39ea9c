package domain

import "errors"

var (
	ErrInvalidID        = errors.New("invalid id")
	ErrInvalidName      = errors.New("invalid name")
	ErrInvalidTitle     = errors.New("invalid title")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidURL       = errors.New("invalid url")
	ErrInvalidSlot      = errors.New("invalid slot")
	ErrInvalidTarget    = errors.New("invalid substitution target")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidLocation  = errors.New("invalid location")
	ErrEmptyIngredients = errors.New("recipe has no ingredients")
	ErrDuplicateStep    = errors.New("duplicate step number")
)
