package domain

import "errors"

var (
	// ErrInvalidBank indicates the question bank failed validation.
	ErrInvalidBank = errors.New("question bank is malformed")
	// ErrBankNotFound indicates the requested question bank does not exist.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrInvalidResponseLength is returned when a response vector does not cover the full bank.
	ErrInvalidResponseLength = errors.New("response vector length does not match question bank")
	// ErrInvalidResponseValue is returned when an answer falls outside the response scale.
	ErrInvalidResponseValue = errors.New("response value outside scale")
	// ErrIndexOutOfRange is returned when restoration is given more responses than presented questions.
	ErrIndexOutOfRange = errors.New("shuffled responses exceed presented questions")
	// ErrSessionNotFound is returned when an assessment session has expired or never existed.
	ErrSessionNotFound = errors.New("assessment session not found")
	// ErrRecordNotFound indicates an assessment record id is unknown.
	ErrRecordNotFound = errors.New("assessment record not found")
	// ErrStoreUnavailable wraps persistence failures surfaced across the component boundary.
	ErrStoreUnavailable = errors.New("assessment store unavailable")
)
