package auctionerrors

import (
	"errors"
	"fmt"
)

// Registry errors
var (
	ErrDuplicateUsername  = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Store-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrAlreadyClosed   = errors.New("auction already closed")
)

// business logic errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrBidRejected  = errors.New("bid rejected")

	// ErrBidTooLow and ErrAuctionClosed both match ErrBidRejected with errors.Is.
	ErrBidTooLow     = fmt.Errorf("%w: amount must exceed current price", ErrBidRejected)
	ErrAuctionClosed = fmt.Errorf("%w: auction is closed", ErrBidRejected)
)
