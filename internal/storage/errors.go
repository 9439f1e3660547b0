package storage

import "errors"

var (
	ErrInvalidTurn   = errors.New("invalid turn")
	ErrDuplicateTurn = errors.New("duplicate turn id")
)
