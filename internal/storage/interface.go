package storage

import (
	"map-assistant/internal/model"
)

// Storage holds the conversation log of one session. It only grows: there is
// no update or delete.
type Storage interface {
	// AppendTurn adds turn at the end of the log.
	AppendTurn(turn model.Turn) error
	// Turns returns a copy of the log in append order.
	Turns() []model.Turn
	Len() int

	Init() error
	Close() error
}
