package core

import "context"

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// Store is the handle on whichever database backs the repositories.
type Store interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
