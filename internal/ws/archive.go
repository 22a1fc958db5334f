package ws

import (
	"context"

	"chessroom/internal/domain"
)

// Archiver stores finished matches. The hub calls it off the event loop.
type Archiver interface {
	Archive(ctx context.Context, m domain.Match) error
}

type nopArchiver struct{}

func (nopArchiver) Archive(context.Context, domain.Match) error { return nil }
