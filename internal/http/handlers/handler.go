package handlers

import (
	"context"

	"chessroom/internal/domain"
	"chessroom/internal/repository"
	"chessroom/internal/room"
)

// MatchStore reads the finished-match archive.
type MatchStore interface {
	ListByClient(ctx context.Context, clientID string, limit int) ([]*domain.Match, error)
	StatsForClient(ctx context.Context, clientID string) (*repository.ClientStats, error)
}

type Handler struct {
	Rooms *room.Registry
	// Matches is nil when no database is configured.
	Matches MatchStore
}

func NewHandler(rooms *room.Registry, matches MatchStore) *Handler {
	return &Handler{
		Rooms:   rooms,
		Matches: matches,
	}
}
