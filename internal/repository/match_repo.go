package repository

import (
	"context"
	"fmt"

	"chessroom/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type MatchRepository struct {
	db *pgxpool.Pool
}

func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// Create stores a finished match and fills in ID and CreatedAt.
func (r *MatchRepository) Create(ctx context.Context, m *domain.Match) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO matches
			(room_code, white_client, black_client, white_name, black_name,
			 result_type, winner, reason, pgn, plies, started_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, created_at`,
		m.RoomCode,
		m.WhiteClient,
		m.BlackClient,
		m.WhiteName,
		m.BlackName,
		m.ResultType,
		m.Winner,
		m.Reason,
		m.PGN,
		m.Plies,
		m.StartedAt,
		m.EndedAt,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

// Archive satisfies the hub's archiver.
func (r *MatchRepository) Archive(ctx context.Context, m domain.Match) error {
	return r.Create(ctx, &m)
}

// ListByClient returns the newest matches the client played, either color.
func (r *MatchRepository) ListByClient(ctx context.Context, clientID string, limit int) ([]*domain.Match, error) {
	limit = clampLimit(limit)

	rows, err := r.db.Query(ctx,
		`SELECT id, room_code, white_client, black_client, white_name, black_name,
				result_type, winner, reason, pgn, plies, started_at, ended_at, created_at
		 FROM matches
		 WHERE white_client = $1 OR black_client = $1
		 ORDER BY ended_at DESC, id DESC
		 LIMIT $2`,
		clientID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	return r.scanRows(rows)
}

// ClientStats is a player's win/loss/draw tally.
type ClientStats struct {
	ClientIdentity string `json:"client_identity"`
	TotalGames     int    `json:"total_games"`
	Wins           int    `json:"wins"`
	Losses         int    `json:"losses"`
	Draws          int    `json:"draws"`
}

func (r *MatchRepository) StatsForClient(ctx context.Context, clientID string) (*ClientStats, error) {
	stats := &ClientStats{ClientIdentity: clientID}

	err := r.db.QueryRow(ctx,
		`SELECT
			COUNT(*) AS total_games,
			COUNT(*) FILTER (WHERE (white_client = $1 AND winner = 'w') OR (black_client = $1 AND winner = 'b')) AS wins,
			COUNT(*) FILTER (WHERE (white_client = $1 AND winner = 'b') OR (black_client = $1 AND winner = 'w')) AS losses,
			COUNT(*) FILTER (WHERE winner = '') AS draws
		 FROM matches
		 WHERE white_client = $1 OR black_client = $1`,
		clientID,
	).Scan(&stats.TotalGames, &stats.Wins, &stats.Losses, &stats.Draws)
	if err != nil {
		return nil, fmt.Errorf("match stats: %w", err)
	}
	return stats, nil
}

func (r *MatchRepository) scanRows(rows pgx.Rows) ([]*domain.Match, error) {
	var out []*domain.Match
	for rows.Next() {
		m := &domain.Match{}
		if err := rows.Scan(
			&m.ID,
			&m.RoomCode,
			&m.WhiteClient,
			&m.BlackClient,
			&m.WhiteName,
			&m.BlackName,
			&m.ResultType,
			&m.Winner,
			&m.Reason,
			&m.PGN,
			&m.Plies,
			&m.StartedAt,
			&m.EndedAt,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}
