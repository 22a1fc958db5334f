package domain

import "time"

// MatchOutcome is a finished match seen from one player's side.
type MatchOutcome string

const (
	MatchOutcomeWin  MatchOutcome = "win"
	MatchOutcomeLose MatchOutcome = "lose"
	MatchOutcomeDraw MatchOutcome = "draw"
)

// Match is an archived finished game.
type Match struct {
	ID          int64     `db:"id" json:"id"`
	RoomCode    string    `db:"room_code" json:"room_code"`
	WhiteClient string    `db:"white_client" json:"white_client,omitempty"`
	BlackClient string    `db:"black_client" json:"black_client,omitempty"`
	WhiteName   string    `db:"white_name" json:"white_name,omitempty"`
	BlackName   string    `db:"black_name" json:"black_name,omitempty"`
	ResultType  string    `db:"result_type" json:"result_type"` // checkmate | draw | resigned
	Winner      string    `db:"winner" json:"winner,omitempty"`  // w | b | empty on draw
	Reason      string    `db:"reason" json:"reason"`
	PGN         string    `db:"pgn" json:"pgn"`
	Plies       int       `db:"plies" json:"plies"`
	StartedAt   time.Time `db:"started_at" json:"started_at"`
	EndedAt     time.Time `db:"ended_at" json:"ended_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// OutcomeFor returns the result for the given client identity; ok is false when
// the client did not play in this match.
func (m *Match) OutcomeFor(clientID string) (MatchOutcome, bool) {
	var color string
	switch clientID {
	case "":
		return "", false
	case m.WhiteClient:
		color = "w"
	case m.BlackClient:
		color = "b"
	default:
		return "", false
	}

	switch m.Winner {
	case "":
		return MatchOutcomeDraw, true
	case color:
		return MatchOutcomeWin, true
	default:
		return MatchOutcomeLose, true
	}
}
