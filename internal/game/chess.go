package game

import (
	"fmt"

	"github.com/notnil/chess"
)

// StandardEngine plays orthodox chess from the initial position.
type StandardEngine struct{}

func NewStandardEngine() StandardEngine {
	return StandardEngine{}
}

func (StandardEngine) NewBoard() Board {
	return &chessBoard{g: chess.NewGame()}
}

// NewBoardFromFEN starts a board from an arbitrary position.
func NewBoardFromFEN(fen string) (Board, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen: %w", err)
	}
	return &chessBoard{g: chess.NewGame(opt)}, nil
}

type chessBoard struct {
	g *chess.Game
}

func toColor(c chess.Color) Color {
	if c == chess.Black {
		return Black
	}
	return White
}

func (b *chessBoard) Turn() Color {
	return toColor(b.g.Position().Turn())
}

func (b *chessBoard) Apply(from, to, promotion string) (MoveRecord, error) {
	pos := b.g.Position()

	var move *chess.Move
	for _, m := range pos.ValidMoves() {
		if m.S1().String() != from || m.S2().String() != to {
			continue
		}
		// a promotion piece on a non-promotion move is ignored
		if m.Promo() != chess.NoPieceType && m.Promo().String() != promotion {
			continue
		}
		move = m
		break
	}
	if move == nil {
		return MoveRecord{}, ErrIllegalMove
	}

	board := pos.Board()
	moved := board.Piece(move.S1())
	rec := MoveRecord{
		SAN:   chess.AlgebraicNotation{}.Encode(pos, move),
		From:  from,
		To:    to,
		Piece: moved.Type().String(),
		Color: toColor(moved.Color()),
	}
	if move.HasTag(chess.EnPassant) {
		rec.Captured = chess.Pawn.String()
	} else if captured := board.Piece(move.S2()); captured != chess.NoPiece {
		rec.Captured = captured.Type().String()
	}
	if move.Promo() != chess.NoPieceType {
		rec.Promotion = move.Promo().String()
	}

	if err := b.g.Move(move); err != nil {
		return MoveRecord{}, ErrIllegalMove
	}
	return rec, nil
}

func (b *chessBoard) FEN() string {
	return b.g.FEN()
}

func (b *chessBoard) PGN() string {
	if len(b.g.Moves()) == 0 {
		return ""
	}
	return b.g.String()
}

func (b *chessBoard) InCheck() bool {
	moves := b.g.Moves()
	if len(moves) == 0 {
		return false
	}
	return moves[len(moves)-1].HasTag(chess.Check)
}

func (b *chessBoard) Checkmate() bool {
	return b.g.Method() == chess.Checkmate
}

func (b *chessBoard) DrawReason() (DrawReason, bool) {
	method := b.g.Method()
	eligible := map[chess.Method]bool{}
	for _, m := range b.g.EligibleDraws() {
		eligible[m] = true
	}

	switch {
	case method == chess.Stalemate:
		return DrawStalemate, true
	case method == chess.ThreefoldRepetition || method == chess.FivefoldRepetition || eligible[chess.ThreefoldRepetition]:
		return DrawThreefoldRepetition, true
	case method == chess.FiftyMoveRule || method == chess.SeventyFiveMoveRule || eligible[chess.FiftyMoveRule]:
		return DrawFiftyMoveRule, true
	case method == chess.InsufficientMaterial:
		return DrawInsufficientMaterial, true
	case b.g.Outcome() == chess.Draw:
		return DrawAgreement, true
	}
	return "", false
}

func (b *chessBoard) Ply() int {
	return len(b.g.Moves())
}
