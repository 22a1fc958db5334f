package room

// Reason is a stable failure string surfaced verbatim to clients.
type Reason string

func (r Reason) Error() string { return string(r) }

const (
	ReasonRoomNotFound   Reason = "Room not found"
	ReasonRoomFull       Reason = "Room is full"
	ReasonGameOver       Reason = "Game is already over"
	ReasonOutOfTurn      Reason = "Out of turn"
	ReasonIllegalMove    Reason = "Illegal move"
	ReasonNotSeated      Reason = "Player is not seated in this room"
	ReasonNoResult       Reason = "Rematch can only be requested after game over"
	ReasonNoRematchOffer Reason = "Opponent must request rematch first"
	ReasonRateLimited    Reason = "Rate limit exceeded"
)
