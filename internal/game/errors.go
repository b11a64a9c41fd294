package game

// GameErrorCode is a domain rule violation, reported back to the caller of
// the offending command. These are expected and recoverable; they drive
// client-side feedback and are never raised as internal failures.
type GameErrorCode string

const (
	PlayerAlreadyInGame  GameErrorCode = "PlayerAlreadyInGame"
	GameNotInProgress    GameErrorCode = "GameNotInProgress"
	BiddingNotInProgress GameErrorCode = "BiddingNotInProgress"
	BidOutOfRange        GameErrorCode = "BidOutOfRange"
	AlreadyBid           GameErrorCode = "AlreadyBid"
	TrickNotInProgress   GameErrorCode = "TrickNotInProgress"
	NotYourTurn          GameErrorCode = "NotYourTurn"
	SuitRuleViolation    GameErrorCode = "SuitRuleViolation"
	CardNotInHand        GameErrorCode = "CardNotInHand"
)

func (e GameErrorCode) Error() string {
	return string(e)
}
