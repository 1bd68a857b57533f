package game

import "errors"

// Error classes. Every rule error wraps exactly one of these.
var (
	ErrNotFound       = errors.New("not found")
	ErrIllegalAction  = errors.New("illegal action")
	ErrMalformedInput = errors.New("malformed input")
)

// ruleError carries the message shown to the acting player and the class it
// belongs to.
type ruleError struct {
	class error
	msg   string
}

func (e *ruleError) Error() string { return e.msg }
func (e *ruleError) Unwrap() error { return e.class }

func newRuleError(class error, msg string) error {
	return &ruleError{class: class, msg: msg}
}

var (
	ErrGameNotFound   = newRuleError(ErrNotFound, "Game not found")
	ErrPlayerNotFound = newRuleError(ErrNotFound, "Player not found")

	ErrNotYourTurn      = newRuleError(ErrIllegalAction, "Not your turn")
	ErrCardNotInHand    = newRuleError(ErrIllegalAction, "Card not in hand")
	ErrIllegalPlay      = newRuleError(ErrIllegalAction, "Cannot play this card")
	ErrInvalidUnoCall   = newRuleError(ErrIllegalAction, "Can only say UNO with 1 card")
	ErrColorRequired    = newRuleError(ErrIllegalAction, "Choose a color for a wild card")
	ErrColorNotAllowed  = newRuleError(ErrIllegalAction, "Only wild cards take a color")
	ErrGameFinished     = newRuleError(ErrIllegalAction, "The tournament is over")
	ErrGameInProgress   = newRuleError(ErrIllegalAction, "A game is already in progress")
	ErrTooFewPlayers    = newRuleError(ErrIllegalAction, "Not enough players to start")
	ErrUnoAlreadyCalled = newRuleError(ErrIllegalAction, "UNO already called")

	ErrUnknownPlay = newRuleError(ErrMalformedInput, "Unknown play")
)
