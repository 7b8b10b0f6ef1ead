package game

import (
	"strings"

	"github.com/corentings/chess/v2"
)

const DefaultFEN string = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ChessOracle hands out standard chess games. Moves are UCI strings, positions
// are FEN and outcomes are PGN results ("1-0", "0-1", "1/2-1/2").
type ChessOracle struct{}

func (ChessOracle) NewPosition() Position {
	return &ChessPosition{game: chess.NewGame()}
}

type ChessPosition struct {
	game *chess.Game
}

// NewChessPositionFromFEN starts a game from an arbitrary FEN.
func NewChessPositionFromFEN(fen string) (*ChessPosition, error) {
	option, err := chess.FEN(fen)
	if err != nil {
		return nil, err
	}

	return &ChessPosition{game: chess.NewGame(option)}, nil
}

func (p *ChessPosition) TryApply(move string) bool {
	uci := strings.TrimSpace(move)
	if uci == "" || p.IsTerminal() {
		return false
	}

	if !p.isLegal(uci) {
		return false
	}

	return p.game.PushNotationMove(uci, chess.UCINotation{}, nil) == nil
}

func (p *ChessPosition) isLegal(uci string) bool {
	for _, mv := range p.game.ValidMoves() {
		if mv.String() == uci {
			return true
		}
	}

	return false
}

func (p *ChessPosition) IsTerminal() bool {
	return p.game.Outcome() != chess.NoOutcome
}

func (p *ChessPosition) Outcome() (string, bool) {
	if !p.IsTerminal() {
		return "", false
	}

	return p.game.Outcome().String(), true
}

func (p *ChessPosition) Repr() string {
	return p.game.FEN()
}

// Method names how the game ended, e.g. "Checkmate". It is empty while the
// game is still running.
func (p *ChessPosition) Method() string {
	if !p.IsTerminal() {
		return ""
	}

	return p.game.Method().String()
}
