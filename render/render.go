// Package render draws Ultimate Tic-Tac-Toe positions for the terminal.
package render

import (
	"fmt"
	"strings"
	"uttt/game"

	"github.com/muesli/termenv"
)

const separator = "-------+-------+-------"

// Symbol is the mark drawn for a player.
func Symbol(p game.Player) string {
	switch p {
	case game.PlayerOne:
		return "X"
	case game.PlayerTwo:
		return "O"
	case game.Draw:
		return "#"
	default:
		return "."
	}
}

type Renderer struct {
	profile termenv.Profile
}

// New renders with the given colour profile; termenv.Ascii gives plain text.
func New(profile termenv.Profile) Renderer {
	return Renderer{profile: profile}
}

// NewTerminal detects the colour support of stdout.
func NewTerminal() Renderer {
	return New(termenv.ColorProfile())
}

func (r Renderer) style(p game.Player, owner game.Player, forced bool) string {
	s := r.profile.String(Symbol(p))
	switch owner {
	case game.PlayerOne:
		s = s.Foreground(r.profile.Color("#d75f5f")).Bold()
	case game.PlayerTwo:
		s = s.Foreground(r.profile.Color("#5f87d7")).Bold()
	case game.Draw:
		s = s.Faint()
	default:
		if forced {
			s = s.Underline()
		}
	}
	return s.String()
}

// Board draws the 9x9 grid. Cells of decided boxes take the owner's colour
// and the box the next move is forced into is underlined.
func (r Renderer) Board(state game.State) string {
	var b strings.Builder
	for outerRow := 0; outerRow < game.Size; outerRow++ {
		if outerRow > 0 {
			b.WriteString(separator + "\n")
		}
		for innerRow := 0; innerRow < game.Size; innerRow++ {
			segments := make([]string, 0, game.Size)
			for outerCol := 0; outerCol < game.Size; outerCol++ {
				owner := state.Owners[outerRow][outerCol]
				forced := !state.Ended && state.HasForced && state.Forced == game.Box{Row: outerRow, Col: outerCol}
				var seg strings.Builder
				for innerCol := 0; innerCol < game.Size; innerCol++ {
					seg.WriteString(" ")
					seg.WriteString(r.style(state.Cells[outerRow][outerCol][innerRow][innerCol], owner, forced))
				}
				seg.WriteString(" ")
				segments = append(segments, seg.String())
			}
			b.WriteString(strings.Join(segments, "|") + "\n")
		}
	}
	return b.String()
}

// Status is a one-line summary of whose turn it is or how the game ended.
func (r Renderer) Status(state game.State) string {
	switch {
	case state.Ended && state.Winner == game.Draw:
		return fmt.Sprintf("game drawn after %d moves", state.Moves)
	case state.Ended:
		return fmt.Sprintf("%s wins after %d moves", Symbol(state.Winner), state.Moves)
	case state.HasForced && state.Owners[state.Forced.Row][state.Forced.Col] == game.NoPlayer:
		return fmt.Sprintf("%s to move in box (%d, %d)", Symbol(state.Turn), state.Forced.Row, state.Forced.Col)
	default:
		return fmt.Sprintf("%s to move in any open box", Symbol(state.Turn))
	}
}

// Position is the board followed by the status line.
func (r Renderer) Position(state game.State) string {
	return r.Board(state) + r.Status(state) + "\n"
}
