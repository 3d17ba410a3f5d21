package parser

import "strings"

// Block kinds pushed onto ParsingState while their contents are parsed.
const (
	blockIf     = "if"
	blockChoice = "choice"
	blockOption = "option"
	blockStats  = "stat_chart"
)

// ParsingState is the mutable state of one parse pass. Scan positions are
// not part of it: they are line indexes passed to and returned from each
// parsing function.
type ParsingState struct {
	blocks []string

	// hasTemp is set once any scene-local variable is declared.
	hasTemp bool

	labels map[string]bool

	achievementCount  int
	achievementPoints int
	pointsExceeded    bool
}

func newParsingState() *ParsingState {
	return &ParsingState{labels: make(map[string]bool)}
}

func (s *ParsingState) push(kind string) { s.blocks = append(s.blocks, kind) }

func (s *ParsingState) pop() { s.blocks = s.blocks[:len(s.blocks)-1] }

// Depth is how many blocks enclose the current line.
func (s *ParsingState) Depth() int { return len(s.blocks) }

// In reports whether any enclosing block is of the given kind.
func (s *ParsingState) In(kind string) bool {
	for _, b := range s.blocks {
		if b == kind {
			return true
		}
	}
	return false
}

func (s *ParsingState) String() string {
	if len(s.blocks) == 0 {
		return "top"
	}
	return strings.Join(s.blocks, ">")
}
