// internal/palette/palette.go
//
// Card symbol palette loading.
//
// Responsibilities:
//   - Load a palette from a file (one symbol per line, '#' comments, blanks ignored).
//   - Fall back to the built-in game palette when no file is configured.
//   - Validate that every difficulty can be dealt: at least game.MaxPairs
//     symbols and no repeats (difficulties draw from the front of the list).

package palette

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/robalobadob/memorama/internal/game"
)

var (
	ErrTooSmall  = errors.New("palette too small")
	ErrDuplicate = errors.New("palette symbol repeated")
)

// Load reads the palette at path, or returns the built-in palette if path is
// empty.
func Load(path string) ([]game.Symbol, error) {
	if path == "" {
		return game.DefaultPalette(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open palette %s: %w", path, err)
	}
	defer f.Close()

	syms, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("palette %s: %w", path, err)
	}
	return syms, nil
}

// Parse reads and validates a palette.
func Parse(r io.Reader) ([]game.Symbol, error) {
	var out []game.Symbol
	seen := make(map[game.Symbol]int)

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		sym := game.Symbol(s)
		if prev, ok := seen[sym]; ok {
			return nil, fmt.Errorf("%w: %q on lines %d and %d", ErrDuplicate, s, prev, line)
		}
		seen[sym] = line
		out = append(out, sym)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) < game.MaxPairs {
		return nil, fmt.Errorf("%w: %d symbols, need %d", ErrTooSmall, len(out), game.MaxPairs)
	}
	return out, nil
}
