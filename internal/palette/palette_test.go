package palette

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/memorama/internal/game"
)

func TestLoad_DefaultWhenNoPath(t *testing.T) {
	syms, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, game.DefaultPalette(), syms)
	assert.Len(t, syms, 16)
}

func TestParse_SkipsCommentsAndBlanks(t *testing.T) {
	in := "# fruit\napple\n\n banana \ncherry\ndate\nelder\nfig\ngrape\n# more\nhoneydew\n"
	syms, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []game.Symbol{"apple", "banana", "cherry", "date", "elder", "fig", "grape", "honeydew"}, syms)
}

func TestParse_Rejects(t *testing.T) {
	_, err := Parse(strings.NewReader("a\nb\nc\n"))
	assert.ErrorIs(t, err, ErrTooSmall)

	_, err = Parse(strings.NewReader("a\nb\nc\nd\na\nf\ng\nh\ni\n"))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.txt")
	require.NoError(t, os.WriteFile(path, []byte("1\n2\n3\n4\n5\n6\n7\n8\n9\n"), 0o644))

	syms, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, syms, 9)

	_, err = Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
