package game

var defaultPalette = []Symbol{
	"🎯", "🎮", "🎨", "🎭", "🎪", "🎬", "🎸", "🎹",
	"⚽", "🏀", "🎾", "🏐", "📚", "📖", "✏️", "🎓",
}

// DefaultPalette returns a copy of the built-in symbols. Difficulties draw
// from the front of the list.
func DefaultPalette() []Symbol {
	return append([]Symbol(nil), defaultPalette...)
}
