package game

import "errors"

var (
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	ErrPaletteTooSmall   = errors.New("palette has fewer distinct symbols than pairs")
)
