package game

// Presenter receives render requests from the engine. Calls are made while
// the engine holds its lock, so implementations must not call back into the
// engine synchronously.
type Presenter interface {
	RenderBoard(cards []Card, columns int)
	SetCardVisual(index int, state CardState)
	SetStats(moves, matchedPairs int)
	SetClock(text string)
	ShowWinDialog(s Summary)
	HideWinDialog()
}

// NopPresenter discards every request.
type NopPresenter struct{}

func (NopPresenter) RenderBoard([]Card, int)      {}
func (NopPresenter) SetCardVisual(int, CardState) {}
func (NopPresenter) SetStats(int, int)            {}
func (NopPresenter) SetClock(string)              {}
func (NopPresenter) ShowWinDialog(Summary)        {}
func (NopPresenter) HideWinDialog()               {}
