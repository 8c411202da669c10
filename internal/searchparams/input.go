package searchparams

// EnterKeyCode is the legacy numeric code of the Enter key.
const EnterKeyCode = 13

// KeyEvent is a key press on the search input together with the input's
// current text.
type KeyEvent struct {
	Key   string
	Code  int
	Value string
	Meta  bool
	Alt   bool
	Ctrl  bool
}

// IsEnter reports whether the event is an Enter press by either signal.
func (e KeyEvent) IsEnter() bool {
	return e.Key == "Enter" || e.Code == EnterKeyCode
}

// Modified reports whether any modifier key was held.
func (e KeyEvent) Modified() bool {
	return e.Meta || e.Alt || e.Ctrl
}

// Navigator moves the client to a new location.
type Navigator interface {
	// Navigate replaces the current location.
	Navigate(path string)
	// OpenNew opens path in a separate browsing context.
	OpenNew(path string)
}

// Sources holds the two places HandleInput can take its baseline from.
type Sources struct {
	CurrentURL string
	Store      Getter
}

// Baseline returns the parameters a new search starts from.
func (s Sources) Baseline(readFromURL bool) Params {
	if readFromURL {
		return FromURL(s.CurrentURL)
	}
	return FromStore(s.Store)
}

// HandleInput submits a search when ev is Enter on a non-empty input. Only
// the query differs from the chosen baseline. A held modifier opens the
// result in a new context instead of navigating in place.
func HandleInput(ev KeyEvent, readFromURL bool, src Sources, nav Navigator) {
	if !ev.IsEnter() || ev.Value == "" {
		return
	}

	params := src.Baseline(readFromURL)
	params.Query = ev.Value
	path := Path(params)

	if ev.Modified() {
		nav.OpenNew(path)
		return
	}
	nav.Navigate(path)
}
