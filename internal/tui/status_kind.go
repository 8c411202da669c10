package tui

// StatusKind indicates severity for status messages and banners.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)
