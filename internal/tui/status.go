package tui

import (
	"fmt"
	"strings"
)

// Canonical short status messages used across the app.
const (
	MsgLoadingIndex   = "Loading index…"
	MsgLoadingIndexes = "Loading indexes…"
	MsgDeleting       = "Deleting…"
	MsgIndexDeleted   = "Index deleted"
	MsgNoHistory      = "No matching searches"
)

// Texts shown in the index state banner.
const (
	MsgIndexProcessing = "Index is currently being processed..."
	MsgIndexCompleted  = "Index processed successfully."
	MsgIndexNotStarted = "Index has not yet started."
	MsgIndexNotDone    = "Index has not yet completed."
)

func MsgIndexFailed(failure string) string {
	return "Index failed to complete: " + failure
}

func MsgIndexQueued(position int) string {
	return fmt.Sprintf("Index is queued. There are %d indexes ahead of this one.", position)
}

func MsgOpened(target string) string {
	return "Opened " + strings.TrimSpace(target)
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

// setStatus shows text in the status bar until the next navigation.
func (a *App) setStatus(text string, kind StatusKind) {
	a.statusText = text
	a.statusKind = kind
}

func (a *App) clearStatus() {
	a.statusText = ""
	a.statusKind = StatusInfo
}

func (a *App) renderStatus() string {
	if a.statusText == "" {
		return ""
	}
	style := StatusInfoStyle
	switch a.statusKind {
	case StatusSuccess:
		style = StatusSuccessStyle
	case StatusWarn:
		style = StatusWarnStyle
	case StatusError:
		style = StatusErrorStyle
	}
	return style.Render(a.statusText)
}
