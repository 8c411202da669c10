package storage

import (
	"time"
)

// SearchRecord is one submitted search, kept for the history view.
type SearchRecord struct {
	ID         string    `json:"id"`
	Query      string    `json:"query"`
	Repos      string    `json:"repos"`
	Files      string    `json:"files"`
	MatchCase  bool      `json:"match_case"`
	MatchWord  bool      `json:"match_word"`
	MatchRegex bool      `json:"match_regex"`
	Path       string    `json:"path"`
	SearchedAt time.Time `json:"searched_at"`
	Count      int       `json:"count"`
}
