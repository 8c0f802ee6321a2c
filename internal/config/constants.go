package config

import "time"

const (
	// Session title derivation: first N words of the opening message.
	TitleWordLimit = 5
	TitleEllipsis  = "..."

	// How many past question/answer pairs are sent along with a new question.
	HistoryWindow = 10

	// API request timeout
	RequestTimeout = 60 * time.Second

	// Sessions shown per page in the CLI listing
	SessionsPerPage = 20
)
