package social

import "backend-chirper/internal/store"

type Profile struct {
	Account     store.Account `json:"account"`
	Followers   int           `json:"followers"`
	Following   int           `json:"following"`
	IsFollowing bool          `json:"is_following"`
}

const (
	defaultSuggestions = 5
	maxSuggestions     = 20
)
