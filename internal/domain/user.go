package domain

import "time"

// UserPreferences holds the categories a user opted into.
type UserPreferences struct {
	Username   string    `json:"username"`
	Categories []string  `json:"categories"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CategorySet returns the normalized preferred categories as a lookup set.
func (p *UserPreferences) CategorySet() map[string]struct{} {
	set := make(map[string]struct{})
	if p == nil {
		return set
	}
	for _, c := range p.Categories {
		set[NormalizeCategory(c)] = struct{}{}
	}
	return set
}

// InteractionType enumerates tracked reading interactions.
type InteractionType string

const (
	InteractionClick    InteractionType = "click"
	InteractionRead     InteractionType = "read"
	InteractionShare    InteractionType = "share"
	InteractionBookmark InteractionType = "bookmark"
)

// Valid reports whether the interaction type is one of the known values.
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionClick, InteractionRead, InteractionShare, InteractionBookmark:
		return true
	default:
		return false
	}
}

// ReadingEntry is one tracked interaction. Category is denormalized from the
// article at tracking time.
type ReadingEntry struct {
	Username        string          `json:"username"`
	ArticleURL      string          `json:"article_url"`
	ArticleTitle    string          `json:"article_title"`
	Category        string          `json:"category"`
	ReadingTime     int             `json:"reading_time"`
	InteractionType InteractionType `json:"interaction_type"`
	Timestamp       time.Time       `json:"timestamp"`
}
