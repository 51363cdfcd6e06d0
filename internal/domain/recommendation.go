package domain

// ScoreBreakdown lists the contribution of every ranking signal.
type ScoreBreakdown struct {
	Category          float64 `json:"category_score"`
	ContentSimilarity float64 `json:"content_similarity_score"`
	Recency           float64 `json:"recency_score"`
	Popularity        float64 `json:"popularity_score"`
}

// Total sums the four signal contributions.
func (b ScoreBreakdown) Total() float64 {
	return b.Category + b.ContentSimilarity + b.Recency + b.Popularity
}

// ScoredArticle is an Article decorated by the ranking engine. It exists only
// for the duration of one ranking request.
type ScoredArticle struct {
	Article
	Score      float64        `json:"recommendation_score"`
	Reason     string         `json:"recommendation_reason"`
	Breakdown  ScoreBreakdown `json:"score_breakdown"`
	Backfilled bool           `json:"backfilled,omitempty"`
}
