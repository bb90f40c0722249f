package domain

// Stats holds the popularity/activity snapshot for a group's repository.
// Exactly one of normal data, IsNotFound, or Error holds; IsRateLimit
// implies Error. A group without Stats was never enriched.
type Stats struct {
	Stars        int    `json:"stars"`
	LastCommitAt string `json:"lastCommitAt"`
	License      string `json:"license,omitempty"`
	OpenIssues   int    `json:"openIssues,omitempty"`
	Description  string `json:"description,omitempty"`
	Error        bool   `json:"error,omitempty"`
	IsRateLimit  bool   `json:"isRateLimit,omitempty"`
	IsNotFound   bool   `json:"isNotFound,omitempty"`
}

// NotFoundStats is the snapshot recorded when a bulk query response carries
// no result for a group, typically a renamed or deleted repository.
func NotFoundStats() *Stats {
	return &Stats{IsNotFound: true}
}

// RateLimitStats is the snapshot recorded when a single-item lookup was
// rejected with HTTP 403/429. Retrying is worthwhile once quota recovers.
func RateLimitStats() *Stats {
	return &Stats{Error: true, IsRateLimit: true}
}

// ErrorStats is the snapshot for any other failed single-item lookup.
func ErrorStats() *Stats {
	return &Stats{Error: true}
}
