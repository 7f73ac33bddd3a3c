package internal

import (
	"encoding/json"
	"time"
)

// Exchange is one answered question as kept in history.
type Exchange struct {
	ID               string        `json:"id"`
	Query            string        `json:"query"`
	SourceLang       string        `json:"source_lang"`
	TargetLang       string        `json:"target_lang"`
	EnglishQuery     string        `json:"english_query"`
	EnglishAnswer    string        `json:"english_answer"`
	Answer           string        `json:"answer"`
	Backend          string        `json:"backend"`
	QueryStatus      string        `json:"query_status"`
	AnswerStatus     string        `json:"answer_status"`
	GenerationFailed bool          `json:"generation_failed"`
	Latency          time.Duration `json:"-"`
	CreatedAt        time.Time     `json:"created_at"`
}

// MarshalJSON writes Latency as whole milliseconds under latency_ms.
func (e Exchange) MarshalJSON() ([]byte, error) {
	type plain Exchange
	return json.Marshal(struct {
		plain
		LatencyMs int64 `json:"latency_ms"`
	}{plain(e), e.Latency.Milliseconds()})
}
