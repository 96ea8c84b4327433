package quota

import "time"

// Category classifies outbound notifications; each category has its own
// daily send ceiling.
type Category string

const (
	CategoryActivity    Category = "activity"
	CategoryAchievement Category = "achievement"
	CategoryDigest      Category = "digest"
)

// Record is one logical counter per (category, day).
type Record struct {
	Category Category  `json:"category" db:"category"`
	TargetID string    `json:"target_id" db:"target_id"`
	Count    int       `json:"count" db:"count"`
	Day      time.Time `json:"day" db:"day"`
}

// Decision is the advisory result of a quota check. Allowed false means
// the day's ceiling is reached; Warning flags a low remaining budget
// without denying.
type Decision struct {
	Allowed   bool   `json:"allowed"`
	Remaining int    `json:"remaining"`
	Reason    string `json:"reason,omitempty"`
	Warning   string `json:"warning,omitempty"`
}
