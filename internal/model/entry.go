package model

import "time"

// Entry is one analyzed photo: the image, the AI result, and the running
// human-corrected totals. FinalCount starts equal to AICount and is
// rewritten by reconciliation.
type Entry struct {
	ID            int64  `json:"id"`
	ImagePath     string `json:"image_path"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`

	Method         Method         `json:"method"`
	AICount        int            `json:"ai_count"`
	FinalCount     int            `json:"final_count"`
	ColorBreakdown map[string]int `json:"color_breakdown,omitempty"`
	WasEdited      bool           `json:"was_edited"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CountDelta is how far the AI count was from the human-verified count.
// Zero for unedited entries.
func (e Entry) CountDelta() int {
	return e.FinalCount - e.AICount
}
