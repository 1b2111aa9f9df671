package model

import "time"

// Like is the (user, solution) relation behind the likes counter and the
// per-viewer flag. At most one per pair; never exposed as its own API entity.
type Like struct {
	UserID     string    `json:"user_id"`
	SolutionID string    `json:"solution_id"`
	CreatedAt  time.Time `json:"created_at"`
}
