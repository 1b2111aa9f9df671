package model

import "time"

type Comment struct {
	ID         string    `json:"id"`
	SolutionID string    `json:"solution_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	User       *User     `json:"user"` // Embedded author, email stripped
}
