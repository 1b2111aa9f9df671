package model

import "time"

type Solution struct {
	ID                 string    `json:"id"`
	QuestionID         string    `json:"question_id"`
	UserID             string    `json:"user_id"`
	Title              string    `json:"title"`
	Content            string    `json:"content"`
	Code               string    `json:"code"`
	Images             []string  `json:"images,omitempty"`
	Likes              int       `json:"likes"`
	LikedByCurrentUser bool      `json:"liked_by_current_user"` // Relative to the store's viewer
	CreatedAt          time.Time `json:"created_at"`
	Author             *User     `json:"author,omitempty"`
	Comments           []Comment `json:"comments"` // Oldest first
}
