package api

import "time"

// UserResponse is the public JSON form of a user. The password hash and
// activation key are never exposed.
type UserResponse struct {
	ID          int64     `json:"id"`
	Login       string    `json:"login"`
	Nicename    string    `json:"nicename"`
	Email       string    `json:"email"`
	URL         string    `json:"url,omitempty"`
	Registered  time.Time `json:"registered"`
	DisplayName string    `json:"display_name"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	Nickname    string    `json:"nickname,omitempty"`
	Description string    `json:"description,omitempty"`
	Roles       []string  `json:"roles"`
	EditURL     string    `json:"edit_url,omitempty"`
}
