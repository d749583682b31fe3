package domain

// Channel represents a channel the administrator registered as a post target
type Channel struct {
	ID   int64  `json:"channel_id"`
	Name string `json:"channel_name"`
}
