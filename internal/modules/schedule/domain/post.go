package domain

// ScheduledPost is a photo that is posted to a channel every day at PostTime.
type ScheduledPost struct {
	ID        int64  `json:"id"`
	ChannelID int64  `json:"channel_id"`
	PhotoID   string `json:"photo_id"`
	Caption   string `json:"caption"`
	PostTime  string `json:"post_time"` // HH:MM in the dispatcher's zone
}
