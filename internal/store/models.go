package store

import "time"

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

type Account struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"display_name"`
	Handle       string    `json:"handle"`
	PasswordHash string    `json:"-"`
	Gender       Gender    `json:"gender"`
	CreatedAt    time.Time `json:"created_at"`
}

type Post struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	AuthorHandle string    `json:"author_handle"`
	AuthorName   string    `json:"author_name"`
	Text         string    `json:"text"`
	LikeCount    int       `json:"like_count"`
	ReplyCount   int       `json:"reply_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type Reply struct {
	ID           string    `json:"id"`
	PostID       string    `json:"post_id"`
	AuthorID     string    `json:"author_id"`
	AuthorHandle string    `json:"author_handle"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"created_at"`
}

type NotificationKind string

const (
	KindLike   NotificationKind = "like"
	KindReply  NotificationKind = "reply"
	KindFollow NotificationKind = "follow"
)

type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	ActorID     string           `json:"actor_id"`
	ActorHandle string           `json:"actor_handle"`
	PostID      string           `json:"post_id,omitempty"`
	Kind        NotificationKind `json:"kind"`
	Message     string           `json:"message"`
	IsRead      bool             `json:"is_read"`
	CreatedAt   time.Time        `json:"created_at"`
}
