package model

// PromptRef points at one moderator's delivered prompt message, so its
// controls can be edited after the post is resolved.
type PromptRef struct {
	AdminID   int64 `json:"admin_id"`
	MessageID int   `json:"message_id"`
}

// Post is a single moderation item. The record exists only between
// submission and resolution; AttachmentPath is owned by the post for
// exactly that window.
type Post struct {
	PostID         int64
	OwnerID        int64
	AttachmentPath string
	Caption        *string
	Prompts        []PromptRef
}
