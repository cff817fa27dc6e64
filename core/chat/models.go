package chat

import "time"

// Conversation is a durable one-to-one channel between a plain user and an
// admin. At most one exists per (user, admin) pair, and a plain user holds at
// most one in total.
type Conversation struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	AdminID   int       `json:"admin_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OtherParticipant returns the conversation party that is not userID.
func (c *Conversation) OtherParticipant(userID int) int {
	if userID == c.UserID {
		return c.AdminID
	}
	return c.UserID
}

// Message belongs to exactly one conversation. ReadAt is null until the
// recipient reads it, and once set is never unset.
type Message struct {
	ID             int        `json:"id"`
	ConversationID int        `json:"conversation_id"`
	SenderID       int        `json:"sender_id"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         *time.Time `json:"read_at"`
}

type NewMessage struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// MessagePayload is the real-time envelope broadcast to a conversation room.
type MessagePayload struct {
	ConversationID int     `json:"conversationId"`
	Message        Message `json:"message"`
}

// NoticePayload is the generic new-message notice; it deliberately carries no
// content so nothing leaks to a participant not viewing the thread.
type NoticePayload struct {
	ConversationID int `json:"conversationId"`
}
