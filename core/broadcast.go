package core

// Real-time event names, passed through the push channel as-is.
const (
	// EventConversationMessage carries {conversationId, message} to sockets
	// subscribed to the conversation room.
	EventConversationMessage = "conversation:message"

	// EventMessageNew is the generic new-message notice, carrying only
	// {conversationId}; sent to participants not viewing the thread.
	EventMessageNew = "message:new"

	// EventBadgeUpdate is a content-free signal prompting clients to re-pull
	// their unread counters.
	EventBadgeUpdate = "badge:update"

	// EventStatusNew notifies the admins room of a fresh status submission.
	EventStatusNew = "status:new"

	// EventFilesNew notifies the admins room of a fresh file upload.
	EventFilesNew = "files:new"
)

// Broadcaster is the push-channel collaborator. Emissions are best-effort:
// implementations never block on slow clients and never return errors to the
// caller; the persisted record is always the source of truth.
type Broadcaster interface {
	// EmitToConversation delivers to every socket subscribed to the conversation room.
	EmitToConversation(conversationID int, event string, payload interface{})
	// EmitToUser delivers to every socket of the given user.
	EmitToUser(userID int, event string, payload interface{})
	// EmitToAdmins delivers to every admin socket.
	EmitToAdmins(event string, payload interface{})
	// EmitAll delivers to every connected socket.
	EmitAll(event string, payload interface{})
	// IsSubscribed reports whether any of the user's sockets joined the conversation room.
	IsSubscribed(userID, conversationID int) bool
}
