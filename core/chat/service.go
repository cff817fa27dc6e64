package chat

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/stationhq/firewatch/core"
	"github.com/stationhq/firewatch/core/user"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNoAdminAvailable     = errors.New("no administrator available")

	// ErrConversationExists is returned by repositories when an insert hits
	// the (user, admin) uniqueness constraint; the service resolves the race
	// by re-reading the winner.
	ErrConversationExists = errors.New("conversation already exists")
)

type (
	Repository interface {
		// CreateConversation inserts a new conversation, returning
		// ErrConversationExists when the uniqueness constraint is hit.
		CreateConversation(ctx context.Context, convo Conversation) (Conversation, error)
		GetConversationByID(ctx context.Context, id int) (Conversation, error)
		// GetConversationForUser returns the plain user's single conversation
		// with any admin, or ErrConversationNotFound.
		GetConversationForUser(ctx context.Context, userID int) (Conversation, error)
		GetConversationByPair(ctx context.Context, userID, adminID int) (Conversation, error)
		// QueryConversationsByUser / ByAdmin return conversations ordered by
		// UpdatedAt, most recent first.
		QueryConversationsByUser(ctx context.Context, userID int) ([]Conversation, error)
		QueryConversationsByAdmin(ctx context.Context, adminID int) ([]Conversation, error)
		// TouchConversation bumps UpdatedAt.
		TouchConversation(ctx context.Context, id int, at time.Time) error

		CreateMessage(ctx context.Context, msg Message) (Message, error)
		GetMessageByID(ctx context.Context, id int) (Message, error)
		// QueryMessagesByConversation returns messages oldest first.
		QueryMessagesByConversation(ctx context.Context, conversationID int) ([]Message, error)
		// MarkMessageRead sets ReadAt only when currently null and reports
		// whether the row changed. A missing message returns ErrMessageNotFound.
		MarkMessageRead(ctx context.Context, id int, at time.Time) (bool, error)
		// CountUnread counts messages across the given conversations with a
		// null ReadAt not sent by recipientID.
		CountUnread(ctx context.Context, conversationIDs []int, recipientID int) (int, error)
		// UnreadConversationIDs returns the subset of the given conversations
		// holding at least one unread message not sent by recipientID.
		UnreadConversationIDs(ctx context.Context, conversationIDs []int, recipientID int) ([]int, error)
	}

	Service struct {
		repo    Repository
		usrRepo user.Repository
		bcast   core.Broadcaster
		logger  core.Logger
		nowFunc func() time.Time // mockable
	}
)

func NewService(repo Repository, usrRepo user.Repository, bcast core.Broadcaster, logger core.Logger) *Service {
	return &Service{
		repo:    repo,
		usrRepo: usrRepo,
		bcast:   bcast,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// GetOrCreateForUser returns the plain user's conversation, creating one with
// the lowest-ID admin on first contact. Concurrent first contacts resolve to
// the same conversation: the loser of the insert race re-reads the winner.
func (svc *Service) GetOrCreateForUser(ctx context.Context, userID int) (Conversation, error) {
	convo, err := svc.repo.GetConversationForUser(ctx, userID)
	if err == nil {
		return convo, nil
	}
	if errors.Cause(err) != ErrConversationNotFound {
		return Conversation{}, errors.Wrap(err, "fetching conversation")
	}

	admin, err := svc.usrRepo.GetFirstAdmin(ctx)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Conversation{}, ErrNoAdminAvailable
		}
		return Conversation{}, errors.Wrap(err, "picking admin")
	}

	return svc.create(ctx, userID, admin.ID, func() (Conversation, error) {
		return svc.repo.GetConversationForUser(ctx, userID)
	})
}

// GetOrCreateForPair returns the conversation between the admin and the user,
// creating it on first contact. Distinct admins each hold their own
// conversation with the same user.
func (svc *Service) GetOrCreateForPair(ctx context.Context, adminID, userID int) (Conversation, error) {
	convo, err := svc.repo.GetConversationByPair(ctx, userID, adminID)
	if err == nil {
		return convo, nil
	}
	if errors.Cause(err) != ErrConversationNotFound {
		return Conversation{}, errors.Wrap(err, "fetching conversation")
	}

	return svc.create(ctx, userID, adminID, func() (Conversation, error) {
		return svc.repo.GetConversationByPair(ctx, userID, adminID)
	})
}

func (svc *Service) create(ctx context.Context, userID, adminID int, refetch func() (Conversation, error)) (Conversation, error) {
	now := svc.nowFunc().UTC()
	convo, err := svc.repo.CreateConversation(ctx, Conversation{
		UserID:    userID,
		AdminID:   adminID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err == nil {
		return convo, nil
	}
	if errors.Cause(err) == ErrConversationExists {
		// lost the creation race; the existing record wins
		return refetch()
	}
	return Conversation{}, errors.Wrap(err, "creating conversation")
}

// List returns the participant's conversations, most recently updated first.
// Admins see every conversation where they are the admin party; plain users
// only their own.
func (svc *Service) List(ctx context.Context, usr user.User) ([]Conversation, error) {
	if usr.IsAdmin() {
		return svc.repo.QueryConversationsByAdmin(ctx, usr.ID)
	}
	return svc.repo.QueryConversationsByUser(ctx, usr.ID)
}

func (svc *Service) Get(ctx context.Context, id int) (Conversation, error) {
	return svc.repo.GetConversationByID(ctx, id)
}

// Messages returns a conversation's history, oldest first.
func (svc *Service) Messages(ctx context.Context, conversationID int) ([]Message, error) {
	if _, err := svc.repo.GetConversationByID(ctx, conversationID); err != nil {
		return nil, err
	}
	return svc.repo.QueryMessagesByConversation(ctx, conversationID)
}

// Send persists a message (unread), bumps the conversation and fans out in
// real time. Sockets subscribed to the conversation room get the full message;
// the other participant, when not viewing the thread, gets only a generic
// notice plus a badge refresh. Fan-out is best-effort and never fails the send.
func (svc *Service) Send(ctx context.Context, conversationID, senderID int, nm NewMessage) (Message, error) {
	if _, err := svc.repo.GetConversationByID(ctx, conversationID); err != nil {
		return Message{}, err
	}

	now := svc.nowFunc().UTC()
	msg, err := svc.repo.CreateMessage(ctx, Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        nm.Content,
		CreatedAt:      now,
	})
	if err != nil {
		return Message{}, errors.Wrap(err, "creating message")
	}
	if err := svc.repo.TouchConversation(ctx, conversationID, now); err != nil {
		return Message{}, errors.Wrap(err, "touching conversation")
	}

	svc.fanOut(ctx, msg)
	return msg, nil
}

func (svc *Service) fanOut(ctx context.Context, msg Message) {
	svc.bcast.EmitToConversation(msg.ConversationID, core.EventConversationMessage, MessagePayload{
		ConversationID: msg.ConversationID,
		Message:        msg,
	})

	convo, err := svc.repo.GetConversationByID(ctx, msg.ConversationID)
	if err != nil {
		// conversation vanished under us; clients re-pull their counters
		svc.logger.Warn("conversation gone during fan-out", err)
		svc.bcast.EmitAll(core.EventBadgeUpdate, nil)
		return
	}

	recipient := convo.OtherParticipant(msg.SenderID)
	if recipient == msg.SenderID {
		return
	}
	if !svc.bcast.IsSubscribed(recipient, msg.ConversationID) {
		svc.bcast.EmitToUser(recipient, core.EventMessageNew, NoticePayload{ConversationID: msg.ConversationID})
		svc.bcast.EmitToUser(recipient, core.EventBadgeUpdate, nil)
	}
}

// MarkRead stamps the message read if it is not already; re-marking is a
// no-op, never an error. Clients are prompted to refresh their badges.
func (svc *Service) MarkRead(ctx context.Context, messageID int) error {
	if _, err := svc.repo.MarkMessageRead(ctx, messageID, svc.nowFunc().UTC()); err != nil {
		return err
	}
	svc.bcast.EmitAll(core.EventBadgeUpdate, nil)
	return nil
}

// UnreadCount counts messages sent to the participant that they have not read,
// across all their conversations. No conversations means zero, not an error.
func (svc *Service) UnreadCount(ctx context.Context, usr user.User) (int, error) {
	ids, err := svc.conversationIDs(ctx, usr)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return svc.repo.CountUnread(ctx, ids, usr.ID)
}

// UnreadMap flags each of the participant's conversations holding at least one
// message they have not read.
func (svc *Service) UnreadMap(ctx context.Context, usr user.User) (map[int]bool, error) {
	unread := make(map[int]bool)
	ids, err := svc.conversationIDs(ctx, usr)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return unread, nil
	}

	flagged, err := svc.repo.UnreadConversationIDs(ctx, ids, usr.ID)
	if err != nil {
		return nil, err
	}
	for _, id := range flagged {
		unread[id] = true
	}
	return unread, nil
}

func (svc *Service) conversationIDs(ctx context.Context, usr user.User) ([]int, error) {
	convos, err := svc.List(ctx, usr)
	if err != nil {
		return nil, errors.Wrap(err, "listing conversations")
	}
	ids := make([]int, 0, len(convos))
	for _, c := range convos {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (nm *NewMessage) Validate() error {
	nm.Content = core.CleanString(nm.Content)
	return core.Validate.Struct(nm)
}
