package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/stationhq/firewatch/core/chat"
)

type chatRepository struct {
	convos   *conversationTable
	messages *messageTable
}

var _ chat.Repository = (*chatRepository)(nil) // interface compliance check

func NewChatRepository(db *DB) chat.Repository {
	return &chatRepository{convos: db.conversation, messages: db.message}
}

func (repo *chatRepository) queryConvos() []chat.Conversation {
	convos := make([]chat.Conversation, 0, len(repo.convos.table))
	for _, c := range repo.convos.table {
		convos = append(convos, *c)
	}
	return convos
}

func (repo *chatRepository) queryMessages() []chat.Message {
	msgs := make([]chat.Message, 0, len(repo.messages.table))
	for _, m := range repo.messages.table {
		msgs = append(msgs, *m)
	}
	return msgs
}

func sortConversations(convos []chat.Conversation) {
	sort.SliceStable(convos, func(i, j int) bool {
		if !convos[i].UpdatedAt.Equal(convos[j].UpdatedAt) {
			return convos[i].UpdatedAt.After(convos[j].UpdatedAt)
		}
		return convos[i].ID > convos[j].ID
	})
}

func (repo *chatRepository) CreateConversation(ctx context.Context, convo chat.Conversation) (chat.Conversation, error) {
	repo.convos.Lock()
	defer repo.convos.Unlock()

	for _, c := range repo.convos.table {
		if c.UserID == convo.UserID && c.AdminID == convo.AdminID {
			return chat.Conversation{}, chat.ErrConversationExists
		}
	}

	repo.convos.pkCount++
	convo.ID = repo.convos.pkCount
	repo.convos.table[convo.ID] = &convo
	return convo, nil
}

func (repo *chatRepository) GetConversationByID(ctx context.Context, id int) (chat.Conversation, error) {
	repo.convos.RLock()
	defer repo.convos.RUnlock()

	if convo, ok := repo.convos.table[id]; ok {
		return *convo, nil
	}
	return chat.Conversation{}, chat.ErrConversationNotFound
}

func (repo *chatRepository) GetConversationForUser(ctx context.Context, userID int) (chat.Conversation, error) {
	repo.convos.RLock()
	defer repo.convos.RUnlock()

	var found *chat.Conversation
	for _, c := range repo.convos.table {
		if c.UserID != userID {
			continue
		}
		if found == nil || c.ID < found.ID {
			convo := *c
			found = &convo
		}
	}
	if found == nil {
		return chat.Conversation{}, chat.ErrConversationNotFound
	}
	return *found, nil
}

func (repo *chatRepository) GetConversationByPair(ctx context.Context, userID, adminID int) (chat.Conversation, error) {
	repo.convos.RLock()
	defer repo.convos.RUnlock()

	for _, c := range repo.convos.table {
		if c.UserID == userID && c.AdminID == adminID {
			return *c, nil
		}
	}
	return chat.Conversation{}, chat.ErrConversationNotFound
}

func (repo *chatRepository) QueryConversationsByUser(ctx context.Context, userID int) ([]chat.Conversation, error) {
	repo.convos.RLock()
	defer repo.convos.RUnlock()

	var convos []chat.Conversation
	for _, c := range repo.queryConvos() {
		if c.UserID == userID {
			convos = append(convos, c)
		}
	}
	sortConversations(convos)
	return convos, nil
}

func (repo *chatRepository) QueryConversationsByAdmin(ctx context.Context, adminID int) ([]chat.Conversation, error) {
	repo.convos.RLock()
	defer repo.convos.RUnlock()

	var convos []chat.Conversation
	for _, c := range repo.queryConvos() {
		if c.AdminID == adminID {
			convos = append(convos, c)
		}
	}
	sortConversations(convos)
	return convos, nil
}

func (repo *chatRepository) TouchConversation(ctx context.Context, id int, at time.Time) error {
	repo.convos.Lock()
	defer repo.convos.Unlock()

	if convo, ok := repo.convos.table[id]; ok {
		convo.UpdatedAt = at
	}
	return nil
}

func (repo *chatRepository) CreateMessage(ctx context.Context, msg chat.Message) (chat.Message, error) {
	repo.messages.Lock()
	defer repo.messages.Unlock()

	repo.messages.pkCount++
	msg.ID = repo.messages.pkCount
	repo.messages.table[msg.ID] = &msg
	return msg, nil
}

func (repo *chatRepository) GetMessageByID(ctx context.Context, id int) (chat.Message, error) {
	repo.messages.RLock()
	defer repo.messages.RUnlock()

	if msg, ok := repo.messages.table[id]; ok {
		return *msg, nil
	}
	return chat.Message{}, chat.ErrMessageNotFound
}

func (repo *chatRepository) QueryMessagesByConversation(ctx context.Context, conversationID int) ([]chat.Message, error) {
	repo.messages.RLock()
	defer repo.messages.RUnlock()

	var msgs []chat.Message
	for _, m := range repo.queryMessages() {
		if m.ConversationID == conversationID {
			msgs = append(msgs, m)
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		}
		return msgs[i].ID < msgs[j].ID
	})
	return msgs, nil
}

func (repo *chatRepository) MarkMessageRead(ctx context.Context, id int, at time.Time) (bool, error) {
	repo.messages.Lock()
	defer repo.messages.Unlock()

	msg, ok := repo.messages.table[id]
	if !ok {
		return false, chat.ErrMessageNotFound
	}
	if msg.ReadAt != nil {
		return false, nil
	}
	msg.ReadAt = &at
	return true, nil
}

func (repo *chatRepository) CountUnread(ctx context.Context, conversationIDs []int, recipientID int) (int, error) {
	repo.messages.RLock()
	defer repo.messages.RUnlock()

	var count int
	for _, m := range repo.queryMessages() {
		if m.ReadAt == nil && m.SenderID != recipientID && containsID(conversationIDs, m.ConversationID) {
			count++
		}
	}
	return count, nil
}

func (repo *chatRepository) UnreadConversationIDs(ctx context.Context, conversationIDs []int, recipientID int) ([]int, error) {
	repo.messages.RLock()
	defer repo.messages.RUnlock()

	seen := make(map[int]bool)
	var ids []int
	for _, m := range repo.queryMessages() {
		if m.ReadAt != nil || m.SenderID == recipientID || seen[m.ConversationID] {
			continue
		}
		if containsID(conversationIDs, m.ConversationID) {
			seen[m.ConversationID] = true
			ids = append(ids, m.ConversationID)
		}
	}
	return ids, nil
}

func containsID(ids []int, id int) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}
