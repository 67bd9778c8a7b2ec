package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/bookexchange/bookexchange/internal/domain"
	domainerrors "github.com/bookexchange/bookexchange/internal/errors"
	"github.com/bookexchange/bookexchange/internal/id"
	"github.com/bookexchange/bookexchange/internal/session"
	"github.com/bookexchange/bookexchange/internal/store"
)

// MessageService handles direct messages and the conversation index.
//
// Unread accounting follows the conversation's creation order: a message from
// User1ID resets the unread count, any other message increments it, and only
// User2ID sees the count in UnreadTotal.
type MessageService struct {
	kv     store.KV
	logger *slog.Logger
	now    func() time.Time
}

// NewMessageService creates a new message service.
func NewMessageService(kv store.KV, logger *slog.Logger) *MessageService {
	return &MessageService{
		kv:     kv,
		logger: logger,
		now:    clock,
	}
}

// ConversationSummary is one row of a user's inbox.
type ConversationSummary struct {
	Conversation domain.Conversation `json:"conversation"`
	Peer         *domain.SessionUser `json:"peer"`
	LastMessage  *domain.Message     `json:"last_message,omitempty"`
	Unread       int                 `json:"unread"`
}

// GetOrCreateConversation returns the conversation between the session user
// and peerID, creating it with the session user as User1ID if needed.
func (s *MessageService) GetOrCreateConversation(ctx context.Context, sess *session.Session, peerID string) (*domain.Conversation, error) {
	me, err := requireUser(sess, "send messages")
	if err != nil {
		return nil, err
	}
	if peerID == "" {
		return nil, domainerrors.Validation("peer id is required")
	}

	var conv domain.Conversation
	err = s.kv.Update(ctx, func(tx store.Txn) error {
		convs, err := store.Conversations.Load(tx)
		if err != nil {
			return err
		}
		convs, i, created, err := s.conversationIndex(convs, me.ID, peerID)
		if err != nil {
			return err
		}
		conv = convs[i]
		if !created {
			return nil
		}
		return store.Conversations.Save(tx, convs)
	})
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// Send delivers content from the session user to recipientID.
func (s *MessageService) Send(ctx context.Context, sess *session.Session, recipientID, content string) (*domain.Message, error) {
	me, err := requireUser(sess, "send messages")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, domainerrors.EmptyContent("message cannot be empty")
	}
	if recipientID == "" {
		return nil, domainerrors.Validation("recipient id is required")
	}

	msgID, err := id.Generate("msg")
	if err != nil {
		return nil, fmt.Errorf("generate message ID: %w", err)
	}

	msg := domain.Message{
		ID:          msgID,
		SenderID:    me.ID,
		RecipientID: recipientID,
		Content:     content,
		Date:        s.now(),
	}

	err = s.kv.Update(ctx, func(tx store.Txn) error {
		convs, err := store.Conversations.Load(tx)
		if err != nil {
			return err
		}
		convs, i, _, err := s.conversationIndex(convs, me.ID, recipientID)
		if err != nil {
			return err
		}

		messages, err := store.Messages.Load(tx)
		if err != nil {
			return err
		}
		if err := store.Messages.Save(tx, append(messages, msg)); err != nil {
			return err
		}

		conv := &convs[i]
		conv.LastMessageDate = msg.Date
		if conv.User1ID == me.ID {
			conv.UnreadCount = 0
		} else {
			conv.UnreadCount++
		}
		return store.Conversations.Save(tx, convs)
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("Message sent", "message_id", msg.ID, "sender_id", msg.SenderID, "recipient_id", msg.RecipientID)
	}

	return &msg, nil
}

// GetThread returns the messages between the session user and peerID, oldest first.
func (s *MessageService) GetThread(ctx context.Context, sess *session.Session, peerID string) ([]domain.Message, error) {
	me, err := requireUser(sess, "read messages")
	if err != nil {
		return nil, err
	}

	var messages []domain.Message
	err = s.kv.View(ctx, func(tx store.Txn) error {
		var err error
		messages, err = store.Messages.Load(tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	return thread(messages, me.ID, peerID), nil
}

// MarkRead marks every unread message from peerID to the session user as
// read. When any message changed, the conversation's unread count is reset.
func (s *MessageService) MarkRead(ctx context.Context, sess *session.Session, peerID string) error {
	me, err := requireUser(sess, "read messages")
	if err != nil {
		return err
	}

	marked := 0
	err = s.kv.Update(ctx, func(tx store.Txn) error {
		messages, err := store.Messages.Load(tx)
		if err != nil {
			return err
		}
		for i := range messages {
			m := &messages[i]
			if m.SenderID == peerID && m.RecipientID == me.ID && !m.Read {
				m.Read = true
				marked++
			}
		}
		if marked == 0 {
			return nil
		}
		if err := store.Messages.Save(tx, messages); err != nil {
			return err
		}

		convs, err := store.Conversations.Load(tx)
		if err != nil {
			return err
		}
		i := store.IndexFunc(convs, func(c *domain.Conversation) bool { return c.Connects(me.ID, peerID) })
		if i < 0 {
			return nil
		}
		convs[i].UnreadCount = 0
		return store.Conversations.Save(tx, convs)
	})
	if err != nil {
		return err
	}

	if s.logger != nil && marked > 0 {
		s.logger.Debug("Messages marked read", "user_id", me.ID, "peer_id", peerID, "count", marked)
	}
	return nil
}

// UnreadTotal sums the unread counts of conversations in which the session
// user is User2ID. An anonymous session has no unread messages.
func (s *MessageService) UnreadTotal(ctx context.Context, sess *session.Session) (int, error) {
	if !sess.IsAuthenticated() {
		return 0, nil
	}
	me := sess.UserID()

	var convs []domain.Conversation
	err := s.kv.View(ctx, func(tx store.Txn) error {
		var err error
		convs, err = store.Conversations.Load(tx)
		return err
	})
	if err != nil {
		return 0, err
	}

	total := 0
	for _, c := range convs {
		if c.User2ID == me {
			total += c.UnreadCount
		}
	}
	return total, nil
}

// ListConversations returns the session user's inbox, most recent first.
// Conversations whose peer has no account are left out.
func (s *MessageService) ListConversations(ctx context.Context, sess *session.Session) ([]ConversationSummary, error) {
	me, err := requireUser(sess, "read messages")
	if err != nil {
		return nil, err
	}

	var (
		convs    []domain.Conversation
		messages []domain.Message
		users    []domain.User
	)
	err = s.kv.View(ctx, func(tx store.Txn) error {
		var err error
		if convs, err = store.Conversations.Load(tx); err != nil {
			return err
		}
		if messages, err = store.Messages.Load(tx); err != nil {
			return err
		}
		users, err = store.Users.Load(tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	convs = slices.DeleteFunc(convs, func(c domain.Conversation) bool { return !c.Involves(me.ID) })
	slices.SortStableFunc(convs, func(a, b domain.Conversation) int {
		return b.LastMessageDate.Compare(a.LastMessageDate)
	})

	summaries := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		peerID := c.Peer(me.ID)
		j := store.IndexFunc(users, func(u *domain.User) bool { return u.ID == peerID })
		if j < 0 {
			continue
		}

		summary := ConversationSummary{Conversation: c, Peer: users[j].Session()}
		if t := thread(messages, me.ID, peerID); len(t) > 0 {
			last := t[len(t)-1]
			summary.LastMessage = &last
		}
		if c.User2ID == me.ID {
			summary.Unread = c.UnreadCount
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// conversationIndex finds the conversation between me and peer in convs,
// appending a new one opened by me when none exists.
func (s *MessageService) conversationIndex(convs []domain.Conversation, me, peer string) ([]domain.Conversation, int, bool, error) {
	if i := store.IndexFunc(convs, func(c *domain.Conversation) bool { return c.Connects(me, peer) }); i >= 0 {
		return convs, i, false, nil
	}

	convID, err := id.Generate("conv")
	if err != nil {
		return nil, -1, false, fmt.Errorf("generate conversation ID: %w", err)
	}
	convs = append(convs, domain.Conversation{
		ID:              convID,
		User1ID:         me,
		User2ID:         peer,
		LastMessageDate: s.now(),
	})
	return convs, len(convs) - 1, true, nil
}

// thread filters messages down to those between a and b, oldest first.
func thread(messages []domain.Message, a, b string) []domain.Message {
	out := make([]domain.Message, 0)
	for _, m := range messages {
		if m.Between(a, b) {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(x, y domain.Message) int {
		return x.Date.Compare(y.Date)
	})
	return out
}
