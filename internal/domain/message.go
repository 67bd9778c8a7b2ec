package domain

import "time"

// Conversation indexes the messages exchanged between two users.
// User1ID is whoever opened the conversation.
type Conversation struct {
	ID              string    `json:"id"`
	User1ID         string    `json:"user1_id"`
	User2ID         string    `json:"user2_id"`
	LastMessageDate time.Time `json:"last_message_date"`
	UnreadCount     int       `json:"unread_count"`
}

// Connects reports whether c is between a and b, in either order.
func (c *Conversation) Connects(a, b string) bool {
	return (c.User1ID == a && c.User2ID == b) || (c.User1ID == b && c.User2ID == a)
}

// Involves reports whether userID is one of the two parties.
func (c *Conversation) Involves(userID string) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// Peer returns the party of c that is not userID.
func (c *Conversation) Peer(userID string) string {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// Message is a single direct message.
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Content     string    `json:"content"`
	Date        time.Time `json:"date"`
	Read        bool      `json:"read"`
}

// Between reports whether m was sent from a to b or from b to a.
func (m *Message) Between(a, b string) bool {
	return (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a)
}
