package model

// ParticipantItem is a snapshot of an identity taken when the
// conversation is created. Renaming a user later does not rewrite
// historical participant labels.
type ParticipantItem struct {
	UserID    string `dynamodbav:"userId"`
	UserName  string `dynamodbav:"userName"`
	UserEmail string `dynamodbav:"userEmail"`
}

type ConversationItem struct {
	ConversationID string            `dynamodbav:"conversationId"`
	Participants   []ParticipantItem `dynamodbav:"participants"`
	LastMessage    string            `dynamodbav:"lastMessage"`
	LastMessageAt  string            `dynamodbav:"lastMessageAt"`
	UnreadCount    int               `dynamodbav:"unreadCount"`
	IsActive       bool              `dynamodbav:"isActive"`
	CreatedAt      string            `dynamodbav:"createdAt"`
	UpdatedAt      string            `dynamodbav:"updatedAt"`
}

// HasParticipant reports whether userID is one of the two snapshot
// participants.
func (c ConversationItem) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

type MessageItem struct {
	PK             string `dynamodbav:"pk"`
	ConversationID string `dynamodbav:"conversationId"`
	MessageID      string `dynamodbav:"messageId"`
	SenderID       string `dynamodbav:"senderId"`
	SenderName     string `dynamodbav:"senderName"`
	Content        string `dynamodbav:"content"`
	IsRead         bool   `dynamodbav:"isRead"`
	CreatedAt      string `dynamodbav:"createdAt"`
	UpdatedAt      string `dynamodbav:"updatedAt"`
}

type ConversationPairItem struct {
	PK             string `dynamodbav:"pk"`
	CustomerID     string `dynamodbav:"customerId"`
	StaffID        string `dynamodbav:"staffId"`
	ConversationID string `dynamodbav:"conversationId"`
	CreatedAt      string `dynamodbav:"createdAt"`
}
