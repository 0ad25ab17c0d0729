package model

import "fmt"

const (
	UsersTable             = "Users"
	ConversationsTable     = "Conversations"
	MessagesTable          = "Messages"
	ConversationPairsTable = "ConversationPairs"
)

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
)

const StatusActive = "active"

type UserItem struct {
	UserID       string `dynamodbav:"userId"`
	Email        string `dynamodbav:"email"`
	Name         string `dynamodbav:"name"`
	Role         string `dynamodbav:"role"`
	Status       string `dynamodbav:"status"`
	PasswordHash string `dynamodbav:"passwordHash"`
	CreatedAt    string `dynamodbav:"createdAt"`
}

func MessagePK(conversationID, messageID string) string {
	return fmt.Sprintf("%s#%s", conversationID, messageID)
}

// PairPK keys the ConversationPairs table. One row per
// (customer, staff) pairing guards against a duplicate default
// conversation being created by two racing first-opens.
func PairPK(customerID, staffID string) string {
	return fmt.Sprintf("%s#%s", customerID, staffID)
}
