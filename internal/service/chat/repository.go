package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"tourchat-backend/internal/database"
	"tourchat-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	ErrNotFound = errors.New("chat repository: not found")
	ErrConflict = errors.New("chat repository: conflict")
)

type Repository interface {
	FindStaffUser(ctx context.Context) (model.UserItem, error)
	CreateConversation(ctx context.Context, conversation model.ConversationItem) error
	SaveConversation(ctx context.Context, conversation model.ConversationItem) error
	GetConversation(ctx context.Context, conversationID string) (model.ConversationItem, error)
	ListConversationsForParticipant(ctx context.Context, userID string, activeOnly bool) ([]model.ConversationItem, error)
	ListConversations(ctx context.Context) ([]model.ConversationItem, error)
	ClaimConversationPair(ctx context.Context, pair model.ConversationPairItem) error
	GetConversationPair(ctx context.Context, customerID, staffID string) (model.ConversationPairItem, error)
	CreateMessage(ctx context.Context, message model.MessageItem) error
	ListMessages(ctx context.Context, conversationID string, limit int, ascending bool) ([]model.MessageItem, error)
	CountUnread(ctx context.Context, conversationID string) (int, error)
	CountMessages(ctx context.Context, conversationID string) (int, error)
	MarkAllReadExceptSender(ctx context.Context, conversationID, senderID string) (int, error)
}

type DynamoRepository struct {
	db  *database.Database
	now func() time.Time
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db, now: time.Now}
}

func (r *DynamoRepository) FindStaffUser(ctx context.Context) (model.UserItem, error) {
	items, err := r.db.Client.ScanItems(
		ctx,
		model.UsersTable,
		"#role = :role AND #status = :status",
		map[string]types.AttributeValue{
			":role":   &types.AttributeValueMemberS{Value: model.RoleStaff},
			":status": &types.AttributeValueMemberS{Value: model.StatusActive},
		},
		map[string]string{
			"#role":   "role",
			"#status": "status",
		},
	)
	if err != nil {
		return model.UserItem{}, err
	}
	if len(items) == 0 {
		return model.UserItem{}, ErrNotFound
	}

	users := make([]model.UserItem, 0, len(items))
	for _, item := range items {
		var user model.UserItem
		if err := attributevalue.UnmarshalMap(item, &user); err != nil {
			return model.UserItem{}, err
		}
		users = append(users, user)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt < users[j].CreatedAt
	})

	return users[0], nil
}

func (r *DynamoRepository) CreateConversation(ctx context.Context, conversation model.ConversationItem) error {
	return r.db.Client.PutItem(ctx, model.ConversationsTable, conversation)
}

func (r *DynamoRepository) SaveConversation(ctx context.Context, conversation model.ConversationItem) error {
	return r.db.Client.PutItem(ctx, model.ConversationsTable, conversation)
}

func (r *DynamoRepository) GetConversation(ctx context.Context, conversationID string) (model.ConversationItem, error) {
	var conversation model.ConversationItem
	err := r.db.Client.GetItem(
		ctx,
		model.ConversationsTable,
		map[string]types.AttributeValue{
			"conversationId": &types.AttributeValueMemberS{Value: conversationID},
		},
		&conversation,
	)
	if err != nil {
		if isNotFound(err) {
			return model.ConversationItem{}, ErrNotFound
		}
		return model.ConversationItem{}, err
	}
	return conversation, nil
}

func (r *DynamoRepository) ListConversationsForParticipant(ctx context.Context, userID string, activeOnly bool) ([]model.ConversationItem, error) {
	conversations, err := r.scanConversations(ctx, activeOnly)
	if err != nil {
		return nil, err
	}

	filtered := conversations[:0]
	for _, conversation := range conversations {
		if conversation.HasParticipant(userID) {
			filtered = append(filtered, conversation)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].LastMessageAt > filtered[j].LastMessageAt
	})

	return filtered, nil
}

func (r *DynamoRepository) ListConversations(ctx context.Context) ([]model.ConversationItem, error) {
	conversations, err := r.scanConversations(ctx, false)
	if err != nil {
		return nil, err
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].LastMessageAt > conversations[j].LastMessageAt
	})

	return conversations, nil
}

func (r *DynamoRepository) scanConversations(ctx context.Context, activeOnly bool) ([]model.ConversationItem, error) {
	filterExpr := ""
	var exprValues map[string]types.AttributeValue
	if activeOnly {
		filterExpr = "isActive = :active"
		exprValues = map[string]types.AttributeValue{
			":active": &types.AttributeValueMemberBOOL{Value: true},
		}
	}

	items, err := r.db.Client.ScanAllWithFilter(ctx, model.ConversationsTable, filterExpr, exprValues, nil)
	if err != nil {
		return nil, err
	}

	conversations := make([]model.ConversationItem, 0, len(items))
	for _, item := range items {
		var conversation model.ConversationItem
		if err := attributevalue.UnmarshalMap(item, &conversation); err != nil {
			return nil, err
		}
		conversations = append(conversations, conversation)
	}
	return conversations, nil
}

func (r *DynamoRepository) ClaimConversationPair(ctx context.Context, pair model.ConversationPairItem) error {
	err := r.db.Client.PutItemIfAbsent(ctx, model.ConversationPairsTable, "pk", pair)
	if errors.Is(err, database.ErrConditionalFailed) {
		return ErrConflict
	}
	return err
}

func (r *DynamoRepository) GetConversationPair(ctx context.Context, customerID, staffID string) (model.ConversationPairItem, error) {
	var pair model.ConversationPairItem
	err := r.db.Client.GetItem(
		ctx,
		model.ConversationPairsTable,
		map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: model.PairPK(customerID, staffID)},
		},
		&pair,
	)
	if err != nil {
		if isNotFound(err) {
			return model.ConversationPairItem{}, ErrNotFound
		}
		return model.ConversationPairItem{}, err
	}
	return pair, nil
}

func (r *DynamoRepository) CreateMessage(ctx context.Context, message model.MessageItem) error {
	return r.db.Client.PutItem(ctx, model.MessagesTable, message)
}

func (r *DynamoRepository) ListMessages(ctx context.Context, conversationID string, limit int, ascending bool) ([]model.MessageItem, error) {
	messages, err := r.fetchMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	sort.Slice(messages, func(i, j int) bool {
		ti := parseTime(messages[i].CreatedAt)
		tj := parseTime(messages[j].CreatedAt)
		return ti.Before(tj)
	})

	if limit > 0 && len(messages) > limit {
		// The window always keeps the most recent messages.
		messages = messages[len(messages)-limit:]
	}

	if !ascending {
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
	}

	return messages, nil
}

func (r *DynamoRepository) CountUnread(ctx context.Context, conversationID string) (int, error) {
	messages, err := r.fetchMessages(ctx, conversationID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, message := range messages {
		if !message.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *DynamoRepository) CountMessages(ctx context.Context, conversationID string) (int, error) {
	messages, err := r.fetchMessages(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	return len(messages), nil
}

func (r *DynamoRepository) MarkAllReadExceptSender(ctx context.Context, conversationID, senderID string) (int, error) {
	messages, err := r.fetchMessages(ctx, conversationID)
	if err != nil {
		return 0, err
	}

	now := r.now().UTC().Format(time.RFC3339)
	var updates []interface{}
	for _, message := range messages {
		if message.IsRead || message.SenderID == senderID {
			continue
		}
		message.IsRead = true
		message.UpdatedAt = now
		updates = append(updates, message)
	}

	if len(updates) == 0 {
		return 0, nil
	}

	if err := r.db.Client.BatchWriteItem(ctx, model.MessagesTable, updates); err != nil {
		return 0, err
	}
	return len(updates), nil
}

func (r *DynamoRepository) fetchMessages(ctx context.Context, conversationID string) ([]model.MessageItem, error) {
	items, err := r.db.Client.QueryAll(
		ctx,
		model.MessagesTable,
		aws.String("byConversation"),
		"conversationId = :conversationId",
		map[string]types.AttributeValue{
			":conversationId": &types.AttributeValueMemberS{Value: conversationID},
		},
	)
	if err != nil && !isIndexNotFound(err) {
		return nil, err
	}

	if err != nil || items == nil {
		items, err = r.db.Client.ScanItems(
			ctx,
			model.MessagesTable,
			"conversationId = :conversationId",
			map[string]types.AttributeValue{
				":conversationId": &types.AttributeValueMemberS{Value: conversationID},
			},
			nil,
		)
		if err != nil {
			return nil, err
		}
	}

	messages := make([]model.MessageItem, 0, len(items))
	for _, item := range items {
		var message model.MessageItem
		if err := attributevalue.UnmarshalMap(item, &message); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "item not found")
}

func isIndexNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "index") && strings.Contains(msg, "not") && strings.Contains(msg, "found")
}

func parseTime(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}
	}
	return t
}
