package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"tourchat-backend/internal/database"
	"tourchat-backend/internal/model"

	"github.com/google/uuid"
)

// WelcomeMessage seeds the staff side of every auto-created
// conversation.
const WelcomeMessage = "Hi there! How can we help you plan your trip?"

const (
	defaultMessageWindow     = 100
	defaultConversationLimit = 20
	defaultSummaryPageSize   = 20
	maxSummaryPageSize       = 100
	maxMessageWindow         = 200
)

// Service owns every chat business rule. The websocket handler and the
// HTTP fallback both call into it and never reimplement its logic.
type Service struct {
	repo Repository
	now  func() time.Time
}

func New(db *database.Database) *Service {
	return &Service{
		repo: NewDynamoRepository(db),
		now:  time.Now,
	}
}

func NewWithRepository(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo: repo,
		now:  now,
	}
}

// EnsureDefaultConversation returns the customer's most recent active
// conversation, creating the single customer-staff conversation with a
// staff welcome message when none exists yet. Two racing first-opens
// are serialized by the pair claim; the loser re-fetches instead of
// failing.
func (s *Service) EnsureDefaultConversation(ctx context.Context, customer Identity) (model.ConversationItem, error) {
	if customer.UserID == "" {
		return model.ConversationItem{}, newError(ErrorCodeUnauthorized, "invalid user identity", nil)
	}
	if customer.IsStaff() {
		return model.ConversationItem{}, newError(ErrorCodeValidation, "staff accounts do not get a default conversation", nil)
	}

	existing, err := s.repo.ListConversationsForParticipant(ctx, customer.UserID, true)
	if err != nil {
		return model.ConversationItem{}, newError(ErrorCodeInternal, "failed to list conversations", err)
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	staff, err := s.repo.FindStaffUser(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.ConversationItem{}, newError(ErrorCodeUnavailable, "no staff account is available", err)
		}
		return model.ConversationItem{}, newError(ErrorCodeInternal, "failed to look up staff account", err)
	}

	now := s.now().UTC()
	nowStr := now.Format(time.RFC3339)
	conversationID := uuid.NewString()

	pair := model.ConversationPairItem{
		PK:             model.PairPK(customer.UserID, staff.UserID),
		CustomerID:     customer.UserID,
		StaffID:        staff.UserID,
		ConversationID: conversationID,
		CreatedAt:      nowStr,
	}

	if err := s.repo.ClaimConversationPair(ctx, pair); err != nil {
		if errors.Is(err, ErrConflict) {
			return s.resolveClaimedConversation(ctx, customer, staff)
		}
		return model.ConversationItem{}, newError(ErrorCodeInternal, "failed to claim conversation", err)
	}

	conversation := model.ConversationItem{
		ConversationID: conversationID,
		Participants: []model.ParticipantItem{
			{UserID: customer.UserID, UserName: customer.Name, UserEmail: customer.Email},
			{UserID: staff.UserID, UserName: staff.Name, UserEmail: staff.Email},
		},
		LastMessage:   "",
		LastMessageAt: nowStr,
		UnreadCount:   0,
		IsActive:      true,
		CreatedAt:     nowStr,
		UpdatedAt:     nowStr,
	}

	if err := s.repo.CreateConversation(ctx, conversation); err != nil {
		return model.ConversationItem{}, newError(ErrorCodeInternal, "failed to create conversation", err)
	}

	messageID := uuid.NewString()
	welcome := model.MessageItem{
		PK:             model.MessagePK(conversationID, messageID),
		ConversationID: conversationID,
		MessageID:      messageID,
		SenderID:       staff.UserID,
		SenderName:     staff.Name,
		Content:        WelcomeMessage,
		IsRead:         true,
		CreatedAt:      nowStr,
		UpdatedAt:      nowStr,
	}
	if err := s.repo.CreateMessage(ctx, welcome); err != nil {
		return model.ConversationItem{}, newError(ErrorCodeInternal, "failed to store welcome message", err)
	}

	conversation.LastMessage = welcome.Content
	conversation.LastMessageAt = nowStr
	conversation.UpdatedAt = nowStr

	if err := s.repo.SaveConversation(ctx, conversation); err != nil {
		return model.ConversationItem{}, newError(ErrorCodeInternal, "failed to update conversation", err)
	}

	return conversation, nil
}

// resolveClaimedConversation handles the loser of a pair-claim race.
// The winner may not have written the conversation row yet, so fall
// back to the claim itself.
func (s *Service) resolveClaimedConversation(ctx context.Context, customer Identity, staff model.UserItem) (model.ConversationItem, error) {
	existing, err := s.repo.ListConversationsForParticipant(ctx, customer.UserID, true)
	if err != nil {
		return model.ConversationItem{}, newError(ErrorCodeInternal, "failed to list conversations", err)
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	pair, err := s.repo.GetConversationPair(ctx, customer.UserID, staff.UserID)
	if err != nil {
		return model.ConversationItem{}, newError(ErrorCodeConflict, "conversation is being created", err)
	}

	conversation, err := s.repo.GetConversation(ctx, pair.ConversationID)
	if err != nil {
		return model.ConversationItem{}, newError(ErrorCodeConflict, "conversation is being created", err)
	}
	return conversation, nil
}

// PostMessage validates and appends a message, then refreshes the
// conversation summary. The unread counter is recomputed from the
// message log, never incremented from a stale in-memory value.
func (s *Service) PostMessage(ctx context.Context, conversationID string, sender Identity, content string) (PostMessageResult, error) {
	conversationID = strings.TrimSpace(conversationID)
	content = strings.TrimSpace(content)

	if sender.UserID == "" {
		return PostMessageResult{}, newError(ErrorCodeUnauthorized, "invalid user identity", nil)
	}
	if conversationID == "" {
		return PostMessageResult{}, newError(ErrorCodeValidation, "conversationId is required", nil)
	}
	if content == "" {
		return PostMessageResult{}, newError(ErrorCodeValidation, "message content is required", nil)
	}

	conversation, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return PostMessageResult{}, newError(ErrorCodeNotFound, "conversation not found", err)
		}
		return PostMessageResult{}, newError(ErrorCodeInternal, "failed to fetch conversation", err)
	}

	if !conversation.HasParticipant(sender.UserID) {
		return PostMessageResult{}, newError(ErrorCodeForbidden, "you are not a participant of this conversation", nil)
	}

	now := s.now().UTC()
	nowStr := now.Format(time.RFC3339)

	messageID := uuid.NewString()
	message := model.MessageItem{
		PK:             model.MessagePK(conversationID, messageID),
		ConversationID: conversationID,
		MessageID:      messageID,
		SenderID:       sender.UserID,
		SenderName:     sender.Name,
		Content:        content,
		IsRead:         sender.IsStaff(),
		CreatedAt:      nowStr,
		UpdatedAt:      nowStr,
	}

	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return PostMessageResult{}, newError(ErrorCodeInternal, "failed to store message", err)
	}

	unread, err := s.repo.CountUnread(ctx, conversationID)
	if err != nil {
		return PostMessageResult{}, newError(ErrorCodeInternal, "failed to count unread messages", err)
	}

	conversation.LastMessage = content
	conversation.LastMessageAt = nowStr
	conversation.UnreadCount = unread
	conversation.UpdatedAt = nowStr

	if err := s.repo.SaveConversation(ctx, conversation); err != nil {
		return PostMessageResult{}, newError(ErrorCodeInternal, "failed to update conversation", err)
	}

	return PostMessageResult{
		Message:      message,
		Conversation: conversation,
	}, nil
}

// MarkConversationRead flips every message not authored by the reader
// to read and recomputes the unread counter. Safe to call repeatedly.
func (s *Service) MarkConversationRead(ctx context.Context, conversationID string, reader Identity) (model.ConversationItem, error) {
	conversationID = strings.TrimSpace(conversationID)
	if reader.UserID == "" {
		return model.ConversationItem{}, newError(ErrorCodeUnauthorized, "invalid user identity", nil)
	}
	if conversationID == "" {
		return model.ConversationItem{}, newError(ErrorCodeValidation, "conversationId is required", nil)
	}

	conversation, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.ConversationItem{}, newError(ErrorCodeNotFound, "conversation not found", err)
		}
		return model.ConversationItem{}, newError(ErrorCodeInternal, "failed to fetch conversation", err)
	}

	if !conversation.HasParticipant(reader.UserID) {
		return model.ConversationItem{}, newError(ErrorCodeForbidden, "you are not a participant of this conversation", nil)
	}

	if _, err := s.repo.MarkAllReadExceptSender(ctx, conversationID, reader.UserID); err != nil {
		return model.ConversationItem{}, newError(ErrorCodeInternal, "failed to mark messages read", err)
	}

	unread, err := s.repo.CountUnread(ctx, conversationID)
	if err != nil {
		return model.ConversationItem{}, newError(ErrorCodeInternal, "failed to count unread messages", err)
	}

	conversation.UnreadCount = unread
	conversation.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	if err := s.repo.SaveConversation(ctx, conversation); err != nil {
		return model.ConversationItem{}, newError(ErrorCodeInternal, "failed to update conversation", err)
	}

	return conversation, nil
}

// ListConversations returns the caller's active conversations, newest
// activity first.
func (s *Service) ListConversations(ctx context.Context, identity Identity) ([]model.ConversationItem, error) {
	if identity.UserID == "" {
		return nil, newError(ErrorCodeUnauthorized, "invalid user identity", nil)
	}

	conversations, err := s.repo.ListConversationsForParticipant(ctx, identity.UserID, true)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to list conversations", err)
	}

	if len(conversations) > defaultConversationLimit {
		conversations = conversations[:defaultConversationLimit]
	}
	return conversations, nil
}

// ListMessages returns the recent window of a conversation in
// chronological order, after a participancy check.
func (s *Service) ListMessages(ctx context.Context, conversationID string, identity Identity, limit int) (ListMessagesResult, error) {
	conversationID = strings.TrimSpace(conversationID)
	if identity.UserID == "" {
		return ListMessagesResult{}, newError(ErrorCodeUnauthorized, "invalid user identity", nil)
	}
	if conversationID == "" {
		return ListMessagesResult{}, newError(ErrorCodeValidation, "conversationId is required", nil)
	}
	if limit <= 0 || limit > maxMessageWindow {
		limit = defaultMessageWindow
	}

	conversation, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ListMessagesResult{}, newError(ErrorCodeNotFound, "conversation not found", err)
		}
		return ListMessagesResult{}, newError(ErrorCodeInternal, "failed to fetch conversation", err)
	}

	if !conversation.HasParticipant(identity.UserID) {
		return ListMessagesResult{}, newError(ErrorCodeForbidden, "you are not a participant of this conversation", nil)
	}

	messages, err := s.repo.ListMessages(ctx, conversationID, limit, true)
	if err != nil {
		return ListMessagesResult{}, newError(ErrorCodeInternal, "failed to list messages", err)
	}

	return ListMessagesResult{
		Conversation: conversation,
		Messages:     messages,
	}, nil
}

// ListConversationsWithCounts backs the staff dashboard: message and
// unread counts per conversation, free-text participant search, status
// filter, page/pageSize pagination.
func (s *Service) ListConversationsWithCounts(ctx context.Context, staff Identity, params ListSummariesParams) (ListSummariesResult, error) {
	if staff.UserID == "" {
		return ListSummariesResult{}, newError(ErrorCodeUnauthorized, "invalid user identity", nil)
	}
	if !staff.IsStaff() {
		return ListSummariesResult{}, newError(ErrorCodeForbidden, "staff access required", nil)
	}

	status := params.Status
	if status == "" {
		status = StatusFilterActive
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize <= 0 || pageSize > maxSummaryPageSize {
		pageSize = defaultSummaryPageSize
	}

	conversations, err := s.repo.ListConversations(ctx)
	if err != nil {
		return ListSummariesResult{}, newError(ErrorCodeInternal, "failed to list conversations", err)
	}

	search := strings.ToLower(strings.TrimSpace(params.Search))
	filtered := make([]model.ConversationItem, 0, len(conversations))
	for _, conversation := range conversations {
		switch status {
		case StatusFilterActive:
			if !conversation.IsActive {
				continue
			}
		case StatusFilterInactive:
			if conversation.IsActive {
				continue
			}
		}
		if search != "" && !matchesParticipant(conversation, search) {
			continue
		}
		filtered = append(filtered, conversation)
	}

	total := len(filtered)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	pageItems := filtered[start:end]

	summaries := make([]ConversationSummary, 0, len(pageItems))
	for _, conversation := range pageItems {
		messageCount, err := s.repo.CountMessages(ctx, conversation.ConversationID)
		if err != nil {
			return ListSummariesResult{}, newError(ErrorCodeInternal, "failed to count messages", err)
		}
		unreadCount, err := s.repo.CountUnread(ctx, conversation.ConversationID)
		if err != nil {
			return ListSummariesResult{}, newError(ErrorCodeInternal, "failed to count unread messages", err)
		}
		summaries = append(summaries, ConversationSummary{
			Conversation: conversation,
			MessageCount: messageCount,
			UnreadCount:  unreadCount,
		})
	}

	return ListSummariesResult{
		Summaries: summaries,
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
	}, nil
}

func matchesParticipant(conversation model.ConversationItem, search string) bool {
	for _, p := range conversation.Participants {
		if strings.Contains(strings.ToLower(p.UserName), search) ||
			strings.Contains(strings.ToLower(p.UserEmail), search) {
			return true
		}
	}
	return false
}
