package dto

import "tourchat-backend/internal/model"

type ParticipantResponse struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail,omitempty"`
}

type ConversationResponse struct {
	ConversationID string                `json:"conversationId"`
	Participants   []ParticipantResponse `json:"participants"`
	LastMessage    string                `json:"lastMessage"`
	LastMessageAt  string                `json:"lastMessageAt"`
	UnreadCount    int                   `json:"unreadCount"`
	IsActive       bool                  `json:"isActive"`
	CreatedAt      string                `json:"createdAt"`
	UpdatedAt      string                `json:"updatedAt"`
}

type MessageResponse struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
	SenderID       string `json:"senderId"`
	SenderName     string `json:"senderName"`
	Content        string `json:"content"`
	IsRead         bool   `json:"isRead"`
	CreatedAt      string `json:"createdAt"`
}

type ConversationSummaryResponse struct {
	Conversation ConversationResponse `json:"conversation"`
	MessageCount int                  `json:"messageCount"`
	UnreadCount  int                  `json:"unreadCount"`
}

type SendMessageRequest struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
}

type SendMessageResponse struct {
	Message      MessageResponse      `json:"message"`
	Conversation ConversationResponse `json:"conversation"`
}

type ListConversationsResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
	// Messages carries the open conversation's log when the caller has
	// exactly one conversation, saving the client a second request.
	Messages []MessageResponse `json:"messages,omitempty"`
}

type ListMessagesResponse struct {
	Conversation ConversationResponse `json:"conversation"`
	Messages     []MessageResponse    `json:"messages"`
}

type ListConversationSummariesResponse struct {
	Conversations []ConversationSummaryResponse `json:"conversations"`
	Total         int                           `json:"total"`
	Page          int                           `json:"page"`
	PageSize      int                           `json:"pageSize"`
}

func NewConversationResponse(conversation model.ConversationItem) ConversationResponse {
	participants := make([]ParticipantResponse, 0, len(conversation.Participants))
	for _, p := range conversation.Participants {
		participants = append(participants, ParticipantResponse{
			UserID:    p.UserID,
			UserName:  p.UserName,
			UserEmail: p.UserEmail,
		})
	}
	return ConversationResponse{
		ConversationID: conversation.ConversationID,
		Participants:   participants,
		LastMessage:    conversation.LastMessage,
		LastMessageAt:  conversation.LastMessageAt,
		UnreadCount:    conversation.UnreadCount,
		IsActive:       conversation.IsActive,
		CreatedAt:      conversation.CreatedAt,
		UpdatedAt:      conversation.UpdatedAt,
	}
}

func NewMessageResponse(message model.MessageItem) MessageResponse {
	return MessageResponse{
		MessageID:      message.MessageID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		SenderName:     message.SenderName,
		Content:        message.Content,
		IsRead:         message.IsRead,
		CreatedAt:      message.CreatedAt,
	}
}

func NewMessageResponses(messages []model.MessageItem) []MessageResponse {
	responses := make([]MessageResponse, 0, len(messages))
	for _, message := range messages {
		responses = append(responses, NewMessageResponse(message))
	}
	return responses
}
