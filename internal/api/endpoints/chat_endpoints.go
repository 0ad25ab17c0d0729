package endpoints

import (
	"tourchat-backend/internal/dto"
	authservice "tourchat-backend/internal/service/auth"
	chatservice "tourchat-backend/internal/service/chat"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

type ChatEndpoints interface {
	Conversations(http.ResponseWriter, *http.Request) error
	ConversationMessages(http.ResponseWriter, *http.Request) error
	Send(http.ResponseWriter, *http.Request) error
	AdminConversations(http.ResponseWriter, *http.Request) error
	AdminConversationActions(http.ResponseWriter, *http.Request) error
}

type ChatPaths struct {
	ConversationMessagesPrefix string
	AdminConversationPrefix    string
}

type chatEndpoints struct {
	service *chatservice.Service
	paths   ChatPaths
}

func NewChatEndpoints(service *chatservice.Service, prefix string) ChatEndpoints {
	base := strings.TrimRight(prefix, "/")
	return NewChatEndpointsWithPaths(service, ChatPaths{
		ConversationMessagesPrefix: base + "/chat/conversations/",
		AdminConversationPrefix:    base + "/admin/conversations/",
	})
}

func NewChatEndpointsWithPaths(service *chatservice.Service, paths ChatPaths) ChatEndpoints {
	return &chatEndpoints{
		service: service,
		paths:   paths,
	}
}

func (h *chatEndpoints) Conversations(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleListConversations,
	})
}

func (h *chatEndpoints) ConversationMessages(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleListMessages,
	})
}

func (h *chatEndpoints) Send(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleSend,
	})
}

func (h *chatEndpoints) AdminConversations(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleAdminListConversations,
	})
}

func (h *chatEndpoints) AdminConversationActions(w http.ResponseWriter, r *http.Request) error {
	conversationID, action, err := h.extractAdminPath(r.URL.Path)
	if err != nil {
		return err
	}

	switch action {
	case "messages":
		return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
			http.MethodGet: func(w http.ResponseWriter, r *http.Request) error {
				return h.handleAdminListMessages(w, r, conversationID)
			},
			http.MethodPost: func(w http.ResponseWriter, r *http.Request) error {
				return h.handleAdminPostMessage(w, r, conversationID)
			},
		})
	case "read":
		return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
			http.MethodPost: func(w http.ResponseWriter, r *http.Request) error {
				return h.handleAdminMarkRead(w, r, conversationID)
			},
		})
	default:
		return &HTTPError{
			StatusCode: http.StatusNotFound,
			Message:    "Not found",
			ErrorLog:   fmt.Errorf("unknown conversation action: %s", action),
		}
	}
}

// handleListConversations serves the customer home view. Opening it
// guarantees the default conversation exists, and when the customer
// has a single conversation its message log rides along.
func (h *chatEndpoints) handleListConversations(w http.ResponseWriter, r *http.Request) error {
	identity, err := identityFromRequest(r)
	if err != nil {
		return err
	}

	if !identity.IsStaff() {
		if _, err := h.service.EnsureDefaultConversation(r.Context(), identity); err != nil {
			return h.serviceError(err)
		}
	}

	conversations, err := h.service.ListConversations(r.Context(), identity)
	if err != nil {
		return h.serviceError(err)
	}

	resp := dto.ListConversationsResponse{
		Conversations: make([]dto.ConversationResponse, len(conversations)),
	}
	for i, conversation := range conversations {
		resp.Conversations[i] = dto.NewConversationResponse(conversation)
	}

	if len(conversations) == 1 {
		result, err := h.service.ListMessages(r.Context(), conversations[0].ConversationID, identity, 0)
		if err != nil {
			return h.serviceError(err)
		}
		resp.Messages = dto.NewMessageResponses(result.Messages)
	}

	return WriteJSON(w, http.StatusOK, resp)
}

func (h *chatEndpoints) handleListMessages(w http.ResponseWriter, r *http.Request) error {
	conversationID, err := h.extractConversationMessagesPath(r.URL.Path)
	if err != nil {
		return err
	}

	identity, err := identityFromRequest(r)
	if err != nil {
		return err
	}

	limit := parseIntParam(r.URL.Query().Get("limit"), 0)
	result, err := h.service.ListMessages(r.Context(), conversationID, identity, limit)
	if err != nil {
		return h.serviceError(err)
	}

	return WriteJSON(w, http.StatusOK, dto.ListMessagesResponse{
		Conversation: dto.NewConversationResponse(result.Conversation),
		Messages:     dto.NewMessageResponses(result.Messages),
	})
}

// handleSend is the fallback path for clients whose socket is down. It
// persists the message and returns it, deliberately without any push
// fan-out. Connected participants catch up on reconnect or reload.
func (h *chatEndpoints) handleSend(w http.ResponseWriter, r *http.Request) error {
	identity, err := identityFromRequest(r)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode send message request: %w", err),
		}
	}

	result, err := h.service.PostMessage(r.Context(), req.ConversationID, identity, req.Content)
	if err != nil {
		return h.serviceError(err)
	}

	return WriteJSON(w, http.StatusCreated, dto.SendMessageResponse{
		Message:      dto.NewMessageResponse(result.Message),
		Conversation: dto.NewConversationResponse(result.Conversation),
	})
}

func (h *chatEndpoints) handleAdminListConversations(w http.ResponseWriter, r *http.Request) error {
	identity, err := identityFromRequest(r)
	if err != nil {
		return err
	}

	query := r.URL.Query()
	result, err := h.service.ListConversationsWithCounts(r.Context(), identity, chatservice.ListSummariesParams{
		Search:   query.Get("search"),
		Status:   chatservice.StatusFilter(query.Get("status")),
		Page:     parseIntParam(query.Get("page"), 0),
		PageSize: parseIntParam(query.Get("pageSize"), 0),
	})
	if err != nil {
		return h.serviceError(err)
	}

	resp := dto.ListConversationSummariesResponse{
		Conversations: make([]dto.ConversationSummaryResponse, len(result.Summaries)),
		Total:         result.Total,
		Page:          result.Page,
		PageSize:      result.PageSize,
	}
	for i, summary := range result.Summaries {
		resp.Conversations[i] = dto.ConversationSummaryResponse{
			Conversation: dto.NewConversationResponse(summary.Conversation),
			MessageCount: summary.MessageCount,
			UnreadCount:  summary.UnreadCount,
		}
	}

	return WriteJSON(w, http.StatusOK, resp)
}

func (h *chatEndpoints) handleAdminListMessages(w http.ResponseWriter, r *http.Request, conversationID string) error {
	identity, err := identityFromRequest(r)
	if err != nil {
		return err
	}

	limit := parseIntParam(r.URL.Query().Get("limit"), 0)
	result, err := h.service.ListMessages(r.Context(), conversationID, identity, limit)
	if err != nil {
		return h.serviceError(err)
	}

	return WriteJSON(w, http.StatusOK, dto.ListMessagesResponse{
		Conversation: dto.NewConversationResponse(result.Conversation),
		Messages:     dto.NewMessageResponses(result.Messages),
	})
}

func (h *chatEndpoints) handleAdminPostMessage(w http.ResponseWriter, r *http.Request, conversationID string) error {
	identity, err := identityFromRequest(r)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode admin message request: %w", err),
		}
	}

	result, err := h.service.PostMessage(r.Context(), conversationID, identity, req.Content)
	if err != nil {
		return h.serviceError(err)
	}

	return WriteJSON(w, http.StatusCreated, dto.SendMessageResponse{
		Message:      dto.NewMessageResponse(result.Message),
		Conversation: dto.NewConversationResponse(result.Conversation),
	})
}

func (h *chatEndpoints) handleAdminMarkRead(w http.ResponseWriter, r *http.Request, conversationID string) error {
	identity, err := identityFromRequest(r)
	if err != nil {
		return err
	}

	conversation, err := h.service.MarkConversationRead(r.Context(), conversationID, identity)
	if err != nil {
		return h.serviceError(err)
	}

	return WriteJSON(w, http.StatusOK, dto.NewConversationResponse(conversation))
}

func (h *chatEndpoints) extractConversationMessagesPath(path string) (string, error) {
	prefix := h.paths.ConversationMessagesPrefix
	trimmed := strings.TrimPrefix(path, prefix)
	if prefix == "" || trimmed == path {
		return "", &HTTPError{StatusCode: http.StatusNotFound, Message: "Conversation not found", ErrorLog: fmt.Errorf("conversation path mismatch: %s", path)}
	}
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) != 2 || parts[1] != "messages" || parts[0] == "" {
		return "", &HTTPError{StatusCode: http.StatusNotFound, Message: "Conversation not found", ErrorLog: fmt.Errorf("invalid conversation path: %s", path)}
	}
	return parts[0], nil
}

func (h *chatEndpoints) extractAdminPath(path string) (string, string, error) {
	prefix := h.paths.AdminConversationPrefix
	trimmed := strings.TrimPrefix(path, prefix)
	if prefix == "" || trimmed == path {
		return "", "", &HTTPError{StatusCode: http.StatusNotFound, Message: "Conversation not found", ErrorLog: fmt.Errorf("admin path mismatch: %s", path)}
	}
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		return "", "", &HTTPError{StatusCode: http.StatusNotFound, Message: "Conversation not found", ErrorLog: fmt.Errorf("invalid admin path: %s", path)}
	}
	return parts[0], parts[1], nil
}

// identityFromRequest resolves either token flavor, so customer and
// staff routes share handlers. Role enforcement stays in the service.
func identityFromRequest(r *http.Request) (chatservice.Identity, error) {
	token := ExtractTokenFromHeaders(r)
	identity, err := authservice.IdentityFromAccessToken(token)
	if err != nil {
		return chatservice.Identity{}, &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Unauthorized",
			ErrorLog:   fmt.Errorf("resolve identity: %w", err),
		}
	}
	return chatservice.Identity{
		UserID: identity.UserID,
		Name:   identity.Name,
		Email:  identity.Email,
		Role:   identity.Role,
	}, nil
}

func parseIntParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func (h *chatEndpoints) serviceError(err error) error {
	if err == nil {
		return nil
	}

	svcErr, ok := err.(*chatservice.Error)
	if !ok {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("chat service: %w", err),
		}
	}

	var logErr error
	if svcErr.Err != nil {
		logErr = fmt.Errorf("%s: %w", svcErr.Message, svcErr.Err)
	} else {
		logErr = svcErr
	}

	switch svcErr.Code {
	case chatservice.ErrorCodeValidation:
		return &HTTPError{StatusCode: http.StatusBadRequest, Message: svcErr.Message, ErrorLog: logErr}
	case chatservice.ErrorCodeUnauthorized:
		return &HTTPError{StatusCode: http.StatusUnauthorized, Message: svcErr.Message, ErrorLog: logErr}
	case chatservice.ErrorCodeForbidden:
		return &HTTPError{StatusCode: http.StatusForbidden, Message: svcErr.Message, ErrorLog: logErr}
	case chatservice.ErrorCodeNotFound:
		return &HTTPError{StatusCode: http.StatusNotFound, Message: svcErr.Message, ErrorLog: logErr}
	case chatservice.ErrorCodeConflict:
		return &HTTPError{StatusCode: http.StatusConflict, Message: svcErr.Message, ErrorLog: logErr}
	case chatservice.ErrorCodeUnavailable:
		return &HTTPError{StatusCode: http.StatusServiceUnavailable, Message: svcErr.Message, ErrorLog: logErr}
	default:
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Internal server error", ErrorLog: logErr}
	}
}
