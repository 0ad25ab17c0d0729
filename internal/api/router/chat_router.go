package router

import (
	"tourchat-backend/internal/api"
	"tourchat-backend/internal/api/endpoints"
	"tourchat-backend/internal/api/middleware"
	chatservice "tourchat-backend/internal/service/chat"
	"net/http"
)

func ChatRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		chatEndpoints := endpoints.NewChatEndpoints(chatservice.New(s.Database()), prefix)

		mux.HandleFunc(prefix+"/chat/conversations", s.MakeHTTPHandleFunc(chatEndpoints.Conversations, middleware.ValidateAnyJWT))
		mux.HandleFunc(prefix+"/chat/conversations/", s.MakeHTTPHandleFunc(chatEndpoints.ConversationMessages, middleware.ValidateAnyJWT))
		mux.HandleFunc(prefix+"/chat/send", s.MakeHTTPHandleFunc(chatEndpoints.Send, middleware.ValidateAnyJWT))
	}
}

func AdminChatRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		chatEndpoints := endpoints.NewChatEndpoints(chatservice.New(s.Database()), prefix)

		mux.HandleFunc(prefix+"/admin/conversations", s.MakeHTTPHandleFunc(chatEndpoints.AdminConversations, middleware.ValidateStaffJWT))
		mux.HandleFunc(prefix+"/admin/conversations/", s.MakeHTTPHandleFunc(chatEndpoints.AdminConversationActions, middleware.ValidateStaffJWT))
	}
}
