package router

import (
	"tourchat-backend/internal/api"
	"net/http"
)

func WebsocketRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		mux.HandleFunc(prefix+"/ws", s.MakeHTTPHandleFunc(func(w http.ResponseWriter, r *http.Request) error {
			s.Handler().ServeWS(w, r)
			return nil
		}))
	}
}
