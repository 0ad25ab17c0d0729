package router

import (
	"tourchat-backend/internal/api"
	"tourchat-backend/internal/api/endpoints"
	"net/http"
)

func UtilsRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		utilsEndpoints := endpoints.NewUtilsEndpoints()
		mux.HandleFunc(prefix+"/healthz", s.MakeHTTPHandleFunc(utilsEndpoints.Health))
	}
}
