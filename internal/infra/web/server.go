package web

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-membership-bot/internal/usecase"
)

// Server exposes the operational surface: health probe, metrics and a small
// read-only stats API guarded by a bearer key.
type Server struct {
	memberUC  usecase.MembershipUseCase
	channelUC usecase.ChannelUseCase
	apiKey    string
	log       *zerolog.Logger
}

func NewServer(
	memberUC usecase.MembershipUseCase,
	channelUC usecase.ChannelUseCase,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		memberUC:  memberUC,
		channelUC: channelUC,
		apiKey:    apiKey,
		log:       logger,
	}
}

// RegisterRoutes sets up the routing for the admin surface.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/api/v1/stats", s.authMiddleware(statsHandler(s.memberUC, s.channelUC)))
}

// authMiddleware provides simple Bearer token authentication for the admin API.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("admin API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			http.Error(w, "Unauthorized: Malformed token", http.StatusUnauthorized)
			return
		}

		if tokenParts[1] != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
