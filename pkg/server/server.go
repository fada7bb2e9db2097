package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/m-mizutani/sidekick/pkg/model"
	"github.com/m-mizutani/sidekick/pkg/usecase/chat"
	"github.com/m-mizutani/sidekick/pkg/utils/logging"
)

// Agent runs one chat turn
type Agent interface {
	Run(ctx context.Context, actx *model.AgentContext, history []model.Message, message string) (*chat.Result, error)
}

// SalesDirectory maps an authenticated user to the internal sales identity.
// It returns nil without error when no mapping exists.
type SalesDirectory interface {
	GetSalesByUserID(ctx context.Context, userID string) (*model.Sales, error)
}

const (
	allowHeaders = "authorization, x-client-info, apikey, content-type"
	allowMethods = "POST, OPTIONS"
)

type Server struct {
	agent          Agent
	sales          SalesDirectory
	auth           Authenticator
	allowOrigin    string
	catalogVersion string
	handler        http.Handler
}

type Option func(*Server)

func WithAllowOrigin(origin string) Option {
	return func(s *Server) {
		s.allowOrigin = origin
	}
}

func WithCatalogVersion(version string) Option {
	return func(s *Server) {
		s.catalogVersion = version
	}
}

func New(agent Agent, sales SalesDirectory, auth Authenticator, opts ...Option) *Server {
	s := &Server{
		agent:       agent,
		sales:       sales,
		auth:        auth,
		allowOrigin: "*",
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("GET /health", s.handleHealth)
	s.handler = withRequestLogger(mux)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

type chatRequest struct {
	Message             json.RawMessage `json:"message"`
	ConversationHistory []model.Message `json:"conversationHistory"`
	BoardID             *int64          `json:"boardId"`
}

type chatResponse struct {
	Message             string                  `json:"message"`
	ExecutedActions     []*model.ExecutedAction `json:"executedActions"`
	ConversationHistory []model.Message         `json:"conversationHistory"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.From(ctx)

	if r.Method == http.MethodOptions {
		s.setCORS(w)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		s.writeError(ctx, w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		s.writeError(ctx, w, http.StatusUnauthorized, "Missing Authorization header")
		return
	}

	userID, err := s.auth.Authenticate(ctx, extractBearer(header))
	if err != nil {
		logger.Info("authentication failed", "error", err)
		s.writeError(ctx, w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sales, err := s.sales.GetSalesByUserID(ctx, userID)
	if err != nil {
		logger.Error("failed to look up sales", "error", err, "user_id", userID)
		s.writeError(ctx, w, http.StatusInternalServerError, err.Error())
		return
	}
	if sales == nil {
		s.writeError(ctx, w, http.StatusUnauthorized, "User not found in sales table")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	var message string
	if err := json.Unmarshal(req.Message, &message); err != nil || message == "" {
		s.writeError(ctx, w, http.StatusBadRequest, "Message is required")
		return
	}

	var pipelineID model.PipelineID
	if req.BoardID != nil {
		pipelineID = model.PipelineID(*req.BoardID)
	}
	actx := model.NewAgentContext(sales.ID, pipelineID)

	logger.Info("chat request", "sales_id", sales.ID, "board_id", pipelineID, "history", len(req.ConversationHistory))

	result, err := s.agent.Run(ctx, actx, req.ConversationHistory, message)
	if err != nil {
		logger.Error("agent failed", "error", err, "sales_id", sales.ID)
		msg := err.Error()
		if msg == "" {
			msg = "Internal Server Error"
		}
		s.writeError(ctx, w, http.StatusInternalServerError, msg)
		return
	}

	history := make([]model.Message, 0, len(req.ConversationHistory)+2)
	history = append(history, req.ConversationHistory...)
	history = append(history,
		model.Message{Role: model.RoleUser, Content: message},
		model.Message{Role: model.RoleAssistant, Content: result.Message},
	)

	actions := result.Actions
	if actions == nil {
		actions = []*model.ExecutedAction{}
	}

	s.writeJSON(ctx, w, http.StatusOK, &chatResponse{
		Message:             result.Message,
		ExecutedActions:     actions,
		ConversationHistory: history,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(r.Context(), w, http.StatusOK, map[string]string{
		"status":         "ok",
		"catalogVersion": s.catalogVersion,
	})
}

func (s *Server) setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", s.allowOrigin)
	w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
	w.Header().Set("Access-Control-Allow-Methods", allowMethods)
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	s.setCORS(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, context.Canceled) {
		logging.From(ctx).Debug("failed to write response", "error", err)
	}
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	s.writeJSON(ctx, w, status, &errorResponse{Error: msg})
}
