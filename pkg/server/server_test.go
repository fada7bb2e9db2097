package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sidekick/pkg/model"
	"github.com/m-mizutani/sidekick/pkg/server"
	"github.com/m-mizutani/sidekick/pkg/usecase/chat"
)

type mockAgent struct {
	runFunc func(ctx context.Context, actx *model.AgentContext, history []model.Message, message string) (*chat.Result, error)
}

func (m *mockAgent) Run(ctx context.Context, actx *model.AgentContext, history []model.Message, message string) (*chat.Result, error) {
	return m.runFunc(ctx, actx, history, message)
}

type mockSales struct {
	getFunc func(ctx context.Context, userID string) (*model.Sales, error)
}

func (m *mockSales) GetSalesByUserID(ctx context.Context, userID string) (*model.Sales, error) {
	return m.getFunc(ctx, userID)
}

func knownSales(ctx context.Context, userID string) (*model.Sales, error) {
	if userID == "user-123" {
		return &model.Sales{ID: 42, UserID: userID}, nil
	}
	return nil, nil
}

func unexpectedRun(t *testing.T) *mockAgent {
	return &mockAgent{runFunc: func(ctx context.Context, actx *model.AgentContext, history []model.Message, message string) (*chat.Result, error) {
		t.Fatal("agent must not be called")
		return nil, nil
	}}
}

type response struct {
	status int
	header http.Header
	body   map[string]any
	raw    string
}

func do(t *testing.T, h http.Handler, method, token, body string) *response {
	t.Helper()
	req := httptest.NewRequest(method, "/chat", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	resp := &response{status: w.Code, header: w.Header(), raw: w.Body.String()}
	if w.Body.Len() > 0 {
		gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp.body))
	}
	return resp
}

func assertCORS(t *testing.T, h http.Header) {
	t.Helper()
	gt.Equal(t, h.Get("Access-Control-Allow-Origin"), "*")
	gt.Equal(t, h.Get("Access-Control-Allow-Headers"), "authorization, x-client-info, apikey, content-type")
	gt.Equal(t, h.Get("Access-Control-Allow-Methods"), "POST, OPTIONS")
}

func TestChatRejections(t *testing.T) {
	token := signToken(t, testSecret, userClaims("user-123"))
	stranger := signToken(t, testSecret, userClaims("user-999"))
	srv := server.New(unexpectedRun(t), &mockSales{getFunc: knownSales}, server.NewJWTAuthenticator(testSecret))

	testCases := map[string]struct {
		method string
		token  string
		body   string
		status int
		error  string
	}{
		"non-POST": {
			method: http.MethodGet,
			token:  token,
			status: http.StatusMethodNotAllowed,
			error:  "Method Not Allowed",
		},
		"missing authorization": {
			method: http.MethodPost,
			body:   `{"message":"hi"}`,
			status: http.StatusUnauthorized,
			error:  "Missing Authorization header",
		},
		"invalid token": {
			method: http.MethodPost,
			token:  signToken(t, "wrong", userClaims("user-123")),
			body:   `{"message":"hi"}`,
			status: http.StatusUnauthorized,
			error:  "Unauthorized",
		},
		"unknown sales user": {
			method: http.MethodPost,
			token:  stranger,
			body:   `{"message":"hi"}`,
			status: http.StatusUnauthorized,
			error:  "User not found in sales table",
		},
		"invalid JSON": {
			method: http.MethodPost,
			token:  token,
			body:   `{"message":`,
			status: http.StatusBadRequest,
			error:  "Invalid JSON body",
		},
		"missing message": {
			method: http.MethodPost,
			token:  token,
			body:   `{"boardId":1}`,
			status: http.StatusBadRequest,
			error:  "Message is required",
		},
		"empty message": {
			method: http.MethodPost,
			token:  token,
			body:   `{"message":""}`,
			status: http.StatusBadRequest,
			error:  "Message is required",
		},
		"non-string message": {
			method: http.MethodPost,
			token:  token,
			body:   `{"message":123}`,
			status: http.StatusBadRequest,
			error:  "Message is required",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			resp := do(t, srv, tc.method, tc.token, tc.body)
			gt.Equal(t, resp.status, tc.status)
			gt.Equal(t, resp.body["error"], any(tc.error))
			gt.Equal(t, resp.header.Get("Content-Type"), "application/json")
			assertCORS(t, resp.header)
		})
	}
}

func TestChatPreflight(t *testing.T) {
	srv := server.New(unexpectedRun(t), &mockSales{getFunc: knownSales}, server.NewJWTAuthenticator(testSecret))

	resp := do(t, srv, http.MethodOptions, "", "")
	gt.Equal(t, resp.status, http.StatusNoContent)
	gt.Equal(t, resp.raw, "")
	assertCORS(t, resp.header)
}

func TestChatAllowOrigin(t *testing.T) {
	srv := server.New(unexpectedRun(t), &mockSales{getFunc: knownSales}, server.NewJWTAuthenticator(testSecret),
		server.WithAllowOrigin("https://crm.example.com"))

	resp := do(t, srv, http.MethodOptions, "", "")
	gt.Equal(t, resp.header.Get("Access-Control-Allow-Origin"), "https://crm.example.com")
}

func TestChatSalesLookupError(t *testing.T) {
	sales := &mockSales{getFunc: func(ctx context.Context, userID string) (*model.Sales, error) {
		return nil, goerr.New("datastore unavailable")
	}}
	srv := server.New(unexpectedRun(t), sales, server.NewJWTAuthenticator(testSecret))

	resp := do(t, srv, http.MethodPost, signToken(t, testSecret, userClaims("user-123")), `{"message":"hi"}`)
	gt.Equal(t, resp.status, http.StatusInternalServerError)
	gt.S(t, resp.body["error"].(string)).Contains("datastore unavailable")
}

func TestChatAgentError(t *testing.T) {
	agent := &mockAgent{runFunc: func(ctx context.Context, actx *model.AgentContext, history []model.Message, message string) (*chat.Result, error) {
		return nil, goerr.New("model overloaded")
	}}
	srv := server.New(agent, &mockSales{getFunc: knownSales}, server.NewJWTAuthenticator(testSecret))

	resp := do(t, srv, http.MethodPost, signToken(t, testSecret, userClaims("user-123")), `{"message":"hi"}`)
	gt.Equal(t, resp.status, http.StatusInternalServerError)
	gt.S(t, resp.body["error"].(string)).Contains("model overloaded")
	assertCORS(t, resp.header)
}

func TestChatSuccess(t *testing.T) {
	var called bool
	agent := &mockAgent{runFunc: func(ctx context.Context, actx *model.AgentContext, history []model.Message, message string) (*chat.Result, error) {
		called = true
		gt.Equal(t, actx.SalesID, model.SalesID(42))
		gt.Equal(t, actx.PipelineID, model.PipelineID(3))
		gt.Equal(t, message, "Met Sarah from Acme")
		gt.A(t, history).Length(2)
		gt.Equal(t, history[0].Content, "hello")
		gt.Equal(t, history[1].Content, "Hi!\nHow can I help?")

		_, ok := actx.LookupCompany("Acme")
		gt.False(t, ok)

		return &chat.Result{
			Message: "Created Acme.",
			Actions: []*model.ExecutedAction{
				{
					ID:          "a1",
					Type:        model.ActionCreateCompany,
					Description: `Created company "Acme"`,
					Success:     true,
					Result:      &model.ActionResult{RecordID: 7, RecordType: model.RecordCompany, Name: "Acme"},
				},
				{
					ID:          "a2",
					Type:        model.ActionCreateNote,
					Description: "Failed to execute create_note",
					Error:       "Either contact_id or deal_id must be provided",
				},
			},
			Iterations: 2,
		}, nil
	}}
	srv := server.New(agent, &mockSales{getFunc: knownSales}, server.NewJWTAuthenticator(testSecret))

	body := `{
		"message": "Met Sarah from Acme",
		"boardId": 3,
		"conversationHistory": [
			{"role": "user", "content": "hello"},
			{"role": "assistant", "content": [
				{"type": "text", "text": "Hi!"},
				{"type": "image", "source": {"type": "url", "url": "https://example.com/a.png"}},
				{"type": "text", "text": "How can I help?"}
			]}
		]
	}`
	resp := do(t, srv, http.MethodPost, signToken(t, testSecret, userClaims("user-123")), body)
	gt.True(t, called)
	gt.Equal(t, resp.status, http.StatusOK)
	assertCORS(t, resp.header)

	var out struct {
		Message         string `json:"message"`
		ExecutedActions []struct {
			ID      string `json:"id"`
			Type    string `json:"type"`
			Success bool   `json:"success"`
			Result  *struct {
				RecordID   int64  `json:"recordId"`
				RecordType string `json:"recordType"`
				Name       string `json:"name"`
			} `json:"result"`
			Error string `json:"error"`
		} `json:"executedActions"`
		ConversationHistory []model.Message `json:"conversationHistory"`
	}
	gt.NoError(t, json.Unmarshal([]byte(resp.raw), &out))

	gt.Equal(t, out.Message, "Created Acme.")
	gt.A(t, out.ExecutedActions).Length(2)
	gt.Equal(t, out.ExecutedActions[0].Type, "create_company")
	gt.True(t, out.ExecutedActions[0].Success)
	gt.Equal(t, out.ExecutedActions[0].Result.RecordID, int64(7))
	gt.Equal(t, out.ExecutedActions[0].Result.RecordType, "company")
	gt.False(t, out.ExecutedActions[1].Success)
	gt.Nil(t, out.ExecutedActions[1].Result)
	gt.Equal(t, out.ExecutedActions[1].Error, "Either contact_id or deal_id must be provided")

	gt.Equal(t, out.ConversationHistory, []model.Message{
		{Role: model.RoleUser, Content: "hello"},
		{Role: model.RoleAssistant, Content: "Hi!\nHow can I help?"},
		{Role: model.RoleUser, Content: "Met Sarah from Acme"},
		{Role: model.RoleAssistant, Content: "Created Acme."},
	})
}

func TestChatWithoutActions(t *testing.T) {
	agent := &mockAgent{runFunc: func(ctx context.Context, actx *model.AgentContext, history []model.Message, message string) (*chat.Result, error) {
		gt.Equal(t, actx.PipelineID, model.PipelineID(0))
		return &chat.Result{Message: "Hello!"}, nil
	}}
	srv := server.New(agent, &mockSales{getFunc: knownSales}, server.NewJWTAuthenticator(testSecret))

	resp := do(t, srv, http.MethodPost, signToken(t, testSecret, userClaims("user-123")), `{"message":"hi"}`)
	gt.Equal(t, resp.status, http.StatusOK)
	gt.S(t, resp.raw).Contains(`"executedActions":[]`)
	gt.A(t, resp.body["conversationHistory"].([]any)).Length(2)
}

func TestHealth(t *testing.T) {
	srv := server.New(unexpectedRun(t), &mockSales{getFunc: knownSales}, server.NewJWTAuthenticator(testSecret),
		server.WithCatalogVersion("2024-06-01"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	gt.Equal(t, w.Code, http.StatusOK)
	var body map[string]string
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	gt.Equal(t, body["status"], "ok")
	gt.Equal(t, body["catalogVersion"], "2024-06-01")
}
