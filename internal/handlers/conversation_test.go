package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cedarwell/actbridge-backend/internal/ai"
	"github.com/cedarwell/actbridge-backend/internal/pkg/ctxutil"
	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
	"github.com/cedarwell/actbridge-backend/internal/services"
	"github.com/cedarwell/actbridge-backend/internal/types"
)

type stubAIService struct {
	lastMessage string
	lastType    ai.ConversationType
	result      *services.ConversationResult
	err         error
}

func (s *stubAIService) Guidance(ctx context.Context, req services.AIRequest) ([]ai.ProjectedRecord, error) {
	return nil, nil
}
func (s *stubAIService) ReflectionPrompts(ctx context.Context, req services.AIRequest) ([]ai.ProjectedRecord, error) {
	return nil, nil
}
func (s *stubAIService) Recommendations(ctx context.Context, req services.AIRequest) ([]ai.ProjectedRecord, error) {
	return nil, nil
}
func (s *stubAIService) GenerateInsights(ctx context.Context, req services.AIRequest) ([]*types.AIInsight, error) {
	return nil, nil
}
func (s *stubAIService) Converse(ctx context.Context, userID uuid.UUID, message string, convType ai.ConversationType, history []ai.Message) (*services.ConversationResult, error) {
	s.lastMessage = message
	s.lastType = convType
	return s.result, s.err
}

func newConversationRouter(svc services.AIService, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: userID})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	h := NewConversationHandler(logger.NewNop(), svc, nil)
	router.POST("/api/conversation", h.Converse)
	return router
}

func TestConverseHandlerSuccess(t *testing.T) {
	stub := &stubAIService{result: &services.ConversationResult{Response: "I'm with you."}}
	router := newConversationRouter(stub, uuid.New())

	body := `{"message": "tough day", "conversation_type": "reflection"}`
	req := httptest.NewRequest(http.MethodPost, "/api/conversation", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if stub.lastMessage != "tough day" || stub.lastType != ai.ConversationReflection {
		t.Fatalf("request not carried to service: %q %q", stub.lastMessage, stub.lastType)
	}

	var resp services.ConversationResult
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Response != "I'm with you." {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestConverseHandlerDefaultsConversationType(t *testing.T) {
	stub := &stubAIService{result: &services.ConversationResult{Response: "ok"}}
	router := newConversationRouter(stub, uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/api/conversation", strings.NewReader(`{"message": "hi"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if stub.lastType != ai.ConversationTherapeuticGuidance {
		t.Fatalf("expected default conversation type, got %q", stub.lastType)
	}
}

func TestConverseHandlerValidation(t *testing.T) {
	stub := &stubAIService{result: &services.ConversationResult{Response: "ok"}}
	router := newConversationRouter(stub, uuid.New())

	cases := []struct {
		name string
		body string
	}{
		{"missing_message", `{"conversation_type": "reflection"}`},
		{"unknown_type", `{"message": "hi", "conversation_type": "venting"}`},
		{"not_json", `message=hi`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/conversation", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestConverseHandlerMapsGenerationErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"fatal", &ai.GenerationError{Fatal: true, Attempts: 1}, http.StatusBadGateway},
		{"transient", &ai.GenerationError{Fatal: false, Attempts: 3}, http.StatusServiceUnavailable},
		{"contract", &ai.ContractError{Kind: ai.ParseError}, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubAIService{err: tc.err}
			router := newConversationRouter(stub, uuid.New())

			req := httptest.NewRequest(http.MethodPost, "/api/conversation", strings.NewReader(`{"message": "hi"}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestConverseHandlerRequiresIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewConversationHandler(logger.NewNop(), &stubAIService{}, nil)
	router.POST("/api/conversation", h.Converse)

	req := httptest.NewRequest(http.MethodPost, "/api/conversation", strings.NewReader(`{"message": "hi"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
