package visit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mediconnect/clinical-api/internal/middleware"
	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.RegisterValidators(); err != nil {
		panic(err)
	}
}

type mockVisitService struct {
	mock.Mock
}

func (m *mockVisitService) CreateVisit(ctx context.Context, req *model.CreateVisitRequest) (*model.Visit, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Visit), args.Error(1)
}

func (m *mockVisitService) UpdateVisit(ctx context.Context, id uuid.UUID, req *model.UpdateVisitRequest) (*model.Visit, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Visit), args.Error(1)
}

func (m *mockVisitService) GetActiveEmergencies(ctx context.Context) ([]*model.EmergencyVisit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.EmergencyVisit), args.Error(1)
}

func setupRouter(svc *mockVisitService, principal *auth.Principal) *gin.Engine {
	r := gin.New()
	if principal != nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ContextPrincipal, principal)
			c.Next()
		})
	}
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateVisitDefaultsOrganization(t *testing.T) {
	svc := new(mockVisitService)
	principal := &auth.Principal{UserID: uuid.New(), OrganizationID: uuid.New(), Role: "nurse"}
	svc.On("CreateVisit", mock.Anything, mock.MatchedBy(func(req *model.CreateVisitRequest) bool {
		return req.OrganizationID == principal.OrganizationID && req.Priority == model.PriorityCritical
	})).Return(&model.Visit{ID: uuid.New(), Priority: model.PriorityCritical}, nil)

	w := do(setupRouter(svc, principal), http.MethodPost, "/api/v1/visits",
		`{"patientId":"`+uuid.NewString()+`","priority":"critical","symptoms":"Chest pain","vitals":{"bp":"150/95"}}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestUpdateVisitRejectsUnknownPriority(t *testing.T) {
	svc := new(mockVisitService)

	w := do(setupRouter(svc, nil), http.MethodPatch, "/api/v1/visits/"+uuid.NewString(), `{"priority":"urgent"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"priority"`)
}

func TestGetActiveEmergenciesEmpty(t *testing.T) {
	svc := new(mockVisitService)
	svc.On("GetActiveEmergencies", mock.Anything).Return([]*model.EmergencyVisit{}, nil)

	w := do(setupRouter(svc, nil), http.MethodGet, "/api/v1/visits/active-emergencies", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","data":[]}`, w.Body.String())
}
