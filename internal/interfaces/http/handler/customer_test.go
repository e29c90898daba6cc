package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appcustomer "github.com/fincore/customer/internal/application/customer"
	"github.com/fincore/customer/internal/domain/customer"
	"github.com/fincore/customer/internal/domain/shared"
	"github.com/fincore/customer/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLifecycleService records calls and returns canned results
type stubLifecycleService struct {
	createResult  *appcustomer.CustomerResponse
	createErr     error
	findResult    *appcustomer.CustomerResponse
	findErr       error
	listResult    shared.Paginated[appcustomer.CustomerResponse]
	listErr       error
	commandResult *appcustomer.CustomerResponse
	commandErr    error
	historyResult []appcustomer.CommandResponse
	putErr        error

	lastTenantID uuid.UUID
	lastActor    string
	lastAction   string
	lastFilter   appcustomer.ListFilter
}

func (s *stubLifecycleService) CreateCustomer(ctx context.Context, tenantID uuid.UUID, actor string, req appcustomer.CreateCustomerRequest) (*appcustomer.CustomerResponse, error) {
	s.lastTenantID = tenantID
	s.lastActor = actor
	return s.createResult, s.createErr
}

func (s *stubLifecycleService) FindCustomer(ctx context.Context, tenantID uuid.UUID, identifier string) (*appcustomer.CustomerResponse, error) {
	s.lastTenantID = tenantID
	return s.findResult, s.findErr
}

func (s *stubLifecycleService) ListCustomers(ctx context.Context, tenantID uuid.UUID, filter appcustomer.ListFilter) (shared.Paginated[appcustomer.CustomerResponse], error) {
	s.lastTenantID = tenantID
	s.lastFilter = filter
	return s.listResult, s.listErr
}

func (s *stubLifecycleService) UpdateCustomer(ctx context.Context, tenantID uuid.UUID, identifier, actor string, req appcustomer.UpdateCustomerRequest) (*appcustomer.CustomerResponse, error) {
	s.lastTenantID = tenantID
	s.lastActor = actor
	return s.findResult, s.findErr
}

func (s *stubLifecycleService) ApplyCommand(ctx context.Context, tenantID uuid.UUID, identifier, actor string, req appcustomer.CommandRequest) (*appcustomer.CustomerResponse, error) {
	s.lastTenantID = tenantID
	s.lastActor = actor
	s.lastAction = req.Action
	return s.commandResult, s.commandErr
}

func (s *stubLifecycleService) PutAddress(ctx context.Context, tenantID uuid.UUID, identifier, actor string, req appcustomer.AddressRequest) error {
	return s.putErr
}

func (s *stubLifecycleService) PutContactDetails(ctx context.Context, tenantID uuid.UUID, identifier, actor string, reqs []appcustomer.ContactDetailRequest) error {
	return s.putErr
}

func (s *stubLifecycleService) PutIdentificationCard(ctx context.Context, tenantID uuid.UUID, identifier, actor string, req appcustomer.IdentificationCardRequest) error {
	return s.putErr
}

func (s *stubLifecycleService) FetchCustomerCommands(ctx context.Context, tenantID uuid.UUID, identifier string) ([]appcustomer.CommandResponse, error) {
	return s.historyResult, nil
}

type stubReconciler struct {
	state customer.State
	err   error
}

func (s *stubReconciler) Reconcile(ctx context.Context, tenantID uuid.UUID, identifier string) (customer.State, error) {
	return s.state, s.err
}

type stubInitializer struct {
	called bool
	err    error
}

func (s *stubInitializer) Initialize(ctx context.Context, tenantID uuid.UUID) error {
	s.called = true
	return s.err
}

func setupCustomerRouter(service LifecycleService, reconciler StateReconciler, initializer TenantInitializer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
	router := gin.New()
	router.Use(middleware.TenantMiddleware())

	h := NewCustomerHandler(service, reconciler, initializer)
	api := router.Group("/api/v1")
	h.RegisterRoutes(api)
	return router
}

func doRequest(router *gin.Engine, method, path string, tenantID uuid.UUID, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.TenantHeaderKey, tenantID.String())
	req.Header.Set(middleware.ActorHeaderKey, "operator")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sampleResponse(identifier, state string) *appcustomer.CustomerResponse {
	return &appcustomer.CustomerResponse{
		ID:           uuid.New().String(),
		Identifier:   identifier,
		Surname:      "Doe",
		Type:         "PERSON",
		CurrentState: state,
		Version:      1,
	}
}

func TestCustomerHandler_Create(t *testing.T) {
	service := &stubLifecycleService{createResult: sampleResponse("cust-001", "PENDING")}
	router := setupCustomerRouter(service, &stubReconciler{}, &stubInitializer{})
	tenantID := uuid.New()

	w := doRequest(router, http.MethodPost, "/api/v1/customers", tenantID, gin.H{
		"identifier": "cust-001",
		"surname":    "Doe",
		"type":       "PERSON",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, tenantID, service.lastTenantID)
	assert.Equal(t, "operator", service.lastActor)
	assert.Contains(t, w.Body.String(), "cust-001")
}

func TestCustomerHandler_Create_MissingFieldsRejected(t *testing.T) {
	service := &stubLifecycleService{}
	router := setupCustomerRouter(service, &stubReconciler{}, &stubInitializer{})

	w := doRequest(router, http.MethodPost, "/api/v1/customers", uuid.New(), gin.H{
		"identifier": "cust-001",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "surname")
}

func TestCustomerHandler_Create_MalformedIdentifierRejected(t *testing.T) {
	service := &stubLifecycleService{}
	router := setupCustomerRouter(service, &stubReconciler{}, &stubInitializer{})

	w := doRequest(router, http.MethodPost, "/api/v1/customers", uuid.New(), gin.H{
		"identifier": "cust 001!",
		"surname":    "Doe",
		"type":       "PERSON",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "identifier")
}

func TestCustomerHandler_Create_DuplicateIdentifier(t *testing.T) {
	service := &stubLifecycleService{createErr: shared.ErrAlreadyExists}
	router := setupCustomerRouter(service, &stubReconciler{}, &stubInitializer{})

	w := doRequest(router, http.MethodPost, "/api/v1/customers", uuid.New(), gin.H{
		"identifier": "cust-001",
		"surname":    "Doe",
		"type":       "PERSON",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCustomerHandler_Get_NotFound(t *testing.T) {
	service := &stubLifecycleService{findErr: shared.ErrNotFound}
	router := setupCustomerRouter(service, &stubReconciler{}, &stubInitializer{})

	w := doRequest(router, http.MethodGet, "/api/v1/customers/missing", uuid.New(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCustomerHandler_List_PassesFilter(t *testing.T) {
	service := &stubLifecycleService{
		listResult: shared.Paginated[appcustomer.CustomerResponse]{
			Items:    []appcustomer.CustomerResponse{*sampleResponse("cust-001", "ACTIVE")},
			Total:    1,
			Page:     2,
			PageSize: 10,
		},
	}
	router := setupCustomerRouter(service, &stubReconciler{}, &stubInitializer{})

	w := doRequest(router, http.MethodGet, "/api/v1/customers?term=cust&active=true&page=2&page_size=10", uuid.New(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cust", service.lastFilter.Term)
	require.NotNil(t, service.lastFilter.OnlyActive)
	assert.True(t, *service.lastFilter.OnlyActive)
	assert.Equal(t, 2, service.lastFilter.Page)
	assert.Equal(t, 10, service.lastFilter.PageSize)
}

func TestCustomerHandler_ApplyCommand(t *testing.T) {
	service := &stubLifecycleService{commandResult: sampleResponse("cust-001", "ACTIVE")}
	router := setupCustomerRouter(service, &stubReconciler{}, &stubInitializer{})

	w := doRequest(router, http.MethodPost, "/api/v1/customers/cust-001/commands", uuid.New(), gin.H{
		"action":  "ACTIVATE",
		"comment": "KYC complete",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ACTIVATE", service.lastAction)
	assert.Contains(t, w.Body.String(), "ACTIVE")
}

func TestCustomerHandler_ApplyCommand_UnknownActionRejected(t *testing.T) {
	service := &stubLifecycleService{}
	router := setupCustomerRouter(service, &stubReconciler{}, &stubInitializer{})

	w := doRequest(router, http.MethodPost, "/api/v1/customers/cust-001/commands", uuid.New(), gin.H{
		"action": "EXPLODE",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCustomerHandler_ApplyCommand_IllegalTransition(t *testing.T) {
	service := &stubLifecycleService{commandErr: shared.ErrIllegalTransition}
	router := setupCustomerRouter(service, &stubReconciler{}, &stubInitializer{})

	w := doRequest(router, http.MethodPost, "/api/v1/customers/cust-001/commands", uuid.New(), gin.H{
		"action": "UNLOCK",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCustomerHandler_PutAddress(t *testing.T) {
	service := &stubLifecycleService{}
	router := setupCustomerRouter(service, &stubReconciler{}, &stubInitializer{})

	w := doRequest(router, http.MethodPut, "/api/v1/customers/cust-001/address", uuid.New(), gin.H{
		"street": "1 Main St",
		"city":   "Berlin",
	})

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCustomerHandler_PutContactDetails_EmptyListClears(t *testing.T) {
	service := &stubLifecycleService{}
	router := setupCustomerRouter(service, &stubReconciler{}, &stubInitializer{})

	w := doRequest(router, http.MethodPut, "/api/v1/customers/cust-001/contact-details", uuid.New(), []gin.H{})

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCustomerHandler_Reconcile(t *testing.T) {
	service := &stubLifecycleService{}
	router := setupCustomerRouter(service, &stubReconciler{state: customer.StateActive}, &stubInitializer{})

	w := doRequest(router, http.MethodPost, "/api/v1/customers/cust-001/reconcile", uuid.New(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ACTIVE")
}

func TestCustomerHandler_Initialize(t *testing.T) {
	initializer := &stubInitializer{}
	router := setupCustomerRouter(&stubLifecycleService{}, &stubReconciler{}, initializer)

	w := doRequest(router, http.MethodPost, "/api/v1/initialize", uuid.New(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, initializer.called)
}

func TestCustomerHandler_MissingTenantRejected(t *testing.T) {
	router := setupCustomerRouter(&stubLifecycleService{}, &stubReconciler{}, &stubInitializer{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
