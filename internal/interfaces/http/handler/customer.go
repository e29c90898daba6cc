package handler

import (
	"context"
	"strconv"
	"time"

	appcustomer "github.com/fincore/customer/internal/application/customer"
	"github.com/fincore/customer/internal/domain/customer"
	"github.com/fincore/customer/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LifecycleService is the application surface the customer endpoints depend on
type LifecycleService interface {
	CreateCustomer(ctx context.Context, tenantID uuid.UUID, actor string, req appcustomer.CreateCustomerRequest) (*appcustomer.CustomerResponse, error)
	FindCustomer(ctx context.Context, tenantID uuid.UUID, identifier string) (*appcustomer.CustomerResponse, error)
	ListCustomers(ctx context.Context, tenantID uuid.UUID, filter appcustomer.ListFilter) (shared.Paginated[appcustomer.CustomerResponse], error)
	UpdateCustomer(ctx context.Context, tenantID uuid.UUID, identifier, actor string, req appcustomer.UpdateCustomerRequest) (*appcustomer.CustomerResponse, error)
	ApplyCommand(ctx context.Context, tenantID uuid.UUID, identifier, actor string, req appcustomer.CommandRequest) (*appcustomer.CustomerResponse, error)
	PutAddress(ctx context.Context, tenantID uuid.UUID, identifier, actor string, req appcustomer.AddressRequest) error
	PutContactDetails(ctx context.Context, tenantID uuid.UUID, identifier, actor string, reqs []appcustomer.ContactDetailRequest) error
	PutIdentificationCard(ctx context.Context, tenantID uuid.UUID, identifier, actor string, req appcustomer.IdentificationCardRequest) error
	FetchCustomerCommands(ctx context.Context, tenantID uuid.UUID, identifier string) ([]appcustomer.CommandResponse, error)
}

// StateReconciler re-projects stored state from the audit history
type StateReconciler interface {
	Reconcile(ctx context.Context, tenantID uuid.UUID, identifier string) (customer.State, error)
}

// TenantInitializer emits the per-tenant readiness signal
type TenantInitializer interface {
	Initialize(ctx context.Context, tenantID uuid.UUID) error
}

// CustomerHandler handles customer lifecycle API endpoints
type CustomerHandler struct {
	BaseHandler
	service     LifecycleService
	reconciler  StateReconciler
	initializer TenantInitializer
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(service LifecycleService, reconciler StateReconciler, initializer TenantInitializer) *CustomerHandler {
	return &CustomerHandler{
		service:     service,
		reconciler:  reconciler,
		initializer: initializer,
	}
}

// RegisterRoutes registers customer routes on the given router group
func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/initialize", h.Initialize)

	customers := rg.Group("/customers")
	{
		customers.POST("", h.Create)
		customers.GET("", h.List)
		customers.GET("/:identifier", h.Get)
		customers.PUT("/:identifier", h.Update)
		customers.POST("/:identifier/commands", h.ApplyCommand)
		customers.GET("/:identifier/commands", h.ListCommands)
		customers.PUT("/:identifier/address", h.PutAddress)
		customers.PUT("/:identifier/contact-details", h.PutContactDetails)
		customers.PUT("/:identifier/identification-card", h.PutIdentificationCard)
		customers.POST("/:identifier/reconcile", h.Reconcile)
	}
}

// CreateCustomerRequest is the wire payload for creating a customer
type CreateCustomerRequest struct {
	Identifier         string                      `json:"identifier" binding:"required,externalid"`
	GivenName          string                      `json:"given_name" binding:"max=255"`
	MiddleName         string                      `json:"middle_name" binding:"max=255"`
	Surname            string                      `json:"surname" binding:"required,max=255"`
	DateOfBirth        *time.Time                  `json:"date_of_birth"`
	Type               string                      `json:"type" binding:"required,oneof=PERSON BUSINESS"`
	Address            *AddressRequest             `json:"address"`
	IdentificationCard *IdentificationCardRequest  `json:"identification_card"`
	ContactDetails     []ContactDetailRequest      `json:"contact_details" binding:"dive"`
}

// UpdateCustomerRequest is the wire payload for replacing identity fields
type UpdateCustomerRequest struct {
	GivenName   string     `json:"given_name" binding:"max=255"`
	MiddleName  string     `json:"middle_name" binding:"max=255"`
	Surname     string     `json:"surname" binding:"required,max=255"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Type        string     `json:"type" binding:"required,oneof=PERSON BUSINESS"`
}

// AddressRequest is the wire payload for the address slot
type AddressRequest struct {
	Street      string `json:"street" binding:"required,max=255"`
	City        string `json:"city" binding:"required,max=255"`
	Region      string `json:"region" binding:"max=255"`
	PostalCode  string `json:"postal_code" binding:"max=32"`
	CountryCode string `json:"country_code" binding:"max=2"`
	Country     string `json:"country" binding:"max=255"`
}

// IdentificationCardRequest is the wire payload for the identification card slot
type IdentificationCardRequest struct {
	Type           string     `json:"type" binding:"required,max=32"`
	Number         string     `json:"number" binding:"required,max=64"`
	Issuer         string     `json:"issuer" binding:"max=255"`
	ExpirationDate *time.Time `json:"expiration_date"`
}

// ContactDetailRequest is one entry of the contact list payload
type ContactDetailRequest struct {
	Type            string `json:"type" binding:"required,oneof=EMAIL PHONE MOBILE"`
	Group           string `json:"group" binding:"required,oneof=BUSINESS PRIVATE"`
	Value           string `json:"value" binding:"required,max=255"`
	Validated       bool   `json:"validated"`
	PreferenceLevel int    `json:"preference_level" binding:"gte=0,lte=10"`
}

// CommandRequest is the wire payload for a lifecycle command
type CommandRequest struct {
	Action  string `json:"action" binding:"required,oneof=ACTIVATE LOCK UNLOCK CLOSE REOPEN"`
	Comment string `json:"comment" binding:"max=500"`
}

func (r AddressRequest) toApp() appcustomer.AddressRequest {
	return appcustomer.AddressRequest{
		Street:      r.Street,
		City:        r.City,
		Region:      r.Region,
		PostalCode:  r.PostalCode,
		CountryCode: r.CountryCode,
		Country:     r.Country,
	}
}

func (r IdentificationCardRequest) toApp() appcustomer.IdentificationCardRequest {
	return appcustomer.IdentificationCardRequest{
		Type:           r.Type,
		Number:         r.Number,
		Issuer:         r.Issuer,
		ExpirationDate: r.ExpirationDate,
	}
}

func contactDetailsToApp(reqs []ContactDetailRequest) []appcustomer.ContactDetailRequest {
	details := make([]appcustomer.ContactDetailRequest, len(reqs))
	for i, r := range reqs {
		details[i] = appcustomer.ContactDetailRequest{
			Type:            r.Type,
			Group:           r.Group,
			Value:           r.Value,
			Validated:       r.Validated,
			PreferenceLevel: r.PreferenceLevel,
		}
	}
	return details
}

// Initialize emits the readiness event for the calling tenant
func (h *CustomerHandler) Initialize(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	if err := h.initializer.Initialize(c.Request.Context(), tenantID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"initialized": true})
}

// Create creates a new customer in the PENDING state
func (h *CustomerHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	appReq := appcustomer.CreateCustomerRequest{
		Identifier:     req.Identifier,
		GivenName:      req.GivenName,
		MiddleName:     req.MiddleName,
		Surname:        req.Surname,
		DateOfBirth:    req.DateOfBirth,
		Type:           req.Type,
		ContactDetails: contactDetailsToApp(req.ContactDetails),
	}
	if req.Address != nil {
		addr := req.Address.toApp()
		appReq.Address = &addr
	}
	if req.IdentificationCard != nil {
		card := req.IdentificationCard.toApp()
		appReq.IdentificationCard = &card
	}

	result, err := h.service.CreateCustomer(c.Request.Context(), tenantID, getActor(c), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// Get returns the current projection for one customer
func (h *CustomerHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	result, err := h.service.FindCustomer(c.Request.Context(), tenantID, c.Param("identifier"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// List returns a page of customers matching the query
func (h *CustomerHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	filter := appcustomer.ListFilter{
		Term:     c.Query("term"),
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 20),
	}
	if active := c.Query("active"); active != "" {
		onlyActive, err := strconv.ParseBool(active)
		if err != nil {
			h.BadRequest(c, "active must be true or false")
			return
		}
		filter.OnlyActive = &onlyActive
	}

	page, err := h.service.ListCustomers(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Update replaces the identity fields of an existing customer
func (h *CustomerHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	result, err := h.service.UpdateCustomer(c.Request.Context(), tenantID, c.Param("identifier"), getActor(c), appcustomer.UpdateCustomerRequest{
		GivenName:   req.GivenName,
		MiddleName:  req.MiddleName,
		Surname:     req.Surname,
		DateOfBirth: req.DateOfBirth,
		Type:        req.Type,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ApplyCommand runs a state-changing lifecycle command
func (h *CustomerHandler) ApplyCommand(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	result, err := h.service.ApplyCommand(c.Request.Context(), tenantID, c.Param("identifier"), getActor(c), appcustomer.CommandRequest{
		Action:  req.Action,
		Comment: req.Comment,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListCommands returns the audit history for a customer, oldest first
func (h *CustomerHandler) ListCommands(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	history, err := h.service.FetchCustomerCommands(c.Request.Context(), tenantID, c.Param("identifier"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, history)
}

// PutAddress replaces the address slot wholesale
func (h *CustomerHandler) PutAddress(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	if err := h.service.PutAddress(c.Request.Context(), tenantID, c.Param("identifier"), getActor(c), req.toApp()); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// PutContactDetails replaces the contact list wholesale. An empty body
// clears all contact details.
func (h *CustomerHandler) PutContactDetails(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var reqs []ContactDetailRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	if err := h.service.PutContactDetails(c.Request.Context(), tenantID, c.Param("identifier"), getActor(c), contactDetailsToApp(reqs)); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// PutIdentificationCard replaces the identification card slot wholesale
func (h *CustomerHandler) PutIdentificationCard(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req IdentificationCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	if err := h.service.PutIdentificationCard(c.Request.Context(), tenantID, c.Param("identifier"), getActor(c), req.toApp()); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Reconcile re-derives the customer's state from its command history and
// repairs the stored projection when they disagree
func (h *CustomerHandler) Reconcile(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	state, err := h.reconciler.Reconcile(c.Request.Context(), tenantID, c.Param("identifier"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"current_state": string(state)})
}

// parseIntQuery parses a positive integer query parameter with a fallback
func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
