package customer

import (
	"context"
	"errors"

	"github.com/fincore/customer/internal/domain/customer"
	"github.com/fincore/customer/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LifecycleService orchestrates customer lifecycle operations. It validates
// drafts, consults the transition table, appends audit records, and persists
// the projection. Notifications travel through the outbox saved by the
// repositories, so a committed mutation always has a notification attempt.
type LifecycleService struct {
	repo     customer.Repository
	commands customer.CommandRepository
	logger   *zap.Logger
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(repo customer.Repository, commands customer.CommandRepository, logger *zap.Logger) *LifecycleService {
	return &LifecycleService{
		repo:     repo,
		commands: commands,
		logger:   logger,
	}
}

// CreateCustomer validates the draft and persists a new customer in the
// PENDING state. A taken identifier yields ErrAlreadyExists with no partial
// effects; creation never touches the audit store.
func (s *LifecycleService) CreateCustomer(ctx context.Context, tenantID uuid.UUID, actor string, req CreateCustomerRequest) (*CustomerResponse, error) {
	draft := customer.NewCustomer(tenantID, req.Identifier, customer.CustomerType(req.Type), actor)
	draft.GivenName = req.GivenName
	draft.MiddleName = req.MiddleName
	draft.Surname = req.Surname
	draft.DateOfBirth = req.DateOfBirth
	if req.Address != nil {
		addr := req.Address.ToDomain()
		draft.Address = &addr
	}
	if req.IdentificationCard != nil {
		card := req.IdentificationCard.ToDomain()
		draft.IdentificationCard = &card
	}
	draft.ContactDetails = ContactDetailsToDomain(req.ContactDetails)

	if violations := customer.ValidateNew(draft); len(violations) > 0 {
		return nil, customer.NewValidationError(violations)
	}

	exists, err := s.repo.ExistsByIdentifier(ctx, tenantID, draft.Identifier)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.ErrAlreadyExists
	}

	events := draft.GetDomainEvents()
	if err := s.repo.Create(ctx, draft, events); err != nil {
		return nil, err
	}
	draft.ClearDomainEvents()

	s.logger.Info("customer created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("identifier", draft.Identifier),
	)

	response := ToCustomerResponse(draft)
	return &response, nil
}

// FindCustomer returns the current projection for an identifier
func (s *LifecycleService) FindCustomer(ctx context.Context, tenantID uuid.UUID, identifier string) (*CustomerResponse, error) {
	c, err := s.repo.FindByIdentifier(ctx, tenantID, identifier)
	if err != nil {
		return nil, err
	}
	response := ToCustomerResponse(c)
	return &response, nil
}

// ListCustomers lists customers matching an identifier term and activity flag
func (s *LifecycleService) ListCustomers(ctx context.Context, tenantID uuid.UUID, filter ListFilter) (shared.Paginated[CustomerResponse], error) {
	f := shared.DefaultFilter()
	f.Page = filter.Page
	f.PageSize = filter.PageSize
	f.Normalize()

	page, err := s.repo.Search(ctx, tenantID, filter.Term, filter.OnlyActive, f)
	if err != nil {
		return shared.Paginated[CustomerResponse]{}, err
	}
	return ToCustomerPage(page), nil
}

// UpdateCustomer re-validates and replaces the identity fields of an existing
// customer. State and audit history are never touched.
func (s *LifecycleService) UpdateCustomer(ctx context.Context, tenantID uuid.UUID, identifier, actor string, req UpdateCustomerRequest) (*CustomerResponse, error) {
	c, err := s.repo.FindByIdentifier(ctx, tenantID, identifier)
	if err != nil {
		return nil, err
	}

	c.UpdateDetails(req.GivenName, req.MiddleName, req.Surname, req.DateOfBirth, customer.CustomerType(req.Type), actor)
	if violations := customer.ValidateDraft(c); len(violations) > 0 {
		return nil, customer.NewValidationError(violations)
	}

	events := c.GetDomainEvents()
	if err := s.repo.Save(ctx, c, events); err != nil {
		return nil, err
	}
	c.ClearDomainEvents()

	response := ToCustomerResponse(c)
	return &response, nil
}

// ApplyCommand runs a state-changing command through the transition table.
// The audit record is appended first; the projection update then commits
// atomically with its outbox notification under the version read up front.
// When a concurrent transition wins the race the caller observes
// ErrConcurrencyConflict, the audit entry is retained, and Reconcile can
// re-project the stored state from history.
func (s *LifecycleService) ApplyCommand(ctx context.Context, tenantID uuid.UUID, identifier, actor string, req CommandRequest) (*CustomerResponse, error) {
	action := customer.Action(req.Action)
	if !action.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "unrecognized action: "+req.Action)
	}

	c, err := s.repo.FindByIdentifier(ctx, tenantID, identifier)
	if err != nil {
		return nil, err
	}
	expectedVersion := c.Version

	cmd, err := c.Apply(action, actor, req.Comment)
	if err != nil {
		return nil, err
	}

	position, err := s.commands.Append(ctx, cmd)
	if err != nil {
		return nil, err
	}

	events := c.GetDomainEvents()
	if err := s.repo.UpdateState(ctx, c, expectedVersion, events); err != nil {
		var derr *shared.DomainError
		if errors.As(err, &derr) && derr.Code == shared.ErrConcurrencyConflict.Code {
			s.logger.Warn("concurrent transition lost the race, audit entry retained",
				zap.String("identifier", identifier),
				zap.String("action", string(action)),
				zap.Int("position", position),
			)
		}
		return nil, err
	}
	c.ClearDomainEvents()

	s.logger.Info("command applied",
		zap.String("tenant_id", tenantID.String()),
		zap.String("identifier", identifier),
		zap.String("action", string(action)),
		zap.String("state", string(c.CurrentState)),
		zap.Int("position", position),
	)

	response := ToCustomerResponse(c)
	return &response, nil
}

// PutAddress validates and replaces the address slot wholesale
func (s *LifecycleService) PutAddress(ctx context.Context, tenantID uuid.UUID, identifier, actor string, req AddressRequest) error {
	c, err := s.repo.FindByIdentifier(ctx, tenantID, identifier)
	if err != nil {
		return err
	}

	c.ReplaceAddress(req.ToDomain(), actor)
	if violations := customer.ValidateDraft(c); len(violations) > 0 {
		return customer.NewValidationError(violations)
	}

	events := c.GetDomainEvents()
	if err := s.repo.Save(ctx, c, events); err != nil {
		return err
	}
	c.ClearDomainEvents()
	return nil
}

// PutContactDetails validates and replaces the contact list wholesale
func (s *LifecycleService) PutContactDetails(ctx context.Context, tenantID uuid.UUID, identifier, actor string, reqs []ContactDetailRequest) error {
	c, err := s.repo.FindByIdentifier(ctx, tenantID, identifier)
	if err != nil {
		return err
	}

	c.ReplaceContactDetails(ContactDetailsToDomain(reqs), actor)
	if violations := customer.ValidateDraft(c); len(violations) > 0 {
		return customer.NewValidationError(violations)
	}

	events := c.GetDomainEvents()
	if err := s.repo.Save(ctx, c, events); err != nil {
		return err
	}
	c.ClearDomainEvents()
	return nil
}

// PutIdentificationCard validates and replaces the card slot wholesale
func (s *LifecycleService) PutIdentificationCard(ctx context.Context, tenantID uuid.UUID, identifier, actor string, req IdentificationCardRequest) error {
	c, err := s.repo.FindByIdentifier(ctx, tenantID, identifier)
	if err != nil {
		return err
	}

	c.ReplaceIdentificationCard(req.ToDomain(), actor)
	if violations := customer.ValidateDraft(c); len(violations) > 0 {
		return customer.NewValidationError(violations)
	}

	events := c.GetDomainEvents()
	if err := s.repo.Save(ctx, c, events); err != nil {
		return err
	}
	c.ClearDomainEvents()
	return nil
}

// FetchCustomerCommands returns the audit history for a customer, oldest first
func (s *LifecycleService) FetchCustomerCommands(ctx context.Context, tenantID uuid.UUID, identifier string) ([]CommandResponse, error) {
	c, err := s.repo.FindByIdentifier(ctx, tenantID, identifier)
	if err != nil {
		return nil, err
	}

	history, err := s.commands.History(ctx, tenantID, c.ID)
	if err != nil {
		return nil, err
	}
	return ToCommandResponses(history), nil
}
