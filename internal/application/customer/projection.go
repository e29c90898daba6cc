package customer

import (
	"context"

	"github.com/fincore/customer/internal/domain/customer"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeriveState folds a command history through the transition table starting
// from PENDING. The stored current-state column is a cache of this fold.
// Commands that do not apply at their point in the sequence are skipped:
// they are audit entries whose projection write lost a concurrency race and
// never committed.
func DeriveState(history []customer.Command) customer.State {
	state := customer.StatePending
	for _, cmd := range history {
		next, err := customer.Transition(state, cmd.Action)
		if err != nil {
			continue
		}
		state = next
	}
	return state
}

// Reconciler re-projects stored customer state from the audit history. It is
// the recovery path for the documented anomaly where an audit entry commits
// but the projection write loses its optimistic-version race.
type Reconciler struct {
	repo     customer.Repository
	commands customer.CommandRepository
	logger   *zap.Logger
}

// NewReconciler creates a new Reconciler
func NewReconciler(repo customer.Repository, commands customer.CommandRepository, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		repo:     repo,
		commands: commands,
		logger:   logger,
	}
}

// Reconcile re-derives the state for one customer and rewrites the stored
// projection when it disagrees with the fold over history. The repair write
// carries no notification; downstream systems already saw the events of the
// transitions that actually committed.
func (r *Reconciler) Reconcile(ctx context.Context, tenantID uuid.UUID, identifier string) (customer.State, error) {
	c, err := r.repo.FindByIdentifier(ctx, tenantID, identifier)
	if err != nil {
		return "", err
	}

	history, err := r.commands.History(ctx, tenantID, c.ID)
	if err != nil {
		return "", err
	}

	derived := DeriveState(history)
	if derived == c.CurrentState {
		return derived, nil
	}

	r.logger.Warn("stored state diverged from command history, re-projecting",
		zap.String("identifier", identifier),
		zap.String("stored", string(c.CurrentState)),
		zap.String("derived", string(derived)),
	)

	expectedVersion := c.Version
	c.CurrentState = derived
	c.IncrementVersion()
	if err := r.repo.UpdateState(ctx, c, expectedVersion, nil); err != nil {
		return "", err
	}
	return derived, nil
}
