package customer

import (
	"context"
	"testing"

	"github.com/fincore/customer/internal/domain/customer"
	"github.com/fincore/customer/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDeriveState(t *testing.T) {
	tests := []struct {
		name    string
		actions []customer.Action
		want    customer.State
	}{
		{"empty history stays pending", nil, customer.StatePending},
		{"activate", []customer.Action{customer.ActionActivate}, customer.StateActive},
		{"activate then lock", []customer.Action{customer.ActionActivate, customer.ActionLock}, customer.StateLocked},
		{"lock and unlock round trip", []customer.Action{customer.ActionActivate, customer.ActionLock, customer.ActionUnlock}, customer.StateActive},
		{"close then reopen", []customer.Action{customer.ActionActivate, customer.ActionClose, customer.ActionReopen}, customer.StateActive},
		{"orphaned losing command is skipped", []customer.Action{customer.ActionActivate, customer.ActionLock, customer.ActionClose}, customer.StateLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := make([]customer.Command, len(tt.actions))
			for i, a := range tt.actions {
				history[i] = customer.Command{Position: i + 1, Action: a}
			}
			assert.Equal(t, tt.want, DeriveState(history))
		})
	}
}

func TestReconciler_Reconcile(t *testing.T) {
	tenantID := uuid.New()

	t.Run("consistent projection is left untouched", func(t *testing.T) {
		repo := new(MockRepository)
		commands := new(MockCommandRepository)
		r := NewReconciler(repo, commands, zap.NewNop())

		stored := storedCustomer(tenantID, customer.StateActive)
		repo.On("FindByIdentifier", mock.Anything, tenantID, "cust-001").Return(stored, nil)
		commands.On("History", mock.Anything, tenantID, stored.ID).Return([]customer.Command{
			{Position: 1, Action: customer.ActionActivate},
		}, nil)

		state, err := r.Reconcile(context.Background(), tenantID, "cust-001")
		require.NoError(t, err)
		assert.Equal(t, customer.StateActive, state)
		repo.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("diverged projection is re-projected without notifications", func(t *testing.T) {
		repo := new(MockRepository)
		commands := new(MockCommandRepository)
		r := NewReconciler(repo, commands, zap.NewNop())

		stored := storedCustomer(tenantID, customer.StateActive)
		repo.On("FindByIdentifier", mock.Anything, tenantID, "cust-001").Return(stored, nil)
		commands.On("History", mock.Anything, tenantID, stored.ID).Return([]customer.Command{
			{Position: 1, Action: customer.ActionActivate},
			{Position: 2, Action: customer.ActionLock},
		}, nil)
		repo.On("UpdateState", mock.Anything, stored, 1, mock.Anything).Run(func(args mock.Arguments) {
			assert.Nil(t, args.Get(3), "repair write must not emit events")
		}).Return(nil)

		state, err := r.Reconcile(context.Background(), tenantID, "cust-001")
		require.NoError(t, err)
		assert.Equal(t, customer.StateLocked, state)
		assert.Equal(t, customer.StateLocked, stored.CurrentState)
		repo.AssertExpectations(t)
	})
}

// fakePublisher records published events for bootstrap tests
type fakePublisher struct {
	events []shared.DomainEvent
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func TestBootstrap_Initialize(t *testing.T) {
	t.Run("emits readiness exactly once per tenant", func(t *testing.T) {
		pub := &fakePublisher{}
		b := NewBootstrap(pub, zap.NewNop())
		tenantID := uuid.New()

		require.NoError(t, b.Initialize(context.Background(), tenantID))
		require.NoError(t, b.Initialize(context.Background(), tenantID))

		require.Len(t, pub.events, 1)
		assert.Equal(t, customer.EventTypeInitialized, pub.events[0].EventType())
		assert.Equal(t, tenantID, pub.events[0].TenantID())
		assert.True(t, b.Initialized(tenantID))
	})

	t.Run("separate tenants each get a signal", func(t *testing.T) {
		pub := &fakePublisher{}
		b := NewBootstrap(pub, zap.NewNop())

		require.NoError(t, b.Initialize(context.Background(), uuid.New()))
		require.NoError(t, b.Initialize(context.Background(), uuid.New()))
		assert.Len(t, pub.events, 2)
	})

	t.Run("publish failure allows retry", func(t *testing.T) {
		pub := &fakePublisher{err: assert.AnError}
		b := NewBootstrap(pub, zap.NewNop())
		tenantID := uuid.New()

		require.Error(t, b.Initialize(context.Background(), tenantID))
		assert.False(t, b.Initialized(tenantID))

		pub.err = nil
		require.NoError(t, b.Initialize(context.Background(), tenantID))
		assert.True(t, b.Initialized(tenantID))
	})
}
