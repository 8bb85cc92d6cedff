package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"service-dispatch/internal/domain"
)

func TestAssignmentState_Terminal(t *testing.T) {
	t.Parallel()

	require.False(t, domain.AssignmentBroadcast.Terminal())
	require.True(t, domain.AssignmentAccepted.Terminal())
	require.True(t, domain.AssignmentExpired.Terminal())
	require.True(t, domain.AssignmentCancelled.Terminal())
}

func TestDeliveryState_Terminal(t *testing.T) {
	t.Parallel()

	require.False(t, domain.DeliveryEnroute.Terminal())
	require.False(t, domain.DeliveryArrived.Terminal())
	require.False(t, domain.DeliveryOTPPending.Terminal())
	require.True(t, domain.DeliveryDelivered.Terminal())
	require.True(t, domain.DeliveryCancelled.Terminal())
}

func TestPresenceStatus_Valid(t *testing.T) {
	t.Parallel()

	require.True(t, domain.StatusOnline.Valid())
	require.True(t, domain.StatusAway.Valid())
	require.True(t, domain.StatusOffline.Valid())
	require.False(t, domain.PresenceStatus("busy").Valid())
}

func TestRole_Valid(t *testing.T) {
	t.Parallel()

	require.True(t, domain.RoleCourier.Valid())
	require.True(t, domain.RoleCustomer.Valid())
	require.True(t, domain.RoleCounterparty.Valid())
	require.False(t, domain.Role("admin").Valid())
}
