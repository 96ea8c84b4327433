package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesQuestAPI/internal/store"
	"salesQuestAPI/internal/types/group"
)

func TestRegisterGroupStartsWithNotificationsEnabled(t *testing.T) {
	svc := NewGroupService(store.NewMemoryStore())

	g, err := svc.RegisterGroup(context.Background(), &group.RegisterGroupRequest{
		Key:          "sales-floor",
		Name:         "Sales Floor",
		RegisteredBy: uuid.New(),
	})
	require.NoError(t, err)
	assert.True(t, g.NotificationsEnabled)
}

func TestRegisterGroupValidation(t *testing.T) {
	svc := NewGroupService(store.NewMemoryStore())
	ctx := context.Background()

	_, err := svc.RegisterGroup(ctx, &group.RegisterGroupRequest{Name: "No Key"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.RegisterGroup(ctx, &group.RegisterGroupRequest{Key: "no-name"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegisterGroupIdempotentKeepsToggleState(t *testing.T) {
	svc := NewGroupService(store.NewMemoryStore())
	ctx := context.Background()

	_, err := svc.RegisterGroup(ctx, &group.RegisterGroupRequest{Key: "room", Name: "Room"})
	require.NoError(t, err)

	require.NoError(t, svc.SetNotifications(ctx, "room", false))

	// Re-registering renames but does not re-enable notifications.
	g, err := svc.RegisterGroup(ctx, &group.RegisterGroupRequest{Key: "room", Name: "Renamed Room"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Room", g.Name)
	assert.False(t, g.NotificationsEnabled)

	groups, err := svc.ListGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestSetNotificationsUnknownGroup(t *testing.T) {
	svc := NewGroupService(store.NewMemoryStore())

	err := svc.SetNotifications(context.Background(), "nope", true)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
