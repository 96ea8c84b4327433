package services

import (
	"context"
	"fmt"

	"salesQuestAPI/internal/store"
	"salesQuestAPI/internal/types/group"
)

type GroupService struct {
	store store.Store
}

func NewGroupService(st store.Store) *GroupService {
	return &GroupService{store: st}
}

// RegisterGroup is the /register command: idempotent on the chat group
// key, notifications start enabled.
func (s *GroupService) RegisterGroup(ctx context.Context, req *group.RegisterGroupRequest) (*group.Group, error) {
	if req.Key == "" {
		return nil, fmt.Errorf("%w: group key is required", ErrValidation)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrValidation)
	}

	g := &group.Group{
		Key:                  req.Key,
		Name:                 req.Name,
		RegisteredBy:         req.RegisteredBy,
		NotificationsEnabled: true,
	}
	if err := s.store.UpsertGroup(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to register group: %w", err)
	}
	return g, nil
}

// SetNotifications is the /toggle command.
func (s *GroupService) SetNotifications(ctx context.Context, key string, enabled bool) error {
	return s.store.SetGroupNotifications(ctx, key, enabled)
}

func (s *GroupService) ListGroups(ctx context.Context) ([]*group.Group, error) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}
