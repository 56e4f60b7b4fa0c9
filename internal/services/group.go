package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Turquoise-stack/FLAT-CLUB/internal/store"
	"github.com/Turquoise-stack/FLAT-CLUB/types"
)

// GroupRepository defines persistence operations for groups and membership.
type GroupRepository interface {
	Get(ctx context.Context, id int) (types.Group, error)
	List(ctx context.Context, offset, limit int) ([]types.Group, int, error)
	Create(ctx context.Context, group types.Group) (types.Group, error)
	Delete(ctx context.Context, id int) error
	UpdateLifestylePreference(ctx context.Context, id int, pref types.LifestylePreference) error
	GetMemberStatus(ctx context.Context, groupID, userID int) (types.MemberStatus, error)
	AddMember(ctx context.Context, groupID, userID int, status types.MemberStatus) error
	UpdateMemberStatus(ctx context.Context, groupID, userID int, from, to types.MemberStatus) error
	RemoveMember(ctx context.Context, groupID, userID int, status types.MemberStatus) error
}

// ListingGetter is the slice of the listing repository the group service
// needs to validate listing references.
type ListingGetter interface {
	Get(ctx context.Context, id int) (types.Listing, error)
}

// GroupService encapsulates group use-cases and the membership state
// machine. A member is exactly one of pending or active; every transition
// is validated here against the stored state, never inferred client-side.
//
// Transitions:
//
//	(none)  -> pending  via RequestJoin
//	pending -> active   via ApproveMember (owner/admin)
//	pending -> (gone)   via RejectMember  (owner/admin)
//	active  -> (gone)   via RemoveMember  (owner/admin, never the owner)
//	active  -> (gone)   via Leave         (self, never the owner)
type GroupService struct {
	repo     GroupRepository
	listings ListingGetter
	events   EventPublisher
	logger   *slog.Logger
}

func NewGroupService(repo GroupRepository, listings ListingGetter, events EventPublisher, logger *slog.Logger) *GroupService {
	return &GroupService{
		repo:     repo,
		listings: listings,
		events:   events,
		logger:   logger,
	}
}

func (s *GroupService) Get(ctx context.Context, id int) (types.Group, error) {
	return s.repo.Get(ctx, id)
}

func (s *GroupService) List(ctx context.Context, offset, limit int) ([]types.Group, int, error) {
	if limit <= 0 {
		limit = 6
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, offset, limit)
}

// Create validates the referenced listing and persists the group with the
// creator as owner and first active member.
func (s *GroupService) Create(ctx context.Context, group types.Group) (types.Group, error) {
	if _, err := s.listings.Get(ctx, group.ListingID); err != nil {
		return types.Group{}, err
	}
	return s.repo.Create(ctx, group)
}

func (s *GroupService) Delete(ctx context.Context, id int, actor types.User) error {
	group, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(group, actor) {
		return ErrNotGroupManager
	}
	return s.repo.Delete(ctx, id)
}

// UpdatePreferences replaces the group's lifestyle preference blob.
// Only the owner negotiates household agreements.
func (s *GroupService) UpdatePreferences(ctx context.Context, groupID int, pref types.LifestylePreference, actor types.User) error {
	group, err := s.repo.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if group.OwnerID != actor.ID {
		return ErrNotGroupManager
	}
	return s.repo.UpdateLifestylePreference(ctx, groupID, pref)
}

// RequestJoin transitions a non-member to pending.
func (s *GroupService) RequestJoin(ctx context.Context, groupID int, actor types.User) error {
	if _, err := s.repo.Get(ctx, groupID); err != nil {
		return err
	}

	status, err := s.repo.GetMemberStatus(ctx, groupID, actor.ID)
	switch {
	case err == nil && status == types.StatusPending:
		return ErrAlreadyRequested
	case err == nil:
		return ErrAlreadyMember
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	if err := s.repo.AddMember(ctx, groupID, actor.ID, types.StatusPending); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrAlreadyRequested
		}
		return err
	}

	s.publish(ctx, EventJoinRequested, groupID, actor.ID, actor.ID)
	return nil
}

// ApproveMember transitions a pending member to active.
func (s *GroupService) ApproveMember(ctx context.Context, groupID, memberID int, actor types.User) error {
	if err := s.requireManager(ctx, groupID, actor); err != nil {
		return err
	}

	if err := s.repo.UpdateMemberStatus(ctx, groupID, memberID, types.StatusPending, types.StatusActive); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoPendingRequest
		}
		return err
	}

	s.publish(ctx, EventMemberApproved, groupID, memberID, actor.ID)
	return nil
}

// RejectMember drops a pending join request.
func (s *GroupService) RejectMember(ctx context.Context, groupID, memberID int, actor types.User) error {
	if err := s.requireManager(ctx, groupID, actor); err != nil {
		return err
	}

	if err := s.repo.RemoveMember(ctx, groupID, memberID, types.StatusPending); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoPendingRequest
		}
		return err
	}

	s.publish(ctx, EventMemberRejected, groupID, memberID, actor.ID)
	return nil
}

// RemoveMember drops an active member. The owner cannot be removed.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, memberID int, actor types.User) error {
	group, err := s.repo.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !canManage(group, actor) {
		return ErrNotGroupManager
	}
	if memberID == group.OwnerID {
		return ErrOwnerImmutable
	}

	if err := s.repo.RemoveMember(ctx, groupID, memberID, types.StatusActive); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotActiveMember
		}
		return err
	}

	s.publish(ctx, EventMemberRemoved, groupID, memberID, actor.ID)
	return nil
}

// Leave drops the actor's own active membership. The owner cannot leave.
func (s *GroupService) Leave(ctx context.Context, groupID int, actor types.User) error {
	group, err := s.repo.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if actor.ID == group.OwnerID {
		return ErrOwnerCannotLeave
	}

	if err := s.repo.RemoveMember(ctx, groupID, actor.ID, types.StatusActive); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotActiveMember
		}
		return err
	}

	s.publish(ctx, EventMemberRemoved, groupID, actor.ID, actor.ID)
	return nil
}

func (s *GroupService) requireManager(ctx context.Context, groupID int, actor types.User) error {
	group, err := s.repo.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !canManage(group, actor) {
		return ErrNotGroupManager
	}
	return nil
}

func canManage(group types.Group, actor types.User) bool {
	return group.OwnerID == actor.ID || actor.Role == "admin"
}

func (s *GroupService) publish(ctx context.Context, eventType string, groupID, userID, actorID int) {
	if s.events == nil {
		return
	}
	payload := MembershipEvent{GroupID: groupID, UserID: userID, ActorID: actorID}
	if _, err := s.events.PublishJSON(ctx, NotificationsChannel, eventType, payload); err != nil {
		s.logger.Warn("event publish failed", "event", eventType, "group_id", groupID, "error", err)
	}
}
