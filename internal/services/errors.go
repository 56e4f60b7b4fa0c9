package services

import "errors"

// Membership rule violations surfaced to clients. The exact wording is
// part of the API contract: the front-end matches on these messages to
// show specific feedback instead of a generic failure.
var (
	// ErrAlreadyRequested indicates a duplicate join request.
	ErrAlreadyRequested = errors.New("You have already sent a join request.")

	// ErrAlreadyMember indicates the caller is already an active member.
	ErrAlreadyMember = errors.New("You are already a member of this group.")

	// ErrNotGroupManager indicates the actor is neither the group owner
	// nor an admin.
	ErrNotGroupManager = errors.New("Not authorized to manage this group")

	// ErrNoPendingRequest indicates an approve/reject target without a
	// pending join request.
	ErrNoPendingRequest = errors.New("No pending join request for this user")

	// ErrNotActiveMember indicates a removal/leave target that is not an
	// active member.
	ErrNotActiveMember = errors.New("User is not an active member of this group")

	// ErrOwnerImmutable indicates an attempt to remove the group owner.
	ErrOwnerImmutable = errors.New("The group owner cannot be removed")

	// ErrOwnerCannotLeave indicates the owner attempting to leave their
	// own group.
	ErrOwnerCannotLeave = errors.New("The group owner cannot leave the group")
)
