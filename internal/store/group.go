package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/Turquoise-stack/FLAT-CLUB/types"
	"github.com/lib/pq"
)

// GroupRepository handles persistence for groups and their membership rows.
type GroupRepository struct {
	db *sql.DB
}

func NewGroupRepository(db *sql.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Get(ctx context.Context, id int) (types.Group, error) {
	const query = `
		SELECT id, name, description, listing_id, owner_id, lifestyle_preference, created_at
		FROM groups
		WHERE id = $1`
	var group types.Group
	var prefJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.ListingID,
		&group.OwnerID,
		&prefJSON,
		&group.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Group{}, ErrNotFound
		}
		return types.Group{}, err
	}
	if len(prefJSON) > 0 {
		_ = json.Unmarshal(prefJSON, &group.LifestylePreference)
	}

	members, err := r.membersByGroup(ctx, []int{group.ID})
	if err != nil {
		return types.Group{}, err
	}
	group.Members = members[group.ID]
	if group.Members == nil {
		group.Members = []types.GroupMember{}
	}
	return group, nil
}

func (r *GroupRepository) List(ctx context.Context, offset, limit int) ([]types.Group, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 6
	}

	const countQuery = `SELECT COUNT(1) FROM groups`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT id, name, description, listing_id, owner_id, lifestyle_preference, created_at
		FROM groups
		ORDER BY id
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	groups := make([]types.Group, 0, limit)
	ids := make([]int, 0, limit)
	for rows.Next() {
		var group types.Group
		var prefJSON []byte
		if err := rows.Scan(
			&group.ID,
			&group.Name,
			&group.Description,
			&group.ListingID,
			&group.OwnerID,
			&prefJSON,
			&group.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		if len(prefJSON) > 0 {
			_ = json.Unmarshal(prefJSON, &group.LifestylePreference)
		}
		groups = append(groups, group)
		ids = append(ids, group.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	members, err := r.membersByGroup(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range groups {
		groups[i].Members = members[groups[i].ID]
		if groups[i].Members == nil {
			groups[i].Members = []types.GroupMember{}
		}
	}

	return groups, total, nil
}

// Create inserts the group and enrolls the owner as an active member in
// one transaction.
func (r *GroupRepository) Create(ctx context.Context, group types.Group) (types.Group, error) {
	group.CreatedAt = time.Now()

	prefJSON, err := marshalNullable(group.LifestylePreference == nil, group.LifestylePreference)
	if err != nil {
		return types.Group{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Group{}, err
	}
	defer tx.Rollback()

	const insertGroup = `
		INSERT INTO groups (name, description, listing_id, owner_id, lifestyle_preference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		insertGroup,
		group.Name,
		group.Description,
		group.ListingID,
		group.OwnerID,
		prefJSON,
		group.CreatedAt,
	).Scan(&group.ID); err != nil {
		return types.Group{}, err
	}

	const insertOwner = `
		INSERT INTO group_members (group_id, user_id, status, created_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, insertOwner, group.ID, group.OwnerID, types.StatusActive.String(), group.CreatedAt); err != nil {
		return types.Group{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Group{}, err
	}
	return group, nil
}

func (r *GroupRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM groups WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GroupRepository) UpdateLifestylePreference(ctx context.Context, id int, pref types.LifestylePreference) error {
	prefJSON, err := json.Marshal(pref)
	if err != nil {
		return err
	}

	const query = `UPDATE groups SET lifestyle_preference = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, prefJSON, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetMemberStatus returns the membership status of a user within a group,
// or ErrNotFound when the user is not on the roster.
func (r *GroupRepository) GetMemberStatus(ctx context.Context, groupID, userID int) (types.MemberStatus, error) {
	const query = `SELECT status FROM group_members WHERE group_id = $1 AND user_id = $2`
	var raw string
	if err := r.db.QueryRowContext(ctx, query, groupID, userID).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.StatusPending, ErrNotFound
		}
		return types.StatusPending, err
	}
	return types.ParseMemberStatus(raw)
}

// AddMember inserts a membership row. A duplicate (group, user) pair
// returns ErrAlreadyExists.
func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID int, status types.MemberStatus) error {
	const query = `
		INSERT INTO group_members (group_id, user_id, status, created_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, groupID, userID, status.String(), time.Now()); err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

// UpdateMemberStatus moves a membership row from one status to another.
// ErrNotFound signals the member was not in the expected source status.
func (r *GroupRepository) UpdateMemberStatus(ctx context.Context, groupID, userID int, from, to types.MemberStatus) error {
	const query = `
		UPDATE group_members
		SET status = $1
		WHERE group_id = $2 AND user_id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, to.String(), groupID, userID, from.String())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveMember deletes a membership row that is in the given status.
// ErrNotFound signals the member was absent or in a different status.
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID int, status types.MemberStatus) error {
	const query = `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, groupID, userID, status.String())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GroupRepository) membersByGroup(ctx context.Context, groupIDs []int) (map[int][]types.GroupMember, error) {
	if len(groupIDs) == 0 {
		return map[int][]types.GroupMember{}, nil
	}

	const query = `
		SELECT gm.group_id, gm.user_id, u.name, u.surname, u.username, gm.status
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = ANY($1)
		ORDER BY gm.created_at`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(groupIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make(map[int][]types.GroupMember)
	for rows.Next() {
		var groupID int
		var member types.GroupMember
		var rawStatus string
		if err := rows.Scan(&groupID, &member.UserID, &member.Name, &member.Surname, &member.Username, &rawStatus); err != nil {
			return nil, err
		}
		status, err := types.ParseMemberStatus(rawStatus)
		if err != nil {
			return nil, err
		}
		member.Status = status
		members[groupID] = append(members[groupID], member)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}
