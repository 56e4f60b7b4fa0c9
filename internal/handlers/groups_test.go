package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Turquoise-stack/FLAT-CLUB/config"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/services"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/store"
	"github.com/Turquoise-stack/FLAT-CLUB/types"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type groupMemberKey struct {
	groupID int
	userID  int
}

type fakeGroupRepo struct {
	groups  map[int]types.Group
	members map[groupMemberKey]types.MemberStatus
	nextID  int
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{
		groups:  make(map[int]types.Group),
		members: make(map[groupMemberKey]types.MemberStatus),
		nextID:  1,
	}
}

func (f *fakeGroupRepo) Get(ctx context.Context, id int) (types.Group, error) {
	group, ok := f.groups[id]
	if !ok {
		return types.Group{}, store.ErrNotFound
	}
	return group, nil
}

func (f *fakeGroupRepo) List(ctx context.Context, offset, limit int) ([]types.Group, int, error) {
	groups := make([]types.Group, 0, len(f.groups))
	for _, g := range f.groups {
		groups = append(groups, g)
	}
	return groups, len(f.groups), nil
}

func (f *fakeGroupRepo) Create(ctx context.Context, group types.Group) (types.Group, error) {
	group.ID = f.nextID
	f.nextID++
	f.groups[group.ID] = group
	f.members[groupMemberKey{group.ID, group.OwnerID}] = types.StatusActive
	return group, nil
}

func (f *fakeGroupRepo) Delete(ctx context.Context, id int) error {
	if _, ok := f.groups[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.groups, id)
	return nil
}

func (f *fakeGroupRepo) UpdateLifestylePreference(ctx context.Context, id int, pref types.LifestylePreference) error {
	group, ok := f.groups[id]
	if !ok {
		return store.ErrNotFound
	}
	group.LifestylePreference = &pref
	f.groups[id] = group
	return nil
}

func (f *fakeGroupRepo) GetMemberStatus(ctx context.Context, groupID, userID int) (types.MemberStatus, error) {
	status, ok := f.members[groupMemberKey{groupID, userID}]
	if !ok {
		return types.StatusPending, store.ErrNotFound
	}
	return status, nil
}

func (f *fakeGroupRepo) AddMember(ctx context.Context, groupID, userID int, status types.MemberStatus) error {
	key := groupMemberKey{groupID, userID}
	if _, ok := f.members[key]; ok {
		return store.ErrAlreadyExists
	}
	f.members[key] = status
	return nil
}

func (f *fakeGroupRepo) UpdateMemberStatus(ctx context.Context, groupID, userID int, from, to types.MemberStatus) error {
	key := groupMemberKey{groupID, userID}
	status, ok := f.members[key]
	if !ok || status != from {
		return store.ErrNotFound
	}
	f.members[key] = to
	return nil
}

func (f *fakeGroupRepo) RemoveMember(ctx context.Context, groupID, userID int, status types.MemberStatus) error {
	key := groupMemberKey{groupID, userID}
	current, ok := f.members[key]
	if !ok || current != status {
		return store.ErrNotFound
	}
	delete(f.members, key)
	return nil
}

type staticListingGetter struct {
	listing types.Listing
}

func (s *staticListingGetter) Get(ctx context.Context, id int) (types.Listing, error) {
	if id != s.listing.ID {
		return types.Listing{}, store.ErrNotFound
	}
	return s.listing, nil
}

// groupFixture wires a real router over fake repos with two registered
// users: the group owner and an outsider.
type groupFixture struct {
	router     *chi.Mux
	groupID    int
	ownerToken string
	otherToken string
	otherID    int
}

func newGroupFixture(t *testing.T) groupFixture {
	t.Helper()

	userRepo := newFakeUserRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)

	ownerUser, err := userRepo.Create(context.Background(), types.User{
		Username: "owner", Email: "owner@x.com", Role: "user", PasswordHash: string(hash),
	})
	require.NoError(t, err)
	otherUser, err := userRepo.Create(context.Background(), types.User{
		Username: "other", Email: "other@x.com", Role: "user", PasswordHash: string(hash),
	})
	require.NoError(t, err)

	users := services.NewUserService(userRepo)
	groupRepo := newFakeGroupRepo()
	listings := &staticListingGetter{listing: types.Listing{ID: 1, OwnerID: ownerUser.ID}}
	groups := services.NewGroupService(groupRepo, listings, nil, slog.Default())

	cfg := config.JWTConfig{Secret: "test-secret", TokenTTL: time.Hour}
	authHandler := NewAuthHandler(users, nil, cfg, slog.Default())
	groupHandler := NewGroupHandler(groups, users, slog.Default())

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		GroupRouter(r, groupHandler, authHandler.RequireAuth)
	})

	created, err := groups.Create(context.Background(), types.Group{
		Name: "g", ListingID: 1, OwnerID: ownerUser.ID,
	})
	require.NoError(t, err)

	ownerToken, err := authHandler.issueToken(ownerUser.ID)
	require.NoError(t, err)
	otherToken, err := authHandler.issueToken(otherUser.ID)
	require.NoError(t, err)

	return groupFixture{
		router:     router,
		groupID:    created.ID,
		ownerToken: ownerToken,
		otherToken: otherToken,
		otherID:    otherUser.ID,
	}
}

func (f groupFixture) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestJoinRequestErrorWording(t *testing.T) {
	f := newGroupFixture(t)
	path := fmt.Sprintf("/api/groups/%d/join-request", f.groupID)

	w := f.do(t, http.MethodPost, path, f.otherToken, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, path, f.otherToken, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "You have already sent a join request.")

	w = f.do(t, http.MethodPost, path, f.ownerToken, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "You are already a member of this group.")
}

func TestApproveMemberAuthorizationStatus(t *testing.T) {
	f := newGroupFixture(t)

	w := f.do(t, http.MethodPost, fmt.Sprintf("/api/groups/%d/join-request", f.groupID), f.otherToken, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := fmt.Sprintf(`{"user_id":%d}`, f.otherID)
	approvePath := fmt.Sprintf("/api/groups/%d/approve-member", f.groupID)

	w = f.do(t, http.MethodPost, approvePath, f.otherToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Not authorized to manage this group")

	w = f.do(t, http.MethodPost, approvePath, f.ownerToken, body)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMissingGroupIsNotFound(t *testing.T) {
	f := newGroupFixture(t)

	w := f.do(t, http.MethodPost, "/api/groups/999/join-request", f.otherToken, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Group not found")
}

func TestLeaveStatuses(t *testing.T) {
	f := newGroupFixture(t)
	leavePath := fmt.Sprintf("/api/groups/%d/leave", f.groupID)

	w := f.do(t, http.MethodDelete, leavePath, f.ownerToken, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, fmt.Sprintf("/api/groups/%d/join-request", f.groupID), f.otherToken, "")
	require.Equal(t, http.StatusOK, w.Code)

	// pending members have nothing active to leave yet
	w = f.do(t, http.MethodDelete, leavePath, f.otherToken, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := fmt.Sprintf(`{"user_id":%d}`, f.otherID)
	w = f.do(t, http.MethodPost, fmt.Sprintf("/api/groups/%d/approve-member", f.groupID), f.ownerToken, body)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodDelete, leavePath, f.otherToken, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGroupRoutesRequireAuth(t *testing.T) {
	f := newGroupFixture(t)

	w := f.do(t, http.MethodPost, fmt.Sprintf("/api/groups/%d/join-request", f.groupID), "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// reads stay public
	w = f.do(t, http.MethodGet, fmt.Sprintf("/api/groups/%d", f.groupID), "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
