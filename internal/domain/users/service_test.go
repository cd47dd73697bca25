package users

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leavemgmt/internal/domain/auth"
)

type memoryStore struct {
	mu    sync.Mutex
	users map[string]User
	seq   int
	err   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: map[string]User{}}
}

func (m *memoryStore) Create(_ context.Context, u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return User{}, ErrUsernameTaken
		}
	}
	m.seq++
	u.ID = "u" + string(rune('0'+m.seq))
	m.users[u.ID] = u
	return u, nil
}

func (m *memoryStore) Get(_ context.Context, id string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *memoryStore) GetByUsername(_ context.Context, username string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return User{}, m.err
	}
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *memoryStore) Update(_ context.Context, u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return User{}, ErrNotFound
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *memoryStore) matching(f Filter) []User {
	var out []User
	for _, u := range m.users {
		if f.Department != "" && !strings.EqualFold(u.Department, f.Department) {
			continue
		}
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memoryStore) List(_ context.Context, f Filter, limit, offset int) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.matching(f)
	if offset >= len(all) {
		return []User{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memoryStore) Count(_ context.Context, f Filter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matching(f)), nil
}

func (m *memoryStore) Departments(context.Context) ([]DepartmentCount, error) {
	return nil, nil
}

func (m *memoryStore) ListIDs(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id := range m.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestRegisterDefaultsAndNormalizes(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)
	u, err := svc.Register(context.Background(), NewUser{Username: "  Sara_1 ", Password: "secret1", FullName: "Sara Ali", Gender: "Female"})
	require.NoError(t, err)
	assert.Equal(t, "sara_1", u.Username)
	assert.Equal(t, auth.RoleEmployee, u.Role)
	assert.Equal(t, GenderFemale, u.Gender)
	assert.NoError(t, auth.CheckPassword(u.PasswordHash, "secret1"))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)
	ctx := context.Background()
	_, err := svc.Register(ctx, NewUser{Username: "sara", Password: "secret1", FullName: "Sara"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, NewUser{Username: "SARA", Password: "secret2", FullName: "Other"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)
	_, err := svc.Register(context.Background(), NewUser{Username: "sara", Password: "secret1", Role: "root"})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestRegisterPropagatesStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("db down")
	svc := NewService(store, nil)
	_, err := svc.Register(context.Background(), NewUser{Username: "sara", Password: "secret1"})
	assert.EqualError(t, err, "db down")
}

func TestUpdateProfileRules(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)
	ctx := context.Background()
	u, err := svc.Register(ctx, NewUser{Username: "sara", Password: "secret1", FullName: "Sara"})
	require.NoError(t, err)

	self := auth.UserContext{UserID: u.ID, Role: auth.RoleEmployee}
	name := "Sara A."
	updated, err := svc.UpdateProfile(ctx, self, u.ID, Patch{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Sara A.", updated.FullName)

	role := auth.RoleAdmin
	_, err = svc.UpdateProfile(ctx, self, u.ID, Patch{Role: &role})
	assert.ErrorIs(t, err, ErrForbidden)

	other := auth.UserContext{UserID: "someone", Role: auth.RoleManager}
	_, err = svc.UpdateProfile(ctx, other, u.ID, Patch{FullName: &name})
	assert.ErrorIs(t, err, ErrForbidden)

	admin := auth.UserContext{UserID: "admin", Role: auth.RoleAdmin}
	manager := "Manager"
	updated, err = svc.UpdateProfile(ctx, admin, u.ID, Patch{Role: &manager})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleManager, updated.Role)
	assert.Equal(t, "Sara A.", updated.FullName)
}

func TestListPagination(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)
	ctx := context.Background()
	for _, name := range []string{"aa1", "bb2", "cc3", "dd4", "ee5"} {
		_, err := svc.Register(ctx, NewUser{Username: name, Password: "secret1", FullName: name, Department: "IT"})
		require.NoError(t, err)
	}

	res, err := svc.List(ctx, Filter{Department: "it"}, 2, 2)
	require.NoError(t, err)
	assert.Len(t, res.Users, 2)
	assert.Equal(t, Page{CurrentPage: 2, TotalPages: 3, TotalUsers: 5, UsersPerPage: 2, HasNextPage: true, HasPrevPage: true}, res.Pagination)

	res, err = svc.List(ctx, Filter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pagination.CurrentPage)
	assert.Equal(t, 10, res.Pagination.UsersPerPage)
	assert.False(t, res.Pagination.HasPrevPage)
}

func TestByDepartmentCaseInsensitive(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)
	ctx := context.Background()
	_, err := svc.Register(ctx, NewUser{Username: "sara", Password: "secret1", Department: "Finance"})
	require.NoError(t, err)

	list, err := svc.ByDepartment(ctx, "FINANCE")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = svc.ByDepartment(ctx, "HR")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFilterFields(t *testing.T) {
	u := User{ID: "u1", Phone: "0100", Email: "a@b.c", LeaveBalances: []LeaveBalance{{LeaveTypeID: "t", AvailableDays: 3}}}

	own := u
	FilterFields(&own, auth.UserContext{UserID: "u1", Role: auth.RoleEmployee})
	assert.Equal(t, "0100", own.Phone)

	admin := u
	FilterFields(&admin, auth.UserContext{UserID: "x", Role: auth.RoleAdmin})
	assert.NotEmpty(t, admin.LeaveBalances)

	other := u
	FilterFields(&other, auth.UserContext{UserID: "x", Role: auth.RoleManager})
	assert.Empty(t, other.Phone)
	assert.Empty(t, other.Email)
	assert.Nil(t, other.LeaveBalances)
}

func TestNewPageEmpty(t *testing.T) {
	p := NewPage(1, 10, 0)
	assert.Equal(t, 0, p.TotalPages)
	assert.False(t, p.HasNextPage)
}
