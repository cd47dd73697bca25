package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

const rbacModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj
`

// Enforcer answers role/permission questions from an in-memory casbin
// policy built from RolePermissions and RoleParents.
type Enforcer struct {
	mu sync.RWMutex
	e  *casbin.Enforcer
}

func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("rbac enforcer: %w", err)
	}

	for role, perms := range RolePermissions {
		for _, perm := range perms {
			if _, err := e.AddPolicy(role, perm); err != nil {
				return nil, err
			}
		}
	}
	for child, parent := range RoleParents {
		if _, err := e.AddGroupingPolicy(child, parent); err != nil {
			return nil, err
		}
	}
	return &Enforcer{e: e}, nil
}

func (en *Enforcer) HasPermission(_ context.Context, role, permission string) (bool, error) {
	if role == "" || permission == "" {
		return false, nil
	}
	en.mu.RLock()
	defer en.mu.RUnlock()
	return en.e.Enforce(role, permission)
}

// Grant adds a permission to a role at runtime.
func (en *Enforcer) Grant(role, permission string) error {
	en.mu.Lock()
	defer en.mu.Unlock()
	_, err := en.e.AddPolicy(role, permission)
	return err
}

func (en *Enforcer) PermissionsFor(role string) ([]string, error) {
	en.mu.RLock()
	defer en.mu.RUnlock()
	var out []string
	for _, perm := range DefaultPermissions {
		ok, err := en.e.Enforce(role, perm)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, perm)
		}
	}
	return out, nil
}
