package access

import (
	"sort"

	"github.com/adim-imoveis/imovel-certo/internal/domain"
	apperrors "github.com/adim-imoveis/imovel-certo/pkg/util/errorutil"
)

// Principal carries the verified claims of the caller.
type Principal struct {
	UserID             string
	Name               string
	Email              string
	Role               domain.Role
	HomeRegion         string
	ResponsibleRegions []string
}

// Scope is the allowed-region set derived from a Principal.
type Scope struct {
	role    domain.Role
	userID  string
	all     bool
	regions map[string]struct{}
}

// Resolve derives the allowed-region set for p. Unknown roles are denied.
func Resolve(p Principal) (Scope, error) {
	scope := Scope{role: p.Role, userID: p.UserID, regions: map[string]struct{}{}}
	switch p.Role {
	case domain.RoleAdmin, domain.RoleDirector:
		scope.all = true
	case domain.RoleRegionalManager:
		regions := NormalizeAll(p.ResponsibleRegions)
		if len(regions) == 0 {
			regions = NormalizeAll([]string{p.HomeRegion})
		}
		for _, r := range regions {
			scope.regions[r] = struct{}{}
		}
	case domain.RoleFieldAgent:
		if home := NormalizeRegion(p.HomeRegion); home != "" {
			scope.regions[home] = struct{}{}
		}
	default:
		return Scope{}, apperrors.NewForbidden("access denied: unrecognized role")
	}
	return scope, nil
}

// Role returns the role the scope was derived from.
func (s Scope) Role() domain.Role { return s.role }

// UserID returns the requester id.
func (s Scope) UserID() string { return s.userID }

// Unrestricted reports whether every region is allowed.
func (s Scope) Unrestricted() bool { return s.all }

// AllowsRegion reports whether region (normalized before comparison) is allowed.
func (s Scope) AllowsRegion(region string) bool {
	if s.all {
		return true
	}
	_, ok := s.regions[NormalizeRegion(region)]
	return ok
}

// Regions returns the sorted allowed keys; nil when unrestricted.
func (s Scope) Regions() []string {
	if s.all {
		return nil
	}
	out := make([]string, 0, len(s.regions))
	for r := range s.regions {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// CanAccessMission applies the mission-level check: agents must own the
// mission, managers need the parent demand's region.
func (s Scope) CanAccessMission(m *domain.Mission) bool {
	if m == nil {
		return false
	}
	switch s.role {
	case domain.RoleAdmin, domain.RoleDirector:
		return true
	case domain.RoleRegionalManager:
		return m.Region != nil && s.AllowsRegion(*m.Region)
	case domain.RoleFieldAgent:
		return m.AssignedTo(s.userID)
	}
	return false
}

// CanDeleteMission is CanAccessMission without the field agent path.
func (s Scope) CanDeleteMission(m *domain.Mission) bool {
	if s.role == domain.RoleFieldAgent {
		return false
	}
	return s.CanAccessMission(m)
}

// CanManageRegion reports whether the caller may write demands or missions in region.
// Field agents may only submit demands in their own region and cannot manage missions.
func (s Scope) CanManageRegion(region string) bool {
	if s.role == domain.RoleFieldAgent {
		return false
	}
	return s.AllowsRegion(region)
}

// Key returns a stable cache key fragment for the scope.
func (s Scope) Key() string {
	switch {
	case s.all:
		return "all"
	case s.role == domain.RoleFieldAgent:
		return "agent:" + s.userID
	}
	key := "regions"
	for _, r := range s.Regions() {
		key += ":" + r
	}
	return key
}
