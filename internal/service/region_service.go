package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/adim-imoveis/imovel-certo/internal/access"
	"github.com/adim-imoveis/imovel-certo/internal/domain"
	"github.com/adim-imoveis/imovel-certo/internal/repository"
	apperrors "github.com/adim-imoveis/imovel-certo/pkg/util/errorutil"
)

// RegionService exposes the catalog of known region keys.
type RegionService struct {
	regions       repository.RegionRepository
	users         repository.UserRepository
	static        []string
	defaultRegion string
	logger        *zap.Logger
}

// RegionDependencies bundles collaborators.
type RegionDependencies struct {
	RegionRepo    repository.RegionRepository
	UserRepo      repository.UserRepository
	StaticRegions []string
	DefaultRegion string
	Logger        *zap.Logger
}

// RegionUpsertInput carries admin edits to a region.
type RegionUpsertInput struct {
	ManagerID *string
	Active    *bool
	Settings  json.RawMessage
}

// NewRegionService builds the service.
func NewRegionService(deps RegionDependencies) *RegionService {
	def := access.NormalizeRegion(deps.DefaultRegion)
	if def == "" {
		def = "general"
	}
	return &RegionService{
		regions:       deps.RegionRepo,
		users:         deps.UserRepo,
		static:        access.NormalizeAll(deps.StaticRegions),
		defaultRegion: def,
		logger:        nopLogger(deps.Logger),
	}
}

// DefaultRegion returns the normalized fallback region key.
func (s *RegionService) DefaultRegion() string {
	return s.defaultRegion
}

// KnownRegions returns active configured keys, or the static list when no
// configuration rows exist or the store is unreachable.
func (s *RegionService) KnownRegions(ctx context.Context) []string {
	if s.regions != nil {
		rows, err := s.regions.List(ctx, true)
		if err != nil {
			s.logger.Warn("region catalog unavailable; using static list", zap.Error(err))
		} else if len(rows) > 0 {
			keys := make([]string, 0, len(rows))
			for _, row := range rows {
				keys = append(keys, row.Key)
			}
			return access.NormalizeAll(keys)
		}
	}
	keys := append([]string{}, s.static...)
	if len(keys) == 0 {
		keys = []string{s.defaultRegion}
	}
	return keys
}

// IsKnown reports whether region normalizes to a known key.
func (s *RegionService) IsKnown(ctx context.Context, region string) bool {
	key := access.NormalizeRegion(region)
	if key == "" {
		return false
	}
	for _, known := range s.KnownRegions(ctx) {
		if known == key {
			return true
		}
	}
	return false
}

// ResolveTarget picks a demand's target region: the explicit value, else a
// known region named by the desired sub-area, else the requester's home
// region, else the default. An explicit value that is not a known region is
// a validation error.
func (s *RegionService) ResolveTarget(ctx context.Context, explicit, subArea, homeRegion string) (string, error) {
	known := s.KnownRegions(ctx)
	isKnown := func(key string) bool {
		for _, k := range known {
			if k == key {
				return true
			}
		}
		return false
	}

	if strings.TrimSpace(explicit) != "" {
		key := access.NormalizeRegion(explicit)
		if !isKnown(key) {
			return "", apperrors.NewValidationError("unknown target region", map[string]any{
				"target_region": explicit,
				"known":         known,
			})
		}
		return key, nil
	}
	if key := matchRegion(access.NormalizeRegion(subArea), known); key != "" {
		return key, nil
	}
	if key := access.NormalizeRegion(homeRegion); key != "" && isKnown(key) {
		return key, nil
	}
	return s.defaultRegion, nil
}

// matchRegion returns the longest known key that equals subArea or appears in
// it as a whole underscore-separated token run.
func matchRegion(subArea string, known []string) string {
	if subArea == "" {
		return ""
	}
	padded := "_" + subArea + "_"
	best := ""
	for _, key := range known {
		if key == "" {
			continue
		}
		if strings.Contains(padded, "_"+key+"_") && len(key) > len(best) {
			best = key
		}
	}
	return best
}

// List returns region configurations. When none are stored the static
// catalog is returned as active, unmanaged entries.
func (s *RegionService) List(ctx context.Context, p access.Principal) ([]domain.RegionConfig, error) {
	if _, err := access.Resolve(p); err != nil {
		return nil, err
	}
	rows, err := s.regions.List(ctx, false)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(rows) > 0 {
		return rows, nil
	}
	out := make([]domain.RegionConfig, 0, len(s.static))
	for _, key := range s.static {
		out = append(out, domain.RegionConfig{Key: key, Active: true, Settings: json.RawMessage(`{}`)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Upsert creates or edits a region configuration. Admin only.
func (s *RegionService) Upsert(ctx context.Context, p access.Principal, rawKey string, input RegionUpsertInput) (*domain.RegionConfig, error) {
	if p.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("access denied: admin only")
	}
	key := access.NormalizeRegion(rawKey)
	if key == "" {
		return nil, apperrors.NewValidationError("region key is required", map[string]any{"key": rawKey})
	}

	region, err := s.regions.GetByKey(ctx, key)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return nil, apperrors.MapError(err)
		}
		region = &domain.RegionConfig{Key: key, Active: true, Settings: json.RawMessage(`{}`)}
	}

	if input.ManagerID != nil {
		if *input.ManagerID == "" {
			region.ManagerID = nil
		} else {
			manager, err := s.users.GetByID(ctx, *input.ManagerID)
			if err != nil {
				return nil, notFoundOr(err, "user", *input.ManagerID)
			}
			if manager.Role != domain.RoleRegionalManager || !manager.Active {
				return nil, apperrors.NewValidationError("region manager must be an active regional manager", map[string]any{"manager_id": *input.ManagerID})
			}
			region.ManagerID = &manager.ID
		}
	}
	if input.Active != nil {
		region.Active = *input.Active
	}
	if len(input.Settings) > 0 {
		var settings map[string]any
		if err := json.Unmarshal(input.Settings, &settings); err != nil {
			return nil, apperrors.NewValidationError("settings must be a JSON object", nil)
		}
		region.Settings = input.Settings
	}

	if err := s.regions.Upsert(ctx, region); err != nil {
		return nil, apperrors.MapError(err)
	}
	return region, nil
}
