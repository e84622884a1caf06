package service

import (
	"context"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/adim-imoveis/imovel-certo/internal/access"
	"github.com/adim-imoveis/imovel-certo/internal/auth"
	"github.com/adim-imoveis/imovel-certo/internal/config"
	"github.com/adim-imoveis/imovel-certo/internal/domain"
	"github.com/adim-imoveis/imovel-certo/internal/repository"
	apperrors "github.com/adim-imoveis/imovel-certo/pkg/util/errorutil"
)

// UserService manages accounts: creation, role and region changes, soft
// deactivation and the default seed.
type UserService struct {
	users      repository.UserRepository
	regions    *RegionService
	bcryptCost int
	logger     *zap.Logger
}

// UserDependencies bundles collaborators.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Regions    *RegionService
	BcryptCost int
	Logger     *zap.Logger
}

// UserCreateInput describes a new account.
type UserCreateInput struct {
	Name               string
	Email              string
	Password           string
	Role               string
	HomeRegion         string
	ResponsibleRegions []string
	ManagerID          *string
}

// UserUpdateInput carries admin edits; nil fields are unchanged.
type UserUpdateInput struct {
	Name               *string
	Role               *string
	HomeRegion         *string
	ResponsibleRegions *[]string
	ManagerID          *string
	Active             *bool
	Password           *string
}

// UserListFilter describes account listing filters.
type UserListFilter struct {
	Role   *string
	Region *string
	Active *bool
	Page
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		regions:    deps.Regions,
		bcryptCost: deps.BcryptCost,
		logger:     nopLogger(deps.Logger),
	}
}

func requireDirector(p access.Principal) error {
	if !p.Role.Unrestricted() {
		return apperrors.NewForbidden("access denied: admin or director only")
	}
	return nil
}

// Create adds an account. Only admins may create admins.
func (s *UserService) Create(ctx context.Context, p access.Principal, input UserCreateInput) (*domain.User, error) {
	if err := requireDirector(p); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if missing := missingFields(map[string]string{
		"name":     input.Name,
		"email":    input.Email,
		"password": input.Password,
		"role":     input.Role,
	}, "name", "email", "password", "role"); len(missing) > 0 {
		return nil, apperrors.NewValidationError("required fields missing", map[string]any{"fields": missing})
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, apperrors.NewValidationError("invalid email", map[string]any{"email": input.Email})
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password too short", map[string]any{"min_length": minPasswordLength})
	}
	role, ok := domain.ParseRole(input.Role)
	if !ok {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
	}
	if role == domain.RoleAdmin && p.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("access denied: only admins can create admins")
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
	} else if !apperrors.IsNotFound(err) {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:   input.Name,
		Email:  input.Email,
		Role:   role,
		Active: true,
	}
	if err := s.applyRegions(ctx, user, input.HomeRegion, input.ResponsibleRegions); err != nil {
		return nil, err
	}
	if err := s.applyManager(ctx, user, input.ManagerID); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.HasCode(apperrors.MapError(err), "CONFLICT") {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// List returns accounts. Admin and director only.
func (s *UserService) List(ctx context.Context, p access.Principal, filter UserListFilter) ([]domain.User, error) {
	if err := requireDirector(p); err != nil {
		return nil, err
	}
	repoFilter := repository.UserFilter{Active: filter.Active, Limit: filter.Limit, Offset: filter.Offset}
	if filter.Role != nil && strings.TrimSpace(*filter.Role) != "" {
		role, ok := domain.ParseRole(*filter.Role)
		if !ok {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *filter.Role})
		}
		repoFilter.Role = &role
	}
	if filter.Region != nil && strings.TrimSpace(*filter.Region) != "" {
		repoFilter.Regions = []string{access.NormalizeRegion(*filter.Region)}
	}
	users, err := s.users.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// ListAgents returns active field agents the caller supervises: every agent
// for admin and director, agents homed in the allowed regions for managers.
func (s *UserService) ListAgents(ctx context.Context, p access.Principal, page Page) ([]domain.User, error) {
	scope, err := access.Resolve(p)
	if err != nil {
		return nil, err
	}
	if scope.Role() == domain.RoleFieldAgent {
		return nil, apperrors.NewForbidden("access denied: field agents cannot list agents")
	}
	role := domain.RoleFieldAgent
	filter := repository.UserFilter{Role: &role, Active: ptrBool(true), Limit: page.Limit, Offset: page.Offset}
	if !scope.Unrestricted() {
		filter.Regions = scope.Regions()
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Update edits an account.
func (s *UserService) Update(ctx context.Context, p access.Principal, id string, input UserUpdateInput) (*domain.User, error) {
	if err := requireDirector(p); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	if user.Role == domain.RoleAdmin && p.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("access denied: only admins can edit admins")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name cannot be blank", nil)
		}
		user.Name = name
	}
	if input.Role != nil {
		role, ok := domain.ParseRole(*input.Role)
		if !ok {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *input.Role})
		}
		if role == domain.RoleAdmin && p.Role != domain.RoleAdmin {
			return nil, apperrors.NewForbidden("access denied: only admins can grant admin")
		}
		user.Role = role
	}
	if input.HomeRegion != nil || input.ResponsibleRegions != nil || input.Role != nil {
		home := user.HomeRegion
		if input.HomeRegion != nil {
			home = *input.HomeRegion
		}
		responsible := user.ResponsibleRegions
		if input.ResponsibleRegions != nil {
			responsible = *input.ResponsibleRegions
		}
		if err := s.applyRegions(ctx, user, home, responsible); err != nil {
			return nil, err
		}
	}
	if input.ManagerID != nil {
		if err := s.applyManager(ctx, user, input.ManagerID); err != nil {
			return nil, err
		}
	}
	if input.Active != nil {
		if !*input.Active && user.ID == p.UserID {
			return nil, apperrors.NewConflict("cannot deactivate your own account", nil)
		}
		user.Active = *input.Active
	}
	if input.Password != nil {
		if len(*input.Password) < minPasswordLength {
			return nil, apperrors.NewValidationError("password too short", map[string]any{"min_length": minPasswordLength})
		}
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	return user, nil
}

// Deactivate soft-deletes an account.
func (s *UserService) Deactivate(ctx context.Context, p access.Principal, id string) (*domain.User, error) {
	inactive := false
	return s.Update(ctx, p, id, UserUpdateInput{Active: &inactive})
}

// applyRegions normalizes and validates the home region and, for regional
// managers only, the responsible-regions list.
func (s *UserService) applyRegions(ctx context.Context, user *domain.User, home string, responsible []string) error {
	homeKey := access.NormalizeRegion(home)
	if homeKey == "" {
		homeKey = s.regions.DefaultRegion()
	}
	var unknown []string
	if !s.regions.IsKnown(ctx, homeKey) {
		unknown = append(unknown, homeKey)
	}

	var keys []string
	if user.Role == domain.RoleRegionalManager {
		keys = access.NormalizeAll(responsible)
		for _, key := range keys {
			if !s.regions.IsKnown(ctx, key) {
				unknown = append(unknown, key)
			}
		}
	}
	if len(unknown) > 0 {
		return apperrors.NewValidationError("unknown region", map[string]any{"regions": unknown})
	}
	user.HomeRegion = homeKey
	user.ResponsibleRegions = keys
	return nil
}

func (s *UserService) applyManager(ctx context.Context, user *domain.User, managerID *string) error {
	if managerID == nil || strings.TrimSpace(*managerID) == "" {
		user.ManagerID = nil
		return nil
	}
	manager, err := s.users.GetByID(ctx, *managerID)
	if err != nil {
		return notFoundOr(err, "manager", *managerID)
	}
	if manager.Role != domain.RoleRegionalManager && !manager.Role.Unrestricted() {
		return apperrors.NewValidationError("supervisor must be a manager or director", map[string]any{"manager_id": *managerID})
	}
	if manager.ID == user.ID {
		return apperrors.NewValidationError("user cannot supervise themselves", nil)
	}
	user.ManagerID = &manager.ID
	return nil
}

type seedUser struct {
	name        string
	email       string
	role        domain.Role
	home        string
	responsible []string
}

var defaultUsers = []seedUser{
	{"Administrador", "admin@adimimoveis.com.br", domain.RoleAdmin, "General", nil},
	{"Diretor Geral", "diretor@adimimoveis.com.br", domain.RoleDirector, "General", nil},
	{"Lidiane Silva", "lidiane@adimimoveis.com.br", domain.RoleRegionalManager, "Balneario_Camboriu", []string{"Balneario_Camboriu", "Itajai"}},
	{"Pedro (Gerente Itapema)", "pedro@adimimoveis.com.br", domain.RoleRegionalManager, "Itapema", []string{"Itapema"}},
	{"Jenifer de Souza", "jenifer@adimimoveis.com.br", domain.RoleFieldAgent, "Itapema", nil},
	{"Carlos Santos", "carlos@adimimoveis.com.br", domain.RoleFieldAgent, "Balneario_Camboriu", nil},
	{"Ana Costa", "ana@adimimoveis.com.br", domain.RoleFieldAgent, "Balneario_Camboriu", nil},
	{"Roberto Lima", "roberto@adimimoveis.com.br", domain.RoleFieldAgent, "Itajai", nil},
	{"Fernanda Oliveira", "fernanda@adimimoveis.com.br", domain.RoleFieldAgent, "Itajai", nil},
}

// SeedDefaults inserts the default accounts when the users table is empty.
// It returns the number of accounts created.
func (s *UserService) SeedDefaults(ctx context.Context, cfg config.SeedConfig) (int, error) {
	if !cfg.Enabled {
		return 0, nil
	}
	count, err := s.users.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	hash, err := auth.HashPassword(cfg.DefaultPassword, s.bcryptCost)
	if err != nil {
		return 0, err
	}
	created := 0
	for _, seed := range defaultUsers {
		user := &domain.User{
			Name:               seed.name,
			Email:              seed.email,
			PasswordHash:       hash,
			Role:               seed.role,
			HomeRegion:         access.NormalizeRegion(seed.home),
			ResponsibleRegions: access.NormalizeAll(seed.responsible),
			Active:             true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return created, err
		}
		created++
	}
	s.logger.Info("default users seeded", zap.Int("count", created))
	return created, nil
}
