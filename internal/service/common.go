package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/adim-imoveis/imovel-certo/internal/access"
	"github.com/adim-imoveis/imovel-certo/internal/domain"
	"github.com/adim-imoveis/imovel-certo/internal/events"
	"github.com/adim-imoveis/imovel-certo/internal/repository"
	apperrors "github.com/adim-imoveis/imovel-certo/pkg/util/errorutil"
)

// Page bounds list queries.
type Page struct {
	Limit  int
	Offset int
}

// missionScope narrows mission queries: agents by ownership, managers by region.
func missionScope(scope access.Scope) repository.ScopeFilter {
	switch {
	case scope.Unrestricted():
		return repository.ScopeFilter{}
	case scope.Role() == domain.RoleFieldAgent:
		id := scope.UserID()
		return repository.ScopeFilter{AgentID: &id}
	default:
		return repository.ScopeFilter{Regions: scope.Regions()}
	}
}

// demandScope narrows demand queries by region only.
func demandScope(scope access.Scope) repository.ScopeFilter {
	if scope.Unrestricted() {
		return repository.ScopeFilter{}
	}
	return repository.ScopeFilter{Regions: scope.Regions()}
}

func notFoundOr(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	if apperrors.IsNotFound(err) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return apperrors.MapError(err)
}

func actorOf(p access.Principal) events.Actor {
	return events.Actor{UserID: p.UserID, Role: p.Role}
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, event)
}

func missingFields(fields map[string]string, order ...string) []string {
	var missing []string
	for _, name := range order {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func strPtr(v string) *string {
	return &v
}

func ptrBool(v bool) *bool {
	return &v
}

func nopLogger(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
