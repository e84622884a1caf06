package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/adim-imoveis/imovel-certo/internal/access"
	"github.com/adim-imoveis/imovel-certo/internal/domain"
	"github.com/adim-imoveis/imovel-certo/internal/events"
	"github.com/adim-imoveis/imovel-certo/internal/observability"
	"github.com/adim-imoveis/imovel-certo/internal/repository"
	apperrors "github.com/adim-imoveis/imovel-certo/pkg/util/errorutil"
)

// generatedCode matches the codes SubmitDemand hands out. Clients may not
// supply one, so a generated code never collides with a supplied code.
var generatedCode = regexp.MustCompile(`^DEM-\d{8}-\d{6}$`)

// IntakeService validates, persists and routes new demands.
type IntakeService struct {
	tx         repository.Transactor
	demands    repository.DemandRepository
	regions    *RegionService
	assigner   *AssignmentService
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// IntakeDependencies bundles collaborators for the intake service.
type IntakeDependencies struct {
	Transactor repository.Transactor
	DemandRepo repository.DemandRepository
	Regions    *RegionService
	Assigner   *AssignmentService
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
}

// DemandInput describes a demand submission.
type DemandInput struct {
	Code            string
	Consultant      string
	Client          string
	Contact         string
	PropertyType    string
	DesiredArea     string
	TargetRegion    string
	RentRange       string
	DesiredFeatures string
	Deadline        string
	Notes           string
}

// DemandUpdateInput carries free-text corrections; nil fields are unchanged.
type DemandUpdateInput struct {
	Consultant      *string
	Client          *string
	Contact         *string
	PropertyType    *string
	DesiredArea     *string
	RentRange       *string
	DesiredFeatures *string
	Deadline        *string
	Notes           *string
}

// DemandListFilter describes demand listing filters.
type DemandListFilter struct {
	Region       *string
	OrphanedOnly bool
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Page
}

// SyncResult counts the outcome of a reconciliation pass.
type SyncResult struct {
	Created  int `json:"created"`
	Existing int `json:"existing"`
	Orphaned int `json:"orphaned"`
	Failed   int `json:"failed"`
}

// NewIntakeService constructs the service.
func NewIntakeService(deps IntakeDependencies) *IntakeService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &IntakeService{
		tx:         deps.Transactor,
		demands:    deps.DemandRepo,
		regions:    deps.Regions,
		assigner:   deps.Assigner,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     nopLogger(deps.Logger),
		now:        clock,
	}
}

// SubmitDemand persists a demand and, in the same transaction, assigns it to
// the first active field agent of its target region. A failed assignment
// rolls back to a savepoint and leaves the demand orphaned instead of
// dropping it.
func (s *IntakeService) SubmitDemand(ctx context.Context, p access.Principal, input DemandInput) (*domain.Demand, error) {
	input = input.trimmed()
	if missing := missingFields(map[string]string{
		"consultant":    input.Consultant,
		"client":        input.Client,
		"contact":       input.Contact,
		"property_type": input.PropertyType,
		"desired_area":  input.DesiredArea,
		"rent_range":    input.RentRange,
		"deadline":      input.Deadline,
	}, "consultant", "client", "contact", "property_type", "desired_area", "rent_range", "deadline"); len(missing) > 0 {
		return nil, apperrors.NewValidationError("required fields missing", map[string]any{"fields": missing})
	}
	if generatedCode.MatchString(input.Code) {
		return nil, apperrors.NewValidationError("code uses the reserved DEM-YYYYMMDD-NNNNNN format", map[string]any{"fields": []string{"code"}})
	}

	scope, err := access.Resolve(p)
	if err != nil {
		return nil, err
	}

	region, err := s.regions.ResolveTarget(ctx, input.TargetRegion, input.DesiredArea, p.HomeRegion)
	if err != nil {
		return nil, err
	}
	if !scope.AllowsRegion(region) {
		return nil, apperrors.NewForbidden(fmt.Sprintf("access denied: region %q is outside your scope", region))
	}

	demand := &domain.Demand{
		Code:            input.Code,
		Consultant:      input.Consultant,
		Client:          input.Client,
		Contact:         input.Contact,
		PropertyType:    input.PropertyType,
		DesiredArea:     input.DesiredArea,
		TargetRegion:    region,
		RentRange:       input.RentRange,
		DesiredFeatures: input.DesiredFeatures,
		Deadline:        input.Deadline,
		Notes:           input.Notes,
		CreatedByID:     strPtr(p.UserID),
	}

	var (
		mission      *domain.Mission
		outcome      AssignmentOutcome
		orphanReason string
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if demand.Code == "" {
			seq, err := s.demands.NextCodeSequence(ctx)
			if err != nil {
				return err
			}
			demand.Code = fmt.Sprintf("DEM-%s-%06d", s.now().UTC().Format("20060102"), seq)
		}
		if err := s.demands.Create(ctx, demand); err != nil {
			if apperrors.HasCode(apperrors.MapError(err), "CONFLICT") {
				return apperrors.NewConflict("demand code already exists", map[string]any{"code": demand.Code})
			}
			return err
		}

		assignErr := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			mission, outcome, err = s.assigner.AutoAssign(ctx, demand, demand.CreatedByID)
			return err
		})
		if assignErr != nil {
			s.logger.Error("auto-assignment failed", zap.String("demand_code", demand.Code), zap.Error(assignErr))
			mission, outcome, orphanReason = nil, AssignmentOrphaned, "assignment failed"
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	demand.HasMission = outcome == AssignmentCreated
	s.metrics.Inc("demands_created")
	created := events.New(events.EventDemandCreated, actorOf(p), events.DemandCreatedPayload{
		Code:         demand.Code,
		TargetRegion: demand.TargetRegion,
		Client:       demand.Client,
	})
	created.DemandID = demand.ID
	publish(ctx, s.dispatcher, created)
	s.assigner.Announce(ctx, actorOf(p), demand, mission, outcome, orphanReason)

	return demand, nil
}

// ListDemands returns demands within the caller's allowed regions.
func (s *IntakeService) ListDemands(ctx context.Context, p access.Principal, filter DemandListFilter) ([]domain.Demand, error) {
	scope, err := access.Resolve(p)
	if err != nil {
		return nil, err
	}
	repoFilter := repository.DemandFilter{
		Scope:        demandScope(scope),
		OrphanedOnly: filter.OrphanedOnly,
		SearchTerm:   filter.SearchTerm,
		CreatedFrom:  filter.CreatedFrom,
		CreatedTo:    filter.CreatedTo,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	if filter.Region != nil && strings.TrimSpace(*filter.Region) != "" {
		region := access.NormalizeRegion(*filter.Region)
		repoFilter.Region = &region
	}
	demands, err := s.demands.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return demands, nil
}

// GetDemand returns a single demand within the caller's allowed regions.
func (s *IntakeService) GetDemand(ctx context.Context, p access.Principal, id string) (*domain.Demand, error) {
	scope, err := access.Resolve(p)
	if err != nil {
		return nil, err
	}
	demand, err := s.demands.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "demand", id)
	}
	if !scope.AllowsRegion(demand.TargetRegion) {
		return nil, apperrors.NewForbidden("access denied: demand is outside your regions")
	}
	return demand, nil
}

// UpdateDemand edits free-text fields. The business code and target region
// never change.
func (s *IntakeService) UpdateDemand(ctx context.Context, p access.Principal, id string, input DemandUpdateInput) (*domain.Demand, error) {
	scope, err := access.Resolve(p)
	if err != nil {
		return nil, err
	}
	var demand *domain.Demand
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		d, err := s.demands.LockByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "demand", id)
		}
		demand = d
		if !scope.CanManageRegion(demand.TargetRegion) {
			return apperrors.NewForbidden("access denied: cannot edit demands in this region")
		}

		var empty []string
		apply := func(name string, dst *string, src *string, required bool) {
			if src == nil {
				return
			}
			v := strings.TrimSpace(*src)
			if required && v == "" {
				empty = append(empty, name)
				return
			}
			*dst = v
		}
		apply("consultant", &demand.Consultant, input.Consultant, true)
		apply("client", &demand.Client, input.Client, true)
		apply("contact", &demand.Contact, input.Contact, true)
		apply("property_type", &demand.PropertyType, input.PropertyType, true)
		apply("desired_area", &demand.DesiredArea, input.DesiredArea, true)
		apply("rent_range", &demand.RentRange, input.RentRange, true)
		apply("desired_features", &demand.DesiredFeatures, input.DesiredFeatures, false)
		apply("deadline", &demand.Deadline, input.Deadline, true)
		apply("notes", &demand.Notes, input.Notes, false)
		if len(empty) > 0 {
			return apperrors.NewValidationError("required fields cannot be blank", map[string]any{"fields": empty})
		}

		if err := s.demands.Update(ctx, demand); err != nil {
			return notFoundOr(err, "demand", id)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return demand, nil
}

// SyncMissions assigns every demand that has no mission yet. Each demand is
// handled in its own transaction under a row lock, so concurrent or repeated
// runs never create a second mission for a demand.
func (s *IntakeService) SyncMissions(ctx context.Context, p access.Principal) (*SyncResult, error) {
	if !p.Role.Unrestricted() {
		return nil, apperrors.NewForbidden("access denied: admin or director only")
	}

	refs, err := s.demands.ListRefs(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	result := &SyncResult{}
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if ref.HasMission {
			result.Existing++
			continue
		}

		var (
			demand  *domain.Demand
			mission *domain.Mission
			outcome AssignmentOutcome
		)
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			demand, err = s.demands.LockByID(ctx, ref.ID)
			if err != nil {
				return err
			}
			mission, outcome, err = s.assigner.AutoAssign(ctx, demand, strPtr(p.UserID))
			return err
		})
		if err != nil {
			result.Failed++
			s.logger.Error("mission sync failed for demand", zap.String("demand_code", ref.Code), zap.Error(err))
			continue
		}

		switch outcome {
		case AssignmentCreated:
			result.Created++
		case AssignmentExisting:
			result.Existing++
		case AssignmentOrphaned:
			result.Orphaned++
		}
		s.assigner.Announce(ctx, actorOf(p), demand, mission, outcome, "")
	}

	s.logger.Info("mission sync finished",
		zap.Int("created", result.Created),
		zap.Int("existing", result.Existing),
		zap.Int("orphaned", result.Orphaned),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (in DemandInput) trimmed() DemandInput {
	return DemandInput{
		Code:            strings.TrimSpace(in.Code),
		Consultant:      strings.TrimSpace(in.Consultant),
		Client:          strings.TrimSpace(in.Client),
		Contact:         strings.TrimSpace(in.Contact),
		PropertyType:    strings.TrimSpace(in.PropertyType),
		DesiredArea:     strings.TrimSpace(in.DesiredArea),
		TargetRegion:    strings.TrimSpace(in.TargetRegion),
		RentRange:       strings.TrimSpace(in.RentRange),
		DesiredFeatures: strings.TrimSpace(in.DesiredFeatures),
		Deadline:        strings.TrimSpace(in.Deadline),
		Notes:           strings.TrimSpace(in.Notes),
	}
}
