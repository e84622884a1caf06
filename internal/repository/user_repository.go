package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adim-imoveis/imovel-certo/internal/domain"
)

// UserRepository handles persistence for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	// ListActiveAgentsInRegion returns active field agents whose home region is
	// region, oldest first. Inside a transaction the rows are share-locked.
	ListActiveAgentsInRegion(ctx context.Context, region string) ([]domain.User, error)
	Count(ctx context.Context) (int64, error)
}

// UserFilter defines query params for user listing.
type UserFilter struct {
	Role    *domain.Role
	Regions []string
	Active  *bool
	Limit   int
	Offset  int
}

const userColumns = `id, name, email, password_hash, role, home_region, COALESCE(responsible_regions, ''), manager_id, active_flag, created_at`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates the repository.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, role, home_region, responsible_regions, manager_id, active_flag)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`

	return executor(ctx, r.pool).QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.HomeRegion,
		joinRegions(user.ResponsibleRegions),
		user.ManagerID,
		user.Active,
	).Scan(&user.ID, &user.CreatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users
        SET name=$1, email=$2, password_hash=$3, role=$4, home_region=$5, responsible_regions=$6, manager_id=$7, active_flag=$8
        WHERE id=$9`

	cmd, err := executor(ctx, r.pool).Exec(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.HomeRegion,
		joinRegions(user.ResponsibleRegions),
		user.ManagerID,
		user.Active,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(executor(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email)=LOWER($1)`
	return scanUser(executor(ctx, r.pool).QueryRow(ctx, query, email))
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	var w whereBuilder
	if filter.Role != nil {
		w.add("role=$%d", *filter.Role)
	}
	if filter.Regions != nil {
		if len(filter.Regions) == 0 {
			return []domain.User{}, nil
		}
		w.in("home_region", filter.Regions)
	}
	if filter.Active != nil {
		w.add("active_flag=$%d", *filter.Active)
	}

	query := `SELECT ` + userColumns + ` FROM users` + w.sql() + ` ORDER BY name ASC, created_at ASC` +
		pageClause(filter.Limit, filter.Offset, 100)

	rows, err := executor(ctx, r.pool).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *userRepository) ListActiveAgentsInRegion(ctx context.Context, region string) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
        WHERE role=$1 AND home_region=$2 AND active_flag
        ORDER BY created_at ASC, id ASC`
	if _, inTx := executor(ctx, r.pool).(pgx.Tx); inTx {
		query += ` FOR SHARE`
	}

	rows, err := executor(ctx, r.pool).Query(ctx, query, domain.RoleFieldAgent, region)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := executor(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user        domain.User
		responsible string
	)
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.HomeRegion,
		&responsible,
		&user.ManagerID,
		&user.Active,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	user.ResponsibleRegions = splitRegions(responsible)
	return &user, nil
}

func scanUsers(rows pgx.Rows) ([]domain.User, error) {
	result := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func joinRegions(regions []string) *string {
	if len(regions) == 0 {
		return nil
	}
	joined := strings.Join(regions, ",")
	return &joined
}

func splitRegions(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
