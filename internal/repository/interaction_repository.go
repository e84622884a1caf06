package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adim-imoveis/imovel-certo/internal/domain"
)

// InteractionRepository manages the mission interaction log.
type InteractionRepository interface {
	Create(ctx context.Context, interaction *domain.Interaction) error
	ListByMission(ctx context.Context, missionID string) ([]domain.Interaction, error)
	DeleteByMission(ctx context.Context, missionID string) error
}

type interactionRepository struct {
	pool *pgxpool.Pool
}

// NewInteractionRepository creates repository.
func NewInteractionRepository(pool *pgxpool.Pool) InteractionRepository {
	return &interactionRepository{pool: pool}
}

func (r *interactionRepository) Create(ctx context.Context, interaction *domain.Interaction) error {
	const query = `
        INSERT INTO interactions (mission_id, user_id, user_name, description)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return executor(ctx, r.pool).QueryRow(ctx, query,
		interaction.MissionID,
		interaction.UserID,
		interaction.UserName,
		interaction.Description,
	).Scan(&interaction.ID, &interaction.CreatedAt)
}

func (r *interactionRepository) ListByMission(ctx context.Context, missionID string) ([]domain.Interaction, error) {
	const query = `
        SELECT id, mission_id, user_id, user_name, description, created_at
        FROM interactions WHERE mission_id=$1
        ORDER BY created_at DESC, id DESC`
	rows, err := executor(ctx, r.pool).Query(ctx, query, missionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Interaction{}
	for rows.Next() {
		var item domain.Interaction
		if err := rows.Scan(&item.ID, &item.MissionID, &item.UserID, &item.UserName, &item.Description, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *interactionRepository) DeleteByMission(ctx context.Context, missionID string) error {
	_, err := executor(ctx, r.pool).Exec(ctx, `DELETE FROM interactions WHERE mission_id=$1`, missionID)
	return err
}
