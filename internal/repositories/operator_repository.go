package repositories

import (
	"context"

	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

type OperatorRepository interface {
	Create(ctx context.Context, o *models.Operator) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Operator, error)
	GetByEmail(ctx context.Context, email string) (*models.Operator, error)
}

type operatorRepo struct {
	db DB
}

func NewOperatorRepository(db DB) OperatorRepository {
	return &operatorRepo{db: db}
}

func (r *operatorRepo) Create(ctx context.Context, o *models.Operator) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO operators (id, email, password_hash, role, created_at)
        VALUES ($1, $2, $3, $4, NOW())
    `, o.ID, o.Email, o.PasswordHash, string(o.Role))
	return err
}

func (r *operatorRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	return scanOperator(r.db.QueryRow(ctx, baseSelectOperator()+" WHERE id=$1", id))
}

func (r *operatorRepo) GetByEmail(ctx context.Context, email string) (*models.Operator, error) {
	return scanOperator(r.db.QueryRow(ctx, baseSelectOperator()+" WHERE lower(email)=lower($1)", email))
}

func baseSelectOperator() string {
	return `SELECT id, email, password_hash, role, created_at FROM operators`
}

func scanOperator(row pgx.Row) (*models.Operator, error) {
	var (
		o    models.Operator
		role string
	)
	if err := row.Scan(&o.ID, &o.Email, &o.PasswordHash, &role, &o.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	o.Role = models.OperatorRole(role)
	return &o, nil
}
