package pageauth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Verifications stores single-use email verification tokens and two-factor
// login challenges.
type Verifications interface {
	repository.Repository[*Verification]

	FindPending(ctx context.Context, id uuid.UUID, purpose string) (*Verification, error)
	FindPendingTx(ctx context.Context, tx bun.IDB, id uuid.UUID, purpose string) (*Verification, error)
	LatestForUser(ctx context.Context, userID uuid.UUID, purpose string) (*Verification, error)
	LatestForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, purpose string) (*Verification, error)
}

type verifications struct {
	repository.Repository[*Verification]
	db *bun.DB
}

var _ Verifications = (*verifications)(nil)

func NewVerificationsRepository(db *bun.DB) Verifications {
	repo := repository.NewRepository[*Verification](db, repository.ModelHandlers[*Verification]{
		NewRecord: func() *Verification { return &Verification{} },
		GetID: func(v *Verification) uuid.UUID {
			if v == nil {
				return uuid.Nil
			}
			return v.ID
		},
		SetID: func(v *Verification, id uuid.UUID) {
			if v != nil {
				v.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &verifications{
		Repository: repo,
		db:         db,
	}
}

func (r *verifications) FindPending(ctx context.Context, id uuid.UUID, purpose string) (*Verification, error) {
	return r.FindPendingTx(ctx, r.db, id, purpose)
}

func (r *verifications) FindPendingTx(ctx context.Context, tx bun.IDB, id uuid.UUID, purpose string) (*Verification, error) {
	record := &Verification{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.purpose = ?", purpose).
		Where("?TableAlias.consumed_at IS NULL").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id":      id.String(),
					"purpose": purpose,
				})
		}
		return nil, err
	}

	return record, nil
}

func (r *verifications) LatestForUser(ctx context.Context, userID uuid.UUID, purpose string) (*Verification, error) {
	return r.LatestForUserTx(ctx, r.db, userID, purpose)
}

func (r *verifications) LatestForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, purpose string) (*Verification, error) {
	record := &Verification{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.purpose = ?", purpose).
		Where("?TableAlias.consumed_at IS NULL").
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"user_id": userID.String(),
					"purpose": purpose,
				})
		}
		return nil, err
	}

	return record, nil
}
