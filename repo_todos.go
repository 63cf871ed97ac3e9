package pageauth

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Todos scopes every operation to the owning user. A todo that belongs to a
// different owner behaves exactly like a missing record.
type Todos interface {
	repository.Repository[*Todo]

	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Todo, error)
	ListByOwnerTx(ctx context.Context, tx bun.IDB, ownerID uuid.UUID) ([]*Todo, error)
	GetForOwner(ctx context.Context, ownerID, id uuid.UUID) (*Todo, error)
	GetForOwnerTx(ctx context.Context, tx bun.IDB, ownerID, id uuid.UUID) (*Todo, error)
	UpdateForOwner(ctx context.Context, record *Todo) (*Todo, error)
	UpdateForOwnerTx(ctx context.Context, tx bun.IDB, record *Todo) (*Todo, error)
	DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error
	DeleteForOwnerTx(ctx context.Context, tx bun.IDB, ownerID, id uuid.UUID) error
}

type todos struct {
	repository.Repository[*Todo]
	db *bun.DB
}

var _ Todos = (*todos)(nil)

func NewTodosRepository(db *bun.DB) Todos {
	repo := repository.NewRepository[*Todo](db, repository.ModelHandlers[*Todo]{
		NewRecord: func() *Todo { return &Todo{} },
		GetID: func(t *Todo) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *Todo, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
	})

	return &todos{
		Repository: repo,
		db:         db,
	}
}

func (r *todos) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Todo, error) {
	return r.ListByOwnerTx(ctx, r.db, ownerID)
}

func (r *todos) ListByOwnerTx(ctx context.Context, tx bun.IDB, ownerID uuid.UUID) ([]*Todo, error) {
	records := []*Todo{}
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.owner_id = ?", ownerID).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *todos) GetForOwner(ctx context.Context, ownerID, id uuid.UUID) (*Todo, error) {
	return r.GetForOwnerTx(ctx, r.db, ownerID, id)
}

func (r *todos) GetForOwnerTx(ctx context.Context, tx bun.IDB, ownerID, id uuid.UUID) (*Todo, error) {
	record := &Todo{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.owner_id = ?", ownerID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, todoNotFound(ownerID, id)
		}
		return nil, err
	}

	return record, nil
}

func (r *todos) UpdateForOwner(ctx context.Context, record *Todo) (*Todo, error) {
	return r.UpdateForOwnerTx(ctx, r.db, record)
}

func (r *todos) UpdateForOwnerTx(ctx context.Context, tx bun.IDB, record *Todo) (*Todo, error) {
	if _, err := r.GetForOwnerTx(ctx, tx, record.OwnerID, record.ID); err != nil {
		return nil, err
	}

	now := time.Now()
	record.UpdatedAt = &now

	res, err := tx.NewUpdate().
		Model(record).
		Column("text", "completed", "updated_at").
		Where("?TableAlias.id = ?", record.ID).
		Where("?TableAlias.owner_id = ?", record.OwnerID).
		Exec(ctx)

	if err != nil {
		return nil, err
	}

	if err := ensureAffected(res, record.OwnerID, record.ID); err != nil {
		return nil, err
	}

	return r.GetForOwnerTx(ctx, tx, record.OwnerID, record.ID)
}

func (r *todos) DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.DeleteForOwnerTx(ctx, r.db, ownerID, id)
}

func (r *todos) DeleteForOwnerTx(ctx context.Context, tx bun.IDB, ownerID, id uuid.UUID) error {
	res, err := tx.NewDelete().
		Model((*Todo)(nil)).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.owner_id = ?", ownerID).
		Exec(ctx)

	if err != nil {
		return err
	}

	return ensureAffected(res, ownerID, id)
}

func ensureAffected(res sql.Result, ownerID, id uuid.UUID) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return todoNotFound(ownerID, id)
	}

	return nil
}

func todoNotFound(ownerID, id uuid.UUID) error {
	return repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"id":       id.String(),
			"owner_id": ownerID.String(),
		})
}
