package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"trivia-builder-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// SetStore keeps sets and categories as JSONB documents. Columns next to the
// document only exist for listing and search.
type SetStore struct {
	pool *pgxpool.Pool
}

func NewSetStore(pool *pgxpool.Pool) *SetStore {
	return &SetStore{pool: pool}
}

// SaveSet upserts the set and its categories and deletes orphaned categories
// in one transaction.
func (s *SetStore) SaveSet(ctx context.Context, set domain.CustomSet, categories []domain.Category, orphaned []string) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal set: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO custom_sets (id, owner_id, is_draft, is_public, tags, category_names, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			is_draft = EXCLUDED.is_draft,
			is_public = EXCLUDED.is_public,
			tags = EXCLUDED.tags,
			category_names = EXCLUDED.category_names,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`,
		set.ID, set.OwnerID, set.IsDraft, set.IsPublic, nonNil(set.Tags), nonNil(set.CategoryNames),
		string(data), set.CreatedAt, set.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert set %s: %w", set.ID, err)
	}

	if len(orphaned) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM set_categories WHERE set_id = $1 AND id = ANY($2)`, set.ID, orphaned); err != nil {
			return fmt.Errorf("delete orphaned categories: %w", err)
		}
	}

	for _, c := range categories {
		raw, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal category %s: %w", c.ID, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO set_categories (id, set_id, round, idx, data)
			VALUES ($1, $2, $3, $4, $5::jsonb)
			ON CONFLICT (id) DO UPDATE SET round = EXCLUDED.round, idx = EXCLUDED.idx, data = EXCLUDED.data`,
			c.ID, set.ID, c.Round, c.Index, string(raw))
		if err != nil {
			return fmt.Errorf("upsert category %s: %w", c.ID, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *SetStore) GetSet(ctx context.Context, setID string) (domain.CustomSet, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM custom_sets WHERE id=$1`, setID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CustomSet{}, domain.ErrSetNotFound
	}
	if err != nil {
		return domain.CustomSet{}, fmt.Errorf("load set: %w", err)
	}
	var set domain.CustomSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return domain.CustomSet{}, fmt.Errorf("unmarshal set %s: %w", setID, domain.ErrMalformedDocument)
	}
	return set, nil
}

func (s *SetStore) GetCategory(ctx context.Context, categoryID string) (domain.Category, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM set_categories WHERE id=$1`, categoryID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	if err != nil {
		return domain.Category{}, fmt.Errorf("load category: %w", err)
	}
	var c domain.Category
	if err := json.Unmarshal(raw, &c); err != nil {
		return domain.Category{}, fmt.Errorf("unmarshal category %s: %w", categoryID, domain.ErrMalformedDocument)
	}
	return c, nil
}

// DeleteSet removes the set; categories go with it through the foreign key.
func (s *SetStore) DeleteSet(ctx context.Context, setID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM custom_sets WHERE id=$1`, setID)
	if err != nil {
		return fmt.Errorf("delete set: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSetNotFound
	}
	return nil
}

func (s *SetStore) ListSets(ctx context.Context, ownerID string, status domain.SetStatus) ([]domain.CustomSet, error) {
	return s.query(ctx, `
		SELECT data FROM custom_sets
		WHERE owner_id = $1 AND is_draft = $2
		ORDER BY updated_at DESC, id`,
		ownerID, status == domain.StatusDraft)
}

func (s *SetStore) SearchSets(ctx context.Context, keyword string) ([]domain.CustomSet, error) {
	return s.query(ctx, `
		SELECT data FROM custom_sets
		WHERE NOT is_draft AND is_public AND ($1 = ANY(tags) OR $1 = ANY(category_names))
		ORDER BY updated_at DESC, id`,
		keyword)
}

func (s *SetStore) query(ctx context.Context, sql string, args ...interface{}) ([]domain.CustomSet, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query sets: %w", err)
	}
	defer rows.Close()

	out := make([]domain.CustomSet, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan set: %w", err)
		}
		var set domain.CustomSet
		if err := json.Unmarshal(raw, &set); err != nil {
			return nil, fmt.Errorf("unmarshal set: %w", domain.ErrMalformedDocument)
		}
		out = append(out, set)
	}
	return out, rows.Err()
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
