package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/feedkeeper/internal/model"
)

// PostgresSeenStateRepo はPostgreSQLを使用した既読状態リポジトリ。
type PostgresSeenStateRepo struct {
	db *sql.DB
}

// NewPostgresSeenStateRepo はPostgresSeenStateRepoを生成する。
func NewPostgresSeenStateRepo(db *sql.DB) *PostgresSeenStateRepo {
	return &PostgresSeenStateRepo{db: db}
}

// FindByUserAndItem はユーザーIDと記事IDで既読状態を取得する。
// 行が存在しない場合はnilを返す（未読を意味し、エラーではない）。
func (r *PostgresSeenStateRepo) FindByUserAndItem(ctx context.Context, userID, itemID string) (*model.SeenState, error) {
	state := &model.SeenState{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, item_id, seen, updated_at, created_at
		 FROM seen_states WHERE user_id = $1 AND item_id = $2`,
		userID, itemID,
	).Scan(&state.ID, &state.UserID, &state.ItemID, &state.Seen, &state.UpdatedAt, &state.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("既読状態の取得に失敗しました: %w", err)
	}

	return state, nil
}

// Upsert は既読フラグを冪等にUPSERTする。
// UNIQUE(user_id, item_id)制約を利用したINSERT ON CONFLICTで実装するため、
// 同一(user, item)に対する並行更新でも行は1つに収束する。
func (r *PostgresSeenStateRepo) Upsert(ctx context.Context, userID, itemID string, seen bool) (*model.SeenState, error) {
	now := time.Now().UTC()
	state := &model.SeenState{
		ID:        uuid.New().String(),
		UserID:    userID,
		ItemID:    itemID,
		Seen:      seen,
		UpdatedAt: now,
		CreatedAt: now,
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO seen_states (id, user_id, item_id, seen, updated_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, item_id) DO UPDATE SET
		     seen = EXCLUDED.seen,
		     updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at`,
		state.ID, state.UserID, state.ItemID, state.Seen, state.UpdatedAt, state.CreatedAt,
	).Scan(&state.ID, &state.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("既読状態の更新に失敗しました: %w", err)
	}

	return state, nil
}

// compile-time interface check
var _ SeenStateRepository = (*PostgresSeenStateRepo)(nil)
