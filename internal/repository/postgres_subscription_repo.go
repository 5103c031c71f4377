package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/feedkeeper/internal/model"
)

// PostgresSubscriptionRepo はPostgreSQLを使用した購読リポジトリ。
type PostgresSubscriptionRepo struct {
	db *sql.DB
}

// NewPostgresSubscriptionRepo はPostgresSubscriptionRepoを生成する。
func NewPostgresSubscriptionRepo(db *sql.DB) *PostgresSubscriptionRepo {
	return &PostgresSubscriptionRepo{db: db}
}

// FindByUserAndChannel はユーザーIDとチャンネルIDで購読を検索する。見つからない場合はnilを返す。
func (r *PostgresSubscriptionRepo) FindByUserAndChannel(ctx context.Context, userID, channelID string) (*model.Subscription, error) {
	sub := &model.Subscription{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, channel_id, created_at
		 FROM subscriptions WHERE user_id = $1 AND channel_id = $2`,
		userID, channelID,
	).Scan(&sub.ID, &sub.UserID, &sub.ChannelID, &sub.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("購読の取得に失敗しました: %w", err)
	}

	return sub, nil
}

// Ensure は購読を冪等に作成する。
// UNIQUE(user_id, channel_id)制約を利用したINSERT ON CONFLICTにより、
// 既存の購読がある場合は何もしない。
func (r *PostgresSubscriptionRepo) Ensure(ctx context.Context, subscription *model.Subscription) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (id, user_id, channel_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, channel_id) DO NOTHING`,
		subscription.ID, subscription.UserID, subscription.ChannelID, subscription.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("購読の作成に失敗しました: %w", err)
	}
	return nil
}

// ListByUserID はユーザーの購読一覧を作成日時昇順で返す。
func (r *PostgresSubscriptionRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Subscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, channel_id, created_at
		 FROM subscriptions WHERE user_id = $1
		 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("購読一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var subs []*model.Subscription
	for rows.Next() {
		sub := &model.Subscription{}
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.ChannelID, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("購読一覧の読み取りに失敗しました: %w", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("購読一覧の走査に失敗しました: %w", err)
	}

	return subs, nil
}

// compile-time interface check
var _ SubscriptionRepository = (*PostgresSubscriptionRepo)(nil)
