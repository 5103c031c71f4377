package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/feedkeeper/internal/model"
)

// PostgresItemRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresItemRepo struct {
	db *sql.DB
}

// NewPostgresItemRepo はPostgresItemRepoを生成する。
func NewPostgresItemRepo(db *sql.DB) *PostgresItemRepo {
	return &PostgresItemRepo{db: db}
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresItemRepo) FindByID(ctx context.Context, id string) (*model.Item, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx,
		`SELECT id, channel_id, guid, title, link, description, content, published_at, created_at
		 FROM items WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	return item, nil
}

// FindByChannelAndGUID はchannel_idとguidで記事を検索する。見つからない場合はnilを返す。
func (r *PostgresItemRepo) FindByChannelAndGUID(ctx context.Context, channelID, guid string) (*model.Item, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx,
		`SELECT id, channel_id, guid, title, link, description, content, published_at, created_at
		 FROM items WHERE channel_id = $1 AND guid = $2`,
		channelID, guid,
	))
	if err != nil {
		return nil, fmt.Errorf("GUIDによる記事の検索に失敗しました: %w", err)
	}
	return item, nil
}

// ListByChannel はチャンネルの記事一覧をpublished_at降順で返す。
func (r *PostgresItemRepo) ListByChannel(ctx context.Context, channelID string) ([]*model.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, channel_id, guid, title, link, description, content, published_at, created_at
		 FROM items WHERE channel_id = $1
		 ORDER BY published_at DESC`,
		channelID,
	)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var items []*model.Item
	for rows.Next() {
		item := &model.Item{}
		var link, description, content sql.NullString
		if err := rows.Scan(
			&item.ID, &item.ChannelID, &item.GUID, &item.Title,
			&link, &description, &content,
			&item.PublishedAt, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("記事一覧の読み取りに失敗しました: %w", err)
		}
		item.Link = nullStringValue(link)
		item.Description = nullStringValue(description)
		item.Content = nullStringValue(content)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("記事一覧の走査に失敗しました: %w", err)
	}

	return items, nil
}

// ListByChannelWithSeen はチャンネルの記事一覧をユーザーの既読フラグと
// LEFT JOINしてpublished_at降順で返す。seen_states行が存在しない記事は未読扱い。
func (r *PostgresItemRepo) ListByChannelWithSeen(ctx context.Context, channelID, userID string) ([]model.ItemWithSeen, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT i.id, i.channel_id, i.guid, i.title, i.link, i.description, i.content,
		        i.published_at, i.created_at,
		        COALESCE(s.seen, FALSE)
		 FROM items i
		 LEFT JOIN seen_states s ON s.item_id = i.id AND s.user_id = $2
		 WHERE i.channel_id = $1
		 ORDER BY i.published_at DESC`,
		channelID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("既読状態付き記事一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var items []model.ItemWithSeen
	for rows.Next() {
		var item model.ItemWithSeen
		var link, description, content sql.NullString
		if err := rows.Scan(
			&item.ID, &item.ChannelID, &item.GUID, &item.Title,
			&link, &description, &content,
			&item.PublishedAt, &item.CreatedAt,
			&item.Seen,
		); err != nil {
			return nil, fmt.Errorf("既読状態付き記事一覧の読み取りに失敗しました: %w", err)
		}
		item.Link = nullStringValue(link)
		item.Description = nullStringValue(description)
		item.Content = nullStringValue(content)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("既読状態付き記事一覧の走査に失敗しました: %w", err)
	}

	return items, nil
}

// Create は記事を作成する。
// (channel_id, guid)のUNIQUE制約に衝突した場合は挿入を行わずfalseを返す。
// first-write-winsポリシーと並行取り込みの敗者処理の両方がこの経路で成立する。
func (r *PostgresItemRepo) Create(ctx context.Context, item *model.Item) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO items (id, channel_id, guid, title, link, description, content, published_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (channel_id, guid) DO NOTHING`,
		item.ID, item.ChannelID, item.GUID, item.Title,
		nullString(item.Link), nullString(item.Description), nullString(item.Content),
		item.PublishedAt, item.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("記事の作成に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("記事作成結果の確認に失敗しました: %w", err)
	}

	return affected > 0, nil
}

// scanItem は1行の記事を読み取る。行が存在しない場合は(nil, nil)を返す。
func scanItem(row *sql.Row) (*model.Item, error) {
	item := &model.Item{}
	var link, description, content sql.NullString

	err := row.Scan(
		&item.ID, &item.ChannelID, &item.GUID, &item.Title,
		&link, &description, &content,
		&item.PublishedAt, &item.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	item.Link = nullStringValue(link)
	item.Description = nullStringValue(description)
	item.Content = nullStringValue(content)
	return item, nil
}

// compile-time interface check
var _ ItemRepository = (*PostgresItemRepo)(nil)
