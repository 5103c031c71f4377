package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/feedkeeper/internal/model"
)

// PostgresChannelRepo はPostgreSQLを使用したチャンネルリポジトリ。
type PostgresChannelRepo struct {
	db *sql.DB
}

// NewPostgresChannelRepo はPostgresChannelRepoを生成する。
func NewPostgresChannelRepo(db *sql.DB) *PostgresChannelRepo {
	return &PostgresChannelRepo{db: db}
}

// FindByID は指定IDのチャンネルを取得する。見つからない場合はnilを返す。
func (r *PostgresChannelRepo) FindByID(ctx context.Context, id string) (*model.Channel, error) {
	channel, err := r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, title, site_link, feed_link, description, updated_at, created_at
		 FROM channels WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("チャンネルの取得に失敗しました: %w", err)
	}
	return channel, nil
}

// FindByFeedLink はフィードURLでチャンネルを検索する。見つからない場合はnilを返す。
func (r *PostgresChannelRepo) FindByFeedLink(ctx context.Context, feedLink string) (*model.Channel, error) {
	channel, err := r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, title, site_link, feed_link, description, updated_at, created_at
		 FROM channels WHERE feed_link = $1`,
		feedLink,
	))
	if err != nil {
		return nil, fmt.Errorf("フィードURLによるチャンネルの検索に失敗しました: %w", err)
	}
	return channel, nil
}

// List は全チャンネルを作成日時昇順で返す。
func (r *PostgresChannelRepo) List(ctx context.Context) ([]*model.Channel, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, site_link, feed_link, description, updated_at, created_at
		 FROM channels ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("チャンネル一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var channels []*model.Channel
	for rows.Next() {
		channel := &model.Channel{}
		var siteLink, description sql.NullString
		if err := rows.Scan(
			&channel.ID, &channel.Title, &siteLink, &channel.FeedLink,
			&description, &channel.UpdatedAt, &channel.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("チャンネル一覧の読み取りに失敗しました: %w", err)
		}
		channel.SiteLink = nullStringValue(siteLink)
		channel.Description = nullStringValue(description)
		channels = append(channels, channel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("チャンネル一覧の走査に失敗しました: %w", err)
	}

	return channels, nil
}

// Create はチャンネルを作成する。
// feed_linkのUNIQUE制約に衝突した場合は挿入を行わずfalseを返す。
// 並行取り込みで同じフィードURLが同時に登録された場合、敗者はこの経路で
// 「既に存在する」結果を受け取り、エラーにはならない。
func (r *PostgresChannelRepo) Create(ctx context.Context, channel *model.Channel) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO channels (id, title, site_link, feed_link, description, updated_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (feed_link) DO NOTHING`,
		channel.ID, channel.Title, nullString(channel.SiteLink), channel.FeedLink,
		nullString(channel.Description), channel.UpdatedAt, channel.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("チャンネルの作成に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("チャンネル作成結果の確認に失敗しました: %w", err)
	}

	return affected > 0, nil
}

// UpdateMetadata はチャンネルのメタデータを上書きする。IDとfeed_linkは変更されない。
func (r *PostgresChannelRepo) UpdateMetadata(ctx context.Context, channel *model.Channel) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE channels SET
		    title = $2, site_link = $3, description = $4, updated_at = $5
		 WHERE id = $1`,
		channel.ID, channel.Title, nullString(channel.SiteLink),
		nullString(channel.Description), channel.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("チャンネルの更新に失敗しました: %w", err)
	}
	return nil
}

// scanOne は1行のチャンネルを読み取る。行が存在しない場合は(nil, nil)を返す。
func (r *PostgresChannelRepo) scanOne(row *sql.Row) (*model.Channel, error) {
	channel := &model.Channel{}
	var siteLink, description sql.NullString

	err := row.Scan(
		&channel.ID, &channel.Title, &siteLink, &channel.FeedLink,
		&description, &channel.UpdatedAt, &channel.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	channel.SiteLink = nullStringValue(siteLink)
	channel.Description = nullStringValue(description)
	return channel, nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// compile-time interface check
var _ ChannelRepository = (*PostgresChannelRepo)(nil)
