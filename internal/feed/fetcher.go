// Package feed はフィードのフェッチとパースを提供する。
package feed

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/feedkeeper/internal/model"
)

// SSRFValidator はSSRF検証のインターフェース。
// security.SSRFGuardServiceを抽象化してテスタビリティを向上させる。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// Fetcher は指定URLのフィードドキュメントを取得し、正規化された
// model.ParsedChannelに変換する。
// ネットワークコールはタイムアウト付きで、SSRF検証済みクライアントを使用する。
// リトライは行わない（必要なら呼び出し側の責務）。
type Fetcher struct {
	ssrfGuard   SSRFValidator
	timeout     time.Duration
	maxBodySize int64
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
func NewFetcher(ssrfGuard SSRFValidator, timeout time.Duration, maxBodySize int64) *Fetcher {
	return &Fetcher{
		ssrfGuard:   ssrfGuard,
		timeout:     timeout,
		maxBodySize: maxBodySize,
	}
}

// Fetch はフィードURLのドキュメントを取得してパースする。
// 失敗条件:
//   - URL不正・SSRFブロック → INVALID_URL（ネットワークコール前に返る）
//   - 到達不能・タイムアウト・非2xx → FETCH_FAILED
//   - RSS/Atomとして解釈できない → PARSE_FAILED
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*model.ParsedChannel, error) {
	if err := validateFeedURL(rawURL); err != nil {
		return nil, err
	}
	if err := f.ssrfGuard.ValidateURL(rawURL); err != nil {
		return nil, model.NewInvalidURLError(err.Error())
	}

	client := f.ssrfGuard.NewSafeClient(f.timeout, f.maxBodySize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, model.NewInvalidURLError(err.Error())
	}

	req.Header.Set("User-Agent", "Feedkeeper/1.0 RSS Reader")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, model.NewFetchFailedError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, model.NewFetchStatusError(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, model.NewFetchFailedError(err.Error())
	}

	parser := gofeed.NewParser()
	parsedFeed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, model.NewParseFailedError()
	}

	return convertGofeed(rawURL, parsedFeed), nil
}

// validateFeedURL はネットワークコール前のURL検証を行う。
func validateFeedURL(rawURL string) error {
	if rawURL == "" {
		return model.NewInvalidURLError("URLが空です")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return model.NewInvalidURLError(err.Error())
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return model.NewInvalidURLError("http/httpsスキームのみ対応しています")
	}
	if parsed.Host == "" {
		return model.NewInvalidURLError("ホストが指定されていません")
	}

	return nil
}

// convertGofeed はgofeedのパース結果をmodel.ParsedChannelに変換する。
// feed_linkにはフィードの自己申告URLではなく取得元URLを採用する。
// 再取り込み時の照合キーとして、呼び出し側が指定したURLと一致させるため。
func convertGofeed(feedLink string, parsedFeed *gofeed.Feed) *model.ParsedChannel {
	channel := &model.ParsedChannel{
		Title:       parsedFeed.Title,
		SiteLink:    parsedFeed.Link,
		FeedLink:    feedLink,
		Description: parsedFeed.Description,
		Items:       convertGofeedItems(parsedFeed.Items),
	}
	return channel
}

// convertGofeedItems はgofeedの記事をmodel.ParsedItemに変換する。
func convertGofeedItems(items []*gofeed.Item) []model.ParsedItem {
	parsedItems := make([]model.ParsedItem, 0, len(items))

	for _, item := range items {
		if item == nil {
			continue
		}

		parsed := model.ParsedItem{
			GUID:        item.GUID,
			Title:       item.Title,
			Link:        item.Link,
			Description: item.Description,
			Content:     item.Content,
		}

		// GUID未設定のフィードはリンクを安定識別子として代用する
		if parsed.GUID == "" {
			parsed.GUID = item.Link
		}

		// 公開日時: published優先、なければupdatedを代用
		if item.PublishedParsed != nil {
			t := *item.PublishedParsed
			parsed.PublishedAt = &t
		} else if item.UpdatedParsed != nil {
			t := *item.UpdatedParsed
			parsed.PublishedAt = &t
		}

		// GUIDもリンクもない記事は同一性を判定できないためスキップする
		if parsed.GUID == "" {
			continue
		}

		parsedItems = append(parsedItems, parsed)
	}

	return parsedItems
}
