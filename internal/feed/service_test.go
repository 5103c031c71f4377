package feed

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/feedkeeper/internal/ingest"
	"github.com/hitoshi/feedkeeper/internal/model"
)

type mockFetcher struct {
	fetchFn func(ctx context.Context, rawURL string) (*model.ParsedChannel, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL string) (*model.ParsedChannel, error) {
	return m.fetchFn(ctx, rawURL)
}

type mockIngester struct {
	ingestFn func(ctx context.Context, parsed *model.ParsedChannel) (*ingest.Result, error)
}

func (m *mockIngester) Ingest(ctx context.Context, parsed *model.ParsedChannel) (*ingest.Result, error) {
	return m.ingestFn(ctx, parsed)
}

type mockSubscriber struct {
	ensureFn func(ctx context.Context, userID, channelID string) error
}

func (m *mockSubscriber) EnsureSubscription(ctx context.Context, userID, channelID string) error {
	return m.ensureFn(ctx, userID, channelID)
}

type recordingMetrics struct {
	successes      int
	failureReasons []string
	itemsInserted  int
	latencies      int
}

func (m *recordingMetrics) RecordIngestSuccess()                  { m.successes++ }
func (m *recordingMetrics) RecordIngestFailure(reason string)     { m.failureReasons = append(m.failureReasons, reason) }
func (m *recordingMetrics) RecordItemsInserted(count int)         { m.itemsInserted += count }
func (m *recordingMetrics) RecordFetchLatency(d time.Duration)    { m.latencies++ }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestService_AddFeed_AnonymousSkipsSubscription は未認証の登録で
// 購読が作成されないことを検証する。
func TestService_AddFeed_AnonymousSkipsSubscription(t *testing.T) {
	metrics := &recordingMetrics{}
	svc := NewService(
		&mockFetcher{fetchFn: func(ctx context.Context, rawURL string) (*model.ParsedChannel, error) {
			return &model.ParsedChannel{FeedLink: rawURL}, nil
		}},
		&mockIngester{ingestFn: func(ctx context.Context, parsed *model.ParsedChannel) (*ingest.Result, error) {
			return &ingest.Result{ChannelID: "ch-1", InsertedItems: 3}, nil
		}},
		&mockSubscriber{ensureFn: func(ctx context.Context, userID, channelID string) error {
			t.Fatal("未認証時に購読作成が呼ばれました")
			return nil
		}},
		nil, nil, metrics, testLogger(),
	)

	result, err := svc.AddFeed(context.Background(), "", "https://blog.example.com/feed.xml")
	if err != nil {
		t.Fatalf("AddFeed() error = %v", err)
	}
	if result.InsertedItems != 3 {
		t.Errorf("InsertedItems = %d, want 3", result.InsertedItems)
	}
	if metrics.successes != 1 || metrics.itemsInserted != 3 || metrics.latencies != 1 {
		t.Errorf("unexpected metrics: %+v", metrics)
	}
}

// TestService_AddFeed_AuthenticatedEnsuresSubscription は認証済みの登録で
// 取り込んだチャンネルへの購読が作成されることを検証する。
func TestService_AddFeed_AuthenticatedEnsuresSubscription(t *testing.T) {
	var gotUserID, gotChannelID string
	svc := NewService(
		&mockFetcher{fetchFn: func(ctx context.Context, rawURL string) (*model.ParsedChannel, error) {
			return &model.ParsedChannel{FeedLink: rawURL}, nil
		}},
		&mockIngester{ingestFn: func(ctx context.Context, parsed *model.ParsedChannel) (*ingest.Result, error) {
			return &ingest.Result{ChannelID: "ch-1", InsertedItems: 0}, nil
		}},
		&mockSubscriber{ensureFn: func(ctx context.Context, userID, channelID string) error {
			gotUserID, gotChannelID = userID, channelID
			return nil
		}},
		nil, nil, nil, testLogger(),
	)

	if _, err := svc.AddFeed(context.Background(), "user-1", "https://blog.example.com/feed.xml"); err != nil {
		t.Fatalf("AddFeed() error = %v", err)
	}
	if gotUserID != "user-1" || gotChannelID != "ch-1" {
		t.Errorf("EnsureSubscription(%q, %q)", gotUserID, gotChannelID)
	}
}

// TestService_AddFeed_FetchFailureRecordsReason はフェッチ失敗が
// 理由付きでメトリクスに記録され、取り込みへ進まないことを検証する。
func TestService_AddFeed_FetchFailureRecordsReason(t *testing.T) {
	metrics := &recordingMetrics{}
	svc := NewService(
		&mockFetcher{fetchFn: func(ctx context.Context, rawURL string) (*model.ParsedChannel, error) {
			return nil, model.NewFetchFailedError("接続がタイムアウトしました")
		}},
		&mockIngester{ingestFn: func(ctx context.Context, parsed *model.ParsedChannel) (*ingest.Result, error) {
			t.Fatal("フェッチ失敗時に取り込みが呼ばれました")
			return nil, nil
		}},
		&mockSubscriber{ensureFn: func(ctx context.Context, userID, channelID string) error { return nil }},
		nil, nil, metrics, testLogger(),
	)

	if _, err := svc.AddFeed(context.Background(), "", "https://unreachable.example.com/feed.xml"); err == nil {
		t.Fatal("AddFeed() error = nil, want error")
	}
	if len(metrics.failureReasons) != 1 || metrics.failureReasons[0] != "fetch" {
		t.Errorf("failureReasons = %v, want [fetch]", metrics.failureReasons)
	}
	if metrics.successes != 0 {
		t.Errorf("successes = %d, want 0", metrics.successes)
	}
}

// TestService_AddFeed_IngestFailureRecordsReason は永続化失敗が
// persist理由でメトリクスに記録されることを検証する。
func TestService_AddFeed_IngestFailureRecordsReason(t *testing.T) {
	metrics := &recordingMetrics{}
	svc := NewService(
		&mockFetcher{fetchFn: func(ctx context.Context, rawURL string) (*model.ParsedChannel, error) {
			return &model.ParsedChannel{FeedLink: rawURL}, nil
		}},
		&mockIngester{ingestFn: func(ctx context.Context, parsed *model.ParsedChannel) (*ingest.Result, error) {
			return nil, context.DeadlineExceeded
		}},
		&mockSubscriber{ensureFn: func(ctx context.Context, userID, channelID string) error { return nil }},
		nil, nil, metrics, testLogger(),
	)

	if _, err := svc.AddFeed(context.Background(), "", "https://blog.example.com/feed.xml"); err == nil {
		t.Fatal("AddFeed() error = nil, want error")
	}
	if len(metrics.failureReasons) != 1 || metrics.failureReasons[0] != "persist" {
		t.Errorf("failureReasons = %v, want [persist]", metrics.failureReasons)
	}
}
