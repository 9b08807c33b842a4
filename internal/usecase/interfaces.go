package usecase

import (
	"context"

	"github.com/xavierca1/dental-funnel/internal/entity"
)

type ActionPublisher interface {
	PublishAction(ctx context.Context, n entity.ActionNotification) error
}

type ReportRefreshPublisher interface {
	PublishReportRefresh(ctx context.Context, req entity.ReportRefreshRequest) error
}

type ReportMailer interface {
	SendReportDigest(to []string, report *entity.ReportSnapshot) error
}

// ActionLedger remembers which notifications were already published.
type ActionLedger interface {
	Seen(key string) bool
	Mark(key string)
}
