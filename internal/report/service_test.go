package report

import (
	"context"
	"errors"
	"io"
	"testing"

	domerrors "github.com/ZhenYan1214/sugar-linebot-go/internal/errors"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/lineutil"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/logger"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUploader struct {
	url      string
	err      error
	lastSize int
}

func (u *stubUploader) UploadChart(ctx context.Context, png []byte) (string, error) {
	u.lastSize = len(png)
	return u.url, u.err
}

func newServiceDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testLog() *logger.Logger {
	return logger.NewWithWriter("error", io.Discard)
}

func TestChartURL_UploaderNotConfigured(t *testing.T) {
	svc := NewService(newServiceDB(t), nil, testLog())

	_, err := svc.ChartURL(context.Background(), "U1", PeriodToday, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domerrors.ErrUploaderDisabled)
	assert.Equal(t, "❌ 報表功能尚未開放，請稍後再試！", domerrors.UserMessage(err))
}

func TestChartURL_EmptyRange(t *testing.T) {
	db := newServiceDB(t)
	svc := NewService(db, &stubUploader{url: "https://cdn.example.com/c.png"}, testLog())

	for _, period := range []Period{PeriodToday, PeriodLastWeek} {
		_, err := svc.ChartURL(context.Background(), "U1", period, "")
		assert.ErrorIs(t, err, ErrNoRecords, "period %s", period)
	}

	_, err := svc.ChartURL(context.Background(), "U1", PeriodDate, "2024-03-01")
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestChartURL_Today(t *testing.T) {
	db := newServiceDB(t)
	today := lineutil.Today()
	_, err := db.CreateRecord(context.Background(), "U1", today, "08:00", 110)
	require.NoError(t, err)
	_, err = db.CreateRecord(context.Background(), "U1", today, "12:30", 150)
	require.NoError(t, err)

	uploader := &stubUploader{url: "https://cdn.example.com/c.png"}
	svc := NewService(db, uploader, testLog())

	url, err := svc.ChartURL(context.Background(), "U1", PeriodToday, "")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/c.png", url)
	assert.Greater(t, uploader.lastSize, 0, "uploaded PNG should not be empty")
}

func TestChartURL_LastWeekIncludesWholeRange(t *testing.T) {
	db := newServiceDB(t)
	_, err := db.CreateRecord(context.Background(), "U1", lineutil.DaysAgo(6), "08:00", 100)
	require.NoError(t, err)
	_, err = db.CreateRecord(context.Background(), "U1", lineutil.DaysAgo(7), "08:00", 90) // outside
	require.NoError(t, err)

	svc := NewService(db, &stubUploader{url: "https://cdn.example.com/w.png"}, testLog())

	url, err := svc.ChartURL(context.Background(), "U1", PeriodLastWeek, "")
	require.NoError(t, err)
	assert.NotEmpty(t, url)
}

func TestChartURL_UploadFailure(t *testing.T) {
	db := newServiceDB(t)
	today := lineutil.Today()
	_, err := db.CreateRecord(context.Background(), "U1", today, "08:00", 110)
	require.NoError(t, err)

	svc := NewService(db, &stubUploader{err: errors.New("bucket gone")}, testLog())

	_, err = svc.ChartURL(context.Background(), "U1", PeriodToday, "")
	require.Error(t, err)
	assert.Equal(t, "❌ 圖片上傳失敗，請稍後再試！", domerrors.UserMessage(err))
}

func TestChartURL_UnknownPeriod(t *testing.T) {
	svc := NewService(newServiceDB(t), &stubUploader{url: "x"}, testLog())

	_, err := svc.ChartURL(context.Background(), "U1", Period("hourly"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domerrors.ErrInvalidInput)
}

func TestChartURL_UsersIsolated(t *testing.T) {
	db := newServiceDB(t)
	_, err := db.CreateRecord(context.Background(), "U2", lineutil.Today(), "08:00", 110)
	require.NoError(t, err)

	svc := NewService(db, &stubUploader{url: "x"}, testLog())

	_, err = svc.ChartURL(context.Background(), "U1", PeriodToday, "")
	assert.ErrorIs(t, err, ErrNoRecords)
}
