package report

import (
	"context"
	"errors"
	"time"

	domerrors "github.com/ZhenYan1214/sugar-linebot-go/internal/errors"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/lineutil"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/logger"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/storage"
)

// Period selects the time range a report chart covers.
type Period string

const (
	PeriodToday    Period = "today"
	PeriodLastWeek Period = "last_week"
	PeriodDate     Period = "date"
)

// ErrNoRecords is returned when the selected range has no measurements.
// Callers translate it into a friendly reply instead of an error text.
var ErrNoRecords = errors.New("report: no records in range")

const (
	msgRenderFailed   = "❌ 無法生成報表，請稍後再試！"
	msgUploadFailed   = "❌ 圖片上傳失敗，請稍後再試！"
	msgReportDisabled = "❌ 報表功能尚未開放，請稍後再試！"
)

// Uploader publishes a rendered chart PNG and returns its public URL.
type Uploader interface {
	UploadChart(ctx context.Context, png []byte) (string, error)
}

// MetricsRecorder records report generation outcomes.
type MetricsRecorder interface {
	RecordReport(period, status string, durationSeconds float64)
}

// Service generates report chart images for a user's measurements.
type Service struct {
	repo     *storage.DB
	uploader Uploader // nil when object storage is not configured
	log      *logger.Logger
	metrics  MetricsRecorder
}

// NewService creates a report service. uploader may be nil, in which case
// every report request fails with a user-facing error text.
func NewService(repo *storage.DB, uploader Uploader, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		uploader: uploader,
		log:      log.WithModule("report"),
	}
}

// SetMetrics attaches a metrics recorder. Safe to leave unset in tests.
func (s *Service) SetMetrics(m MetricsRecorder) {
	s.metrics = m
}

// ChartURL renders the chart for the given period and uploads it.
// date is only consulted for PeriodDate and must be "YYYY-MM-DD".
// Returns the public image URL, ErrNoRecords when the range is empty, or a
// wrapped error whose user message can be relayed verbatim.
func (s *Service) ChartURL(ctx context.Context, userID string, period Period, date string) (string, error) {
	start := time.Now()
	url, err := s.chartURL(ctx, userID, period, date)

	status := "ok"
	if errors.Is(err, ErrNoRecords) {
		status = "empty"
	} else if err != nil {
		status = "error"
	}
	if s.metrics != nil {
		s.metrics.RecordReport(string(period), status, time.Since(start).Seconds())
	}

	return url, err
}

func (s *Service) chartURL(ctx context.Context, userID string, period Period, date string) (string, error) {
	if s.uploader == nil {
		return "", domerrors.Wrap("report", "chart_url", domerrors.ErrUploaderDisabled, msgReportDisabled)
	}

	points, title, timeFormat, err := s.collect(ctx, userID, period, date)
	if err != nil {
		return "", err
	}
	if len(points) == 0 {
		return "", ErrNoRecords
	}

	png, err := RenderPNG(title, points, timeFormat)
	if err != nil {
		s.log.WithError(err).Error("chart render failed", "user_id", userID, "period", string(period))
		return "", domerrors.Wrap("report", "render", err, msgRenderFailed)
	}

	url, err := s.uploader.UploadChart(ctx, png)
	if err != nil {
		s.log.WithError(err).Error("chart upload failed", "user_id", userID, "period", string(period))
		return "", domerrors.Wrap("report", "upload", err, msgUploadFailed)
	}

	s.log.Info("report chart published",
		"user_id", userID,
		"period", string(period),
		"points", len(points),
	)
	return url, nil
}

// collect loads the measurements for the period and shapes them into chart
// points, the chart title, and the x axis tick format.
func (s *Service) collect(ctx context.Context, userID string, period Period, date string) ([]Point, string, string, error) {
	loc := lineutil.GetTaipeiLocation()

	switch period {
	case PeriodToday:
		today := lineutil.Today()
		records, err := s.repo.GetRecordsByDate(ctx, userID, today)
		if err != nil {
			return nil, "", "", err
		}
		return dayPoints(today, records, loc), "今日血糖 (" + today + ")", lineutil.TimeFormat, nil

	case PeriodLastWeek:
		from := lineutil.DaysAgo(6)
		to := lineutil.Today()
		records, err := s.repo.GetRecordsByDateRange(ctx, userID, from, to)
		if err != nil {
			return nil, "", "", err
		}
		return rangePoints(records, loc), "最近一週血糖 (" + from + " ~ " + to + ")", "01/02", nil

	case PeriodDate:
		records, err := s.repo.GetRecordsByDate(ctx, userID, date)
		if err != nil {
			return nil, "", "", err
		}
		return dayPoints(date, records, loc), "血糖紀錄 (" + date + ")", lineutil.TimeFormat, nil

	default:
		return nil, "", "", domerrors.Wrap("report", "collect", domerrors.ErrInvalidInput, msgRenderFailed)
	}
}

func dayPoints(date string, records []storage.Record, loc *time.Location) []Point {
	points := make([]Point, 0, len(records))
	for _, r := range records {
		at, err := time.ParseInLocation(lineutil.DateFormat+" "+lineutil.TimeFormat, date+" "+r.Time, loc)
		if err != nil {
			continue
		}
		points = append(points, Point{At: at, Value: float64(r.Value)})
	}
	return points
}

func rangePoints(records []storage.DatedRecord, loc *time.Location) []Point {
	points := make([]Point, 0, len(records))
	for _, r := range records {
		at, err := time.ParseInLocation(lineutil.DateFormat+" "+lineutil.TimeFormat, r.Date+" "+r.Time, loc)
		if err != nil {
			continue
		}
		points = append(points, Point{At: at, Value: float64(r.Value)})
	}
	return points
}
