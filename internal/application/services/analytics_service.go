package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
	"github.com/hospitalcore/surgical-procedures/internal/domain/repositories"
	apperrors "github.com/hospitalcore/surgical-procedures/pkg/errors"
)

// Period tokens accepted by the analytics queries
const (
	PeriodDay     = "day"
	PeriodWeek    = "week"
	PeriodMonth   = "month"
	PeriodQuarter = "quarter"
	PeriodYear    = "year"
)

// AnalyticsService computes operational analytics over rolling time
// windows. All operations are read-only; procedure records are never
// mutated here.
type AnalyticsService struct {
	procedureRepo repositories.ProcedureRepository
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(procedureRepo repositories.ProcedureRepository) *AnalyticsService {
	return &AnalyticsService{procedureRepo: procedureRepo}
}

// ResolveWindow converts a period token and reference date into a
// concrete [start, end] interval. The end is the last instant of the
// reference day; the start is the beginning of the reference day pushed
// back by the period offset.
func ResolveWindow(period string, date time.Time) (time.Time, time.Time, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := time.Date(date.Year(), date.Month(), date.Day(), 23, 59, 59, 999999999, date.Location())

	var start time.Time
	switch period {
	case PeriodDay:
		start = startOfDay
	case PeriodWeek:
		start = startOfDay.AddDate(0, 0, -7)
	case PeriodMonth:
		start = startOfDay.AddDate(0, -1, 0)
	case PeriodQuarter:
		start = startOfDay.AddDate(0, -3, 0)
	case PeriodYear:
		start = startOfDay.AddDate(-1, 0, 0)
	default:
		return time.Time{}, time.Time{}, apperrors.NewValidationError("unknown period token: " + period)
	}

	return start, end, nil
}

// windowDays returns the window length in whole days, never below 1, so
// per-day rates cannot divide by zero.
func windowDays(start, end time.Time) int {
	days := int(math.Ceil(end.Sub(start).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days
}

// TopProcedureEntry is one ranked row of the top-procedures report
type TopProcedureEntry struct {
	Code            string            `json:"code"`
	Name            string            `json:"name"`
	Category        entities.Category `json:"category"`
	Count           int               `json:"count"`
	TotalPrice      float64           `json:"total_price"`
	TotalDuration   int               `json:"total_duration"`
	AveragePrice    float64           `json:"average_price"`
	AverageDuration float64           `json:"average_duration"`
}

// TopProcedures ranks the procedures performed in the window by volume
func (s *AnalyticsService) TopProcedures(ctx context.Context, period string, date time.Time, limit int) ([]TopProcedureEntry, error) {
	start, end, err := ResolveWindow(period, date)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	performed, err := s.listPerformed(ctx, start, end, "")
	if err != nil {
		return nil, err
	}

	type groupKey struct {
		code     string
		name     string
		category entities.Category
	}
	groups := make(map[groupKey]*TopProcedureEntry)
	for _, p := range performed {
		key := groupKey{code: p.Code, name: p.Name, category: p.Category}
		entry, ok := groups[key]
		if !ok {
			entry = &TopProcedureEntry{Code: p.Code, Name: p.Name, Category: p.Category}
			groups[key] = entry
		}
		entry.Count++
		entry.TotalPrice += p.BasePrice
		entry.TotalDuration += p.EstimatedDuration
	}

	entries := make([]TopProcedureEntry, 0, len(groups))
	for _, entry := range groups {
		if entry.Count > 0 {
			entry.AveragePrice = entry.TotalPrice / float64(entry.Count)
			entry.AverageDuration = float64(entry.TotalDuration) / float64(entry.Count)
		}
		entries = append(entries, *entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Code < entries[j].Code
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// BreakdownEntry is one slice of a category or complexity breakdown
type BreakdownEntry struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// PeriodStatistics is the descriptive statistics report for one window
type PeriodStatistics struct {
	Period          string           `json:"period"`
	StartDate       time.Time        `json:"start_date"`
	EndDate         time.Time        `json:"end_date"`
	TotalCreated    int              `json:"total_created"`
	TotalPerformed  int              `json:"total_performed"`
	TotalScheduled  int              `json:"total_scheduled"`
	TotalCancelled  int              `json:"total_cancelled"`
	CompletionRate  float64          `json:"completion_rate"`
	AverageDuration float64          `json:"average_duration"`
	AveragePrice    float64          `json:"average_price"`
	TotalPrice      float64          `json:"total_price"`
	ByCategory      []BreakdownEntry `json:"by_category"`
	ByComplexity    []BreakdownEntry `json:"by_complexity"`
}

// Statistics computes descriptive statistics over the window. All derived
// rates degrade to zero on empty denominators.
func (s *AnalyticsService) Statistics(ctx context.Context, period string, date time.Time) (*PeriodStatistics, error) {
	start, end, err := ResolveWindow(period, date)
	if err != nil {
		return nil, err
	}

	totalCreated, err := s.procedureRepo.Count(ctx, repositories.ProcedureFilter{
		CreatedAfter:  &start,
		CreatedBefore: &end,
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count created procedures", err)
	}

	totalScheduled, err := s.procedureRepo.Count(ctx, repositories.ProcedureFilter{
		Statuses:        []entities.ProcedureStatus{entities.StatusScheduled},
		ScheduledAfter:  &start,
		ScheduledBefore: &end,
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count scheduled procedures", err)
	}

	totalCancelled, err := s.procedureRepo.Count(ctx, repositories.ProcedureFilter{
		Statuses:      []entities.ProcedureStatus{entities.StatusCancelled},
		CreatedAfter:  &start,
		CreatedBefore: &end,
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count cancelled procedures", err)
	}

	performed, err := s.listPerformed(ctx, start, end, "")
	if err != nil {
		return nil, err
	}

	stats := &PeriodStatistics{
		Period:         period,
		StartDate:      start,
		EndDate:        end,
		TotalCreated:   totalCreated,
		TotalPerformed: len(performed),
		TotalScheduled: totalScheduled,
		TotalCancelled: totalCancelled,
		ByCategory:     []BreakdownEntry{},
		ByComplexity:   []BreakdownEntry{},
	}

	if totalCreated > 0 {
		stats.CompletionRate = float64(len(performed)) / float64(totalCreated) * 100
	}

	var totalDuration int
	byCategory := make(map[string]int)
	byComplexity := make(map[string]int)
	for _, p := range performed {
		totalDuration += p.EstimatedDuration
		stats.TotalPrice += p.BasePrice
		byCategory[string(p.Category)]++
		byComplexity[string(p.Complexity)]++
	}

	if len(performed) > 0 {
		stats.AverageDuration = float64(totalDuration) / float64(len(performed))
		stats.AveragePrice = stats.TotalPrice / float64(len(performed))
	}

	stats.ByCategory = breakdown(byCategory, len(performed))
	stats.ByComplexity = breakdown(byComplexity, len(performed))

	return stats, nil
}

// breakdown converts a count map into sorted entries with percentages.
// Percent is zero when nothing was performed.
func breakdown(counts map[string]int, totalPerformed int) []BreakdownEntry {
	entries := make([]BreakdownEntry, 0, len(counts))
	for label, count := range counts {
		entry := BreakdownEntry{Label: label, Count: count}
		if totalPerformed > 0 {
			entry.Percent = float64(count) / float64(totalPerformed) * 100
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Label < entries[j].Label
	})
	return entries
}

// EfficiencyMetrics is the timeliness and utilization report
type EfficiencyMetrics struct {
	Period            string    `json:"period"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	OnTimeCount       int       `json:"on_time_count"`
	LateCount         int       `json:"late_count"`
	PunctualityRate   float64   `json:"punctuality_rate"`
	AverageDelayHours float64   `json:"average_delay_hours"`
	RoomUtilization   float64   `json:"room_utilization"`
	ProceduresPerDay  float64   `json:"procedures_per_day"`
}

// onTimeToleranceHours is the grace period between scheduled and performed
// time before a procedure counts as late
const onTimeToleranceHours = 1.0

// Efficiency computes punctuality and utilization metrics over the window
func (s *AnalyticsService) Efficiency(ctx context.Context, period string, date time.Time) (*EfficiencyMetrics, error) {
	start, end, err := ResolveWindow(period, date)
	if err != nil {
		return nil, err
	}

	performed, err := s.listPerformed(ctx, start, end, "")
	if err != nil {
		return nil, err
	}

	metrics := &EfficiencyMetrics{
		Period:    period,
		StartDate: start,
		EndDate:   end,
	}

	var totalDurationMinutes int
	var totalLateHours float64
	for _, p := range performed {
		totalDurationMinutes += p.EstimatedDuration
		if p.ScheduledDate == nil || p.PerformedDate == nil {
			continue
		}
		delayHours := p.PerformedDate.Sub(*p.ScheduledDate).Hours()
		if delayHours <= onTimeToleranceHours {
			metrics.OnTimeCount++
		} else {
			metrics.LateCount++
			totalLateHours += delayHours
		}
	}

	if classified := metrics.OnTimeCount + metrics.LateCount; classified > 0 {
		metrics.PunctualityRate = float64(metrics.OnTimeCount) / float64(classified) * 100
	}
	if metrics.LateCount > 0 {
		metrics.AverageDelayHours = totalLateHours / float64(metrics.LateCount)
	}

	days := windowDays(start, end)
	metrics.RoomUtilization = float64(totalDurationMinutes) / float64(days*24*60) * 100
	metrics.ProceduresPerDay = float64(len(performed)) / float64(days)

	return metrics, nil
}

// CategoryAnalysis is the per-category deep dive report
type CategoryAnalysis struct {
	Category         entities.Category `json:"category"`
	Period           string            `json:"period"`
	TotalPerformed   int               `json:"total_performed"`
	TotalPrice       float64           `json:"total_price"`
	TotalDuration    int               `json:"total_duration"`
	AverageDuration  float64           `json:"average_duration"`
	ComplexCount     int               `json:"complex_count"`
	ComplicationRate float64           `json:"complication_rate"`
}

// AnalyzeCategory computes metrics restricted to one surgical category.
// Complex cases are PORTE_3 and above.
func (s *AnalyticsService) AnalyzeCategory(ctx context.Context, category entities.Category, period string, date time.Time) (*CategoryAnalysis, error) {
	if _, err := entities.ParseCategory(string(category)); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	start, end, err := ResolveWindow(period, date)
	if err != nil {
		return nil, err
	}

	performed, err := s.listPerformed(ctx, start, end, category)
	if err != nil {
		return nil, err
	}

	analysis := &CategoryAnalysis{
		Category:       category,
		Period:         period,
		TotalPerformed: len(performed),
	}

	var withComplications int
	for _, p := range performed {
		analysis.TotalPrice += p.BasePrice
		analysis.TotalDuration += p.EstimatedDuration
		if p.Complexity.Rank() >= entities.ComplexityPorte3.Rank() {
			analysis.ComplexCount++
		}
		if p.Complications != "" {
			withComplications++
		}
	}

	if len(performed) > 0 {
		analysis.AverageDuration = float64(analysis.TotalDuration) / float64(len(performed))
		analysis.ComplicationRate = float64(withComplications) / float64(len(performed)) * 100
	}

	return analysis, nil
}

// ProceduresByPeriod returns the raw procedures performed in the window,
// optionally filtered by status, most recently performed first.
func (s *AnalyticsService) ProceduresByPeriod(ctx context.Context, period string, date time.Time, statusFilter *entities.ProcedureStatus) ([]*entities.Procedure, error) {
	start, end, err := ResolveWindow(period, date)
	if err != nil {
		return nil, err
	}

	filter := repositories.ProcedureFilter{
		OnlyPerformed:   true,
		PerformedAfter:  &start,
		PerformedBefore: &end,
		OrderBy:         repositories.OrderPerformedDesc,
	}
	if statusFilter != nil {
		if _, err := entities.ParseProcedureStatus(string(*statusFilter)); err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
		filter.Statuses = []entities.ProcedureStatus{*statusFilter}
	}

	procedures, err := s.procedureRepo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list procedures by period", err)
	}
	return procedures, nil
}

// listPerformed fetches procedures whose performed date falls in the window
func (s *AnalyticsService) listPerformed(ctx context.Context, start, end time.Time, category entities.Category) ([]*entities.Procedure, error) {
	procedures, err := s.procedureRepo.List(ctx, repositories.ProcedureFilter{
		OnlyPerformed:   true,
		PerformedAfter:  &start,
		PerformedBefore: &end,
		Category:        category,
		OrderBy:         repositories.OrderPerformedDesc,
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list performed procedures", err)
	}
	return procedures, nil
}
