package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/hospitalcore/surgical-procedures/internal/application/services"
	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
	"github.com/hospitalcore/surgical-procedures/internal/domain/repositories"
	apperrors "github.com/hospitalcore/surgical-procedures/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func performedAt(t time.Time) *time.Time {
	return &t
}

func TestResolveWindow(t *testing.T) {
	ref := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		period    string
		wantStart time.Time
	}{
		{services.PeriodDay, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{services.PeriodWeek, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)},
		{services.PeriodMonth, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)},
		{services.PeriodQuarter, time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)},
		{services.PeriodYear, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			start, end, err := services.ResolveWindow(tt.period, ref)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, time.Date(2026, 3, 15, 23, 59, 59, 999999999, time.UTC), end)
		})
	}

	t.Run("unknown period fails before any query", func(t *testing.T) {
		_, _, err := services.ResolveWindow("fortnight", ref)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestAnalyticsService_TopProcedures(t *testing.T) {
	ctx := context.Background()
	ref := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	done := performedAt(ref.Add(-24 * time.Hour))

	performed := []*entities.Procedure{
		{Code: "A1", Name: "Appendectomy", Category: entities.CategoryGeneralSurgery, BasePrice: 1000, EstimatedDuration: 60, PerformedDate: done},
		{Code: "A1", Name: "Appendectomy", Category: entities.CategoryGeneralSurgery, BasePrice: 1200, EstimatedDuration: 90, PerformedDate: done},
		{Code: "A1", Name: "Appendectomy", Category: entities.CategoryGeneralSurgery, BasePrice: 800, EstimatedDuration: 60, PerformedDate: done},
		{Code: "B2", Name: "Bypass", Category: entities.CategoryCardiovascular, BasePrice: 20000, EstimatedDuration: 240, PerformedDate: done},
		{Code: "B2", Name: "Bypass", Category: entities.CategoryCardiovascular, BasePrice: 22000, EstimatedDuration: 300, PerformedDate: done},
		{Code: "C3", Name: "Cataract", Category: entities.CategoryOphthalmology, BasePrice: 900, EstimatedDuration: 30, PerformedDate: done},
	}

	repo := new(MockProcedureRepository)
	repo.On("List", mock.Anything, mock.Anything).Return(performed, nil)
	service := services.NewAnalyticsService(repo)

	entries, err := service.TopProcedures(ctx, services.PeriodWeek, ref, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "A1", entries[0].Code)
	assert.Equal(t, 3, entries[0].Count)
	assert.Equal(t, 3000.00, entries[0].TotalPrice)
	assert.Equal(t, 1000.00, entries[0].AveragePrice)
	assert.Equal(t, 70.0, entries[0].AverageDuration)

	assert.Equal(t, "B2", entries[1].Code)
	assert.Equal(t, 2, entries[1].Count)
}

func TestAnalyticsService_Statistics(t *testing.T) {
	ctx := context.Background()
	ref := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	done := performedAt(ref.Add(-12 * time.Hour))

	t.Run("computes rates and breakdowns", func(t *testing.T) {
		performed := []*entities.Procedure{
			{Category: entities.CategoryGeneralSurgery, Complexity: entities.ComplexityPorte2, BasePrice: 1000, EstimatedDuration: 60, PerformedDate: done},
			{Category: entities.CategoryGeneralSurgery, Complexity: entities.ComplexityPorte3, BasePrice: 3000, EstimatedDuration: 120, PerformedDate: done},
			{Category: entities.CategoryCardiovascular, Complexity: entities.ComplexityPorte4, BasePrice: 8000, EstimatedDuration: 180, PerformedDate: done},
			{Category: entities.CategoryNeurosurgery, Complexity: entities.ComplexityPorte3, BasePrice: 6000, EstimatedDuration: 240, PerformedDate: done},
		}

		repo := new(MockProcedureRepository)
		repo.On("Count", mock.Anything, mock.MatchedBy(func(f repositories.ProcedureFilter) bool {
			return f.CreatedAfter != nil && len(f.Statuses) == 0
		})).Return(8, nil)
		repo.On("Count", mock.Anything, mock.MatchedBy(func(f repositories.ProcedureFilter) bool {
			return len(f.Statuses) == 1 && f.Statuses[0] == entities.StatusScheduled
		})).Return(2, nil)
		repo.On("Count", mock.Anything, mock.MatchedBy(func(f repositories.ProcedureFilter) bool {
			return len(f.Statuses) == 1 && f.Statuses[0] == entities.StatusCancelled
		})).Return(1, nil)
		repo.On("List", mock.Anything, mock.Anything).Return(performed, nil)

		service := services.NewAnalyticsService(repo)

		stats, err := service.Statistics(ctx, services.PeriodWeek, ref)
		require.NoError(t, err)
		assert.Equal(t, 8, stats.TotalCreated)
		assert.Equal(t, 4, stats.TotalPerformed)
		assert.Equal(t, 2, stats.TotalScheduled)
		assert.Equal(t, 1, stats.TotalCancelled)
		assert.Equal(t, 50.0, stats.CompletionRate)
		assert.Equal(t, 150.0, stats.AverageDuration)
		assert.Equal(t, 4500.0, stats.AveragePrice)
		assert.Equal(t, 18000.0, stats.TotalPrice)

		require.NotEmpty(t, stats.ByCategory)
		assert.Equal(t, string(entities.CategoryGeneralSurgery), stats.ByCategory[0].Label)
		assert.Equal(t, 2, stats.ByCategory[0].Count)
		assert.Equal(t, 50.0, stats.ByCategory[0].Percent)

		require.NotEmpty(t, stats.ByComplexity)
		assert.Equal(t, string(entities.ComplexityPorte3), stats.ByComplexity[0].Label)
		assert.Equal(t, 50.0, stats.ByComplexity[0].Percent)
	})

	t.Run("empty window degrades to zeros without division errors", func(t *testing.T) {
		repo := new(MockProcedureRepository)
		repo.On("Count", mock.Anything, mock.Anything).Return(0, nil)
		repo.On("List", mock.Anything, mock.Anything).Return([]*entities.Procedure{}, nil)

		service := services.NewAnalyticsService(repo)

		stats, err := service.Statistics(ctx, services.PeriodMonth, ref)
		require.NoError(t, err)
		assert.Zero(t, stats.CompletionRate)
		assert.Zero(t, stats.AverageDuration)
		assert.Zero(t, stats.AveragePrice)
		assert.Empty(t, stats.ByCategory)
		assert.Empty(t, stats.ByComplexity)
	})

	t.Run("identical inputs yield identical output", func(t *testing.T) {
		performed := []*entities.Procedure{
			{Category: entities.CategoryUrology, Complexity: entities.ComplexityPorte1, BasePrice: 500, EstimatedDuration: 45, PerformedDate: done},
		}

		repo := new(MockProcedureRepository)
		repo.On("Count", mock.Anything, mock.Anything).Return(3, nil)
		repo.On("List", mock.Anything, mock.Anything).Return(performed, nil)

		service := services.NewAnalyticsService(repo)

		first, err := service.Statistics(ctx, services.PeriodDay, ref)
		require.NoError(t, err)
		second, err := service.Statistics(ctx, services.PeriodDay, ref)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestAnalyticsService_Efficiency(t *testing.T) {
	ctx := context.Background()
	ref := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	scheduled := ref.Add(-48 * time.Hour)

	t.Run("classifies on-time within the one-hour grace", func(t *testing.T) {
		onTime := scheduled.Add(45 * time.Minute)
		late := scheduled.Add(90 * time.Minute)

		performed := []*entities.Procedure{
			{ScheduledDate: &scheduled, PerformedDate: &onTime, EstimatedDuration: 60},
			{ScheduledDate: &scheduled, PerformedDate: &late, EstimatedDuration: 120},
		}

		repo := new(MockProcedureRepository)
		repo.On("List", mock.Anything, mock.Anything).Return(performed, nil)
		service := services.NewAnalyticsService(repo)

		metrics, err := service.Efficiency(ctx, services.PeriodWeek, ref)
		require.NoError(t, err)
		assert.Equal(t, 1, metrics.OnTimeCount)
		assert.Equal(t, 1, metrics.LateCount)
		assert.Equal(t, 50.0, metrics.PunctualityRate)
		assert.InDelta(t, 1.5, metrics.AverageDelayHours, 0.001)
	})

	t.Run("day window has at least one day for per-day rates", func(t *testing.T) {
		done := scheduled.Add(30 * time.Minute)
		performed := []*entities.Procedure{
			{ScheduledDate: &scheduled, PerformedDate: &done, EstimatedDuration: 144}, // 10% of a day
		}

		repo := new(MockProcedureRepository)
		repo.On("List", mock.Anything, mock.Anything).Return(performed, nil)
		service := services.NewAnalyticsService(repo)

		metrics, err := service.Efficiency(ctx, services.PeriodDay, ref)
		require.NoError(t, err)
		assert.InDelta(t, 10.0, metrics.RoomUtilization, 0.001)
		assert.Equal(t, 1.0, metrics.ProceduresPerDay)
	})

	t.Run("no late procedures means zero average delay", func(t *testing.T) {
		done := scheduled.Add(10 * time.Minute)
		performed := []*entities.Procedure{
			{ScheduledDate: &scheduled, PerformedDate: &done, EstimatedDuration: 60},
		}

		repo := new(MockProcedureRepository)
		repo.On("List", mock.Anything, mock.Anything).Return(performed, nil)
		service := services.NewAnalyticsService(repo)

		metrics, err := service.Efficiency(ctx, services.PeriodWeek, ref)
		require.NoError(t, err)
		assert.Equal(t, 100.0, metrics.PunctualityRate)
		assert.Zero(t, metrics.AverageDelayHours)
	})
}

func TestAnalyticsService_AnalyzeCategory(t *testing.T) {
	ctx := context.Background()
	ref := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	done := performedAt(ref.Add(-24 * time.Hour))

	performed := []*entities.Procedure{
		{Category: entities.CategoryCardiovascular, Complexity: entities.ComplexityPorte4, BasePrice: 15000, EstimatedDuration: 240, Complications: "post-op bleeding", PerformedDate: done},
		{Category: entities.CategoryCardiovascular, Complexity: entities.ComplexityPorte2, BasePrice: 4000, EstimatedDuration: 90, PerformedDate: done},
		{Category: entities.CategoryCardiovascular, Complexity: entities.ComplexityPorte3, BasePrice: 8000, EstimatedDuration: 150, PerformedDate: done},
		{Category: entities.CategoryCardiovascular, Complexity: entities.ComplexityPorteEspecial, BasePrice: 30000, EstimatedDuration: 360, PerformedDate: done},
	}

	repo := new(MockProcedureRepository)
	repo.On("List", mock.Anything, mock.MatchedBy(func(f repositories.ProcedureFilter) bool {
		return f.Category == entities.CategoryCardiovascular && f.OnlyPerformed
	})).Return(performed, nil)

	service := services.NewAnalyticsService(repo)

	analysis, err := service.AnalyzeCategory(ctx, entities.CategoryCardiovascular, services.PeriodMonth, ref)
	require.NoError(t, err)
	assert.Equal(t, 4, analysis.TotalPerformed)
	assert.Equal(t, 57000.0, analysis.TotalPrice)
	assert.Equal(t, 840, analysis.TotalDuration)
	assert.Equal(t, 210.0, analysis.AverageDuration)
	assert.Equal(t, 3, analysis.ComplexCount) // PORTE_3 and above
	assert.Equal(t, 25.0, analysis.ComplicationRate)

	t.Run("unknown category is rejected", func(t *testing.T) {
		_, err := service.AnalyzeCategory(ctx, entities.Category("DERMATOLOGY"), services.PeriodMonth, ref)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestAnalyticsService_ProceduresByPeriod(t *testing.T) {
	ctx := context.Background()
	ref := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("passes the status filter through", func(t *testing.T) {
		repo := new(MockProcedureRepository)
		repo.On("List", mock.Anything, mock.MatchedBy(func(f repositories.ProcedureFilter) bool {
			return f.OnlyPerformed &&
				f.OrderBy == repositories.OrderPerformedDesc &&
				len(f.Statuses) == 1 && f.Statuses[0] == entities.StatusCompleted
		})).Return([]*entities.Procedure{}, nil)

		service := services.NewAnalyticsService(repo)

		status := entities.StatusCompleted
		_, err := service.ProceduresByPeriod(ctx, services.PeriodWeek, ref, &status)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("rejects unknown status filter", func(t *testing.T) {
		service := services.NewAnalyticsService(new(MockProcedureRepository))

		status := entities.ProcedureStatus("DONE")
		_, err := service.ProceduresByPeriod(ctx, services.PeriodWeek, ref, &status)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}
