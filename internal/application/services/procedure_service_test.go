package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/hospitalcore/surgical-procedures/internal/application/services"
	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
	"github.com/hospitalcore/surgical-procedures/internal/domain/providers"
	"github.com/hospitalcore/surgical-procedures/internal/domain/repositories"
	apperrors "github.com/hospitalcore/surgical-procedures/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mocks

type MockProcedureRepository struct {
	mock.Mock
}

func (m *MockProcedureRepository) Create(ctx context.Context, procedure *entities.Procedure) error {
	args := m.Called(ctx, procedure)
	return args.Error(0)
}

func (m *MockProcedureRepository) GetByID(ctx context.Context, id string) (*entities.Procedure, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Procedure), args.Error(1)
}

func (m *MockProcedureRepository) GetByCode(ctx context.Context, code string) (*entities.Procedure, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Procedure), args.Error(1)
}

func (m *MockProcedureRepository) Update(ctx context.Context, procedure *entities.Procedure) error {
	args := m.Called(ctx, procedure)
	return args.Error(0)
}

func (m *MockProcedureRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProcedureRepository) List(ctx context.Context, filter repositories.ProcedureFilter) ([]*entities.Procedure, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Procedure), args.Error(1)
}

func (m *MockProcedureRepository) Count(ctx context.Context, filter repositories.ProcedureFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

type MockPatientRepository struct {
	mock.Mock
}

func (m *MockPatientRepository) Create(ctx context.Context, patient *entities.Patient) error {
	args := m.Called(ctx, patient)
	return args.Error(0)
}

func (m *MockPatientRepository) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Patient), args.Error(1)
}

func (m *MockPatientRepository) List(ctx context.Context, limit, offset int) ([]*entities.Patient, error) {
	return nil, nil
}

type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Append(ctx context.Context, entry *entities.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditLogRepository) ListByEntity(ctx context.Context, entity, entityID string, limit int) ([]*entities.AuditLog, error) {
	return nil, nil
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.ProcedureEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ProcedureEvent, error) {
	return nil, nil
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	return nil
}

func (m *MockEventBus) Close() error {
	return nil
}

func newProcedureService(
	procedureRepo *MockProcedureRepository,
	patientRepo *MockPatientRepository,
	auditLogRepo *MockAuditLogRepository,
	eventBus *MockEventBus,
) *services.ProcedureService {
	return services.NewProcedureService(
		procedureRepo, patientRepo, auditLogRepo, eventBus,
		services.NewPricingService(), services.NewAuditPolicy(),
	)
}

// Tests

func TestProcedureService_Create(t *testing.T) {
	ctx := context.Background()
	patient := &entities.Patient{ID: "patient-1", Name: "Maria Souza", IsActive: true}

	baseRequest := func() services.CreateProcedureRequest {
		scheduled := time.Now().Add(48 * time.Hour)
		return services.CreateProcedureRequest{
			Code:                  "31005497",
			Name:                  "Laparoscopic Cholecystectomy",
			Category:              entities.CategoryGeneralSurgery,
			Complexity:            entities.ComplexityPorte2,
			EstimatedDuration:     90,
			ScheduledDate:         &scheduled,
			RequiresAuthorization: true,
			PatientID:             "patient-1",
			CreatedBy:             "surgeon-1",
		}
	}

	t.Run("creates a scheduled procedure with derived price", func(t *testing.T) {
		procedureRepo := new(MockProcedureRepository)
		patientRepo := new(MockPatientRepository)
		auditLogRepo := new(MockAuditLogRepository)
		eventBus := new(MockEventBus)
		service := newProcedureService(procedureRepo, patientRepo, auditLogRepo, eventBus)

		patientRepo.On("GetByID", mock.Anything, "patient-1").Return(patient, nil)
		procedureRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *entities.Procedure) bool {
			return p.Status == entities.StatusScheduled &&
				p.AuthorizationStatus == entities.AuthorizationPending &&
				p.AuditStatus == entities.AuditPending &&
				p.BasePrice == 2250.00 // 1500 * 90/60
		})).Return(nil)
		auditLogRepo.On("Append", mock.Anything, mock.Anything).Return(nil)
		eventBus.On("Publish", mock.Anything, providers.EventChannelProcedureUpdates, mock.MatchedBy(func(e *entities.ProcedureEvent) bool {
			return e.EventType == entities.ProcedureEventTypeCreated
		})).Return(nil)

		procedure, err := service.Create(ctx, baseRequest())
		require.NoError(t, err)
		assert.NotEmpty(t, procedure.ID)
		assert.Equal(t, 2250.00, procedure.BasePrice)
		procedureRepo.AssertExpectations(t)
		eventBus.AssertExpectations(t)
	})

	t.Run("high complexity triggers an audit request event", func(t *testing.T) {
		procedureRepo := new(MockProcedureRepository)
		patientRepo := new(MockPatientRepository)
		auditLogRepo := new(MockAuditLogRepository)
		eventBus := new(MockEventBus)
		service := newProcedureService(procedureRepo, patientRepo, auditLogRepo, eventBus)

		patientRepo.On("GetByID", mock.Anything, "patient-1").Return(patient, nil)
		procedureRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		auditLogRepo.On("Append", mock.Anything, mock.Anything).Return(nil)
		eventBus.On("Publish", mock.Anything, providers.EventChannelProcedureUpdates, mock.Anything).Return(nil)
		eventBus.On("Publish", mock.Anything, providers.EventChannelAuditRequests, mock.MatchedBy(func(e *entities.ProcedureEvent) bool {
			return e.EventType == entities.ProcedureEventTypeAuditRequested &&
				e.Payload["priority"] == entities.AuditPriorityUrgent
		})).Return(nil)

		req := baseRequest()
		req.Complexity = entities.ComplexityPorteEspecial

		_, err := service.Create(ctx, req)
		require.NoError(t, err)
		eventBus.AssertExpectations(t)
	})

	t.Run("no authorization needed when flag is off", func(t *testing.T) {
		procedureRepo := new(MockProcedureRepository)
		patientRepo := new(MockPatientRepository)
		auditLogRepo := new(MockAuditLogRepository)
		eventBus := new(MockEventBus)
		service := newProcedureService(procedureRepo, patientRepo, auditLogRepo, eventBus)

		patientRepo.On("GetByID", mock.Anything, "patient-1").Return(patient, nil)
		procedureRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *entities.Procedure) bool {
			return p.AuthorizationStatus == entities.AuthorizationNotRequired
		})).Return(nil)
		auditLogRepo.On("Append", mock.Anything, mock.Anything).Return(nil)
		eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		req := baseRequest()
		req.RequiresAuthorization = false

		_, err := service.Create(ctx, req)
		require.NoError(t, err)
		procedureRepo.AssertExpectations(t)
	})

	t.Run("missing patient aborts with no writes and no events", func(t *testing.T) {
		procedureRepo := new(MockProcedureRepository)
		patientRepo := new(MockPatientRepository)
		auditLogRepo := new(MockAuditLogRepository)
		eventBus := new(MockEventBus)
		service := newProcedureService(procedureRepo, patientRepo, auditLogRepo, eventBus)

		patientRepo.On("GetByID", mock.Anything, "patient-1").
			Return(nil, apperrors.NewNotFoundError("patient not found"))

		_, err := service.Create(ctx, baseRequest())
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
		procedureRepo.AssertNotCalled(t, "Create")
		eventBus.AssertNotCalled(t, "Publish")
	})

	t.Run("publish failure does not fail the operation", func(t *testing.T) {
		procedureRepo := new(MockProcedureRepository)
		patientRepo := new(MockPatientRepository)
		auditLogRepo := new(MockAuditLogRepository)
		eventBus := new(MockEventBus)
		service := newProcedureService(procedureRepo, patientRepo, auditLogRepo, eventBus)

		patientRepo.On("GetByID", mock.Anything, "patient-1").Return(patient, nil)
		procedureRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		auditLogRepo.On("Append", mock.Anything, mock.Anything).Return(nil)
		eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).
			Return(apperrors.NewExternalError("broker unavailable", nil))

		procedure, err := service.Create(ctx, baseRequest())
		require.NoError(t, err)
		assert.NotNil(t, procedure)
	})

	t.Run("rejects unknown complexity at the boundary", func(t *testing.T) {
		service := newProcedureService(new(MockProcedureRepository), new(MockPatientRepository), new(MockAuditLogRepository), new(MockEventBus))

		req := baseRequest()
		req.Complexity = entities.Complexity("PORTE_X")

		_, err := service.Create(ctx, req)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestProcedureService_ConfirmPorte(t *testing.T) {
	ctx := context.Background()

	existing := func() *entities.Procedure {
		return &entities.Procedure{
			ID:                "proc-1",
			Code:              "31005497",
			Complexity:        entities.ComplexityPorte2,
			EstimatedDuration: 90,
			BasePrice:         2250.00,
			Status:            entities.StatusScheduled,
			IsActive:          true,
		}
	}

	t.Run("confirmed values are authoritative and not recomputed", func(t *testing.T) {
		procedureRepo := new(MockProcedureRepository)
		auditLogRepo := new(MockAuditLogRepository)
		eventBus := new(MockEventBus)
		service := newProcedureService(procedureRepo, new(MockPatientRepository), auditLogRepo, eventBus)

		procedureRepo.On("GetByID", mock.Anything, "proc-1").Return(existing(), nil)
		procedureRepo.On("Update", mock.Anything, mock.MatchedBy(func(p *entities.Procedure) bool {
			// 3999.99 is not what the price model would derive; it must be stored as-is
			return p.Complexity == entities.ComplexityPorte3 &&
				p.EstimatedDuration == 120 &&
				p.BasePrice == 3999.99
		})).Return(nil)
		auditLogRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *entities.AuditLog) bool {
			return e.Action == entities.AuditActionPorteConfirmed &&
				e.OldValues["complexity"] == entities.ComplexityPorte2 &&
				e.NewValues["complexity"] == entities.ComplexityPorte3
		})).Return(nil)
		eventBus.On("Publish", mock.Anything, providers.EventChannelProcedureUpdates, mock.MatchedBy(func(e *entities.ProcedureEvent) bool {
			return e.EventType == entities.ProcedureEventTypePorteConfirmed
		})).Return(nil)

		procedure, err := service.ConfirmPorte(ctx, "proc-1", services.PorteConfirmation{
			Complexity:        entities.ComplexityPorte3,
			EstimatedDuration: 120,
			BasePrice:         3999.99,
			ConfirmedBy:       "auditor-1",
		})
		require.NoError(t, err)
		assert.Equal(t, 3999.99, procedure.BasePrice)
		auditLogRepo.AssertExpectations(t)
	})

	t.Run("unknown procedure fails with not found", func(t *testing.T) {
		procedureRepo := new(MockProcedureRepository)
		service := newProcedureService(procedureRepo, new(MockPatientRepository), new(MockAuditLogRepository), new(MockEventBus))

		procedureRepo.On("GetByID", mock.Anything, "missing").
			Return(nil, apperrors.NewNotFoundError("procedure not found"))

		_, err := service.ConfirmPorte(ctx, "missing", services.PorteConfirmation{
			Complexity:        entities.ComplexityPorte3,
			EstimatedDuration: 60,
			BasePrice:         3000,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("rejects negative confirmed price", func(t *testing.T) {
		service := newProcedureService(new(MockProcedureRepository), new(MockPatientRepository), new(MockAuditLogRepository), new(MockEventBus))

		_, err := service.ConfirmPorte(ctx, "proc-1", services.PorteConfirmation{
			Complexity:        entities.ComplexityPorte3,
			EstimatedDuration: 60,
			BasePrice:         -1,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestProcedureService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("legal transition is persisted and published", func(t *testing.T) {
		procedureRepo := new(MockProcedureRepository)
		auditLogRepo := new(MockAuditLogRepository)
		eventBus := new(MockEventBus)
		service := newProcedureService(procedureRepo, new(MockPatientRepository), auditLogRepo, eventBus)

		procedureRepo.On("GetByID", mock.Anything, "proc-1").Return(&entities.Procedure{
			ID:     "proc-1",
			Status: entities.StatusScheduled,
		}, nil)
		procedureRepo.On("Update", mock.Anything, mock.MatchedBy(func(p *entities.Procedure) bool {
			return p.Status == entities.StatusConfirmed
		})).Return(nil)
		auditLogRepo.On("Append", mock.Anything, mock.Anything).Return(nil)
		eventBus.On("Publish", mock.Anything, providers.EventChannelProcedureUpdates, mock.MatchedBy(func(e *entities.ProcedureEvent) bool {
			return e.EventType == entities.ProcedureEventTypeStatusUpdated &&
				e.Payload["old_status"] == entities.StatusScheduled &&
				e.Payload["new_status"] == entities.StatusConfirmed
		})).Return(nil)

		_, err := service.UpdateStatus(ctx, "proc-1", entities.StatusConfirmed, "surgeon-1")
		require.NoError(t, err)
		eventBus.AssertExpectations(t)
	})

	t.Run("illegal transition is rejected", func(t *testing.T) {
		procedureRepo := new(MockProcedureRepository)
		service := newProcedureService(procedureRepo, new(MockPatientRepository), new(MockAuditLogRepository), new(MockEventBus))

		procedureRepo.On("GetByID", mock.Anything, "proc-1").Return(&entities.Procedure{
			ID:     "proc-1",
			Status: entities.StatusCompleted,
		}, nil)

		_, err := service.UpdateStatus(ctx, "proc-1", entities.StatusScheduled, "surgeon-1")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		procedureRepo.AssertNotCalled(t, "Update")
	})

	t.Run("completing stamps the performed date", func(t *testing.T) {
		procedureRepo := new(MockProcedureRepository)
		auditLogRepo := new(MockAuditLogRepository)
		eventBus := new(MockEventBus)
		service := newProcedureService(procedureRepo, new(MockPatientRepository), auditLogRepo, eventBus)

		procedureRepo.On("GetByID", mock.Anything, "proc-1").Return(&entities.Procedure{
			ID:     "proc-1",
			Status: entities.StatusInProgress,
		}, nil)
		procedureRepo.On("Update", mock.Anything, mock.MatchedBy(func(p *entities.Procedure) bool {
			return p.Status == entities.StatusCompleted && p.PerformedDate != nil
		})).Return(nil)
		auditLogRepo.On("Append", mock.Anything, mock.Anything).Return(nil)
		eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		procedure, err := service.UpdateStatus(ctx, "proc-1", entities.StatusCompleted, "surgeon-1")
		require.NoError(t, err)
		require.NotNil(t, procedure.PerformedDate)
	})

	t.Run("rejects unknown status token", func(t *testing.T) {
		service := newProcedureService(new(MockProcedureRepository), new(MockPatientRepository), new(MockAuditLogRepository), new(MockEventBus))

		_, err := service.UpdateStatus(ctx, "proc-1", entities.ProcedureStatus("ARCHIVED"), "surgeon-1")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestProcedureService_PendingSummary(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	today := now.Add(2 * time.Hour)
	inThreeDays := now.AddDate(0, 0, 3)
	nextMonth := now.AddDate(0, 1, 0)

	pending := []*entities.Procedure{
		{
			ID:                    "proc-1",
			Status:                entities.StatusScheduled,
			Complexity:            entities.ComplexityPorte4,
			RequiresAuthorization: true,
			AuthorizationStatus:   entities.AuthorizationPending,
			AuditStatus:           entities.AuditPending,
			ScheduledDate:         &today,
			CreatedAt:             now.Add(-72 * time.Hour),
		},
		{
			ID:                  "proc-2",
			Status:              entities.StatusConfirmed,
			Complexity:          entities.ComplexityPorte1,
			AuthorizationStatus: entities.AuthorizationNotRequired,
			AuditStatus:         entities.AuditPending,
			ScheduledDate:       &inThreeDays,
			CreatedAt:           now.Add(-48 * time.Hour),
		},
		{
			ID:                  "proc-3",
			Status:              entities.StatusScheduled,
			Complexity:          entities.ComplexityPorte3,
			AuthorizationStatus: entities.AuthorizationNotRequired,
			AuditStatus:         entities.AuditPending,
			ScheduledDate:       &nextMonth,
			CreatedAt:           now.Add(-24 * time.Hour),
		},
	}

	procedureRepo := new(MockProcedureRepository)
	service := newProcedureService(procedureRepo, new(MockPatientRepository), new(MockAuditLogRepository), new(MockEventBus))

	procedureRepo.On("List", mock.Anything, mock.MatchedBy(func(f repositories.ProcedureFilter) bool {
		return f.OrderBy == repositories.OrderCreatedAsc && len(f.Statuses) == 2
	})).Return(pending, nil)

	summary, err := service.PendingSummary(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalPending)
	assert.Equal(t, 1, summary.NeedingAuthorization)
	assert.Equal(t, 2, summary.NeedingAudit) // PORTE_4 and PORTE_3; PORTE_1 is exempt
	assert.Equal(t, 1, summary.ScheduledToday)
	assert.Equal(t, 2, summary.ScheduledWithin7Days)
	require.Len(t, summary.Recent, 2)
	// oldest pending first
	assert.Equal(t, "proc-1", summary.Recent[0].ID)
	assert.Equal(t, "proc-2", summary.Recent[1].ID)
}
