package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/hospitalcore/surgical-procedures/internal/adapters/database"
	"github.com/hospitalcore/surgical-procedures/internal/application/services"
	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
	"github.com/hospitalcore/surgical-procedures/internal/infrastructure/clients/postgres"
	"github.com/hospitalcore/surgical-procedures/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				audit_logs,
				port_validations,
				port_validation_rules,
				procedures,
				patients
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to truncate tables: %v", err)
		}
	}

	patientRepo := database.NewPatientAdapter(pgClient)
	ruleRepo := database.NewRuleAdapter(pgClient)
	auditLogRepo := database.NewAuditLogAdapter(pgClient)
	procedureRepo := database.NewProcedureAdapter(pgClient)

	procedureService := services.NewProcedureService(
		procedureRepo,
		patientRepo,
		auditLogRepo,
		nil, // no event bus while seeding
		services.NewPricingService(),
		services.NewAuditPolicy(),
	)

	// Patients
	patients := []*entities.Patient{
		{Name: "Maria Oliveira", Document: "123.456.789-00"},
		{Name: "Carlos Pereira", Document: "987.654.321-00"},
		{Name: "Ana Costa", Document: "456.789.123-00"},
	}
	now := time.Now()
	for _, p := range patients {
		p.ID = uuid.New().String()
		p.IsActive = true
		p.CreatedAt = now
		p.UpdatedAt = now
		if err := patientRepo.Create(ctx, p); err != nil {
			log.Fatalf("Failed to seed patient %s: %v", p.Name, err)
		}
	}
	log.Printf("Seeded %d patients", len(patients))

	// Port validation rules
	rules := []*entities.PortValidationRule{
		{ProcedureCode: "31005497", MinimumPort: 2, MaximumPort: 3, RecommendedPort: 2},
		{ProcedureCode: "31602096", MinimumPort: 3, MaximumPort: 4, RecommendedPort: 3},
		{ProcedureCode: "30912083", MinimumPort: 1, MaximumPort: 2, RecommendedPort: 1},
	}
	for _, r := range rules {
		r.ID = uuid.New().String()
		r.IsActive = true
		r.CreatedAt = now
		r.UpdatedAt = now
		if err := ruleRepo.Create(ctx, r); err != nil {
			log.Fatalf("Failed to seed rule for %s: %v", r.ProcedureCode, err)
		}
	}
	log.Printf("Seeded %d port validation rules", len(rules))

	// Procedures
	scheduled := now.Add(72 * time.Hour)
	requests := []services.CreateProcedureRequest{
		{
			Code:              "31005497",
			Name:              "Laparoscopic cholecystectomy",
			Category:          entities.CategoryGeneralSurgery,
			Complexity:        entities.ComplexityPorte2,
			EstimatedDuration: 90,
			ScheduledDate:     &scheduled,
			PatientID:         patients[0].ID,
			Room:              "OR-2",
			Hospital:          "Hospital Central",
			CreatedBy:         "seed",
		},
		{
			Code:                  "31602096",
			Name:                  "Coronary artery bypass graft",
			Category:              entities.CategoryCardiovascular,
			Complexity:            entities.ComplexityPorte4,
			EstimatedDuration:     300,
			ScheduledDate:         &scheduled,
			RequiresAuthorization: true,
			PatientID:             patients[1].ID,
			Room:                  "OR-1",
			Hospital:              "Hospital Central",
			CreatedBy:             "seed",
		},
		{
			Code:              "30912083",
			Name:              "Carpal tunnel release",
			Category:          entities.CategoryOrthopedics,
			Complexity:        entities.ComplexityPorte1,
			EstimatedDuration: 45,
			ScheduledDate:     &scheduled,
			PatientID:         patients[2].ID,
			Room:              "OR-3",
			Hospital:          "Hospital Sul",
			CreatedBy:         "seed",
		},
	}
	for _, req := range requests {
		if _, err := procedureService.Create(ctx, req); err != nil {
			log.Fatalf("Failed to seed procedure %s: %v", req.Code, err)
		}
	}
	log.Printf("Seeded %d procedures", len(requests))

	log.Println("Seeding complete")
}
