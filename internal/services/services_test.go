package services

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/impacttracker/internal/mailer"
	"github.com/diewo77/impacttracker/internal/models"
	"github.com/diewo77/impacttracker/internal/policy"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Project{}, &models.DonorAllocation{}, &models.Indicator{}, &models.IndicatorEntry{}, &models.AuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string, role models.Role) models.User {
	t.Helper()
	u := models.User{Email: email, PasswordHash: "x", FirstName: "Test", LastName: string(role), Role: role}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func seedProject(t *testing.T, db *gorm.DB, chefID uint, budget float64) models.Project {
	t.Helper()
	p := models.Project{
		Name:          "Accès à l'eau potable",
		Description:   "Forages et points d'eau",
		Status:        models.ProjectStatusEnCours,
		StartDate:     time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Budget:        budget,
		ChefProjectID: chefID,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return p
}

func asActor(u models.User) policy.Actor {
	return policy.Actor{ID: u.ID, Role: u.Role}
}

func newTestAuditService(db *gorm.DB) *AuditService {
	return NewAuditService(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestProjectService(db *gorm.DB) *ProjectService {
	return NewProjectService(db, NewAllocationService(db), mailer.Discard{}, newTestAuditService(db))
}
