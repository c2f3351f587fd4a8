package services

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/impacttracker/internal/models"
)

func TestSetAllocationsReplacesFullSet(t *testing.T) {
	db := setupTestDB(t)
	chef := seedUser(t, db, "chef@ong.test", models.RoleChefProjet)
	d1 := seedUser(t, db, "d1@ong.test", models.RoleDonateur)
	d2 := seedUser(t, db, "d2@ong.test", models.RoleDonateur)
	project := seedProject(t, db, chef.ID, 50000)
	svc := NewAllocationService(db)
	ctx := context.Background()

	if err := svc.SetAllocations(ctx, project.ID, []AllocationInput{
		{DonorID: d1.ID, CommittedAmount: 20000, SpentAmount: 5000},
		{DonorID: d2.ID, CommittedAmount: 10000, SpentAmount: 0},
	}); err != nil {
		t.Fatalf("set allocations: %v", err)
	}

	// Replacing with a single-donor set must drop d2 entirely.
	if err := svc.SetAllocations(ctx, project.ID, []AllocationInput{
		{DonorID: d1.ID, CommittedAmount: 25000, SpentAmount: 6000},
	}); err != nil {
		t.Fatalf("replace allocations: %v", err)
	}

	var rows []models.DonorAllocation
	if err := db.Where("project_id = ?", project.ID).Find(&rows).Error; err != nil {
		t.Fatalf("load allocations: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 allocation after replace, got %d", len(rows))
	}
	if rows[0].UserID != d1.ID || rows[0].CommittedAmount != 25000 || rows[0].SpentAmount != 6000 {
		t.Fatalf("unexpected allocation row: %+v", rows[0])
	}
}

func TestSetAllocationsClampsSpentToCommitted(t *testing.T) {
	db := setupTestDB(t)
	chef := seedUser(t, db, "chef@ong.test", models.RoleChefProjet)
	donor := seedUser(t, db, "d@ong.test", models.RoleDonateur)
	project := seedProject(t, db, chef.ID, 10000)
	svc := NewAllocationService(db)

	// spent 600 against committed 500 is clamped down, not rejected
	if err := svc.SetAllocations(context.Background(), project.ID, []AllocationInput{
		{DonorID: donor.ID, CommittedAmount: 500, SpentAmount: 600},
	}); err != nil {
		t.Fatalf("set allocations: %v", err)
	}

	var row models.DonorAllocation
	if err := db.Where("project_id = ? AND user_id = ?", project.ID, donor.ID).First(&row).Error; err != nil {
		t.Fatalf("load allocation: %v", err)
	}
	if row.SpentAmount != 500 {
		t.Fatalf("expected spent clamped to 500, got %v", row.SpentAmount)
	}
}

func TestSetAllocationsRaisesProjectSpentToFloor(t *testing.T) {
	db := setupTestDB(t)
	chef := seedUser(t, db, "chef@ong.test", models.RoleChefProjet)
	donor := seedUser(t, db, "d@ong.test", models.RoleDonateur)
	project := seedProject(t, db, chef.ID, 50000)
	svc := NewAllocationService(db)

	if err := svc.SetAllocations(context.Background(), project.ID, []AllocationInput{
		{DonorID: donor.ID, CommittedAmount: 20000, SpentAmount: 5000},
	}); err != nil {
		t.Fatalf("set allocations: %v", err)
	}

	var reloaded models.Project
	if err := db.First(&reloaded, project.ID).Error; err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if reloaded.Spent != 5000 {
		t.Fatalf("expected project spent raised to 5000, got %v", reloaded.Spent)
	}

	// A lower floor must not pull an already higher project spent back down.
	if err := NewAllocationService(db).SetAllocations(context.Background(), project.ID, []AllocationInput{
		{DonorID: donor.ID, CommittedAmount: 20000, SpentAmount: 2000},
	}); err != nil {
		t.Fatalf("second set: %v", err)
	}
	if err := db.First(&reloaded, project.ID).Error; err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if reloaded.Spent != 5000 {
		t.Fatalf("expected project spent to stay at 5000, got %v", reloaded.Spent)
	}
}

func TestSetAllocationsRejectsNegativeAmounts(t *testing.T) {
	db := setupTestDB(t)
	chef := seedUser(t, db, "chef@ong.test", models.RoleChefProjet)
	donor := seedUser(t, db, "d@ong.test", models.RoleDonateur)
	project := seedProject(t, db, chef.ID, 10000)
	svc := NewAllocationService(db)

	err := svc.SetAllocations(context.Background(), project.ID, []AllocationInput{
		{DonorID: donor.ID, CommittedAmount: -10, SpentAmount: 0},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	var count int64
	if err := db.Model(&models.DonorAllocation{}).Where("project_id = ?", project.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no allocations written, got %d", count)
	}
}

func TestSetAllocationsUnknownProject(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAllocationService(db)
	err := svc.SetAllocations(context.Background(), 9999, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMergeDonorIDsIsAdditive(t *testing.T) {
	db := setupTestDB(t)
	chef := seedUser(t, db, "chef@ong.test", models.RoleChefProjet)
	d1 := seedUser(t, db, "d1@ong.test", models.RoleDonateur)
	d2 := seedUser(t, db, "d2@ong.test", models.RoleDonateur)
	project := seedProject(t, db, chef.ID, 30000)
	svc := NewAllocationService(db)
	ctx := context.Background()

	if err := svc.SetAllocations(ctx, project.ID, []AllocationInput{
		{DonorID: d1.ID, CommittedAmount: 15000, SpentAmount: 4000},
	}); err != nil {
		t.Fatalf("set allocations: %v", err)
	}

	// Merging ids must add d2 with zero amounts and leave d1's amounts alone.
	if err := svc.MergeDonorIDs(ctx, project.ID, []uint{d1.ID, d2.ID}); err != nil {
		t.Fatalf("merge donor ids: %v", err)
	}

	var rows []models.DonorAllocation
	if err := db.Where("project_id = ?", project.ID).Order("user_id ASC").Find(&rows).Error; err != nil {
		t.Fatalf("load allocations: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(rows))
	}
	byUser := map[uint]models.DonorAllocation{}
	for _, r := range rows {
		byUser[r.UserID] = r
	}
	if byUser[d1.ID].CommittedAmount != 15000 || byUser[d1.ID].SpentAmount != 4000 {
		t.Fatalf("existing allocation modified: %+v", byUser[d1.ID])
	}
	if byUser[d2.ID].CommittedAmount != 0 || byUser[d2.ID].SpentAmount != 0 {
		t.Fatalf("expected zero-amount row for new donor, got %+v", byUser[d2.ID])
	}
}
