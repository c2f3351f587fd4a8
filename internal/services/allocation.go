package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/diewo77/impacttracker/internal/models"
	"github.com/diewo77/impacttracker/internal/validation"
)

// AllocationInput is one donor's amounts as supplied by the API caller.
type AllocationInput struct {
	DonorID         uint    `json:"donorId"`
	CommittedAmount float64 `json:"committedAmount"`
	SpentAmount     float64 `json:"spentAmount"`
}

// AllocationService maintains per-donor committed/spent amounts against a
// project budget and keeps the aggregate project spent consistent.
//
// Two distinct update paths exist on purpose: SetAllocations
// replaces the full set, MergeDonorIDs only adds zero-amount rows. Which one
// runs depends on the input shape the caller sent.
type AllocationService struct {
	DB *gorm.DB
}

func NewAllocationService(db *gorm.DB) *AllocationService {
	return &AllocationService{DB: db}
}

// validateAllocations checks allocation inputs and clamps SpentAmount above
// CommittedAmount down in place. Pure: callers run it before any write.
func validateAllocations(allocations []AllocationInput, v validation.Violations) {
	for i := range allocations {
		a := &allocations[i]
		validation.NonNegative(fmt.Sprintf("donorAllocations[%d].committedAmount", i), a.CommittedAmount, v)
		validation.NonNegative(fmt.Sprintf("donorAllocations[%d].spentAmount", i), a.SpentAmount, v)
		if a.DonorID == 0 {
			v[fmt.Sprintf("donorAllocations[%d].donorId", i)] = "required"
		}
		if a.SpentAmount > a.CommittedAmount {
			a.SpentAmount = a.CommittedAmount
		}
	}
}

// SetAllocations atomically replaces the project's full allocation set
// (delete-then-insert) and raises the project spent to the allocation floor.
// SpentAmount above CommittedAmount is clamped down rather than rejected;
// negative amounts are rejected before any write.
func (s *AllocationService) SetAllocations(ctx context.Context, projectID uint, allocations []AllocationInput) error {
	v := validation.Violations{}
	validateAllocations(allocations, v)
	if !v.Empty() {
		return &ValidationError{Violations: v}
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.DonorAllocation{}).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		var spentFloor float64
		for _, a := range allocations {
			row := models.DonorAllocation{
				ProjectID:       projectID,
				UserID:          a.DonorID,
				CommittedAmount: a.CommittedAmount,
				SpentAmount:     a.SpentAmount,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			spentFloor += a.SpentAmount
		}
		if project.Spent < spentFloor {
			if err := tx.Model(&project).Update("spent", spentFloor).Error; err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
		}
		return nil
	})
	return err
}

// validateDonorIDs flags zero ids in the legacy donatorIds shape.
func validateDonorIDs(donorIDs []uint, v validation.Violations) {
	for _, id := range donorIDs {
		if id == 0 {
			v["donatorIds"] = "invalid_id"
			return
		}
	}
}

// MergeDonorIDs creates zero-amount allocations for any donor id not already
// present. Existing allocations are never touched or removed: the legacy
// donatorIds shape is additive, unlike SetAllocations.
func (s *AllocationService) MergeDonorIDs(ctx context.Context, projectID uint, donorIDs []uint) error {
	v := validation.Violations{}
	validateDonorIDs(donorIDs, v)
	if !v.Empty() {
		return &ValidationError{Violations: v}
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		for _, id := range donorIDs {
			var count int64
			if err := tx.Model(&models.DonorAllocation{}).
				Where("project_id = ? AND user_id = ?", projectID, id).
				Count(&count).Error; err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			if count > 0 {
				continue
			}
			row := models.DonorAllocation{ProjectID: projectID, UserID: id}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
		}
		return nil
	})
}
