package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/diewo77/impacttracker/internal/models"
	"github.com/diewo77/impacttracker/internal/policy"
	"github.com/diewo77/impacttracker/internal/validation"
)

// IndicatorInput is the payload for creating an indicator.
type IndicatorInput struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	TargetValue  float64 `json:"targetValue"`
	CurrentValue float64 `json:"currentValue"`
	Unit         string  `json:"unit"`
}

// EntryInput is the payload for appending an observation to an indicator.
type EntryInput struct {
	Value    float64 `json:"value"`
	Notes    string  `json:"notes"`
	Evidence string  `json:"evidence"`
}

// IndicatorService is the indicator/entry engine. An indicator's value only
// moves forward through entry creation; there is no rollback operation.
type IndicatorService struct {
	DB    *gorm.DB
	Audit *AuditService
}

func NewIndicatorService(db *gorm.DB, audit *AuditService) *IndicatorService {
	return &IndicatorService{DB: db, Audit: audit}
}

// loadProject fetches a project with its allocation set so policy checks can
// see the donor list.
func (s *IndicatorService) loadProject(ctx context.Context, tx *gorm.DB, projectID uint) (*models.Project, error) {
	var project models.Project
	if err := tx.WithContext(ctx).Preload("Donors").First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &project, nil
}

// ListByProject returns a project's indicators in creation order. Read
// access follows project visibility.
func (s *IndicatorService) ListByProject(ctx context.Context, actor policy.Actor, projectID uint) ([]models.Indicator, error) {
	project, err := s.loadProject(ctx, s.DB, projectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewProject(actor, project) {
		return nil, ErrAccessDenied
	}
	var indicators []models.Indicator
	if err := s.DB.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&indicators).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return indicators, nil
}

// Create creates an indicator on a project. Allowed for an admin or the
// chef de projet who owns the project. The supplied current value is an
// initial baseline, not yet backed by an entry.
func (s *IndicatorService) Create(ctx context.Context, actor policy.Actor, projectID uint, input IndicatorInput) (*models.Indicator, error) {
	v := validation.Violations{}
	validation.Required("name", input.Name, v)
	validation.Required("unit", input.Unit, v)
	validation.NonNegative("targetValue", input.TargetValue, v)
	validation.NonNegative("currentValue", input.CurrentValue, v)
	if !v.Empty() {
		return nil, &ValidationError{Violations: v}
	}

	project, err := s.loadProject(ctx, s.DB, projectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageIndicators(actor, project) {
		return nil, ErrAccessDenied
	}

	indicator := models.Indicator{
		ProjectID:    projectID,
		Name:         input.Name,
		Description:  input.Description,
		TargetValue:  input.TargetValue,
		CurrentValue: input.CurrentValue,
		Unit:         input.Unit,
	}
	if err := s.DB.WithContext(ctx).Create(&indicator).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.Audit.Record(ctx, actor.ID, models.AuditActionCreate, "indicator", indicator.ID, indicator.Name)
	return &indicator, nil
}

// AppendEntry records a new observation: it inserts the immutable entry row
// and updates the indicator's cached current value in one transaction, so no
// state exists where one side committed without the other.
func (s *IndicatorService) AppendEntry(ctx context.Context, actor policy.Actor, indicatorID uint, input EntryInput) (*models.Indicator, error) {
	v := validation.Violations{}
	validation.NonNegative("value", input.Value, v)
	if !v.Empty() {
		return nil, &ValidationError{Violations: v}
	}

	var updated models.Indicator
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var indicator models.Indicator
		if err := tx.First(&indicator, indicatorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		project, err := s.loadProject(ctx, tx, indicator.ProjectID)
		if err != nil {
			return err
		}
		if !policy.CanManageIndicators(actor, project) {
			return ErrAccessDenied
		}

		creator := actor.ID
		entry := models.IndicatorEntry{
			IndicatorID: indicatorID,
			Value:       input.Value,
			Notes:       input.Notes,
			Evidence:    input.Evidence,
			CreatedBy:   &creator,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if err := tx.Model(&indicator).Update("current_value", input.Value).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		updated = indicator
		updated.CurrentValue = input.Value
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Audit.Record(ctx, actor.ID, models.AuditActionAppendEntry, "indicator", indicatorID, fmt.Sprintf("valeur %g", input.Value))
	return &updated, nil
}

// Entry is an entry joined with its creator's display name.
type Entry struct {
	models.IndicatorEntry
	CreatedByName string `json:"createdByName,omitempty"`
}

// ListEntries returns an indicator's entries in ascending creation order,
// ties broken by id. Read access follows the parent project.
func (s *IndicatorService) ListEntries(ctx context.Context, actor policy.Actor, indicatorID uint) ([]Entry, error) {
	var indicator models.Indicator
	if err := s.DB.WithContext(ctx).First(&indicator, indicatorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	project, err := s.loadProject(ctx, s.DB, indicator.ProjectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewProject(actor, project) {
		return nil, ErrAccessDenied
	}

	var rows []models.IndicatorEntry
	if err := s.DB.WithContext(ctx).
		Where("indicator_id = ?", indicatorID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		e := Entry{IndicatorEntry: row}
		if row.CreatedBy != nil {
			var user models.User
			if err := s.DB.WithContext(ctx).First(&user, *row.CreatedBy).Error; err == nil {
				e.CreatedByName = user.FullName()
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}
