package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/impacttracker/internal/mailer"
	"github.com/diewo77/impacttracker/internal/models"
	"github.com/diewo77/impacttracker/internal/policy"
	"github.com/diewo77/impacttracker/internal/validation"
)

// ProjectInput is the write payload for project create/update. Exactly one
// of DonorAllocations (full replace) or DonatorIDs (additive merge) should
// be supplied; when both are present the amount-bearing shape wins.
type ProjectInput struct {
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	Status        models.ProjectStatus  `json:"status"`
	StartDate     string                `json:"startDate"`
	EndDate       *string               `json:"endDate"`
	Budget        float64               `json:"budget"`
	Spent         float64               `json:"spent"`
	ChefProjectID uint                  `json:"chefProjectId"`
	DonatorIDs    []uint                `json:"donatorIds"`
	Allocations   []AllocationInput     `json:"donorAllocations"`
}

// ProjectView is the read shape: the project plus the legacy donatorIds
// list derived from the allocation set.
type ProjectView struct {
	models.Project
	DonatorIDs []uint `json:"donatorIds"`
}

func newProjectView(p models.Project) ProjectView {
	ids := p.DonorIDs()
	if ids == nil {
		ids = []uint{}
	}
	if p.Donors == nil {
		p.Donors = []models.DonorAllocation{}
	}
	return ProjectView{Project: p, DonatorIDs: ids}
}

// ProjectService owns project CRUD and the role-scoped read paths.
type ProjectService struct {
	DB          *gorm.DB
	Allocations *AllocationService
	Mailer      mailer.Sender
	Audit       *AuditService
}

func NewProjectService(db *gorm.DB, allocations *AllocationService, sender mailer.Sender, audit *AuditService) *ProjectService {
	return &ProjectService{DB: db, Allocations: allocations, Mailer: sender, Audit: audit}
}

// ListForActor returns the projects visible to the actor: admin sees all,
// a chef de projet their own, a donateur the projects they fund.
func (s *ProjectService) ListForActor(ctx context.Context, actor policy.Actor) ([]ProjectView, error) {
	q := s.DB.WithContext(ctx).Model(&models.Project{}).Preload("Donors")
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleChefProjet:
		q = q.Where("chef_project_id = ?", actor.ID)
	case models.RoleDonateur:
		q = q.Joins("JOIN project_donors pd ON pd.project_id = projects.id AND pd.user_id = ?", actor.ID)
	default:
		return []ProjectView{}, nil
	}
	var projects []models.Project
	if err := q.Order("created_at DESC, id DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	views := make([]ProjectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, newProjectView(p))
	}
	return views, nil
}

// Get returns one project with indicators and allocations. Unknown ids give
// ErrNotFound; an existing project outside the actor's scope gives
// ErrAccessDenied (existence is revealed, same as the legacy API).
func (s *ProjectService) Get(ctx context.Context, actor policy.Actor, id uint) (*ProjectView, error) {
	var project models.Project
	if err := s.DB.WithContext(ctx).Preload("Donors").Preload("Indicators").First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !policy.CanViewProject(actor, &project) {
		return nil, ErrAccessDenied
	}
	view := newProjectView(project)
	return &view, nil
}

func (s *ProjectService) validate(ctx context.Context, input *ProjectInput) (start time.Time, end *time.Time, err error) {
	v := validation.Violations{}
	validation.Required("name", input.Name, v)
	validation.Required("description", input.Description, v)
	validation.NonNegative("budget", input.Budget, v)
	validation.NonNegative("spent", input.Spent, v)
	if input.Status == "" {
		input.Status = models.ProjectStatusPlanning
	}
	if !input.Status.Valid() {
		v["status"] = "invalid_value"
	}
	start, perr := parseDate(input.StartDate)
	if perr != nil {
		v["startDate"] = "invalid_date"
	}
	if input.EndDate != nil && *input.EndDate != "" {
		e, perr := parseDate(*input.EndDate)
		if perr != nil {
			v["endDate"] = "invalid_date"
		} else {
			end = &e
		}
	}
	if input.ChefProjectID == 0 {
		v["chefProjectId"] = "required"
	} else {
		var chef models.User
		if err := s.DB.WithContext(ctx).First(&chef, input.ChefProjectID).Error; err != nil || chef.Role != models.RoleChefProjet {
			v["chefProjectId"] = "must_reference_chef_projet"
		}
	}
	// Allocation shapes are checked here, before any row is written, so a
	// bad allocation never leaves a project behind.
	validateAllocations(input.Allocations, v)
	validateDonorIDs(input.DonatorIDs, v)
	if !v.Empty() {
		return time.Time{}, nil, &ValidationError{Violations: v}
	}
	return start, end, nil
}

// Create creates a project. Admin only; the capability check goes through
// the policy evaluator rather than ad hoc role comparisons.
func (s *ProjectService) Create(ctx context.Context, actor policy.Actor, input ProjectInput) (*ProjectView, error) {
	if !policy.CanEditProject(actor) {
		return nil, ErrAccessDenied
	}
	start, end, err := s.validate(ctx, &input)
	if err != nil {
		return nil, err
	}

	adminID := actor.ID
	project := models.Project{
		Name:          input.Name,
		Description:   input.Description,
		Status:        input.Status,
		StartDate:     start,
		EndDate:       end,
		Budget:        input.Budget,
		Spent:         input.Spent,
		AdminID:       &adminID,
		ChefProjectID: input.ChefProjectID,
	}
	if err := s.DB.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := s.applyAllocations(ctx, project.ID, input); err != nil {
		return nil, err
	}
	s.Audit.Record(ctx, actor.ID, models.AuditActionCreate, "project", project.ID, project.Name)
	s.notifyChef(ctx, project.ChefProjectID, project.Name)
	return s.reload(ctx, project.ID)
}

// Update replaces the project's mutable fields. Admin only. Allocation
// input shapes keep their distinct semantics (replace vs merge).
func (s *ProjectService) Update(ctx context.Context, actor policy.Actor, id uint, input ProjectInput) (*ProjectView, error) {
	if !policy.CanEditProject(actor) {
		return nil, ErrAccessDenied
	}
	var project models.Project
	if err := s.DB.WithContext(ctx).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	start, end, err := s.validate(ctx, &input)
	if err != nil {
		return nil, err
	}

	reassigned := project.ChefProjectID != input.ChefProjectID
	updates := map[string]any{
		"name":            input.Name,
		"description":     input.Description,
		"status":          input.Status,
		"start_date":      start,
		"end_date":        end,
		"budget":          input.Budget,
		"spent":           input.Spent,
		"chef_project_id": input.ChefProjectID,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&project).Updates(updates).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		// The allocation floor survives a metadata-only update: spent may
		// never drop below the sum of donor spent amounts.
		var floor float64
		if err := tx.Model(&models.DonorAllocation{}).
			Where("project_id = ?", id).
			Select("COALESCE(SUM(spent_amount), 0)").
			Scan(&floor).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if input.Spent < floor {
			if err := tx.Model(&project).Update("spent", floor).Error; err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.applyAllocations(ctx, id, input); err != nil {
		return nil, err
	}
	s.Audit.Record(ctx, actor.ID, models.AuditActionUpdate, "project", id, input.Name)
	if reassigned {
		s.notifyChef(ctx, input.ChefProjectID, input.Name)
	}
	return s.reload(ctx, id)
}

// Delete removes a project and everything it owns. Admin only. Children are
// deleted explicitly in one transaction so the cascade does not depend on
// driver foreign-key enforcement.
func (s *ProjectService) Delete(ctx context.Context, actor policy.Actor, id uint) error {
	if !policy.CanEditProject(actor) {
		return ErrAccessDenied
	}
	var name string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		var indicatorIDs []uint
		if err := tx.Model(&models.Indicator{}).Where("project_id = ?", id).Pluck("id", &indicatorIDs).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if len(indicatorIDs) > 0 {
			if err := tx.Where("indicator_id IN ?", indicatorIDs).Delete(&models.IndicatorEntry{}).Error; err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			if err := tx.Where("project_id = ?", id).Delete(&models.Indicator{}).Error; err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.DonorAllocation{}).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if err := tx.Delete(&project).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		name = project.Name
		return nil
	})
	if err != nil {
		return err
	}
	s.Audit.Record(ctx, actor.ID, models.AuditActionDelete, "project", id, name)
	return nil
}

func (s *ProjectService) applyAllocations(ctx context.Context, projectID uint, input ProjectInput) error {
	if input.Allocations != nil {
		return s.Allocations.SetAllocations(ctx, projectID, input.Allocations)
	}
	if len(input.DonatorIDs) > 0 {
		return s.Allocations.MergeDonorIDs(ctx, projectID, input.DonatorIDs)
	}
	return nil
}

func (s *ProjectService) reload(ctx context.Context, id uint) (*ProjectView, error) {
	var project models.Project
	if err := s.DB.WithContext(ctx).Preload("Donors").First(&project, id).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	view := newProjectView(project)
	return &view, nil
}

func (s *ProjectService) notifyChef(ctx context.Context, chefID uint, projectName string) {
	var chef models.User
	if err := s.DB.WithContext(ctx).First(&chef, chefID).Error; err != nil {
		return
	}
	subject, body := mailer.ProjectAssigned(projectName)
	s.Mailer.Send(chef.Email, subject, body)
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date %q", raw)
}
