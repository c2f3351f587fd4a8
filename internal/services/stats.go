package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/diewo77/impacttracker/internal/models"
	"github.com/diewo77/impacttracker/internal/policy"
)

// PortfolioStats are dashboard aggregates over the actor-visible project
// set. Everything here is derived on read and never persisted.
type PortfolioStats struct {
	TotalProjects   int     `json:"totalProjects"`
	ActiveProjects  int     `json:"activeProjects"`
	TotalBudget     float64 `json:"totalBudget"`
	TotalSpent      float64 `json:"totalSpent"`
	TotalCommitted  float64 `json:"totalCommitted"`
	AverageProgress float64 `json:"averageProgress"`
}

// ProjectProgress is the per-project mean of indicator progress.
type ProjectProgress struct {
	ProjectID       uint    `json:"projectId"`
	IndicatorCount  int     `json:"indicatorCount"`
	AverageProgress float64 `json:"averageProgress"`
}

// StatsService assembles read-only dashboard figures.
type StatsService struct {
	DB       *gorm.DB
	Projects *ProjectService
}

func NewStatsService(db *gorm.DB, projects *ProjectService) *StatsService {
	return &StatsService{DB: db, Projects: projects}
}

// ProjectAverageProgress computes the mean of each indicator's derived
// progress for one project. A project without indicators reports 0.
func (s *StatsService) ProjectAverageProgress(ctx context.Context, projectID uint) (ProjectProgress, error) {
	var indicators []models.Indicator
	if err := s.DB.WithContext(ctx).Where("project_id = ?", projectID).Find(&indicators).Error; err != nil {
		return ProjectProgress{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	stats := ProjectProgress{ProjectID: projectID, IndicatorCount: len(indicators)}
	if len(indicators) == 0 {
		return stats, nil
	}
	var sum float64
	for i := range indicators {
		sum += indicators[i].Progress()
	}
	stats.AverageProgress = sum / float64(len(indicators))
	return stats, nil
}

// Portfolio aggregates over the projects visible to the actor.
func (s *StatsService) Portfolio(ctx context.Context, actor policy.Actor) (PortfolioStats, error) {
	projects, err := s.Projects.ListForActor(ctx, actor)
	if err != nil {
		return PortfolioStats{}, err
	}
	stats := PortfolioStats{TotalProjects: len(projects)}
	var progressSum float64
	var progressCount int
	for i := range projects {
		p := &projects[i]
		if p.Status == models.ProjectStatusEnCours {
			stats.ActiveProjects++
		}
		stats.TotalBudget += p.Budget
		stats.TotalSpent += p.Spent
		stats.TotalCommitted += p.DonorCommittedTotal()
		pp, err := s.ProjectAverageProgress(ctx, p.ID)
		if err != nil {
			return PortfolioStats{}, err
		}
		if pp.IndicatorCount > 0 {
			progressSum += pp.AverageProgress
			progressCount++
		}
	}
	if progressCount > 0 {
		stats.AverageProgress = progressSum / float64(progressCount)
	}
	return stats, nil
}
