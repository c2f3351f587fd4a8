package db

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/impacttracker/internal/models"
)

// Seed inserts the demo dataset used by development environments. It is a
// no-op when any user already exists.
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("Impact2024!"), 12)
	if err != nil {
		return err
	}

	admin := models.User{Email: "admin@impacttracker.org", PasswordHash: string(hash), FirstName: "Alice", LastName: "Johnson", Role: models.RoleAdmin}
	chef := models.User{Email: "chef@impacttracker.org", PasswordHash: string(hash), FirstName: "Bob", LastName: "Smith", Role: models.RoleChefProjet}
	chef2 := models.User{Email: "chef2@impacttracker.org", PasswordHash: string(hash), FirstName: "David", LastName: "Brown", Role: models.RoleChefProjet}
	donor := models.User{Email: "donateur@impacttracker.org", PasswordHash: string(hash), FirstName: "Carol", LastName: "White", Role: models.RoleDonateur}
	donor2 := models.User{Email: "donateur2@impacttracker.org", PasswordHash: string(hash), FirstName: "Emma", LastName: "Davis", Role: models.RoleDonateur}
	for _, u := range []*models.User{&admin, &chef, &chef2, &donor, &donor2} {
		if err := db.Create(u).Error; err != nil {
			return err
		}
	}

	date := func(s string) time.Time {
		t, _ := time.Parse("2006-01-02", s)
		return t
	}
	end1 := date("2024-12-31")
	end2 := date("2025-01-31")
	end3 := date("2025-11-30")

	education := models.Project{
		Name:          "Education Initiative - Rural Schools",
		Description:   "Providing quality education to 500 children in rural areas through school infrastructure and teacher training.",
		Status:        models.ProjectStatusEnCours,
		StartDate:     date("2024-01-01"),
		EndDate:       &end1,
		Budget:        50000,
		Spent:         32000,
		AdminID:       &admin.ID,
		ChefProjectID: chef.ID,
		Donors: []models.DonorAllocation{
			{UserID: donor.ID, CommittedAmount: 30000, SpentAmount: 18500},
			{UserID: donor2.ID, CommittedAmount: 20000, SpentAmount: 13500},
		},
	}
	water := models.Project{
		Name:          "Clean Water Project",
		Description:   "Building 20 water wells in villages to provide clean drinking water to 5000 people.",
		Status:        models.ProjectStatusEnCours,
		StartDate:     date("2024-02-01"),
		EndDate:       &end2,
		Budget:        75000,
		Spent:         45000,
		AdminID:       &admin.ID,
		ChefProjectID: chef2.ID,
		Donors: []models.DonorAllocation{
			{UserID: donor.ID, CommittedAmount: 50000, SpentAmount: 30000},
		},
	}
	health := models.Project{
		Name:          "Healthcare Clinic Expansion",
		Description:   "Expanding healthcare services to 3 new clinics in underserved communities.",
		Status:        models.ProjectStatusPlanning,
		StartDate:     date("2024-12-01"),
		EndDate:       &end3,
		Budget:        100000,
		Spent:         5000,
		AdminID:       &admin.ID,
		ChefProjectID: chef.ID,
		Donors: []models.DonorAllocation{
			{UserID: donor2.ID, CommittedAmount: 60000, SpentAmount: 5000},
		},
	}
	for _, p := range []*models.Project{&education, &water, &health} {
		if err := db.Create(p).Error; err != nil {
			return err
		}
	}

	enrollment := models.Indicator{ProjectID: education.ID, Name: "Number of Children Enrolled", Description: "Total number of children enrolled in the education program", TargetValue: 500, CurrentValue: 450, Unit: "children"}
	indicators := []*models.Indicator{
		&enrollment,
		{ProjectID: education.ID, Name: "Teachers Trained", Description: "Number of teachers trained in modern teaching methods", TargetValue: 50, CurrentValue: 42, Unit: "teachers"},
		{ProjectID: water.ID, Name: "Wells Constructed", Description: "Number of water wells built", TargetValue: 20, CurrentValue: 15, Unit: "wells"},
		{ProjectID: water.ID, Name: "People with Access to Clean Water", Description: "Number of people with access to clean drinking water", TargetValue: 5000, CurrentValue: 3750, Unit: "people"},
		{ProjectID: health.ID, Name: "Clinics Established", Description: "Number of new healthcare clinics opened", TargetValue: 3, CurrentValue: 0, Unit: "clinics"},
	}
	for _, ind := range indicators {
		if err := db.Create(ind).Error; err != nil {
			return err
		}
	}

	entries := []models.IndicatorEntry{
		{IndicatorID: enrollment.ID, Value: 420, Notes: "Initial enrollment phase completed with strong community participation.", CreatedBy: &chef.ID},
		{IndicatorID: enrollment.ID, Value: 450, Notes: "Enrollment drive extended to neighboring villages increasing participation.", CreatedBy: &chef.ID},
	}
	for i := range entries {
		if err := db.Create(&entries[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
