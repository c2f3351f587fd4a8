package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/impacttracker/internal/auth"
	"github.com/diewo77/impacttracker/internal/mailer"
	"github.com/diewo77/impacttracker/internal/models"
)

func setupRouter(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Project{}, &models.DonorAllocation{}, &models.Indicator{}, &models.IndicatorEntry{}, &models.AuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	handler := New(Deps{
		DB:     db,
		Tokens: auth.NewTokens("test-secret", time.Hour),
		Mailer: mailer.Discard{},
		Log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return handler, db
}

func seedUser(t *testing.T, db *gorm.DB, email, password string, role models.Role) models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := models.User{Email: email, PasswordHash: hash, FirstName: "Test", LastName: string(role), Role: role}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func login(t *testing.T, router http.Handler, email, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", email, w.Code, w.Body.String())
	}
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return resp.AccessToken
}

func do(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := setupRouter(t)
	if w := do(router, http.MethodGet, "/health", "", ""); w.Code != http.StatusOK {
		t.Fatalf("/health: got %d", w.Code)
	}
	if w := do(router, http.MethodGet, "/healthz", "", ""); w.Code != http.StatusOK {
		t.Fatalf("/healthz: got %d", w.Code)
	}
	if w := do(router, http.MethodGet, "/metrics", "", ""); w.Code != http.StatusOK {
		t.Fatalf("/metrics: got %d", w.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router, _ := setupRouter(t)
	if w := do(router, http.MethodGet, "/api/projects/", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w := do(router, http.MethodGet, "/api/projects/", "garbage.token.here", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", w.Code)
	}
}

func TestTokenOfDeletedUserRejected(t *testing.T) {
	router, db := setupRouter(t)
	u := seedUser(t, db, "chef@ong.test", "Impact2024!", models.RoleChefProjet)
	token := login(t, router, "chef@ong.test", "Impact2024!")

	if err := db.Delete(&models.User{}, u.ID).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if w := do(router, http.MethodGet, "/api/projects/", token, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted user, got %d", w.Code)
	}
}

func TestProjectLifecycleOverHTTP(t *testing.T) {
	router, db := setupRouter(t)
	seedUser(t, db, "admin@ong.test", "Impact2024!", models.RoleAdmin)
	chef := seedUser(t, db, "chef@ong.test", "Impact2024!", models.RoleChefProjet)
	donor := seedUser(t, db, "donateur@ong.test", "Impact2024!", models.RoleDonateur)

	adminTok := login(t, router, "admin@ong.test", "Impact2024!")
	chefTok := login(t, router, "chef@ong.test", "Impact2024!")
	donorTok := login(t, router, "donateur@ong.test", "Impact2024!")

	// Admin creates a project with one funded donor.
	createBody := fmt.Sprintf(`{
		"name":"Accès à l'eau potable",
		"description":"Forages dans 8 villages",
		"status":"enCours",
		"startDate":"2026-01-15",
		"budget":50000,
		"chefProjectId":%d,
		"donorAllocations":[{"donorId":%d,"committedAmount":20000,"spentAmount":5000}]
	}`, chef.ID, donor.ID)
	w := do(router, http.MethodPost, "/api/projects/", adminTok, createBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("create project: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var project struct {
		ID    uint    `json:"id"`
		Spent float64 `json:"spent"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &project); err != nil {
		t.Fatalf("decode project: %v", err)
	}
	if project.Spent != 5000 {
		t.Fatalf("expected project spent 5000, got %v", project.Spent)
	}

	// Chef cannot create projects.
	if w := do(router, http.MethodPost, "/api/projects/", chefTok, createBody); w.Code != http.StatusForbidden {
		t.Fatalf("chef create: expected 403, got %d", w.Code)
	}

	// Chef creates an indicator and appends entries.
	indBody := fmt.Sprintf(`{"projectId":%d,"name":"Forages réalisés","unit":"forages","targetValue":10}`, project.ID)
	w = do(router, http.MethodPost, "/api/indicators/", chefTok, indBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("create indicator: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var indicator struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &indicator); err != nil {
		t.Fatalf("decode indicator: %v", err)
	}

	w = do(router, http.MethodPut, fmt.Sprintf("/api/indicators/%d", indicator.ID), chefTok, `{"value":3,"notes":"premier trimestre"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("append entry: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Donor reads but cannot write.
	if w := do(router, http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), donorTok, ""); w.Code != http.StatusOK {
		t.Fatalf("donor get project: expected 200, got %d", w.Code)
	}
	if w := do(router, http.MethodPut, fmt.Sprintf("/api/indicators/%d", indicator.ID), donorTok, `{"value":9}`); w.Code != http.StatusForbidden {
		t.Fatalf("donor append: expected 403, got %d", w.Code)
	}

	// Entries are listed in order with creator attribution.
	w = do(router, http.MethodGet, fmt.Sprintf("/api/indicators/%d/entries", indicator.ID), donorTok, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list entries: expected 200, got %d", w.Code)
	}
	var entries []struct {
		Value         float64 `json:"value"`
		CreatedByName string  `json:"createdByName"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Value != 3 || entries[0].CreatedByName == "" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	// Plain-text report.
	w = do(router, http.MethodGet, fmt.Sprintf("/api/projects/%d/report", project.ID), adminTok, "")
	if w.Code != http.StatusOK {
		t.Fatalf("report: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Rapport de projet") {
		t.Fatalf("unexpected report body: %s", w.Body.String())
	}

	// Portfolio stats as the donor: one visible project.
	w = do(router, http.MethodGet, "/api/stats/portfolio", donorTok, "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", w.Code)
	}
	var stats struct {
		TotalProjects  int     `json:"totalProjects"`
		TotalCommitted float64 `json:"totalCommitted"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalProjects != 1 || stats.TotalCommitted != 20000 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	// Admin deletes the project; children go with it.
	if w := do(router, http.MethodDelete, fmt.Sprintf("/api/projects/%d", project.ID), adminTok, ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete project: expected 204, got %d", w.Code)
	}
	var count int64
	if err := db.Model(&models.IndicatorEntry{}).Count(&count).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected entries removed with project, got %d", count)
	}
}

func TestAuditTrailRoute(t *testing.T) {
	router, db := setupRouter(t)
	seedUser(t, db, "admin@ong.test", "Impact2024!", models.RoleAdmin)
	seedUser(t, db, "chef@ong.test", "Impact2024!", models.RoleChefProjet)
	adminTok := login(t, router, "admin@ong.test", "Impact2024!")
	chefTok := login(t, router, "chef@ong.test", "Impact2024!")

	// Both logins above were recorded; the trail is admin-only.
	if w := do(router, http.MethodGet, "/api/audit-logs", chefTok, ""); w.Code != http.StatusForbidden {
		t.Fatalf("chef audit-logs: expected 403, got %d", w.Code)
	}
	w := do(router, http.MethodGet, "/api/audit-logs?action=login", adminTok, "")
	if w.Code != http.StatusOK {
		t.Fatalf("admin audit-logs: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var logs []models.AuditLog
	if err := json.Unmarshal(w.Body.Bytes(), &logs); err != nil {
		t.Fatalf("decode logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 login rows, got %d", len(logs))
	}
	if w := do(router, http.MethodGet, "/api/audit-logs?limit=zero", adminTok, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: expected 400, got %d", w.Code)
	}
}
