package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"

	"camion_tracker/internal/config"
	"camion_tracker/internal/middleware"
	"camion_tracker/internal/models"
	"camion_tracker/internal/password"
	"camion_tracker/internal/validation"
)

// testClock starts at start and moves one minute forward on every read, so
// successive entries get distinct arrival times.
func testClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
}

// setup points config.DB at a fresh sqlite file and returns a router with the
// same groups and guards as the real one.
func setup(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	password.Default.SetCost(bcrypt.MinCost)
	if err := validation.Register(); err != nil {
		t.Fatal(err)
	}

	db, err := config.Connect(sqlite.Open(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	config.DB = db

	prev := now
	now = testClock(time.Date(2024, 2, 3, 8, 0, 0, 0, time.UTC))
	t.Cleanup(func() { now = prev })

	r := gin.New()
	r.GET("/health", Health)

	auth := r.Group("/auth")
	auth.POST("/login", Login)
	auth.POST("/register", middleware.OptionalAuth(), Register)
	auth.PUT("/change-password", middleware.RequireAuth(), ChangePassword)
	auth.GET("/me", middleware.RequireAuth(), Me)

	trucks := r.Group("/camions", middleware.OptionalAuth())
	trucks.POST("/entree", RegisterEntry)
	trucks.GET("", ListTrucks)
	trucks.GET("/historique", TruckHistory)
	trucks.PUT("/charger/:id", LoadTruck)
	trucks.PUT("/valider-chargement", ValidateLoading)
	trucks.PUT("/sortie/:id", RegisterExit)
	trucks.GET("/stats", TruckStats)
	trucks.GET("/stats-journalieres", DailyStats)
	trucks.GET("/stats-mensuelles", MonthlyStats)
	trucks.GET("/stats-annuelles", YearlyStats)
	trucks.GET("/stats-completes", CompleteStats)
	trucks.GET("/statuts/:id", TruckStatusHistory)
	trucks.GET("/cycle", Lifecycle)

	admin := r.Group("/admin", middleware.RequireAuthWithRole(models.RoleAdmin))
	admin.GET("/stats-globales", GlobalStats)
	admin.GET("/camions", ListTrucksAdmin)
	admin.GET("/paiements", Payments)
	admin.GET("/rapport-journalier/:date", DailyReport)
	admin.GET("/stats-detaillees", DetailedStats)
	admin.GET("/utilisateurs", ListUsers)

	r.GET("/ws/camions", HandleYardWebSocket)
	return r
}

func createUser(t *testing.T, email, pass string, role models.UserRole) models.User {
	t.Helper()
	hash, err := password.Default.Hash(pass)
	if err != nil {
		t.Fatal(err)
	}
	u := models.User{Name: "Test " + string(role), Email: email, PasswordHash: hash, Role: role}
	if err := config.DB.Create(&u).Error; err != nil {
		t.Fatal(err)
	}
	return u
}

func tokenFor(t *testing.T, role models.UserRole) string {
	t.Helper()
	u := createUser(t, string(role)+"@carriere.com", "secret1", role)
	token, err := middleware.GenerateToken(u.ID, role)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func do(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d: %s", w.Code, want, w.Body.String())
	}
}

// enter registers a truck through the API and returns it.
func enter(t *testing.T, r http.Handler, token, plate, driver string) models.Truck {
	t.Helper()
	w := do(r, http.MethodPost, "/camions/entree", token, gin.H{"plaque": plate, "chauffeur": driver})
	expectStatus(t, w, http.StatusCreated)
	var resp struct {
		Truck models.Truck `json:"camion"`
	}
	decode(t, w, &resp)
	return resp.Truck
}

func idPath(prefix string, id uint) string {
	return fmt.Sprintf("%s/%d", prefix, id)
}
