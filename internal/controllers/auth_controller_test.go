package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"camion_tracker/internal/config"
	"camion_tracker/internal/middleware"
	"camion_tracker/internal/models"
)

func TestLogin(t *testing.T) {
	r := setup(t)
	createUser(t, "admin@carriere.com", "admin123", models.RoleAdmin)

	tests := []struct {
		name string
		body gin.H
		want int
	}{
		{"wrong password", gin.H{"email": "admin@carriere.com", "password": "nope"}, http.StatusUnauthorized},
		{"unknown email", gin.H{"email": "ghost@carriere.com", "password": "admin123"}, http.StatusUnauthorized},
		{"missing password", gin.H{"email": "admin@carriere.com"}, http.StatusBadRequest},
		{"ok", gin.H{"email": "Admin@Carriere.com ", "password": "admin123"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/auth/login", "", tt.body)
			expectStatus(t, w, tt.want)
			if tt.want != http.StatusOK {
				return
			}
			var resp struct {
				Token string       `json:"token"`
				User  userResponse `json:"user"`
			}
			decode(t, w, &resp)
			claims, err := middleware.ValidateToken(resp.Token)
			if err != nil {
				t.Fatalf("issued token invalid: %v", err)
			}
			if claims.Role != models.RoleAdmin || claims.UserID != resp.User.ID {
				t.Errorf("claims = %+v, user = %+v", claims, resp.User)
			}
		})
	}
}

func TestLoginUpgradesHashCost(t *testing.T) {
	r := setup(t)
	legacy, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost+1)
	if err != nil {
		t.Fatal(err)
	}
	u := models.User{Name: "Ancien", Email: "ancien@carriere.com", PasswordHash: string(legacy), Role: models.RoleEmployee}
	if err := config.DB.Create(&u).Error; err != nil {
		t.Fatal(err)
	}

	expectStatus(t, do(r, http.MethodPost, "/auth/login", "", gin.H{"email": "ancien@carriere.com", "password": "secret1"}), http.StatusOK)

	var stored models.User
	if err := config.DB.First(&stored, u.ID).Error; err != nil {
		t.Fatal(err)
	}
	if cost, _ := bcrypt.Cost([]byte(stored.PasswordHash)); cost != bcrypt.MinCost {
		t.Errorf("stored cost = %d, want %d", cost, bcrypt.MinCost)
	}
	expectStatus(t, do(r, http.MethodPost, "/auth/login", "", gin.H{"email": "ancien@carriere.com", "password": "secret1"}), http.StatusOK)
}

func TestRegister(t *testing.T) {
	r := setup(t)
	adminToken := tokenFor(t, models.RoleAdmin)

	w := do(r, http.MethodPost, "/auth/register", "", gin.H{"nom": "Awa", "email": "awa@carriere.com", "password": "secret1"})
	expectStatus(t, w, http.StatusCreated)
	var created struct {
		Token string       `json:"token"`
		User  userResponse `json:"user"`
	}
	decode(t, w, &created)
	if created.User.Role != models.RoleEmployee {
		t.Errorf("default role = %q", created.User.Role)
	}
	claims, err := middleware.ValidateToken(created.Token)
	if err != nil {
		t.Fatalf("register token: %v", err)
	}
	if claims.UserID != created.User.ID || claims.Role != models.RoleEmployee {
		t.Errorf("register token claims = %+v", claims)
	}
	expectStatus(t, do(r, http.MethodGet, "/auth/me", created.Token, nil), http.StatusOK)

	tests := []struct {
		name  string
		token string
		body  gin.H
		want  int
	}{
		{"duplicate email", "", gin.H{"nom": "Awa", "email": "AWA@carriere.com", "password": "secret1"}, http.StatusBadRequest},
		{"short password", "", gin.H{"nom": "B", "email": "b@carriere.com", "password": "123"}, http.StatusBadRequest},
		{"bad email", "", gin.H{"nom": "B", "email": "b-at-carriere", "password": "secret1"}, http.StatusBadRequest},
		{"unknown role", "", gin.H{"nom": "B", "email": "b@carriere.com", "password": "secret1", "role": "chef"}, http.StatusBadRequest},
		{"admin without token", "", gin.H{"nom": "C", "email": "c@carriere.com", "password": "secret1", "role": "admin"}, http.StatusForbidden},
		{"admin by admin", adminToken, gin.H{"nom": "C", "email": "c@carriere.com", "password": "secret1", "role": "admin"}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, do(r, http.MethodPost, "/auth/register", tt.token, tt.body), tt.want)
		})
	}

	expectStatus(t, do(r, http.MethodPost, "/auth/login", "", gin.H{"email": "awa@carriere.com", "password": "secret1"}), http.StatusOK)
}

func TestChangePassword(t *testing.T) {
	r := setup(t)
	u := createUser(t, "awa@carriere.com", "secret1", models.RoleEmployee)
	token, _ := middleware.GenerateToken(u.ID, u.Role)

	tests := []struct {
		name string
		body gin.H
		want int
	}{
		{"missing fields", gin.H{"currentPassword": "secret1"}, http.StatusBadRequest},
		{"too short", gin.H{"currentPassword": "secret1", "newPassword": "abc"}, http.StatusBadRequest},
		{"wrong current", gin.H{"currentPassword": "nope", "newPassword": "secret2"}, http.StatusBadRequest},
		{"ok", gin.H{"currentPassword": "secret1", "newPassword": "secret2"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, do(r, http.MethodPut, "/auth/change-password", token, tt.body), tt.want)
		})
	}

	expectStatus(t, do(r, http.MethodPost, "/auth/login", "", gin.H{"email": "awa@carriere.com", "password": "secret1"}), http.StatusUnauthorized)
	expectStatus(t, do(r, http.MethodPost, "/auth/login", "", gin.H{"email": "awa@carriere.com", "password": "secret2"}), http.StatusOK)

	ghost, _ := middleware.GenerateToken(999, models.RoleEmployee)
	expectStatus(t, do(r, http.MethodPut, "/auth/change-password", ghost, gin.H{"currentPassword": "a", "newPassword": "secret2"}), http.StatusNotFound)
	expectStatus(t, do(r, http.MethodPut, "/auth/change-password", "", gin.H{}), http.StatusUnauthorized)
}

func TestMe(t *testing.T) {
	r := setup(t)
	u := createUser(t, "awa@carriere.com", "secret1", models.RoleEmployee)
	token, _ := middleware.GenerateToken(u.ID, u.Role)

	w := do(r, http.MethodGet, "/auth/me", token, nil)
	expectStatus(t, w, http.StatusOK)
	var me map[string]interface{}
	decode(t, w, &me)
	if me["email"] != "awa@carriere.com" || me["role"] != "employe" {
		t.Errorf("me = %v", me)
	}
	if _, leaked := me["PasswordHash"]; leaked {
		t.Error("password hash serialized")
	}
}
