package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"camion_tracker/internal/config"
	"camion_tracker/internal/middleware"
	"camion_tracker/internal/models"
	"camion_tracker/internal/password"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type registerInput struct {
	Name     string `json:"nom" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,role"`
}

type userResponse struct {
	ID    uint            `json:"id"`
	Name  string          `json:"nom"`
	Email string          `json:"email"`
	Role  models.UserRole `json:"role"`
}

func newUserResponse(u models.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Register creates an account. Creating an admin requires an admin token.
func Register(c *gin.Context) {
	var input registerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Nom, email et mot de passe (6 caractères minimum) sont obligatoires", err)
		return
	}

	role := models.RoleEmployee
	if input.Role != "" {
		role = models.UserRole(input.Role)
	}
	if role == models.RoleAdmin && !callerIsAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Seul un administrateur peut créer un compte administrateur"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	var existing int64
	if err := config.DB.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		serverError(c, "Register: email lookup failed", err)
		return
	}
	if existing > 0 {
		badRequest(c, "Un utilisateur avec cet email existe déjà", nil)
		return
	}

	hash, err := password.Default.Hash(input.Password)
	if errors.Is(err, password.ErrTooShort) {
		badRequest(c, "Le mot de passe doit contenir au moins 6 caractères", err)
		return
	}
	if err != nil {
		serverError(c, "Register: hash failed", err)
		return
	}
	user := models.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := config.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			badRequest(c, "Un utilisateur avec cet email existe déjà", err)
			return
		}
		serverError(c, "Register: insert failed", err)
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Role)
	if err != nil {
		serverError(c, "Register: token generation failed", err)
		return
	}

	middleware.Log(c).WithField("user_id", user.ID).Info("user registered")
	c.JSON(http.StatusCreated, gin.H{
		"message": "Utilisateur créé avec succès",
		"token":   token,
		"user":    newUserResponse(user),
	})
}

// callerIsAdmin reads the claims OptionalAuth stored on an otherwise public route.
func callerIsAdmin(c *gin.Context) bool {
	return middleware.GetRole(c) == models.RoleAdmin
}

type loginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Authenticate returns the user owning email when password matches.
func Authenticate(db *gorm.DB, email, pass string) (models.User, error) {
	var user models.User
	err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, ErrInvalidCredentials
	}
	if err != nil {
		return user, err
	}
	if !password.Default.Matches(pass, user.PasswordHash) {
		return user, ErrInvalidCredentials
	}
	if fresh, ok, err := password.Default.Rehash(pass, user.PasswordHash); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("password rehash failed")
	} else if ok {
		if err := db.Model(&user).Update("password_hash", fresh).Error; err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Warn("password rehash not saved")
		}
	}
	return user, nil
}

func Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Email et mot de passe requis", err)
		return
	}

	user, err := Authenticate(config.DB, input.Email, input.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			middleware.Log(c).WithField("email", input.Email).Warn("failed login")
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Email ou mot de passe incorrect"})
			return
		}
		serverError(c, "Login: lookup failed", err)
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Role)
	if err != nil {
		serverError(c, "Login: token generation failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Connexion réussie",
		"token":   token,
		"user":    newUserResponse(user),
	})
}

type changePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func ChangePassword(c *gin.Context) {
	var input changePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Données invalides", err)
		return
	}
	if input.CurrentPassword == "" || input.NewPassword == "" {
		badRequest(c, "L'ancien et le nouveau mot de passe sont requis", nil)
		return
	}
	if err := password.Default.Validate(input.NewPassword); err != nil {
		badRequest(c, "Le nouveau mot de passe doit contenir au moins 6 caractères", err)
		return
	}

	var user models.User
	if err := config.DB.First(&user, middleware.GetUserID(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound(c, "Utilisateur non trouvé")
			return
		}
		serverError(c, "ChangePassword: lookup failed", err)
		return
	}
	if !password.Default.Matches(input.CurrentPassword, user.PasswordHash) {
		badRequest(c, "Mot de passe actuel incorrect", nil)
		return
	}

	hash, err := password.Default.Hash(input.NewPassword)
	if err != nil {
		serverError(c, "ChangePassword: hash failed", err)
		return
	}
	if err := config.DB.Model(&user).Update("password_hash", hash).Error; err != nil {
		serverError(c, "ChangePassword: update failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Mot de passe modifié avec succès"})
}

// Me returns the profile of the authenticated caller.
func Me(c *gin.Context) {
	var user models.User
	if err := config.DB.First(&user, middleware.GetUserID(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound(c, "Utilisateur non trouvé")
			return
		}
		serverError(c, "Me: lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func ListUsers(c *gin.Context) {
	var users []models.User
	if err := config.DB.Order("created_at ASC, id ASC").Find(&users).Error; err != nil {
		serverError(c, "ListUsers: query failed", err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	c.JSON(http.StatusOK, out)
}
