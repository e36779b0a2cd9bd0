package controller

import (
	"errors"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/mireb1/alimireb/config"
	"github.com/mireb1/alimireb/models"
	"github.com/mireb1/alimireb/utils"
)

type RegisterRequest struct {
	Nom      string `json:"nom" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type UpdateProfileRequest struct {
	Nom          *string `json:"nom" validate:"omitempty,min=2,max=100"`
	ProfileImage *string `json:"image_profil" validate:"omitempty,url"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

// Register creates a staff account with the default user role.
func Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationFailed(c, errs)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := checkmail.ValidateFormat(email); err != nil {
		return utils.ValidationFailed(c, []utils.FieldError{
			{Field: "email", Message: "email doit être un email valide", Value: req.Email},
		})
	}

	user := models.User{
		Name:     req.Nom,
		Email:    email,
		Role:     models.RoleUser,
		IsActive: true,
	}
	if err := user.SetPassword(req.Password, config.AppConfig.BcryptCost); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec du hachage du mot de passe")
	}

	// The unique index is the sole duplicate check; a pre-insert lookup
	// would race with concurrent registrations of the same email.
	if err := config.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.Error(c, fiber.StatusConflict, "Cet email est déjà enregistré")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la création du compte")
	}

	accessToken, refreshToken, err := utils.GenerateTokenPair(&user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la génération des jetons")
	}

	return utils.Success(c, fiber.StatusCreated, "Compte créé", AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         &user,
	})
}

// Login verifies credentials, refreshes the last-login timestamp, and
// issues a token pair.
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationFailed(c, errs)
	}

	var user models.User
	err := config.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if err != nil {
		return utils.Error(c, fiber.StatusUnauthorized, "Email ou mot de passe incorrect")
	}

	if !user.CheckPassword(req.Password) {
		return utils.Error(c, fiber.StatusUnauthorized, "Email ou mot de passe incorrect")
	}

	if !user.IsActive {
		return utils.Error(c, fiber.StatusForbidden, "Compte désactivé")
	}

	now := time.Now()
	user.LastLogin = &now
	if err := config.DB.Model(&user).Update("last_login", now).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la mise à jour de la connexion")
	}

	accessToken, refreshToken, err := utils.GenerateTokenPair(&user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la génération des jetons")
	}

	return utils.Success(c, fiber.StatusOK, "Connexion réussie", AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         &user,
	})
}

// RefreshToken exchanges a valid refresh token for a new token pair.
func RefreshToken(c *fiber.Ctx) error {
	var req RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationFailed(c, errs)
	}

	claims, err := utils.ParseToken(req.RefreshToken)
	if err != nil {
		return utils.Error(c, fiber.StatusUnauthorized, "Jeton invalide ou expiré")
	}

	var user models.User
	if err := config.DB.First(&user, claims.UserID).Error; err != nil {
		return utils.Error(c, fiber.StatusUnauthorized, "Utilisateur introuvable")
	}
	if !user.IsActive {
		return utils.Error(c, fiber.StatusForbidden, "Compte désactivé")
	}

	accessToken, refreshToken, err := utils.GenerateTokenPair(&user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la génération des jetons")
	}

	return utils.Success(c, fiber.StatusOK, "Jetons renouvelés", AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         &user,
	})
}

// GetCurrentUser returns the acting user.
func GetCurrentUser(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	return utils.Success(c, fiber.StatusOK, "Profil", user)
}

// UpdateProfile edits the acting user's display fields.
func UpdateProfile(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationFailed(c, errs)
	}

	if req.Nom != nil {
		user.Name = *req.Nom
	}
	if req.ProfileImage != nil {
		user.ProfileImage = *req.ProfileImage
	}

	if err := config.DB.Save(user).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la mise à jour du profil")
	}

	return utils.Success(c, fiber.StatusOK, "Profil mis à jour", user)
}

// ChangePassword verifies the current password before storing a new hash.
func ChangePassword(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationFailed(c, errs)
	}

	if !user.CheckPassword(req.CurrentPassword) {
		return utils.Error(c, fiber.StatusUnauthorized, "Mot de passe actuel incorrect")
	}

	if err := user.SetPassword(req.NewPassword, config.AppConfig.BcryptCost); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec du hachage du mot de passe")
	}

	if err := config.DB.Model(user).Update("password_hash", user.PasswordHash).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec du changement de mot de passe")
	}

	return utils.Success(c, fiber.StatusOK, "Mot de passe modifié", nil)
}

// GetUsers lists staff accounts for admins through the listing engine.
func GetUsers(c *fiber.Ctx) error {
	listQuery, errs := utils.ParseListQuery(c, utils.UserListDefaults)
	if errs != nil {
		return utils.ValidationFailed(c, errs)
	}

	query := config.DB.Model(&models.User{})

	if role := c.Query("role"); role != "" {
		if !models.Role(role).Valid() {
			return utils.ValidationFailed(c, []utils.FieldError{
				{Field: "role", Message: "rôle non reconnu", Value: role},
			})
		}
		query = query.Where("role = ?", role)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec du comptage des utilisateurs")
	}

	var users []models.User
	err := query.Order(listQuery.Order).
		Offset(listQuery.Offset()).
		Limit(listQuery.Limit).
		Find(&users).Error
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la récupération des utilisateurs")
	}

	return utils.SuccessList(c, "Utilisateurs", users, utils.NewPagination(listQuery.Page, listQuery.Limit, total))
}

// ToggleActivation flips a staff account's active flag. Accounts are never
// hard-deleted; deactivation is the only removal path.
func ToggleActivation(c *fiber.Ctx) error {
	var user models.User
	if err := config.DB.First(&user, c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "Utilisateur introuvable")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la récupération de l'utilisateur")
	}

	user.IsActive = !user.IsActive
	if err := config.DB.Model(&user).Update("is_active", user.IsActive).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la mise à jour de l'utilisateur")
	}

	message := "Compte désactivé"
	if user.IsActive {
		message = "Compte activé"
	}
	return utils.Success(c, fiber.StatusOK, message, user)
}
