package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mireb1/alimireb/config"
	"github.com/mireb1/alimireb/models"
	"github.com/mireb1/alimireb/utils"
)

// Protected resolves the acting user from a Bearer header or the
// access_token cookie and rejects missing, invalid, or deactivated
// credentials.
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string
		authHeader := c.Get("Authorization")
		if authHeader != "" {
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return utils.Error(c, fiber.StatusUnauthorized, "Format d'autorisation invalide")
			}
			token = tokenParts[1]
		} else {
			// Fall back to cookie if header not present
			token = c.Cookies("access_token")
			if token == "" {
				return utils.Error(c, fiber.StatusUnauthorized, "Autorisation requise")
			}
		}

		claims, err := utils.ParseToken(token)
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

		c.Locals("user", &user)
		c.Locals("userID", user.ID)

		return c.Next()
	}
}

// AdminOnly is the single role-decision point: it runs after Protected and
// rejects any acting user below the admin role.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*models.User)
		if !ok {
			return utils.Error(c, fiber.StatusUnauthorized, "Autorisation requise")
		}
		if !user.IsAdmin() {
			return utils.Error(c, fiber.StatusForbidden, "Accès réservé aux administrateurs")
		}
		return c.Next()
	}
}
