package controller_test

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mireb1/alimireb/models"
)

func TestRegisterLoginAndMe(t *testing.T) {
	app, db := newTestApp(t)

	resp := doJSON(t, app, "POST", "/api/auth/register", "", fiber.Map{
		"nom":      "Aline Mireb",
		"email":    "Aline@Mireb.CD",
		"password": "motdepasse",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var auth struct {
		AccessToken  string      `json:"access_token"`
		RefreshToken string      `json:"refresh_token"`
		User         models.User `json:"user"`
	}
	decodeData(t, resp, &auth)
	assert.NotEmpty(t, auth.AccessToken)
	assert.NotEmpty(t, auth.RefreshToken)
	assert.Equal(t, models.RoleUser, auth.User.Role)
	// emails are stored lowercased
	assert.Equal(t, "aline@mireb.cd", auth.User.Email)

	// duplicate email is a conflict, matched case-insensitively
	resp = doJSON(t, app, "POST", "/api/auth/register", "", fiber.Map{
		"nom":      "Autre",
		"email":    "aline@mireb.cd",
		"password": "motdepasse",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	decodeEnvelope(t, resp)

	resp = doJSON(t, app, "POST", "/api/auth/login", "", fiber.Map{
		"email":    "aline@mireb.cd",
		"password": "mauvais",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	decodeEnvelope(t, resp)

	resp = doJSON(t, app, "POST", "/api/auth/login", "", fiber.Map{
		"email":    "aline@mireb.cd",
		"password": "motdepasse",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeData(t, resp, &auth)

	var stored models.User
	require.NoError(t, db.Where("email = ?", "aline@mireb.cd").First(&stored).Error)
	assert.NotNil(t, stored.LastLogin)

	resp = doJSON(t, app, "GET", "/api/auth/me", auth.AccessToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var me models.User
	decodeData(t, resp, &me)
	assert.Equal(t, stored.ID, me.ID)
}

func TestPasswordHashNeverSerialized(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, "POST", "/api/auth/register", "", fiber.Map{
		"nom":      "Aline Mireb",
		"email":    "aline@mireb.cd",
		"password": "motdepasse",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	assert.NotContains(t, string(env.Data), "password_hash")
	assert.NotContains(t, string(env.Data), "motdepasse")
}

func TestRefreshToken(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, "POST", "/api/auth/register", "", fiber.Map{
		"nom":      "Aline Mireb",
		"email":    "refresh@mireb.cd",
		"password": "motdepasse",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var auth struct {
		RefreshToken string `json:"refresh_token"`
	}
	decodeData(t, resp, &auth)

	resp = doJSON(t, app, "POST", "/api/auth/refresh", "", fiber.Map{
		"refresh_token": auth.RefreshToken,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeEnvelope(t, resp)

	resp = doJSON(t, app, "POST", "/api/auth/refresh", "", fiber.Map{
		"refresh_token": "pas-un-jeton",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	decodeEnvelope(t, resp)
}

func TestChangePassword(t *testing.T) {
	app, db := newTestApp(t)
	user, token := createUser(t, db, models.RoleUser)

	resp := doJSON(t, app, "POST", "/api/auth/change-password", token, fiber.Map{
		"current_password": "mauvais",
		"new_password":     "nouveaumotdepasse",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	decodeEnvelope(t, resp)

	resp = doJSON(t, app, "POST", "/api/auth/change-password", token, fiber.Map{
		"current_password": "motdepasse",
		"new_password":     "nouveaumotdepasse",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeEnvelope(t, resp)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.True(t, stored.CheckPassword("nouveaumotdepasse"))
	assert.False(t, stored.CheckPassword("motdepasse"))
}

func TestDeactivatedUserIsRejected(t *testing.T) {
	app, db := newTestApp(t)
	user, token := createUser(t, db, models.RoleUser)
	_, adminToken := createUser(t, db, models.RoleAdmin)

	resp := doJSON(t, app, "PATCH", fmt.Sprintf("/api/auth/users/%d/activation", user.ID), adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeEnvelope(t, resp)

	// the deactivated account can no longer use its token
	resp = doJSON(t, app, "GET", "/api/auth/me", token, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	decodeEnvelope(t, resp)

	// the account is deactivated, never deleted
	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.False(t, stored.IsActive)
}

func TestUserCreatedInactiveStaysInactive(t *testing.T) {
	app, db := newTestApp(t)

	user := models.User{
		Name:     "Testeur",
		Email:    "inactif@mireb.cd",
		Role:     models.RoleUser,
		IsActive: false,
	}
	require.NoError(t, user.SetPassword("motdepasse", bcrypt.MinCost))
	require.NoError(t, db.Create(&user).Error)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.False(t, stored.IsActive)

	resp := doJSON(t, app, "POST", "/api/auth/login", "", fiber.Map{
		"email":    "inactif@mireb.cd",
		"password": "motdepasse",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	decodeEnvelope(t, resp)
}

func TestUserListingRequiresAdmin(t *testing.T) {
	app, db := newTestApp(t)
	_, userToken := createUser(t, db, models.RoleUser)
	_, adminToken := createUser(t, db, models.RoleAdmin)

	resp := doJSON(t, app, "GET", "/api/auth/users", userToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	decodeEnvelope(t, resp)

	resp = doJSON(t, app, "GET", "/api/auth/users", adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var listed []models.User
	env := decodeData(t, resp, &listed)
	assert.Len(t, listed, 2)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(2), env.Meta.TotalItems)
}
