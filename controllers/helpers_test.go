package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mireb1/alimireb/config"
	"github.com/mireb1/alimireb/models"
	"github.com/mireb1/alimireb/routes"
	"github.com/mireb1/alimireb/utils"
)

// newTestApp builds the full route surface over an isolated in-memory
// database, so handler tests exercise the real middleware chain.
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, config.MigrateDB(db))

	config.DB = db
	config.AppConfig.JWTSecret = "test-secret"
	config.AppConfig.BcryptCost = bcrypt.MinCost
	config.AppConfig.RateLimitLeads = 1000

	log := logrus.New()
	log.SetOutput(io.Discard)

	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	routes.SetupRoutes(app, db, log)
	return app, db
}

func createUser(t *testing.T, db *gorm.DB, role models.Role) (*models.User, string) {
	t.Helper()

	user := models.User{
		Name:     "Testeur",
		Email:    fmt.Sprintf("%s-%s@mireb.cd", role, t.Name()),
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, user.SetPassword("motdepasse", bcrypt.MinCost))
	require.NoError(t, db.Create(&user).Error)

	token, _, err := utils.GenerateTokenPair(&user)
	require.NoError(t, err)
	return &user, token
}

func createProduct(t *testing.T, db *gorm.DB, mutate func(*models.Product)) *models.Product {
	t.Helper()

	product := models.Product{
		Nom:       "Montre connectée",
		Prix:      45,
		Categorie: models.CategoryElectronique,
		Stock:     10,
		IsActive:  true,
	}
	if mutate != nil {
		mutate(&product)
	}
	product.Normalize()
	require.NoError(t, db.Create(&product).Error)
	return &product
}

func createLead(t *testing.T, db *gorm.DB, productID uint, mutate func(*models.Lead)) *models.Lead {
	t.Helper()

	lead := models.Lead{
		Nom:       "Jean Kalala",
		Telephone: "+243812345678",
		ProduitID: productID,
		Statut:    models.LeadStatusNew,
		Source:    models.LeadSourceWebsite,
	}
	if mutate != nil {
		mutate(&lead)
	}
	require.NoError(t, db.Create(&lead).Error)
	return &lead
}

func doJSON(t *testing.T, app *fiber.App, method, target, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

type envelope struct {
	Success   bool               `json:"success"`
	Message   string             `json:"message"`
	Timestamp string             `json:"timestamp"`
	Data      json.RawMessage    `json:"data"`
	Meta      *utils.Pagination  `json:"meta"`
	Errors    []utils.FieldError `json:"errors"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.NoError(t, resp.Body.Close())
	return env
}

func decodeData(t *testing.T, resp *http.Response, out interface{}) envelope {
	t.Helper()

	env := decodeEnvelope(t, resp)
	if out != nil && env.Data != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}
