package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	controller "github.com/mireb1/alimireb/controllers"
	"github.com/mireb1/alimireb/middleware"
	"github.com/mireb1/alimireb/utils"
)

// SetupRoutes wires the HTTP surface: public catalog and lead submission,
// authenticated lead management, and admin-only mutations.
func SetupRoutes(app *fiber.App, db *gorm.DB, log *logrus.Logger) {
	productController := controller.NewProductController(db, log)
	leadController := controller.NewLeadController(db, log)

	requestLog := logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	})

	// Auth routes
	auth := app.Group("/api/auth", requestLog)
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/refresh", controller.RefreshToken)

	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Get("/me", controller.GetCurrentUser)
	protectedAuth.Put("/profile", controller.UpdateProfile)
	protectedAuth.Post("/change-password", controller.ChangePassword)
	protectedAuth.Get("/users", middleware.AdminOnly(), controller.GetUsers)
	protectedAuth.Patch("/users/:id/activation", middleware.AdminOnly(), controller.ToggleActivation)

	// Admin gates attached per route: group middleware would apply to the
	// whole prefix, catching the public routes registered after it
	protected := middleware.Protected()
	adminOnly := middleware.AdminOnly()

	// Product routes; specific paths registered before :id
	products := app.Group("/api/products", requestLog)
	products.Get("/", productController.GetProducts)
	products.Get("/search", productController.SearchProducts)
	products.Get("/featured", productController.GetFeaturedProducts)
	products.Get("/admin", protected, adminOnly, productController.GetAllProducts)
	products.Post("/", protected, adminOnly, productController.CreateProduct)
	products.Put("/:id", protected, adminOnly, productController.UpdateProduct)
	products.Patch("/:id/stock", protected, adminOnly, productController.AdjustStock)
	products.Delete("/:id/permanent", protected, adminOnly, productController.HardDeleteProduct)
	products.Delete("/:id", protected, adminOnly, productController.DeleteProduct)
	products.Get("/:id", productController.GetProduct)

	// Lead routes; creation is public and rate-limited, management requires
	// authentication, destructive and statistical surfaces require admin
	leads := app.Group("/api/leads", requestLog)
	leads.Post("/", middleware.LeadSubmissionLimiter(), leadController.CreateLead)

	protectedLeads := leads.Group("", protected)
	protectedLeads.Get("/", leadController.GetLeads)
	protectedLeads.Get("/due", leadController.GetDueLeads)
	protectedLeads.Get("/stats", adminOnly, leadController.GetLeadStats)
	protectedLeads.Get("/:id", leadController.GetLead)
	protectedLeads.Patch("/:id/status", leadController.UpdateStatus)
	protectedLeads.Patch("/:id/assign", leadController.AssignLead)
	protectedLeads.Patch("/:id/follow-up", leadController.ScheduleFollowUp)
	protectedLeads.Patch("/:id/notes", leadController.AddNote)
	protectedLeads.Patch("/:id/archive", adminOnly, leadController.ArchiveLead)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return utils.Success(c, fiber.StatusOK, "OK", fiber.Map{"status": "running"})
	})

	// Catch-all 404
	app.Use(func(c *fiber.Ctx) error {
		return utils.Error(c, fiber.StatusNotFound, "Route introuvable")
	})
}
