package controller

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mireb1/alimireb/models"
	"github.com/mireb1/alimireb/utils"
)

type ProductController struct {
	DB     *gorm.DB
	Logger *logrus.Logger
}

func NewProductController(db *gorm.DB, logger *logrus.Logger) *ProductController {
	return &ProductController{DB: db, Logger: logger}
}

type CreateProductRequest struct {
	Nom         string   `json:"nom" validate:"required,min=2,max=200"`
	Prix        float64  `json:"prix" validate:"gte=0"`
	Images      []string `json:"images" validate:"omitempty,dive,url"`
	Categorie   string   `json:"categorie" validate:"required"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Description string   `json:"description" validate:"omitempty,max=2000"`
	IsFeatured  bool     `json:"est_en_vedette"`
}

type UpdateProductRequest struct {
	Nom         *string  `json:"nom" validate:"omitempty,min=2,max=200"`
	Prix        *float64 `json:"prix" validate:"omitempty,gte=0"`
	Images      []string `json:"images" validate:"omitempty,dive,url"`
	Categorie   *string  `json:"categorie"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	IsFeatured  *bool    `json:"est_en_vedette"`
}

type AdjustStockRequest struct {
	Quantite  *int   `json:"quantite" validate:"required"`
	Operation string `json:"operation" validate:"required,oneof=set add subtract"`
}

// productView decorates a product with its derived stock status, which is
// computed on read and never stored.
type productView struct {
	*models.Product
	StockStatus string `json:"stock_status"`
}

func viewOf(p *models.Product) productView {
	return productView{Product: p, StockStatus: p.StockStatus()}
}

func viewsOf(products []models.Product) []productView {
	views := make([]productView, len(products))
	for i := range products {
		views[i] = viewOf(&products[i])
	}
	return views
}

// CreateProduct adds a catalog entry. Missing images are backfilled with
// the placeholder before the record reaches the store.
func (pc *ProductController) CreateProduct(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationFailed(c, errs)
	}

	categorie := models.Category(req.Categorie)
	if !categorie.Valid() {
		return utils.ValidationFailed(c, []utils.FieldError{
			{Field: "categorie", Message: "catégorie non reconnue", Value: req.Categorie},
		})
	}

	product := models.Product{
		Nom:         req.Nom,
		Prix:        req.Prix,
		Images:      models.ImageList(req.Images),
		Categorie:   categorie,
		Stock:       req.Stock,
		Description: req.Description,
		IsActive:    true,
		IsFeatured:  req.IsFeatured,
		CreatedBy:   user.ID,
	}
	product.Normalize()

	if err := pc.DB.Create(&product).Error; err != nil {
		pc.Logger.WithError(err).Error("failed to create product")
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la création du produit")
	}

	return utils.Success(c, fiber.StatusCreated, "Produit créé", viewOf(&product))
}

// GetProducts lists active products with category, price-range and search
// filters through the listing engine.
func (pc *ProductController) GetProducts(c *fiber.Ctx) error {
	return pc.listProducts(c, false)
}

// GetAllProducts is the admin listing; inactive products are included when
// includeInactive=true.
func (pc *ProductController) GetAllProducts(c *fiber.Ctx) error {
	return pc.listProducts(c, c.Query("includeInactive") == "true")
}

func (pc *ProductController) listProducts(c *fiber.Ctx, includeInactive bool) error {
	listQuery, errs := utils.ParseListQuery(c, utils.ProductListDefaults)
	if errs != nil {
		return utils.ValidationFailed(c, errs)
	}

	query := pc.DB.Model(&models.Product{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	if categorie := c.Query("categorie"); categorie != "" {
		if !models.Category(categorie).Valid() {
			return utils.ValidationFailed(c, []utils.FieldError{
				{Field: "categorie", Message: "catégorie non reconnue", Value: categorie},
			})
		}
		query = query.Where("categorie = ?", categorie)
	}

	if raw := c.Query("minPrice"); raw != "" {
		min, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return utils.ValidationFailed(c, []utils.FieldError{
				{Field: "minPrice", Message: "minPrice doit être un nombre", Value: raw},
			})
		}
		query = query.Where("prix >= ?", min)
	}
	if raw := c.Query("maxPrice"); raw != "" {
		max, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return utils.ValidationFailed(c, []utils.FieldError{
				{Field: "maxPrice", Message: "maxPrice doit être un nombre", Value: raw},
			})
		}
		query = query.Where("prix <= ?", max)
	}

	if c.Query("featured") == "true" {
		query = query.Where("is_featured = ?", true)
	}

	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(nom) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec du comptage des produits")
	}

	var products []models.Product
	err := query.Order(listQuery.Order).
		Offset(listQuery.Offset()).
		Limit(listQuery.Limit).
		Find(&products).Error
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la récupération des produits")
	}

	return utils.SuccessList(c, "Produits", viewsOf(products), utils.NewPagination(listQuery.Page, listQuery.Limit, total))
}

// SearchProducts is the public search endpoint: a required term matched
// case-insensitively against name or description.
func (pc *ProductController) SearchProducts(c *fiber.Ctx) error {
	if strings.TrimSpace(c.Query("search")) == "" {
		return utils.ValidationFailed(c, []utils.FieldError{
			{Field: "search", Message: "search est requis"},
		})
	}
	return pc.listProducts(c, false)
}

// GetFeaturedProducts returns the active featured selection, newest first.
func (pc *ProductController) GetFeaturedProducts(c *fiber.Ctx) error {
	var products []models.Product
	err := pc.DB.Where("is_active = ? AND is_featured = ?", true, true).
		Order("created_at desc").
		Limit(8).
		Find(&products).Error
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la récupération des produits")
	}

	return utils.Success(c, fiber.StatusOK, "Produits en vedette", viewsOf(products))
}

// GetProduct returns one active product and bumps its view counter. The
// bump is an atomic column update that skips model validation so a stale
// record can never block a read.
func (pc *ProductController) GetProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := pc.DB.First(&product, c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "Produit introuvable")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la récupération du produit")
	}

	if !product.IsActive {
		return utils.Error(c, fiber.StatusNotFound, "Produit introuvable")
	}

	if err := pc.DB.Model(&product).UpdateColumn("vues", gorm.Expr("vues + 1")).Error; err != nil {
		pc.Logger.WithError(err).WithField("product_id", product.ID).Warn("failed to bump view counter")
	} else {
		product.Vues++
	}

	return utils.Success(c, fiber.StatusOK, "Produit", viewOf(&product))
}

// UpdateProduct applies a partial admin edit.
func (pc *ProductController) UpdateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := pc.DB.First(&product, c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "Produit introuvable")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la récupération du produit")
	}

	var req UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationFailed(c, errs)
	}

	if req.Nom != nil {
		product.Nom = *req.Nom
	}
	if req.Prix != nil {
		product.Prix = *req.Prix
	}
	if req.Images != nil {
		product.Images = models.ImageList(req.Images)
	}
	if req.Categorie != nil {
		categorie := models.Category(*req.Categorie)
		if !categorie.Valid() {
			return utils.ValidationFailed(c, []utils.FieldError{
				{Field: "categorie", Message: "catégorie non reconnue", Value: *req.Categorie},
			})
		}
		product.Categorie = categorie
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.IsFeatured != nil {
		product.IsFeatured = *req.IsFeatured
	}
	product.Normalize()

	if err := pc.DB.Save(&product).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la mise à jour du produit")
	}

	return utils.Success(c, fiber.StatusOK, "Produit mis à jour", viewOf(&product))
}

// AdjustStock applies a set/add/subtract stock operation.
func (pc *ProductController) AdjustStock(c *fiber.Ctx) error {
	var product models.Product
	if err := pc.DB.First(&product, c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "Produit introuvable")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la récupération du produit")
	}

	var req AdjustStockRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationFailed(c, errs)
	}

	next, err := models.AdjustStock(product.Stock, *req.Quantite, req.Operation)
	if err != nil {
		return utils.ValidationFailed(c, []utils.FieldError{
			{Field: "operation", Message: err.Error(), Value: req.Operation},
		})
	}

	product.Stock = next
	if err := pc.DB.Model(&product).Update("stock", next).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la mise à jour du stock")
	}

	return utils.Success(c, fiber.StatusOK, "Stock mis à jour", viewOf(&product))
}

// DeleteProduct soft-deletes by clearing the active flag; the record stays
// in the store and public fetches return not-found.
func (pc *ProductController) DeleteProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := pc.DB.First(&product, c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "Produit introuvable")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la récupération du produit")
	}

	if err := pc.DB.Model(&product).Update("is_active", false).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la suppression du produit")
	}

	return utils.Success(c, fiber.StatusOK, "Produit désactivé", nil)
}

// HardDeleteProduct permanently removes the record. Irreversible.
func (pc *ProductController) HardDeleteProduct(c *fiber.Ctx) error {
	result := pc.DB.Unscoped().Delete(&models.Product{}, c.Params("id"))
	if result.Error != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la suppression du produit")
	}
	if result.RowsAffected == 0 {
		return utils.Error(c, fiber.StatusNotFound, "Produit introuvable")
	}

	pc.Logger.WithField("product_id", c.Params("id")).Info("product permanently deleted")
	return utils.Success(c, fiber.StatusOK, "Produit supprimé définitivement", nil)
}
