package controller

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mireb1/alimireb/models"
	"github.com/mireb1/alimireb/utils"
)

type LeadController struct {
	DB     *gorm.DB
	Logger *logrus.Logger
}

func NewLeadController(db *gorm.DB, logger *logrus.Logger) *LeadController {
	return &LeadController{DB: db, Logger: logger}
}

type CreateLeadRequest struct {
	Nom       string `json:"nom" validate:"required,min=2,max=100"`
	Telephone string `json:"telephone" validate:"required"`
	Message   string `json:"message" validate:"omitempty,max=1000"`
	ProduitID uint   `json:"produit_id" validate:"required"`
}

type UpdateStatusRequest struct {
	Statut string `json:"statut" validate:"required"`
	Note   string `json:"note" validate:"omitempty,max=1000"`
}

type AssignLeadRequest struct {
	AssigneA uint   `json:"assigne_a" validate:"required"`
	Note     string `json:"note" validate:"omitempty,max=1000"`
}

type ScheduleFollowUpRequest struct {
	DateSuivi time.Time `json:"date_suivi" validate:"required"`
	Note      string    `json:"note" validate:"omitempty,max=1000"`
}

type AddNoteRequest struct {
	Note string `json:"note" validate:"required,max=1000"`
}

// leadView decorates a lead with its derived read-only fields.
type leadView struct {
	*models.Lead
	AgeJours         int    `json:"age_jours"`
	TelephoneFormate string `json:"telephone_formate"`
	WhatsApp         string `json:"whatsapp"`
}

func leadViewOf(l *models.Lead, now time.Time) leadView {
	return leadView{
		Lead:             l,
		AgeJours:         l.AgeInDays(now),
		TelephoneFormate: l.FormattedTel(),
		WhatsApp:         l.WhatsAppLink(),
	}
}

// CreateLead handles the public submission form. The referenced product
// must exist and still be active; the check is a creation-time
// precondition only, not an ongoing constraint.
func (lc *LeadController) CreateLead(c *fiber.Ctx) error {
	var req CreateLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationFailed(c, errs)
	}

	if !models.PhonePattern.MatchString(req.Telephone) {
		return utils.ValidationFailed(c, []utils.FieldError{
			{Field: "telephone", Message: "numéro de téléphone invalide", Value: req.Telephone},
		})
	}

	var product models.Product
	if err := lc.DB.First(&product, req.ProduitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "Produit introuvable")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la vérification du produit")
	}
	if !product.IsActive {
		return utils.Error(c, fiber.StatusBadRequest, "Ce produit n'est plus disponible")
	}

	lead := models.Lead{
		Nom:       req.Nom,
		Telephone: req.Telephone,
		Message:   req.Message,
		ProduitID: product.ID,
		Statut:    models.LeadStatusNew,
		Source:    models.LeadSourceWebsite,
	}

	if err := lc.DB.Create(&lead).Error; err != nil {
		lc.Logger.WithError(err).Error("failed to create lead")
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de l'enregistrement de la demande")
	}

	lc.Logger.WithFields(logrus.Fields{
		"lead_id":    lead.ID,
		"product_id": product.ID,
	}).Info("new lead captured")

	// Best effort; delivery failure never fails the submission.
	utils.NotifyNewLead(lc.Logger, &lead, &product)

	return utils.Success(c, fiber.StatusCreated, "Demande enregistrée", leadViewOf(&lead, time.Now()))
}

// GetLeads lists leads with status, assignee, product, search, and
// creation-date filters. Archived leads are excluded unless explicitly
// requested.
func (lc *LeadController) GetLeads(c *fiber.Ctx) error {
	listQuery, errs := utils.ParseListQuery(c, utils.LeadListDefaults)
	if errs != nil {
		return utils.ValidationFailed(c, errs)
	}

	query := lc.DB.Model(&models.Lead{})
	if c.Query("includeArchived") != "true" {
		query = query.Where("is_archived = ?", false)
	}

	if statut := c.Query("statut"); statut != "" {
		if !models.LeadStatus(statut).Valid() {
			return utils.ValidationFailed(c, []utils.FieldError{
				{Field: "statut", Message: "statut non reconnu", Value: statut},
			})
		}
		query = query.Where("statut = ?", statut)
	}
	if assigneA := c.Query("assigne_a"); assigneA != "" {
		query = query.Where("assigned_to = ?", assigneA)
	}
	if produitID := c.Query("produit_id"); produitID != "" {
		query = query.Where("produit_id = ?", produitID)
	}

	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(nom) LIKE ? OR LOWER(telephone) LIKE ? OR LOWER(message) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	if raw := c.Query("dateDebut"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return utils.ValidationFailed(c, []utils.FieldError{
				{Field: "dateDebut", Message: "date invalide, format attendu AAAA-MM-JJ", Value: raw},
			})
		}
		query = query.Where("created_at >= ?", from)
	}
	if raw := c.Query("dateFin"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return utils.ValidationFailed(c, []utils.FieldError{
				{Field: "dateFin", Message: "date invalide, format attendu AAAA-MM-JJ", Value: raw},
			})
		}
		// Inclusive upper bound: anything before the next day.
		query = query.Where("created_at < ?", to.AddDate(0, 0, 1))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec du comptage des demandes")
	}

	var leads []models.Lead
	err := query.Preload("Produit").
		Order(listQuery.Order).
		Offset(listQuery.Offset()).
		Limit(listQuery.Limit).
		Find(&leads).Error
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la récupération des demandes")
	}

	now := time.Now()
	views := make([]leadView, len(leads))
	for i := range leads {
		views[i] = leadViewOf(&leads[i], now)
	}

	return utils.SuccessList(c, "Demandes", views, utils.NewPagination(listQuery.Page, listQuery.Limit, total))
}

// GetLead returns one lead by identifier. Archived leads stay retrievable
// by direct lookup.
func (lc *LeadController) GetLead(c *fiber.Ctx) error {
	lead, err := lc.findLead(c)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, "Demande", leadViewOf(lead, time.Now()))
}

// UpdateStatus moves the lead to a new lifecycle state. Membership in the
// status set is the only rule; any state may move to any other, including
// backward.
func (lc *LeadController) UpdateStatus(c *fiber.Ctx) error {
	lead, err := lc.findLead(c)
	if err != nil {
		return err
	}

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationFailed(c, errs)
	}

	statut := models.LeadStatus(req.Statut)
	if !statut.Valid() {
		return utils.ValidationFailed(c, []utils.FieldError{
			{Field: "statut", Message: "statut non reconnu", Value: req.Statut},
		})
	}

	lead.Statut = statut
	if req.Note != "" {
		lead.AppendNote(req.Note, time.Now())
	}

	if err := lc.DB.Save(lead).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la mise à jour du statut")
	}

	return utils.Success(c, fiber.StatusOK, "Statut mis à jour", leadViewOf(lead, time.Now()))
}

// AssignLead sets the assignee reference. The target user is not verified;
// the reference is weak.
func (lc *LeadController) AssignLead(c *fiber.Ctx) error {
	lead, err := lc.findLead(c)
	if err != nil {
		return err
	}

	var req AssignLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationFailed(c, errs)
	}

	lead.AssignedTo = &req.AssigneA
	if req.Note != "" {
		lead.AppendNote("Assigné: "+req.Note, time.Now())
	}

	if err := lc.DB.Save(lead).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de l'assignation")
	}

	return utils.Success(c, fiber.StatusOK, "Demande assignée", leadViewOf(lead, time.Now()))
}

// ScheduleFollowUp sets the follow-up date. Past dates are allowed and
// simply make the lead immediately due.
func (lc *LeadController) ScheduleFollowUp(c *fiber.Ctx) error {
	lead, err := lc.findLead(c)
	if err != nil {
		return err
	}

	var req ScheduleFollowUpRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationFailed(c, errs)
	}

	lead.FollowUpDate = &req.DateSuivi
	if req.Note != "" {
		lead.AppendNote("Suivi programmé: "+req.Note, time.Now())
	}

	if err := lc.DB.Save(lead).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la programmation du suivi")
	}

	return utils.Success(c, fiber.StatusOK, "Suivi programmé", leadViewOf(lead, time.Now()))
}

// AddNote appends to the audit log without touching any other field.
func (lc *LeadController) AddNote(c *fiber.Ctx) error {
	lead, err := lc.findLead(c)
	if err != nil {
		return err
	}

	var req AddNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Corps de requête invalide")
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationFailed(c, errs)
	}

	lead.AppendNote(req.Note, time.Now())

	if err := lc.DB.Save(lead).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de l'ajout de la note")
	}

	return utils.Success(c, fiber.StatusOK, "Note ajoutée", leadViewOf(lead, time.Now()))
}

// ArchiveLead soft-deletes the lead: it drops out of default listings and
// statistics but stays retrievable by identifier.
func (lc *LeadController) ArchiveLead(c *fiber.Ctx) error {
	lead, err := lc.findLead(c)
	if err != nil {
		return err
	}

	lead.IsArchived = true
	if err := lc.DB.Model(lead).Update("is_archived", true).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de l'archivage")
	}

	return utils.Success(c, fiber.StatusOK, "Demande archivée", nil)
}

// GetDueLeads returns every non-archived lead whose follow-up date has
// passed and whose status is not terminal.
func (lc *LeadController) GetDueLeads(c *fiber.Ctx) error {
	var leads []models.Lead
	err := lc.DB.Preload("Produit").
		Where("is_archived = ?", false).
		Where("follow_up_date IS NOT NULL AND follow_up_date <= ?", time.Now()).
		Where("statut NOT IN ?", []models.LeadStatus{models.LeadStatusConverted, models.LeadStatusLost}).
		Order("follow_up_date asc").
		Find(&leads).Error
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec de la récupération des suivis")
	}

	now := time.Now()
	views := make([]leadView, len(leads))
	for i := range leads {
		views[i] = leadViewOf(&leads[i], now)
	}

	return utils.Success(c, fiber.StatusOK, "Suivis en attente", views)
}

type statusCount struct {
	Statut string `json:"statut"`
	Total  int64  `json:"total"`
}

type dailyCount struct {
	Jour  string `json:"jour"`
	Total int64  `json:"total"`
}

type productLeadCount struct {
	ProduitID uint   `json:"produit_id"`
	Nom       string `json:"nom"`
	Total     int64  `json:"total"`
}

type leadStats struct {
	Total          int64              `json:"total"`
	ParStatut      []statusCount      `json:"par_statut"`
	ParJour        []dailyCount       `json:"par_jour"`
	TopProduits    []productLeadCount `json:"top_produits"`
	TauxConversion float64            `json:"taux_conversion"`
}

// GetLeadStats aggregates non-archived leads: counts by status, daily
// creation counts over the trailing 30 days, the top referenced products,
// and the conversion rate.
func (lc *LeadController) GetLeadStats(c *fiber.Ctx) error {
	stats := leadStats{
		ParStatut:   []statusCount{},
		ParJour:     []dailyCount{},
		TopProduits: []productLeadCount{},
	}

	// reusable non-archived scope
	active := lc.DB.Model(&models.Lead{}).Where("is_archived = ?", false).Session(&gorm.Session{})

	if err := active.Count(&stats.Total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec du calcul des statistiques")
	}

	err := active.
		Select("statut, COUNT(*) AS total").
		Group("statut").
		Scan(&stats.ParStatut).Error
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec du calcul des statistiques")
	}

	since := time.Now().AddDate(0, 0, -30)
	err = active.
		Select("CAST(DATE(created_at) AS TEXT) AS jour, COUNT(*) AS total").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("jour").
		Scan(&stats.ParJour).Error
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec du calcul des statistiques")
	}

	err = lc.DB.Model(&models.Lead{}).
		Select("leads.produit_id AS produit_id, products.nom AS nom, COUNT(*) AS total").
		Joins("JOIN products ON products.id = leads.produit_id").
		Where("leads.is_archived = ?", false).
		Group("leads.produit_id, products.nom").
		Order("total DESC").
		Limit(10).
		Scan(&stats.TopProduits).Error
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Échec du calcul des statistiques")
	}

	if stats.Total > 0 {
		var converted int64
		err = active.
			Where("statut = ?", models.LeadStatusConverted).
			Count(&converted).Error
		if err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "Échec du calcul des statistiques")
		}
		stats.TauxConversion = ConversionRate(converted, stats.Total)
	}

	return utils.Success(c, fiber.StatusOK, "Statistiques", stats)
}

// ConversionRate returns converted/total as a percentage rounded to two
// decimals, and 0 when total is zero.
func ConversionRate(converted, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(converted)/float64(total)*100*100) / 100
}

// findLead resolves the :id parameter. Errors are fiber errors rendered by
// the app's central error handler.
func (lc *LeadController) findLead(c *fiber.Ctx) (*models.Lead, error) {
	var lead models.Lead
	if err := lc.DB.Preload("Produit").First(&lead, c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Demande introuvable")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Échec de la récupération de la demande")
	}
	return &lead, nil
}
