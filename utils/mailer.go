package utils

import (
	"bytes"
	"html/template"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/mireb1/alimireb/config"
	"github.com/mireb1/alimireb/models"
)

var leadNotificationTmpl = template.Must(template.New("lead").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Nouveau lead</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .row { margin: 8px 0; }
        .label { font-weight: bold; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Nouveau lead reçu</h2>
    </div>
    <div class="row"><span class="label">Nom:</span> {{.Nom}}</div>
    <div class="row"><span class="label">Téléphone:</span> {{.Telephone}}</div>
    <div class="row"><span class="label">Produit:</span> {{.Produit}}</div>
    {{if .Message}}<div class="row"><span class="label">Message:</span> {{.Message}}</div>{{end}}
    <div class="row"><a href="{{.WhatsApp}}">Contacter sur WhatsApp</a></div>
    <div class="footer">
        <p>© {{.Year}} Mireb Commercial</p>
    </div>
</body>
</html>`))

// NotifyNewLead emails the sales inbox about a freshly submitted lead. It is
// best-effort: when SMTP is not configured it is a no-op, and delivery
// failures are logged without failing the originating request.
func NotifyNewLead(logger *logrus.Logger, lead *models.Lead, product *models.Product) {
	cfg := config.AppConfig
	if cfg.SMTPHost == "" || cfg.SalesEmail == "" {
		return
	}

	var body bytes.Buffer
	err := leadNotificationTmpl.Execute(&body, map[string]interface{}{
		"Nom":       lead.Nom,
		"Telephone": lead.Telephone,
		"Produit":   product.Nom,
		"Message":   lead.Message,
		"WhatsApp":  lead.WhatsAppLink(),
		"Year":      time.Now().Year(),
	})
	if err != nil {
		logger.WithError(err).Error("failed to render lead notification")
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", cfg.FromEmail)
	m.SetHeader("To", cfg.SalesEmail)
	m.SetHeader("Subject", "Nouveau lead: "+lead.Nom)
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"lead_id": lead.ID,
			"to":      cfg.SalesEmail,
		}).Error("failed to send lead notification")
	}
}
