package models

import (
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

// LeadStatus is the lead's lifecycle state. Values are the French labels
// used by the site.
type LeadStatus string

const (
	LeadStatusNew        LeadStatus = "nouveau"
	LeadStatusContacted  LeadStatus = "contacte"
	LeadStatusInterested LeadStatus = "interesse"
	LeadStatusConverted  LeadStatus = "converti"
	LeadStatusLost       LeadStatus = "perdu"
)

// AllLeadStatuses lists every legal status. Transitions are unrestricted:
// any state may move to any other, including backward moves.
var AllLeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusInterested,
	LeadStatusConverted,
	LeadStatusLost,
}

func (s LeadStatus) Valid() bool {
	for _, v := range AllLeadStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether the status ends the lifecycle. Terminal leads
// are excluded from follow-up scheduling queries.
func (s LeadStatus) Terminal() bool {
	return s == LeadStatusConverted || s == LeadStatusLost
}

// LeadSourceWebsite is the fixed source for leads captured by the public
// submission form; it is not settable through the API.
const LeadSourceWebsite = "site_web"

// PhonePattern loosely matches international phone numbers: optional plus,
// then digits with common separators.
var PhonePattern = regexp.MustCompile(`^\+?[0-9][0-9 .\-()]{5,19}$`)

// Lead is a purchase-interest submission against a product. Product and
// assignee references are weak; only the creation-time product check in the
// controller enforces cross-entity consistency.
type Lead struct {
	gorm.Model

	Nom       string `gorm:"not null" json:"nom"`
	Telephone string `gorm:"not null;index" json:"telephone"`
	Message   string `gorm:"type:text" json:"message,omitempty"`
	ProduitID uint   `gorm:"not null;index" json:"produit_id"`

	Statut LeadStatus `gorm:"type:varchar(16);default:'nouveau';index" json:"statut"`
	Source string     `gorm:"default:'site_web'" json:"source"`

	// Notes is an append-only audit log; lifecycle mutations append
	// timestamped entries, never overwrite.
	Notes string `gorm:"type:text" json:"notes,omitempty"`

	AssignedTo   *uint      `gorm:"index" json:"assigne_a,omitempty"`
	FollowUpDate *time.Time `gorm:"index" json:"date_suivi,omitempty"`
	IsArchived   bool       `gorm:"default:false;index" json:"archive"`

	Produit *Product `gorm:"foreignKey:ProduitID" json:"produit,omitempty"`
}

// AppendNote adds a timestamped entry to the audit log. Prior entries are
// preserved, separated by a blank line.
func (l *Lead) AppendNote(note string, at time.Time) {
	entry := at.UTC().Format(time.RFC3339) + " - " + note
	if l.Notes == "" {
		l.Notes = entry
		return
	}
	l.Notes += "\n\n" + entry
}

// AgeInDays returns the lead's age, floored to whole days.
func (l *Lead) AgeInDays(now time.Time) int {
	age := int(now.Sub(l.CreatedAt).Hours() / 24)
	if age < 0 {
		return 0
	}
	return age
}

// FormattedTel strips separators from the phone number, keeping digits and
// a leading plus.
func (l *Lead) FormattedTel() string {
	var b strings.Builder
	for i, r := range l.Telephone {
		if r >= '0' && r <= '9' || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WhatsAppLink builds a wa.me link from the cleaned phone number.
func (l *Lead) WhatsAppLink() string {
	return "https://wa.me/" + strings.TrimPrefix(l.FormattedTel(), "+")
}
