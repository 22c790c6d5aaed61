package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The four saksbehandlerstøtte package lines sold on the platform.
const (
	PackageTypeBevilling       = "bevillingsforvaltning"
	PackageTypeArbeidsrett     = "arbeidsrett"
	PackageTypeForvaltningsrett = "forvaltningsrett"
	PackageTypeHelse           = "helse"
)

const (
	AccessLevelBasic      = "basic"
	AccessLevelStandard   = "standard"
	AccessLevelPremium    = "premium"
	AccessLevelEnterprise = "enterprise"
)

// LegalPackage is a purchasable bundle of legal content. Access to its
// content is gated on an active PackageSubscription unless
// RequiresSubscription is false.
type LegalPackage struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	UUID                 string    `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	Slug                 string    `gorm:"type:varchar(50);uniqueIndex" json:"slug"`
	Name                 string    `gorm:"type:varchar(200);not null" json:"name" validate:"required,max=200"`
	PackageType          string    `gorm:"type:varchar(50);uniqueIndex" json:"package_type"`
	Description          string    `gorm:"type:text" json:"description"`
	PriceOre             int64     `gorm:"not null;default:0" json:"price_ore"`
	MonthlyPriceOre      *int64    `gorm:"default:null" json:"monthly_price_ore,omitempty"`
	TrialPeriodDays      uint      `gorm:"default:7" json:"trial_period_days"`
	AccessLevel          string    `gorm:"type:varchar(20);default:'standard'" json:"access_level" validate:"oneof=basic standard premium enterprise"`
	RequiresSubscription bool      `gorm:"default:true" json:"requires_subscription"`
	IsActive             bool      `gorm:"default:true;index" json:"is_active"`
	IsFeatured           bool      `gorm:"default:false;index" json:"is_featured"`
	SortOrder            uint      `gorm:"default:0;index" json:"sort_order"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns the public UUID and derives the slug from the
// package type when not set explicitly.
func (p *LegalPackage) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == "" {
		p.UUID = uuid.New().String()
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.PackageType)
	}
	return nil
}

// TrialDuration returns the package trial window as a duration.
func (p *LegalPackage) TrialDuration() time.Duration {
	return time.Duration(p.TrialPeriodDays) * 24 * time.Hour
}

// Slugify lowercases a name and replaces whitespace with hyphens. Content
// and package slugs are URL path segments, so everything else is stripped.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastHyphen := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == 'æ':
			b.WriteString("ae")
			lastHyphen = false
		case r == 'ø':
			b.WriteString("o")
			lastHyphen = false
		case r == 'å':
			b.WriteString("a")
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
