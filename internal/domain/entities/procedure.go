package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProcedureCategory groups procedure templates. ParentID is set for sub-categories.
type ProcedureCategory struct {
	ID       string  `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	ParentID *string `json:"parent_id,omitempty" db:"parent_id"`
}

// ProcedureTemplate describes a kind of procedure, independent of who offers it
type ProcedureTemplate struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	SearchTerms []string  `json:"search_terms" db:"search_terms"`
	CategoryID  string    `json:"category_id" db:"category_id"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProcedureOffering is a priced instance of a template at a specific location.
// Template, Category, Location and Provider are denormalized by the catalog store.
type ProcedureOffering struct {
	ID                 string           `json:"id" db:"id"`
	TemplateID         string           `json:"template_id" db:"template_id"`
	LocationID         string           `json:"location_id" db:"location_id"`
	Price              decimal.Decimal  `json:"price" db:"price"`
	Comments           string           `json:"comments,omitempty" db:"comments"`
	IsActive           bool             `json:"is_active" db:"is_active"`
	AverageMarketPrice *decimal.Decimal `json:"average_market_price,omitempty" db:"average_market_price"`
	CreatedAt          time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at" db:"updated_at"`

	Template *ProcedureTemplate `json:"template,omitempty" db:"-"`
	Category *ProcedureCategory `json:"category,omitempty" db:"-"`
	Location *Location          `json:"location,omitempty" db:"-"`
	Provider *Provider          `json:"provider,omitempty" db:"-"`
}

// TemplateName returns the denormalized template name, or "" when it was not loaded
func (o *ProcedureOffering) TemplateName() string {
	if o == nil || o.Template == nil {
		return ""
	}
	return o.Template.Name
}
