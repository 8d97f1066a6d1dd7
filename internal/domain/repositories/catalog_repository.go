package repositories

import (
	"context"
	"strings"

	"github.com/zatekoja/pricefinder/internal/domain/entities"
)

// CatalogRepository defines read access to the procedure catalog
type CatalogRepository interface {
	// FindOfferings returns offerings matching the filter with template,
	// category, location and provider denormalized
	FindOfferings(ctx context.Context, filter OfferingFilter) ([]*entities.ProcedureOffering, error)

	// FindTemplateByID retrieves a procedure template, returning a NOT_FOUND error when absent
	FindTemplateByID(ctx context.Context, id string) (*entities.ProcedureTemplate, error)

	// FindOfferingsByTemplate returns the active offerings of a template with locations populated
	FindOfferingsByTemplate(ctx context.Context, templateID string) ([]*entities.ProcedureOffering, error)

	// FindProviders returns providers matching the filter with their locations populated
	FindProviders(ctx context.Context, filter ProviderFilter) ([]*entities.Provider, error)
}

// OfferingIndex is a full-text index over offerings (e.g. Typesense).
// Search must honor the same OfferingFilter contract as the catalog store.
type OfferingIndex interface {
	Search(ctx context.Context, filter OfferingFilter) ([]*entities.ProcedureOffering, error)
	Index(ctx context.Context, offering *entities.ProcedureOffering) error
	Delete(ctx context.Context, id string) error
}

// OfferingFilter is the declarative candidate predicate handed to the catalog store.
// Text is expected trimmed and lower-cased.
type OfferingFilter struct {
	Text       string
	CategoryID string
	ActiveOnly bool
}

// Matches evaluates the filter against a denormalized offering
func (f OfferingFilter) Matches(o *entities.ProcedureOffering) bool {
	if o == nil || o.Template == nil {
		return false
	}
	if f.ActiveOnly && !(o.IsActive && o.Template.IsActive && o.Location != nil && o.Location.IsActive) {
		return false
	}
	if f.CategoryID != "" && o.Template.CategoryID != f.CategoryID {
		return false
	}
	if f.Text == "" {
		return true
	}
	return containsFold(o.Template.Name, f.Text) ||
		containsFold(o.Template.Description, f.Text) ||
		anyContainsFold(o.Template.SearchTerms, f.Text)
}

// ProviderFilter selects providers for a provider search.
// ActiveOnly restricts the populated locations to active ones.
type ProviderFilter struct {
	Text       string
	ActiveOnly bool
}

// Matches evaluates the text part of the filter against a provider
func (f ProviderFilter) Matches(p *entities.Provider) bool {
	if p == nil {
		return false
	}
	if f.Text == "" {
		return true
	}
	return containsFold(p.OrganizationName, f.Text) ||
		containsFold(p.Bio, f.Text) ||
		anyContainsFold(p.Specialties, f.Text)
}

func containsFold(s, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(s), lowerNeedle)
}

func anyContainsFold(values []string, lowerNeedle string) bool {
	for _, v := range values {
		if containsFold(v, lowerNeedle) {
			return true
		}
	}
	return false
}
