package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/pricefinder/internal/domain/entities"
	"github.com/zatekoja/pricefinder/internal/domain/repositories"
	tsclient "github.com/zatekoja/pricefinder/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/pricefinder/internal/infrastructure/observability"
)

const (
	offeringQueryBy = "template_name,description,search_terms"
	searchPageSize  = 250
	maxSearchPages  = 40
)

// TypesenseAdapter implements the offering index using Typesense
type TypesenseAdapter struct {
	client   *tsclient.Client
	pageSize int
	maxPages int
}

var _ repositories.OfferingIndex = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client, pageSize: searchPageSize, maxPages: maxSearchPages}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	return a.client.InitSchema(ctx)
}

// Index upserts an offering document
func (a *TypesenseAdapter) Index(ctx context.Context, offering *entities.ProcedureOffering) error {
	if offering == nil || offering.Template == nil {
		return fmt.Errorf("offering must carry its template to be indexed")
	}
	_, err := a.client.Client().Collection(tsclient.OfferingsCollection).Documents().Upsert(ctx, toDocument(offering))
	if err != nil {
		return fmt.Errorf("failed to index offering %s: %w", offering.ID, err)
	}
	return nil
}

// Delete removes an offering from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.OfferingsCollection).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete offering %s from index: %w", id, err)
	}
	return nil
}

// Search returns every indexed offering matching the filter. Typesense ranks
// by relevance, so callers are expected to order results themselves.
// Results beyond maxPages pages are dropped with a warning.
func (a *TypesenseAdapter) Search(ctx context.Context, filter repositories.OfferingFilter) ([]*entities.ProcedureOffering, error) {
	var offerings []*entities.ProcedureOffering

	found, truncated, err := a.eachPage(ctx, a.maxPages, func(page int) *api.SearchCollectionParams {
		return searchParams(filter, page, a.pageSize)
	}, func(doc map[string]interface{}) {
		if o := fromDocument(doc); o != nil {
			offerings = append(offerings, o)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search offerings: %w", err)
	}

	if truncated {
		observability.LoggerFromContext(ctx).Warn().
			Int("found", found).
			Int("returned", len(offerings)).
			Int("max_pages", a.maxPages).
			Str("q", filter.Text).
			Msg("typesense search truncated at page limit")
	}

	return offerings, nil
}

// IndexedIDs lists the id of every document in the collection
func (a *TypesenseAdapter) IndexedIDs(ctx context.Context) ([]string, error) {
	var ids []string
	_, _, err := a.eachPage(ctx, 0, func(page int) *api.SearchCollectionParams {
		return &api.SearchCollectionParams{
			Q:             pointer.String("*"),
			QueryBy:       pointer.String("template_name"),
			IncludeFields: pointer.String("id"),
			Page:          pointer.Int(page),
			PerPage:       pointer.Int(a.pageSize),
		}
	}, func(doc map[string]interface{}) {
		if id := stringField(doc, "id"); id != "" {
			ids = append(ids, id)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed offerings: %w", err)
	}
	return ids, nil
}

// Prune deletes every indexed document whose id is not in keep and returns
// how many were removed.
func (a *TypesenseAdapter) Prune(ctx context.Context, keep map[string]struct{}) (int, error) {
	ids, err := a.IndexedIDs(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, id := range ids {
		if _, ok := keep[id]; ok {
			continue
		}
		if err := a.Delete(ctx, id); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// eachPage walks search result pages until a short page, the reported total,
// or maxPages (zero means no limit). It reports the total found and whether
// pages were left unread.
func (a *TypesenseAdapter) eachPage(
	ctx context.Context,
	maxPages int,
	params func(page int) *api.SearchCollectionParams,
	visit func(doc map[string]interface{}),
) (found int, truncated bool, err error) {
	documents := a.client.Client().Collection(tsclient.OfferingsCollection).Documents()

	for page := 1; ; page++ {
		result, err := documents.Search(ctx, params(page))
		if err != nil {
			return found, false, err
		}
		if result.Found != nil {
			found = *result.Found
		}
		if result.Hits == nil {
			return found, false, nil
		}

		for _, hit := range *result.Hits {
			if hit.Document != nil {
				visit(*hit.Document)
			}
		}

		if len(*result.Hits) < a.pageSize || (result.Found != nil && page*a.pageSize >= found) {
			return found, false, nil
		}
		if maxPages > 0 && page >= maxPages {
			return found, true, nil
		}
	}
}

func searchParams(filter repositories.OfferingFilter, page, perPage int) *api.SearchCollectionParams {
	q := filter.Text
	if q == "" {
		q = "*"
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String(offeringQueryBy),
		Infix:   pointer.String("always,always,always"),
		Page:    pointer.Int(page),
		PerPage: pointer.Int(perPage),
	}
	if fb := filterBy(filter); fb != "" {
		params.FilterBy = pointer.String(fb)
	}
	return params
}

func filterBy(filter repositories.OfferingFilter) string {
	var clauses []string
	if filter.ActiveOnly {
		clauses = append(clauses, "is_active:=true")
	}
	if filter.CategoryID != "" {
		clauses = append(clauses, fmt.Sprintf("category_id:=`%s`", strings.ReplaceAll(filter.CategoryID, "`", "")))
	}
	return strings.Join(clauses, " && ")
}

// toDocument flattens an offering into the collection shape. is_active holds
// the combined activity of the offering, its template and its location.
func toDocument(o *entities.ProcedureOffering) map[string]interface{} {
	active := o.IsActive && o.Template.IsActive && o.Location != nil && o.Location.IsActive

	doc := map[string]interface{}{
		"id":            o.ID,
		"template_id":   o.TemplateID,
		"template_name": o.Template.Name,
		"description":   o.Template.Description,
		"search_terms":  nonNil(o.Template.SearchTerms),
		"category_id":   o.Template.CategoryID,
		"location_id":   o.LocationID,
		"price":         o.Price.InexactFloat64(),
		"is_active":     active,
		"updated_at":    o.UpdatedAt.Unix(),
	}
	if o.Category != nil {
		doc["category_name"] = o.Category.Name
	}
	if o.Location != nil {
		doc["provider_id"] = o.Location.ProviderID
		doc["city"] = o.Location.Address.City
		doc["state"] = o.Location.Address.State
		doc["zip_code"] = o.Location.Address.ZipCode
		if o.Location.HasCoordinate() {
			doc["location"] = []float64{o.Location.Coordinate.Latitude, o.Location.Coordinate.Longitude}
		}
	}
	if o.Provider != nil {
		doc["provider_id"] = o.Provider.ID
		doc["provider_name"] = o.Provider.OrganizationName
	}
	return doc
}

// fromDocument rebuilds a denormalized offering from a search hit.
// Returns nil for documents missing an id or template.
func fromDocument(doc map[string]interface{}) *entities.ProcedureOffering {
	id := stringField(doc, "id")
	templateID := stringField(doc, "template_id")
	if id == "" || templateID == "" {
		return nil
	}

	active, _ := doc["is_active"].(bool)
	price, _ := doc["price"].(float64)

	o := &entities.ProcedureOffering{
		ID:         id,
		TemplateID: templateID,
		LocationID: stringField(doc, "location_id"),
		Price:      decimal.NewFromFloat(price),
		IsActive:   active,
		Template: &entities.ProcedureTemplate{
			ID:          templateID,
			Name:        stringField(doc, "template_name"),
			Description: stringField(doc, "description"),
			SearchTerms: stringSlice(doc["search_terms"]),
			CategoryID:  stringField(doc, "category_id"),
			IsActive:    active,
		},
		Location: &entities.Location{
			ID:         stringField(doc, "location_id"),
			ProviderID: stringField(doc, "provider_id"),
			Address: entities.Address{
				City:    stringField(doc, "city"),
				State:   stringField(doc, "state"),
				ZipCode: stringField(doc, "zip_code"),
			},
			IsActive: active,
		},
	}

	if updated, ok := doc["updated_at"].(float64); ok {
		o.UpdatedAt = time.Unix(int64(updated), 0).UTC()
	}
	if catID := o.Template.CategoryID; catID != "" {
		o.Category = &entities.ProcedureCategory{ID: catID, Name: stringField(doc, "category_name")}
	}
	if providerID := o.Location.ProviderID; providerID != "" {
		o.Provider = &entities.Provider{ID: providerID, OrganizationName: stringField(doc, "provider_name")}
	}
	if loc, ok := doc["location"].([]interface{}); ok && len(loc) == 2 {
		lat, latOK := loc[0].(float64)
		lon, lonOK := loc[1].(float64)
		if latOK && lonOK {
			o.Location.Coordinate = &entities.Coordinate{Latitude: lat, Longitude: lon}
		}
	}

	return o
}

func stringField(doc map[string]interface{}, key string) string {
	s, _ := doc[key].(string)
	return s
}

func stringSlice(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		if typed, ok := v.([]string); ok {
			return typed
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
