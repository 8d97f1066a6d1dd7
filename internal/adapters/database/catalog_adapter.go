package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/zatekoja/pricefinder/internal/domain/entities"
	"github.com/zatekoja/pricefinder/internal/domain/repositories"
	"github.com/zatekoja/pricefinder/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/pricefinder/pkg/errors"
)

// CatalogAdapter implements CatalogRepository over PostgreSQL
type CatalogAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.CatalogRepository = (*CatalogAdapter)(nil)

// NewCatalogAdapter creates a new catalog adapter
func NewCatalogAdapter(client *postgres.Client) *CatalogAdapter {
	return &CatalogAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var offeringColumns = []interface{}{
	goqu.I("o.id"), goqu.I("o.template_id"), goqu.I("o.location_id"), goqu.I("o.price"),
	goqu.I("o.comments"), goqu.I("o.is_active"), goqu.I("o.average_market_price"),
	goqu.I("o.created_at"), goqu.I("o.updated_at"),
	goqu.I("t.name"), goqu.I("t.description"), goqu.I("t.search_terms"), goqu.I("t.category_id"), goqu.I("t.is_active"),
	goqu.I("c.id"), goqu.I("c.name"), goqu.I("c.parent_id"),
	goqu.I("l.provider_id"), goqu.I("l.street1"), goqu.I("l.street2"), goqu.I("l.city"), goqu.I("l.state"),
	goqu.I("l.zip_code"), goqu.I("l.latitude"), goqu.I("l.longitude"), goqu.I("l.is_active"),
	goqu.I("p.organization_name"), goqu.I("p.rating"), goqu.I("p.review_count"),
}

var locationColumns = []interface{}{
	"id", "provider_id", "street1", "street2", "city", "state", "zip_code",
	"latitude", "longitude", "is_active", "created_at", "updated_at",
}

// FindOfferings returns offerings matching the filter with their template,
// category, location and provider denormalized
func (a *CatalogAdapter) FindOfferings(ctx context.Context, filter repositories.OfferingFilter) ([]*entities.ProcedureOffering, error) {
	return a.queryOfferings(ctx, a.offeringsQuery(filter))
}

// FindOfferingsByTemplate returns the active offerings of a template
func (a *CatalogAdapter) FindOfferingsByTemplate(ctx context.Context, templateID string) ([]*entities.ProcedureOffering, error) {
	ds := a.offeringsQuery(repositories.OfferingFilter{ActiveOnly: true}).
		Where(goqu.I("o.template_id").Eq(templateID))
	return a.queryOfferings(ctx, ds)
}

// FindTemplateByID retrieves a procedure template by ID
func (a *CatalogAdapter) FindTemplateByID(ctx context.Context, id string) (*entities.ProcedureTemplate, error) {
	query, args, err := a.db.Select(
		"id", "name", "description", "search_terms", "category_id", "is_active", "created_at", "updated_at",
	).From("procedure_templates").
		Where(goqu.Ex{"id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	template := &entities.ProcedureTemplate{}
	var description, categoryID sql.NullString

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&template.ID,
		&template.Name,
		&description,
		pq.Array(&template.SearchTerms),
		&categoryID,
		&template.IsActive,
		&template.CreatedAt,
		&template.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("procedure template not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get procedure template", err)
	}

	template.Description = description.String
	template.CategoryID = categoryID.String
	return template, nil
}

// FindProviders returns providers matching the filter with their locations attached
func (a *CatalogAdapter) FindProviders(ctx context.Context, filter repositories.ProviderFilter) ([]*entities.Provider, error) {
	ds := a.db.Select(
		"id", "organization_name", "bio", "specialties", "rating", "review_count", "subscription_status",
	).From(goqu.T("providers").As("p")).
		Order(goqu.I("p.id").Asc()).
		Prepared(true)

	if filter.Text != "" {
		pattern := likePattern(filter.Text)
		ds = ds.Where(goqu.Or(
			goqu.I("p.organization_name").ILike(pattern),
			goqu.I("p.bio").ILike(pattern),
			goqu.L(`EXISTS (SELECT 1 FROM unnest("p"."specialties") AS term WHERE term ILIKE ?)`, pattern),
		))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query providers", err)
	}
	defer rows.Close()

	var (
		result []*entities.Provider
		byID   = make(map[string]*entities.Provider)
	)
	for rows.Next() {
		p := &entities.Provider{}
		var bio, status sql.NullString
		if err := rows.Scan(
			&p.ID,
			&p.OrganizationName,
			&bio,
			pq.Array(&p.Specialties),
			&p.Rating,
			&p.ReviewCount,
			&status,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan provider", err)
		}
		p.Bio = bio.String
		p.SubscriptionStatus = status.String
		result = append(result, p)
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate providers", err)
	}

	if len(result) == 0 {
		return []*entities.Provider{}, nil
	}
	if err := a.attachLocations(ctx, byID, filter.ActiveOnly); err != nil {
		return nil, err
	}
	return result, nil
}

func (a *CatalogAdapter) attachLocations(ctx context.Context, byID map[string]*entities.Provider, activeOnly bool) error {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	where := goqu.Ex{"provider_id": ids}
	if activeOnly {
		where["is_active"] = true
	}

	query, args, err := a.db.Select(locationColumns...).
		From("locations").
		Where(where).
		Order(goqu.I("id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to query provider locations", err)
	}
	defer rows.Close()

	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return apperrors.NewInternalError("failed to scan location", err)
		}
		if p, ok := byID[loc.ProviderID]; ok {
			p.Locations = append(p.Locations, loc)
		}
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewInternalError("failed to iterate locations", err)
	}
	return nil
}

func (a *CatalogAdapter) offeringsQuery(filter repositories.OfferingFilter) *goqu.SelectDataset {
	ds := a.db.Select(offeringColumns...).
		From(goqu.T("procedure_offerings").As("o")).
		InnerJoin(goqu.T("procedure_templates").As("t"), goqu.On(goqu.I("t.id").Eq(goqu.I("o.template_id")))).
		LeftJoin(goqu.T("procedure_categories").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("t.category_id")))).
		InnerJoin(goqu.T("locations").As("l"), goqu.On(goqu.I("l.id").Eq(goqu.I("o.location_id")))).
		InnerJoin(goqu.T("providers").As("p"), goqu.On(goqu.I("p.id").Eq(goqu.I("l.provider_id")))).
		Order(goqu.I("o.id").Asc()).
		Prepared(true)

	var conditions []exp.Expression
	if filter.ActiveOnly {
		conditions = append(conditions,
			goqu.I("o.is_active").IsTrue(),
			goqu.I("t.is_active").IsTrue(),
			goqu.I("l.is_active").IsTrue(),
		)
	}
	if filter.CategoryID != "" {
		conditions = append(conditions, goqu.I("t.category_id").Eq(filter.CategoryID))
	}
	if filter.Text != "" {
		pattern := likePattern(filter.Text)
		conditions = append(conditions, goqu.Or(
			goqu.I("t.name").ILike(pattern),
			goqu.I("t.description").ILike(pattern),
			goqu.L(`EXISTS (SELECT 1 FROM unnest("t"."search_terms") AS term WHERE term ILIKE ?)`, pattern),
		))
	}
	if len(conditions) > 0 {
		ds = ds.Where(conditions...)
	}
	return ds
}

func (a *CatalogAdapter) queryOfferings(ctx context.Context, ds *goqu.SelectDataset) ([]*entities.ProcedureOffering, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query offerings", err)
	}
	defer rows.Close()

	offerings := []*entities.ProcedureOffering{}
	for rows.Next() {
		o, err := scanOffering(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan offering", err)
		}
		offerings = append(offerings, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate offerings", err)
	}
	return offerings, nil
}

func scanOffering(rows *sql.Rows) (*entities.ProcedureOffering, error) {
	o := &entities.ProcedureOffering{
		Template: &entities.ProcedureTemplate{},
		Location: &entities.Location{},
		Provider: &entities.Provider{},
	}
	var (
		comments, description, categoryID      sql.NullString
		catID, catName, catParent              sql.NullString
		street1, street2, city, state, zipCode sql.NullString
		latitude, longitude                    sql.NullFloat64
		averageMarketPrice                     decimal.NullDecimal
	)

	err := rows.Scan(
		&o.ID, &o.TemplateID, &o.LocationID, &o.Price,
		&comments, &o.IsActive, &averageMarketPrice,
		&o.CreatedAt, &o.UpdatedAt,
		&o.Template.Name, &description, pq.Array(&o.Template.SearchTerms), &categoryID, &o.Template.IsActive,
		&catID, &catName, &catParent,
		&o.Location.ProviderID, &street1, &street2, &city, &state,
		&zipCode, &latitude, &longitude, &o.Location.IsActive,
		&o.Provider.OrganizationName, &o.Provider.Rating, &o.Provider.ReviewCount,
	)
	if err != nil {
		return nil, err
	}

	o.Comments = comments.String
	if averageMarketPrice.Valid {
		avg := averageMarketPrice.Decimal
		o.AverageMarketPrice = &avg
	}

	o.Template.ID = o.TemplateID
	o.Template.Description = description.String
	o.Template.CategoryID = categoryID.String

	if catID.Valid {
		o.Category = &entities.ProcedureCategory{ID: catID.String, Name: catName.String}
		if catParent.Valid {
			parent := catParent.String
			o.Category.ParentID = &parent
		}
	}

	o.Location.ID = o.LocationID
	o.Location.Address = entities.Address{
		Street1: street1.String,
		Street2: street2.String,
		City:    city.String,
		State:   state.String,
		ZipCode: zipCode.String,
	}
	o.Location.Coordinate = coordinateFrom(latitude, longitude)
	o.Provider.ID = o.Location.ProviderID

	return o, nil
}

func scanLocation(rows *sql.Rows) (*entities.Location, error) {
	loc := &entities.Location{}
	var (
		street1, street2, city, state, zipCode sql.NullString
		latitude, longitude                    sql.NullFloat64
	)
	err := rows.Scan(
		&loc.ID, &loc.ProviderID, &street1, &street2, &city, &state, &zipCode,
		&latitude, &longitude, &loc.IsActive, &loc.CreatedAt, &loc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	loc.Address = entities.Address{
		Street1: street1.String,
		Street2: street2.String,
		City:    city.String,
		State:   state.String,
		ZipCode: zipCode.String,
	}
	loc.Coordinate = coordinateFrom(latitude, longitude)
	return loc, nil
}

// coordinateFrom returns nil unless both columns are set and in range
func coordinateFrom(latitude, longitude sql.NullFloat64) *entities.Coordinate {
	if !latitude.Valid || !longitude.Valid {
		return nil
	}
	c := entities.Coordinate{Latitude: latitude.Float64, Longitude: longitude.Float64}
	if !c.Valid() {
		return nil
	}
	return &c
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps text for a substring ILIKE, escaping wildcard characters
func likePattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}
