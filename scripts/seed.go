package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/zatekoja/pricefinder/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/pricefinder/internal/infrastructure/observability"
	"github.com/zatekoja/pricefinder/pkg/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS procedure_categories (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	parent_id  TEXT REFERENCES procedure_categories(id)
);

CREATE TABLE IF NOT EXISTS procedure_templates (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	description  TEXT,
	search_terms TEXT[] NOT NULL DEFAULT '{}',
	category_id  TEXT REFERENCES procedure_categories(id),
	is_active    BOOLEAN NOT NULL DEFAULT TRUE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS providers (
	id                  TEXT PRIMARY KEY,
	organization_name   TEXT NOT NULL,
	bio                 TEXT,
	specialties         TEXT[] NOT NULL DEFAULT '{}',
	rating              DOUBLE PRECISION NOT NULL DEFAULT 0,
	review_count        INTEGER NOT NULL DEFAULT 0,
	subscription_status TEXT
);

CREATE TABLE IF NOT EXISTS locations (
	id          TEXT PRIMARY KEY,
	provider_id TEXT NOT NULL REFERENCES providers(id),
	street1     TEXT,
	street2     TEXT,
	city        TEXT,
	state       TEXT,
	zip_code    TEXT,
	latitude    DOUBLE PRECISION,
	longitude   DOUBLE PRECISION,
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_locations_lat_lng ON locations (latitude, longitude);

CREATE TABLE IF NOT EXISTS procedure_offerings (
	id                   TEXT PRIMARY KEY,
	template_id          TEXT NOT NULL REFERENCES procedure_templates(id),
	location_id          TEXT NOT NULL REFERENCES locations(id),
	price                NUMERIC(12, 2) NOT NULL CHECK (price >= 0),
	comments             TEXT,
	is_active            BOOLEAN NOT NULL DEFAULT TRUE,
	average_market_price NUMERIC(12, 2),
	created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_offerings_template ON procedure_offerings (template_id);
`

type seedLocation struct {
	street, city, state, zip string
	lat, lng                 sql.NullFloat64
}

type seedProvider struct {
	name        string
	bio         string
	specialties []string
	rating      float64
	reviews     int
	locations   []seedLocation
}

func coord(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-seed", cfg.Server.Env)

	ctx := context.Background()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to DB")
	}
	defer pgClient.Close()

	db := pgClient.DB()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		_, err := db.ExecContext(ctx, `
			TRUNCATE TABLE
				procedure_offerings,
				locations,
				providers,
				procedure_templates,
				procedure_categories
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to reset tables")
		}
	}

	gdb := goqu.New("postgres", db)
	now := time.Now().UTC()

	insert := func(table string, rows ...goqu.Record) {
		values := make([]interface{}, len(rows))
		for i, r := range rows {
			values[i] = r
		}
		query, args, err := gdb.Insert(table).Rows(values...).Prepared(true).ToSQL()
		if err != nil {
			log.Fatal().Err(err).Str("table", table).Msg("failed to build insert")
		}
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			log.Fatal().Err(err).Str("table", table).Msg("failed to insert rows")
		}
	}

	// 1. Categories
	imaging, lab, dental := uuid.NewString(), uuid.NewString(), uuid.NewString()
	insert("procedure_categories",
		goqu.Record{"id": imaging, "name": "Imaging"},
		goqu.Record{"id": lab, "name": "Laboratory"},
		goqu.Record{"id": dental, "name": "Dental"},
	)

	// 2. Templates
	templates := []struct {
		id, name, description, category string
		terms                           []string
		base                            float64
	}{
		{uuid.NewString(), "MRI Brain without Contrast", "Magnetic resonance imaging of the brain", imaging, []string{"mri", "head scan", "neuro imaging"}, 300},
		{uuid.NewString(), "CT Chest", "Computed tomography of the chest", imaging, []string{"ct", "cat scan", "lung scan"}, 250},
		{uuid.NewString(), "Comprehensive Metabolic Panel", "Blood chemistry panel", lab, []string{"cmp", "blood test", "metabolic"}, 45},
		{uuid.NewString(), "Dental Cleaning", "Routine prophylaxis cleaning", dental, []string{"teeth cleaning", "prophylaxis"}, 110},
	}
	rows := make([]goqu.Record, 0, len(templates))
	for _, t := range templates {
		rows = append(rows, goqu.Record{
			"id": t.id, "name": t.name, "description": t.description,
			"search_terms": pq.StringArray(t.terms), "category_id": t.category,
			"is_active": true, "created_at": now, "updated_at": now,
		})
	}
	insert("procedure_templates", rows...)

	// 3. Providers, locations and offerings around Central Texas
	providers := []seedProvider{
		{
			name: "Capitol Imaging Center", bio: "Outpatient imaging in downtown Austin",
			specialties: []string{"radiology", "imaging"}, rating: 4.6, reviews: 812,
			locations: []seedLocation{
				{"600 Congress Ave", "Austin", "TX", "78701", coord(30.2682), coord(-97.7426)},
				{"3801 N Lamar Blvd", "Austin", "TX", "78756", coord(30.3072), coord(-97.7400)},
			},
		},
		{
			name: "Round Rock Family Health", bio: "Primary care, lab and dental services",
			specialties: []string{"family medicine", "laboratory", "dental"}, rating: 4.3, reviews: 240,
			locations: []seedLocation{
				{"201 W Main St", "Round Rock", "TX", "78664", coord(30.5083), coord(-97.6789)},
			},
		},
		{
			name: "Alamo Diagnostics", bio: "Diagnostic imaging and labs in San Antonio",
			specialties: []string{"radiology", "laboratory"}, rating: 4.1, reviews: 530,
			locations: []seedLocation{
				{"100 Alamo Plaza", "San Antonio", "TX", "78205", coord(29.4260), coord(-98.4861)},
			},
		},
		{
			name: "Hill Country Mobile Labs", bio: "Mobile phlebotomy across the Hill Country",
			specialties: []string{"laboratory"}, rating: 4.8, reviews: 95,
			locations: []seedLocation{
				{"", "Dripping Springs", "TX", "78620", sql.NullFloat64{}, sql.NullFloat64{}},
			},
		},
	}

	var offerings []goqu.Record
	for pi, p := range providers {
		providerID := uuid.NewString()
		insert("providers", goqu.Record{
			"id": providerID, "organization_name": p.name, "bio": p.bio,
			"specialties": pq.StringArray(p.specialties), "rating": p.rating,
			"review_count": p.reviews, "subscription_status": "active",
		})

		for li, l := range p.locations {
			locationID := uuid.NewString()
			insert("locations", goqu.Record{
				"id": locationID, "provider_id": providerID,
				"street1": l.street, "city": l.city, "state": l.state, "zip_code": l.zip,
				"latitude": l.lat, "longitude": l.lng, "is_active": true,
				"created_at": now, "updated_at": now,
			})

			for ti, t := range templates {
				if (pi+li+ti)%3 == 2 {
					continue
				}
				// Spread prices around the template base by provider and site
				factor := decimal.NewFromFloat(0.8 + 0.15*float64(pi) + 0.05*float64(li))
				price := decimal.NewFromFloat(t.base).Mul(factor).Round(2)
				offerings = append(offerings, goqu.Record{
					"id": uuid.NewString(), "template_id": t.id, "location_id": locationID,
					"price": price, "is_active": true,
					"average_market_price": decimal.NewFromFloat(t.base),
					"created_at":           now, "updated_at": now,
				})
			}
		}
	}
	insert("procedure_offerings", offerings...)

	log.Info().
		Int("templates", len(templates)).
		Int("providers", len(providers)).
		Int("offerings", len(offerings)).
		Msg("seeding completed")
}
