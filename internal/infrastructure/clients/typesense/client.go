package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/pricefinder/pkg/config"
	"github.com/zatekoja/pricefinder/pkg/retry"
)

const (
	OfferingsCollection = "procedure_offerings"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client and waits for the server to report healthy
func NewClient(ctx context.Context, cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	c := &Client{client: client}
	if err := retry.Do(ctx, retry.DefaultConfig(), "Typesense", c.Ping); err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("connected to Typesense")
	return c, nil
}

// NewClientFrom wraps an existing typesense client
func NewClientFrom(client *typesense.Client) *Client {
	return &Client{client: client}
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// Ping reports whether the Typesense server is healthy
func (c *Client) Ping(ctx context.Context) error {
	healthy, err := c.client.Health(ctx, 2*time.Second)
	if err != nil {
		return err
	}
	if !healthy {
		return fmt.Errorf("typesense reported unhealthy")
	}
	return nil
}

// DropOfferings deletes the offerings collection
func (c *Client) DropOfferings(ctx context.Context) error {
	_, err := c.client.Collection(OfferingsCollection).Delete(ctx)
	return err
}

// OfferingsSchema describes the procedure_offerings collection
func OfferingsSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: OfferingsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "template_id", Type: "string", Facet: pointer.True()},
			{Name: "template_name", Type: "string", Infix: pointer.True()},
			{Name: "description", Type: "string", Infix: pointer.True(), Optional: pointer.True()},
			{Name: "search_terms", Type: "string[]", Infix: pointer.True(), Optional: pointer.True()},
			{Name: "category_id", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "category_name", Type: "string", Optional: pointer.True()},
			{Name: "location_id", Type: "string"},
			{Name: "provider_id", Type: "string", Facet: pointer.True()},
			{Name: "provider_name", Type: "string", Optional: pointer.True()},
			{Name: "city", Type: "string", Optional: pointer.True()},
			{Name: "state", Type: "string", Optional: pointer.True()},
			{Name: "zip_code", Type: "string", Optional: pointer.True()},
			{Name: "location", Type: "geopoint", Optional: pointer.True()},
			{Name: "price", Type: "float"},
			{Name: "is_active", Type: "bool", Facet: pointer.True()},
			{Name: "updated_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("updated_at"),
	}
}

// InitSchema ensures the offerings collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == OfferingsCollection {
			log.Debug().Str("collection", OfferingsCollection).Msg("typesense collection already exists")
			return nil
		}
	}

	if _, err := c.client.Collections().Create(ctx, OfferingsSchema()); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", OfferingsCollection).Msg("created typesense collection")
	return nil
}
