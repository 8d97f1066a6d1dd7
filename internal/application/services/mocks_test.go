package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/pricefinder/internal/domain/entities"
	"github.com/zatekoja/pricefinder/internal/domain/repositories"
)

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) FindOfferings(ctx context.Context, filter repositories.OfferingFilter) ([]*entities.ProcedureOffering, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ProcedureOffering), args.Error(1)
}

func (m *MockCatalogRepository) FindTemplateByID(ctx context.Context, id string) (*entities.ProcedureTemplate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ProcedureTemplate), args.Error(1)
}

func (m *MockCatalogRepository) FindOfferingsByTemplate(ctx context.Context, templateID string) ([]*entities.ProcedureOffering, error) {
	args := m.Called(ctx, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ProcedureOffering), args.Error(1)
}

func (m *MockCatalogRepository) FindProviders(ctx context.Context, filter repositories.ProviderFilter) ([]*entities.Provider, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Provider), args.Error(1)
}

type MockOfferingIndex struct {
	mock.Mock
}

func (m *MockOfferingIndex) Search(ctx context.Context, filter repositories.OfferingFilter) ([]*entities.ProcedureOffering, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ProcedureOffering), args.Error(1)
}

func (m *MockOfferingIndex) Index(ctx context.Context, offering *entities.ProcedureOffering) error {
	return m.Called(ctx, offering).Error(0)
}

func (m *MockOfferingIndex) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockGeolocationProvider struct {
	mock.Mock
}

func (m *MockGeolocationProvider) Geocode(ctx context.Context, address string) (*entities.Coordinate, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Coordinate), args.Error(1)
}
