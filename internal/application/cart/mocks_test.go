package cart_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

type mockProducts struct{ mock.Mock }

func (m *mockProducts) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*entity.Product)
	return p, args.Error(1)
}

func (m *mockProducts) TaxOverrides(ctx context.Context, productID string) ([]entity.OrganizationTax, error) {
	args := m.Called(ctx, productID)
	t, _ := args.Get(0).([]entity.OrganizationTax)
	return t, args.Error(1)
}

type mockTaxes struct{ mock.Mock }

func (m *mockTaxes) ListByOrganization(ctx context.Context, organizationID string) ([]entity.OrganizationTax, error) {
	args := m.Called(ctx, organizationID)
	t, _ := args.Get(0).([]entity.OrganizationTax)
	return t, args.Error(1)
}

type mockOrgs struct{ mock.Mock }

func (m *mockOrgs) GetByID(ctx context.Context, id string) (*entity.Organization, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*entity.Organization)
	return o, args.Error(1)
}

func (m *mockOrgs) BaseCurrency(ctx context.Context, organizationID string) (string, error) {
	args := m.Called(ctx, organizationID)
	return args.String(0), args.Error(1)
}

type mockCustomers struct{ mock.Mock }

func (m *mockCustomers) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*entity.Customer)
	return c, args.Error(1)
}
