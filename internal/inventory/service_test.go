package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
	"github.com/vasiliy-maslov/restaurant-pos/internal/inventory"
)

type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) Create(ctx context.Context, item *inventory.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockInventoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*inventory.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Item), args.Error(1)
}

func (m *MockInventoryRepository) List(ctx context.Context, f inventory.ListFilter) ([]inventory.Item, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Item), args.Error(1)
}

func (m *MockInventoryRepository) Update(ctx context.Context, item *inventory.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockInventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockInventoryRepository) Restock(ctx context.Context, id uuid.UUID, qty decimal.Decimal) (*inventory.Item, error) {
	args := m.Called(ctx, id, qty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Item), args.Error(1)
}

func TestInventoryService_Restock(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	svc := inventory.NewService(mockRepo)
	id := uuid.Must(uuid.NewV4())
	now := time.Now()

	qty := decimal.RequireFromString("2.5")
	mockRepo.On("Restock", mock.Anything, id, qty).
		Return(&inventory.Item{ID: id, Quantity: decimal.RequireFromString("7.5"), LastRestocked: &now}, nil).
		Once()

	item, err := svc.Restock(context.Background(), id, qty)
	require.NoError(t, err)
	assert.Equal(t, "7.5", item.Quantity.String())
	require.NotNil(t, item.LastRestocked)
	mockRepo.AssertExpectations(t)
}

func TestInventoryService_Restock_RejectsNonPositive(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	svc := inventory.NewService(mockRepo)

	_, err := svc.Restock(context.Background(), uuid.Must(uuid.NewV4()), decimal.Zero)
	require.ErrorIs(t, err, apperror.ErrValidation)
	mockRepo.AssertNotCalled(t, "Restock", mock.Anything, mock.Anything, mock.Anything)
}

func TestInventoryService_Create_Defaults(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	svc := inventory.NewService(mockRepo)

	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(it *inventory.Item) bool {
		return it.Unit == "units" && it.Name == "Flour"
	})).Return(nil).Once()

	_, err := svc.Create(context.Background(), &inventory.Item{Name: " Flour ", Quantity: decimal.NewFromInt(10)})
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestInventoryService_Create_NegativeQuantity(t *testing.T) {
	svc := inventory.NewService(new(MockInventoryRepository))

	_, err := svc.Create(context.Background(), &inventory.Item{Name: "Flour", Quantity: decimal.NewFromInt(-1)})
	require.ErrorIs(t, err, apperror.ErrValidation)
}

func TestItem_LowStock(t *testing.T) {
	it := inventory.Item{Quantity: decimal.NewFromInt(5), MinStock: decimal.NewFromInt(5)}
	assert.True(t, it.LowStock())

	it.Quantity = decimal.NewFromInt(6)
	assert.False(t, it.LowStock())
}
