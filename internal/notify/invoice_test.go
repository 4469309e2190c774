package notify

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_shop/internal/domain"
)

func TestPDFInvoiceRender(t *testing.T) {
	order := &domain.Order{
		ID:         uuid.New(),
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      "ada@example.com",
		Address:    "12 Analytical St",
		PostalCode: "10117",
		City:       "London",
		Discount:   10,
		Items: []domain.OrderItem{
			{ProductID: 1, ProductName: "Keyboard", Price: decimal.RequireFromString("50.00"), Quantity: 2},
			{ProductID: 2, ProductName: "Mouse", Price: decimal.RequireFromString("30.00"), Quantity: 1},
		},
	}

	out, err := PDFInvoice{}.Render(order)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, "%PDF", string(out[:4]))
}
