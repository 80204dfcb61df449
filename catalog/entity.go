package catalog

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/nexusware/customer-order/tablestore"
)

// Entity is the stored shape of a product row. PartitionKey is the
// normalized category; Category keeps the display form.
type Entity struct {
	tablestore.EntityMeta

	Sku         string  `dynamodbav:"Sku"`
	Name        string  `dynamodbav:"Name"`
	Description string  `dynamodbav:"Description,omitempty"`
	BasePrice   float64 `dynamodbav:"BasePrice"`
	Category    string  `dynamodbav:"Category"`
	IsActive    bool    `dynamodbav:"IsActive"`

	CreatedUtc  time.Time `dynamodbav:"CreatedUtc"`
	ModifiedUtc time.Time `dynamodbav:"ModifiedUtc"`
}

func rowKey(id uuid.UUID) string {
	return hex.EncodeToString(id[:])
}

func (e *Entity) toDomain() (Product, error) {
	id, err := uuid.Parse(e.RowKey)
	if err != nil {
		return Product{}, err
	}
	return Product{
		ID:          id,
		Sku:         e.Sku,
		Name:        e.Name,
		Description: e.Description,
		BasePrice:   e.BasePrice,
		Category:    e.Category,
		IsActive:    e.IsActive,
		CreatedUtc:  e.CreatedUtc,
		ModifiedUtc: e.ModifiedUtc,
	}, nil
}
