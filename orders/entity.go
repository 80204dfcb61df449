package orders

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nexusware/customer-order/accounts"
	"github.com/nexusware/customer-order/tablestore"
)

// Entity is the stored shape of an order row. Lines are carried as a single
// JSON column; the shipping address is flattened like the account address.
type Entity struct {
	tablestore.EntityMeta

	AccountID string `dynamodbav:"AccountId"`
	Status    string `dynamodbav:"Status"`
	LinesJSON string `dynamodbav:"LinesJson"`

	ShippingStreet1    string `dynamodbav:"ShippingAddress_Street1"`
	ShippingStreet2    string `dynamodbav:"ShippingAddress_Street2,omitempty"`
	ShippingCity       string `dynamodbav:"ShippingAddress_City"`
	ShippingState      string `dynamodbav:"ShippingAddress_State,omitempty"`
	ShippingPostalCode string `dynamodbav:"ShippingAddress_PostalCode"`
	ShippingCountry    string `dynamodbav:"ShippingAddress_Country"`

	SubTotal float64 `dynamodbav:"SubTotal"`
	Tax      float64 `dynamodbav:"Tax"`
	Total    float64 `dynamodbav:"Total"`

	OrderedUtc     time.Time  `dynamodbav:"OrderedUtc"`
	ShippedUtc     *time.Time `dynamodbav:"ShippedUtc,omitempty"`
	DeliveredUtc   *time.Time `dynamodbav:"DeliveredUtc,omitempty"`
	TrackingNumber string     `dynamodbav:"TrackingNumber,omitempty"`
}

func rowKey(id uuid.UUID) string {
	return hex.EncodeToString(id[:])
}

// MonthPartitionKey is "accountid-yyyyMM": all of one account's orders for a
// calendar month share a partition.
func MonthPartitionKey(accountID uuid.UUID, orderedUtc time.Time) string {
	return fmt.Sprintf("%s-%s", hex.EncodeToString(accountID[:]), orderedUtc.UTC().Format("200601"))
}

func toEntity(o *Order) (*Entity, error) {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return nil, fmt.Errorf("orders: serialize lines: %w", err)
	}

	return &Entity{
		EntityMeta: tablestore.EntityMeta{
			PartitionKey: MonthPartitionKey(o.AccountID, o.OrderedUtc),
			RowKey:       rowKey(o.ID),
		},
		AccountID:          rowKey(o.AccountID),
		Status:             string(o.Status),
		LinesJSON:          string(linesJSON),
		ShippingStreet1:    o.ShippingAddress.Street1,
		ShippingStreet2:    o.ShippingAddress.Street2,
		ShippingCity:       o.ShippingAddress.City,
		ShippingState:      o.ShippingAddress.State,
		ShippingPostalCode: o.ShippingAddress.PostalCode,
		ShippingCountry:    o.ShippingAddress.Country,
		SubTotal:           o.SubTotal,
		Tax:                o.Tax,
		Total:              o.Total,
		OrderedUtc:         o.OrderedUtc,
		ShippedUtc:         o.ShippedUtc,
		DeliveredUtc:       o.DeliveredUtc,
		TrackingNumber:     o.TrackingNumber,
	}, nil
}

func (e *Entity) toDomain() (Order, error) {
	id, err := uuid.Parse(e.RowKey)
	if err != nil {
		return Order{}, err
	}
	accountID, err := uuid.Parse(e.AccountID)
	if err != nil {
		return Order{}, err
	}

	var lines []Line
	if e.LinesJSON != "" {
		if err := json.Unmarshal([]byte(e.LinesJSON), &lines); err != nil {
			return Order{}, fmt.Errorf("orders: parse lines of order %s: %w", e.RowKey, err)
		}
	}

	return Order{
		ID:        id,
		AccountID: accountID,
		Status:    Status(e.Status),
		Lines:     lines,
		ShippingAddress: accounts.Address{
			Street1:    e.ShippingStreet1,
			Street2:    e.ShippingStreet2,
			City:       e.ShippingCity,
			State:      e.ShippingState,
			PostalCode: e.ShippingPostalCode,
			Country:    e.ShippingCountry,
		},
		SubTotal:       e.SubTotal,
		Tax:            e.Tax,
		Total:          e.Total,
		OrderedUtc:     e.OrderedUtc,
		ShippedUtc:     e.ShippedUtc,
		DeliveredUtc:   e.DeliveredUtc,
		TrackingNumber: e.TrackingNumber,
	}, nil
}
