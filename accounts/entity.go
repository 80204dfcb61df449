package accounts

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/nexusware/customer-order/tablestore"
)

// Entity is the stored shape of an account row. The address is flattened
// into scalar columns; the domain layer folds it back into an Address.
type Entity struct {
	tablestore.EntityMeta

	FirstName   string `dynamodbav:"FirstName"`
	LastName    string `dynamodbav:"LastName"`
	Email       string `dynamodbav:"Email,omitempty"`
	PhoneNumber string `dynamodbav:"PhoneNumber,omitempty"`

	AddressStreet1    string `dynamodbav:"Address_Street1"`
	AddressStreet2    string `dynamodbav:"Address_Street2,omitempty"`
	AddressCity       string `dynamodbav:"Address_City"`
	AddressState      string `dynamodbav:"Address_State,omitempty"`
	AddressPostalCode string `dynamodbav:"Address_PostalCode"`
	AddressCountry    string `dynamodbav:"Address_Country"`

	IsActive *bool `dynamodbav:"IsActive,omitempty"`

	CreatedUtc  time.Time `dynamodbav:"CreatedUtc"`
	ModifiedUtc time.Time `dynamodbav:"ModifiedUtc"`

	// PartitionStrategyVersion marks which bucketing scheme placed this row,
	// so a future re-partitioning can migrate old layouts.
	PartitionStrategyVersion int `dynamodbav:"PartitionStrategyVersion"`
}

// rowKey is the undashed hex form of the account id, matching the row-key
// convention used across all tables.
func rowKey(id uuid.UUID) string {
	return hex.EncodeToString(id[:])
}

func (e *Entity) toDomain() (Account, error) {
	id, err := uuid.Parse(e.RowKey)
	if err != nil {
		return Account{}, err
	}
	return Account{
		ID:        id,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Email:     e.Email,
		Phone:     e.PhoneNumber,
		IsActive:  e.IsActive,
		Address: Address{
			Street1:    e.AddressStreet1,
			Street2:    e.AddressStreet2,
			City:       e.AddressCity,
			State:      e.AddressState,
			PostalCode: e.AddressPostalCode,
			Country:    e.AddressCountry,
		},
		CreatedUtc:  e.CreatedUtc,
		ModifiedUtc: e.ModifiedUtc,
	}, nil
}

func (e *Entity) setAddress(a Address) {
	e.AddressStreet1 = a.Street1
	e.AddressStreet2 = a.Street2
	e.AddressCity = a.City
	e.AddressState = a.State
	e.AddressPostalCode = a.PostalCode
	e.AddressCountry = a.Country
}
