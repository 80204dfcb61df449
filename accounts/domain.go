// Package accounts is the customer-account aggregate: domain model, table
// entity and repository. Accounts are spread across a fixed set of hash
// partitions so that no single partition becomes hot.
package accounts

import (
	"time"

	"github.com/google/uuid"
)

// Address is a postal address value object. Orders reuse it for shipping.
type Address struct {
	Street1    string `json:"street1" validate:"required"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required,len=2"`
}

// Account is a customer account.
type Account struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	IsActive  *bool     `json:"isActive,omitempty"`
	Address   Address   `json:"address"`

	CreatedUtc  time.Time `json:"createdUtc"`
	ModifiedUtc time.Time `json:"modifiedUtc"`
}
