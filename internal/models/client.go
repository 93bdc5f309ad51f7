package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// ClientInput holds the editable fields of a client.
type ClientInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Validate checks the client form.
func (in ClientInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.Email, is.EmailFormat.Error("must be a valid email address")),
	)
}

// Client is a customer record.
type Client struct {
	ID string `json:"id"`
	ClientInput
}

// Key returns the client ID.
func (c Client) Key() string { return c.ID }

// Input returns the editable fields.
func (c Client) Input() ClientInput { return c.ClientInput }

// ClientName resolves id against clients, returning Placeholder when absent.
func ClientName(clients []Client, id string) string {
	for _, c := range clients {
		if c.ID == id {
			return c.Name
		}
	}
	return Placeholder
}
