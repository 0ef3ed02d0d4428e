// Package orders holds the pure functions applied to parsed orders: dedupe,
// date filtering, search, sort and item aggregation.
package orders

import (
	"purissima/internal"
	"purissima/internal/fields"
	"purissima/internal/util"
)

type Summary struct {
	ID       string
	Name     string
	Document string
	Email    string
	Phone    string
	Address  string
}

func Summarize(o internal.Order) Summary {
	address := o.Field(internal.FieldAddress)
	if address == "" {
		address = fields.AddressOf(o.Fields)
	}
	return Summary{
		ID:       idOf(o),
		Name:     fields.NormalizeText(o.Field(internal.FieldCustomerName)),
		Document: fields.NormalizeText(util.FirstNonEmpty(o.Field(internal.FieldCPF), o.Field(internal.FieldDocument))),
		Email:    fields.NormalizeText(o.Field(internal.FieldEmail)),
		Phone:    fields.NormalizeText(o.Field(internal.FieldPhone)),
		Address:  address,
	}
}

func idOf(o internal.Order) string {
	return fields.NormalizeText(util.FirstNonEmpty(o.ID, o.Field(internal.FieldOrderID)))
}
