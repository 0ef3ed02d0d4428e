package internal

import "time"

type FieldKey string

const (
	FieldOrderID      FieldKey = "ord_id"
	FieldStatus       FieldKey = "ord_status"
	FieldCustomerName FieldKey = "ord_customer_name"
	FieldEmail        FieldKey = "ord_email"
	FieldCPF          FieldKey = "ord_cpf"
	FieldDocument     FieldKey = "ord_document"
	FieldPhone        FieldKey = "ord_contact_phone"
	FieldCreatedAt    FieldKey = "ord_created_at"
	FieldAddress      FieldKey = "ord_address"

	FieldZip          FieldKey = "add_zip"
	FieldStreet       FieldKey = "add_street"
	FieldNumber       FieldKey = "add_number"
	FieldComplement   FieldKey = "add_complement"
	FieldNeighborhood FieldKey = "add_neighborhood"
	FieldCity         FieldKey = "add_city"
	FieldState        FieldKey = "add_state"
)

// AddressFields lists the address components in composition order.
var AddressFields = []FieldKey{
	FieldStreet, FieldNumber, FieldComplement, FieldNeighborhood, FieldCity, FieldState, FieldZip,
}

// Order is one fulfillment order. Fields holds the canonical header values the rest
// of the engine reads; Raw keeps every scraped pair under its slugged label.
type Order struct {
	ID     string              `json:"id"`
	Fields map[FieldKey]string `json:"fields"`
	Raw    map[string]string   `json:"raw"`
	Items  []OrderItem         `json:"items"`
}

func (o Order) Field(key FieldKey) string {
	if o.Fields == nil {
		return ""
	}
	return o.Fields[key]
}

type OrderItem struct {
	RawName       string `json:"rawName"`
	CanonicalName string `json:"canonicalName"`
	RawQuantity   string `json:"rawQuantity"`
	Quantity      int    `json:"quantity"`
	Period        string `json:"period,omitempty"`
}

type ItemAggregate struct {
	Item          string  `json:"item"`
	TotalQuantity int     `json:"totalQuantity"`
	Orders        []Order `json:"orders"`
}

type ProductionRecord struct {
	Context   string    `json:"context"`
	Item      string    `json:"item"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ProductionItem struct {
	Item              string `json:"item"`
	TotalQuantity     int    `json:"totalQuantity"`
	ProducedQuantity  int    `json:"producedQuantity"`
	RemainingQuantity int    `json:"remainingQuantity"`
}

type RemovalRecord struct {
	OrderID   string    `json:"id"`
	RemovedAt time.Time `json:"removedAt"`
}
