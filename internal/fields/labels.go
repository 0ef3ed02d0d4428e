package fields

import "purissima/internal"

// DefaultLabels maps slugged source labels to canonical keys. The first block covers
// the scraped order page; the second covers the keys of the JSON payload.
var DefaultLabels = map[string]internal.FieldKey{
	"pedido":      internal.FieldOrderID,
	"status":      internal.FieldStatus,
	"cliente":     internal.FieldCustomerName,
	"nome":        internal.FieldCustomerName,
	"e_mail":      internal.FieldEmail,
	"email":       internal.FieldEmail,
	"cpf":         internal.FieldCPF,
	"cnpj":        internal.FieldDocument,
	"documento":   internal.FieldDocument,
	"telefone":    internal.FieldPhone,
	"celular":     internal.FieldPhone,
	"cep":         internal.FieldZip,
	"rua":         internal.FieldStreet,
	"endereco":    internal.FieldStreet,
	"logradouro":  internal.FieldStreet,
	"numero":      internal.FieldNumber,
	"complemento": internal.FieldComplement,
	"bairro":      internal.FieldNeighborhood,
	"cidade":      internal.FieldCity,
	"municipio":   internal.FieldCity,
	"uf":          internal.FieldState,
	"estado":      internal.FieldState,
	"criado_em":   internal.FieldCreatedAt,
	"criado":      internal.FieldCreatedAt,
	"data":        internal.FieldCreatedAt,

	"ord_id":            internal.FieldOrderID,
	"ord_status":        internal.FieldStatus,
	"chg_status":        internal.FieldStatus,
	"ord_customer_name": internal.FieldCustomerName,
	"usr_name":          internal.FieldCustomerName,
	"ord_email":         internal.FieldEmail,
	"usr_email":         internal.FieldEmail,
	"ord_cpf":           internal.FieldCPF,
	"usr_cpf":           internal.FieldCPF,
	"ord_document":      internal.FieldDocument,
	"ord_contact_phone": internal.FieldPhone,
	"usr_phone":         internal.FieldPhone,
	"ord_created_at":    internal.FieldCreatedAt,
	"created_at":        internal.FieldCreatedAt,
	"add_zip":           internal.FieldZip,
	"add_street":        internal.FieldStreet,
	"add_number":        internal.FieldNumber,
	"add_complement":    internal.FieldComplement,
	"add_neighborhood":  internal.FieldNeighborhood,
	"add_city":          internal.FieldCity,
	"add_state":         internal.FieldState,
}
