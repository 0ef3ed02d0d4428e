package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"purissima/internal"
)

func TestKey(t *testing.T) {
	n := New(nil)
	cases := []struct {
		label string
		want  internal.FieldKey
	}{
		{"Pedido", internal.FieldOrderID},
		{"E-mail", internal.FieldEmail},
		{"email", internal.FieldEmail},
		{"CEP", internal.FieldZip},
		{"Telefone", internal.FieldPhone},
		{"Número", internal.FieldNumber},
		{"Município:", internal.FieldCity},
		{"  Criado em ", internal.FieldCreatedAt},
		{"usr_name", internal.FieldCustomerName},
	}
	for _, tc := range cases {
		got, ok := n.Key(tc.label)
		assert.True(t, ok, tc.label)
		assert.Equal(t, tc.want, got, tc.label)
	}

	for _, unknown := range []string{"", "Observações", "---"} {
		_, ok := n.Key(unknown)
		assert.False(t, ok, unknown)
	}
}

func TestNewWithExtraLabels(t *testing.T) {
	n := New(map[string]string{"Forma de Pagamento": "ord_payment", "ignored": " "})
	got, ok := n.Key("forma de pagamento")
	assert.True(t, ok)
	assert.Equal(t, internal.FieldKey("ord_payment"), got)

	_, ok = n.Key("ignored")
	assert.False(t, ok)

	// the defaults stay untouched
	_, ok = New(nil).Key("forma de pagamento")
	assert.False(t, ok)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "", NormalizeText(""))
	assert.Equal(t, "", NormalizeText(" \n\t "))
	assert.Equal(t, "Rua das Flores", NormalizeText("  Rua   das\nFlores "))
}

func TestComposeAddress(t *testing.T) {
	assert.Equal(t, "", ComposeAddress())
	assert.Equal(t, "", ComposeAddress("", "  "))
	assert.Equal(t, "Rua A, 10, Centro, São Paulo, SP, 01000-000",
		ComposeAddress("Rua  A", "10", "", "Centro", "São Paulo", "SP", "01000-000"))

	fields := map[internal.FieldKey]string{
		internal.FieldZip:    "01000-000",
		internal.FieldStreet: "Rua A",
		internal.FieldCity:   "São Paulo",
	}
	assert.Equal(t, "Rua A, São Paulo, 01000-000", AddressOf(fields))
}
