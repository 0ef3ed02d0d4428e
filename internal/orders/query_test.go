package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"purissima/internal"
)

func order(id string, kv ...string) internal.Order {
	o := internal.Order{ID: id, Fields: map[internal.FieldKey]string{internal.FieldOrderID: id}}
	for i := 0; i+1 < len(kv); i += 2 {
		o.Fields[internal.FieldKey(kv[i])] = kv[i+1]
	}
	return o
}

func ids(list []internal.Order) []string {
	out := make([]string, 0, len(list))
	for _, o := range list {
		out = append(out, o.ID)
	}
	return out
}

func TestDeduplicateKeepsFirstOccurrence(t *testing.T) {
	first := order("7", "ord_customer_name", "Primeira")
	second := order("7", "ord_customer_name", "Segunda")
	got := Deduplicate([]internal.Order{order("3"), first, order(""), second, order("9")})

	require.Equal(t, []string{"3", "7", "9"}, ids(got))
	assert.Equal(t, "Primeira", got[1].Field(internal.FieldCustomerName))
}

func TestSortNumericAndLexicographic(t *testing.T) {
	list := []internal.Order{order("10"), order("2"), order("30")}
	assert.Equal(t, []string{"2", "10", "30"}, ids(Sort(list, Asc)))
	assert.Equal(t, []string{"30", "10", "2"}, ids(Sort(list, Desc)))
	assert.Equal(t, []string{"30", "10", "2"}, ids(Sort(list, ParseDirection(""))))
	// input untouched
	assert.Equal(t, []string{"10", "2", "30"}, ids(list))

	mixed := []internal.Order{order("b"), order("10"), order("2"), order("a")}
	// "10" vs "2" is numeric, any pair involving a letter is lexicographic
	assert.Equal(t, []string{"2", "10", "a", "b"}, ids(Sort(mixed, Asc)))
}

func TestSortIsStable(t *testing.T) {
	a := order("5", "ord_customer_name", "A")
	b := order("5", "ord_customer_name", "B")
	got := Sort([]internal.Order{a, order("1"), b}, Asc)
	assert.Equal(t, "A", got[1].Field(internal.FieldCustomerName))
	assert.Equal(t, "B", got[2].Field(internal.FieldCustomerName))
}

func TestSearch(t *testing.T) {
	list := []internal.Order{
		order("101", "ord_customer_name", "Maria Souza", "ord_cpf", "123.456.789-00"),
		order("202", "ord_customer_name", "João Lima", "ord_document", "12.345.678/0001-90"),
		order("303", "ord_customer_name", "Ana", "ord_email", "maria@example.com"),
	}
	assert.Equal(t, []string{"101"}, ids(Search(list, "MARIA")))
	assert.Equal(t, []string{"202"}, ids(Search(list, "0001")))
	assert.Equal(t, []string{"303"}, ids(Search(list, "30")))
	assert.Equal(t, []string{"101", "202", "303"}, ids(Search(list, "   ")))
	assert.Empty(t, Search(list, "inexistente"))
}

func TestParseTimestampStrategies(t *testing.T) {
	loc := time.UTC
	got, ok := ParseBrazilianDate("10/05/2025 14:30", loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 5, 10, 14, 30, 0, 0, loc), got)

	got, ok = ParseBrazilianDate("Criado: 1/2/25", loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, loc), got)

	got, ok = ParseBrazilianDate("01/02/2025 08:05:09", loc)
	require.True(t, ok)
	assert.Equal(t, 9, got.Second())

	_, ok = ParseBrazilianDate("31/02/2025", loc)
	assert.False(t, ok)
	_, ok = ParseBrazilianDate("2025-05-10", loc)
	assert.False(t, ok)

	got, ok = ParseGenericDate("2025-05-10T08:00:00-03:00", loc)
	require.True(t, ok)
	assert.Equal(t, 11, got.UTC().Hour())

	got, ok = ParseTimestamp("2025-05-10 08:00", loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 5, 10, 8, 0, 0, 0, loc), got)

	_, ok = ParseTimestamp("ontem à tarde", loc)
	assert.False(t, ok)
}

func TestFilterByDateRange(t *testing.T) {
	list := []internal.Order{
		order("1", "ord_created_at", "01/05/2025 00:00"),
		order("2", "ord_created_at", "15/05/2025 12:00"),
		order("3", "ord_created_at", "2025-05-31T23:59:00Z"),
		order("4", "ord_created_at", "sem data"),
		order("5"),
		{ID: "6", Fields: map[internal.FieldKey]string{}, Raw: map[string]string{"criado_em": "20/05/2025"}},
	}
	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 5, 31, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, []string{"1", "2", "3", "6"}, ids(FilterByDateRange(list, from, &to, time.UTC)))

	mid := time.Date(2025, 5, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"1", "2"}, ids(FilterByDateRange(list, from, &mid, time.UTC)))
	assert.Equal(t, []string{"2", "3", "6"}, ids(FilterByDateRange(list, mid, nil, time.UTC)))
}

func TestQuery(t *testing.T) {
	list := []internal.Order{
		order("10", "ord_customer_name", "Maria", "ord_created_at", "02/05/2025"),
		order("2", "ord_customer_name", "Mariana", "ord_created_at", "03/05/2025"),
		order("10", "ord_customer_name", "Duplicado", "ord_created_at", "02/05/2025"),
		order("30", "ord_customer_name", "Pedro", "ord_created_at", "04/05/2025"),
		order("40", "ord_customer_name", "Maria Antiga", "ord_created_at", "01/01/2024"),
	}
	got := Query(list, Options{
		Search: "mari",
		From:   time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		Sort:   Asc,
	})
	assert.Equal(t, []string{"2", "10"}, ids(got))

	got = Query(list, Options{Limit: 2})
	assert.Equal(t, []string{"40", "30"}, ids(got))
}
