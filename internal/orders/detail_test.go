package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrder(t *testing.T) {
	raw := []byte(`{"data":[{"id":1},{"id":42,"status":"PRONTO"}]}`)

	order, ok := FindOrder(raw, 42)
	require.True(t, ok)
	assert.Equal(t, "PRONTO", order.Get("status").String())

	_, ok = FindOrder(raw, 99)
	assert.False(t, ok)
}

func TestBuildDetailRecomputesTotal(t *testing.T) {
	order, ok := FindOrder([]byte(`[{
		"id": 7,
		"status": "EM_PREPARO",
		"criadoEm": "2026-08-28T11:00:00",
		"observacoesGerais": "Sem pimenta",
		"cliente": {"nome": "José", "telefone": "(11) 98888-0000"},
		"itens": [
			{"itemRestaurante": {"nome": "Feijoada", "preco": 35.0}, "quantidade": 2, "observacoes": "Meia porção"},
			{"nome": "Suco", "preco": 8.0, "quantidade": 1}
		]
	}]`), 7)
	require.True(t, ok)

	d := BuildDetail(order)
	assert.Equal(t, 78.0, d.Order.Total)
	assert.Equal(t, "EM_PREPARO", d.Order.Status)
	assert.Equal(t, "2026-08-28T11:00:00", d.Order.OrderDate)
	assert.Equal(t, "Sem pimenta", d.Order.Notes)
	assert.Equal(t, "José", d.Order.Customer["nome"])

	require.Len(t, d.Items, 2)
	assert.Equal(t, "Feijoada", d.Items[0].Name)
	assert.Equal(t, 70.0, d.Items[0].Subtotal)
	assert.Equal(t, "Meia porção", d.Items[0].Notes)
	assert.Equal(t, "Suco", d.Items[1].Name)
}

func TestBuildDetailPrefersOrderTotal(t *testing.T) {
	order, ok := FindOrder([]byte(`[{"id":1,"valor_total":99.5,"itens":[{"nome":"X","preco":1,"quantidade":1}]}]`), 1)
	require.True(t, ok)

	d := BuildDetail(order)
	assert.Equal(t, 99.5, d.Order.Total)
}

func TestBuildDetailStringCustomer(t *testing.T) {
	order, ok := FindOrder([]byte(`[{"id":1,"cliente":"Balcão"}]`), 1)
	require.True(t, ok)

	d := BuildDetail(order)
	assert.Equal(t, "Balcão", d.Order.Customer["nome"])
}

func TestSampleOrders(t *testing.T) {
	now := time.Now()

	all := SampleOrders(now, "")
	require.Len(t, all, 5)
	assert.Equal(t, 1001, all[0].ID)
	assert.Equal(t, 1005, all[4].ID)

	delivered := SampleOrders(now, "entregue")
	require.Len(t, delivered, 2)
	for _, o := range delivered {
		assert.Equal(t, "entregue", o.Status)
	}

	assert.Empty(t, SampleOrders(now, "cancelado"))
}
