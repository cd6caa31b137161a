package orders

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvolution(t *testing.T) {
	tests := []struct {
		today, yesterday, want float64
	}{
		{1200, 1000, 20},
		{800, 1000, -20},
		{500, 0, 100},
		{0, 0, 0},
		{0, 750, -100},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Evolution(tt.today, tt.yesterday), 0.001,
			"today=%v yesterday=%v", tt.today, tt.yesterday)
	}
}

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "R$ 0,00"},
		{25.9, "R$ 25,90"},
		{1234.56, "R$ 1.234,56"},
		{1234567.89, "R$ 1.234.567,89"},
		{1000, "R$ 1.000,00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBRL(tt.in))
	}
}

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2026, 8, 28, 14, 0, 0, 0, time.Local)
	today := now.Format("2006-01-02") + "T10:00:00"
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02") + "T10:00:00"

	raw := []byte(fmt.Sprintf(`[
		{"id":1,"restaurante_id":1,"status":"FINALIZADO","criadoEm":%q,"itens":[
			{"itemRestaurante":{"id":1,"nome":"A","preco":60},"quantidade":2}
		]},
		{"id":2,"restaurante_id":1,"status":"ENTREGUE","criadoEm":%q,"itens":[
			{"itemRestaurante":{"id":1,"nome":"A","preco":100},"quantidade":1}
		]},
		{"id":3,"restaurante_id":1,"status":"PENDENTE","criadoEm":%q,"itens":[
			{"itemRestaurante":{"id":1,"nome":"A","preco":999},"quantidade":9}
		]}
	]`, today, yesterday, today))

	d := BuildDashboard(raw, 1, now)

	total := d.Cards["total_vendas"]
	assert.Equal(t, 220.0, total.NumericValue)
	assert.Equal(t, "R$ 220,00", total.Value)

	qty := d.Cards["quantidade_produtos"]
	assert.Equal(t, 3.0, qty.NumericValue)
	assert.Equal(t, "3", qty.Value)

	ticket := d.Cards["ticket_medio_diario"]
	assert.Equal(t, 110.0, ticket.NumericValue)

	// today 120 vs yesterday 100 -> +20%.
	evo := d.Cards["evolucao_percentual"]
	assert.InDelta(t, 20.0, evo.NumericValue, 0.001)
	assert.Equal(t, "+20.0%", evo.Value)
	assert.Equal(t, "positive", evo.Type)

	sales := d.Charts["valor_diario"]
	require.Len(t, sales.Labels, 7)
	assert.Equal(t, now.Format("02/01"), sales.Labels[6])
	assert.Equal(t, 120.0, sales.Data[6])
	assert.Equal(t, 100.0, sales.Data[5])
	assert.Equal(t, 0.0, sales.Data[0])

	items := d.Charts["produtos_diarios"]
	assert.Equal(t, 2.0, items.Data[6])
}

func TestBuildDashboardEmpty(t *testing.T) {
	d := BuildDashboard([]byte(`[]`), 1, time.Now())

	assert.Equal(t, 0.0, d.Cards["total_vendas"].NumericValue)
	assert.Equal(t, 0.0, d.Cards["ticket_medio_diario"].NumericValue)
	assert.Equal(t, "+0.0%", d.Cards["evolucao_percentual"].Value)
	assert.Equal(t, "positive", d.Cards["evolucao_percentual"].Type)
	assert.Len(t, d.Charts["valor_diario"].Data, 7)
}
