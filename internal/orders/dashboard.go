package orders

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Card is one dashboard metric: a display string plus the raw number.
type Card struct {
	Value        string  `json:"valor"`
	NumericValue float64 `json:"valor_numerico"`
	Type         string  `json:"tipo,omitempty"`
}

// Chart is a labels/data pair for one dashboard graph.
type Chart struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// Dashboard aggregates the metric cards and the seven-day charts.
type Dashboard struct {
	Cards  map[string]Card  `json:"cards"`
	Charts map[string]Chart `json:"graficos"`
}

// BuildDashboard computes the dashboard from a raw order listing: totals and
// ticket over all finished orders, day-over-day evolution, and zero-filled
// seven-day value and item-count charts ending today.
func BuildDashboard(raw []byte, restaurantID int64, now time.Time) Dashboard {
	completed := ExtractList(CompletedOrders(raw, restaurantID))

	today := dayOf(now)
	todayKey := today.Format("2006-01-02")
	yesterdayKey := today.AddDate(0, 0, -1).Format("2006-01-02")

	days := make([]string, 7)
	salesByDay := map[string]float64{}
	itemsByDay := map[string]float64{}
	for i := 0; i < 7; i++ {
		key := today.AddDate(0, 0, i-6).Format("2006-01-02")
		days[i] = key
		salesByDay[key] = 0
		itemsByDay[key] = 0
	}

	var totalSales, itemsSold, salesToday, salesYesterday float64
	for _, order := range completed {
		value, itemCount := OrderTotals(order)
		if value == 0 {
			log.Debug().Str("pedido", order.Get("id").String()).
				Msg("finished order has zero value")
		}

		totalSales += value
		itemsSold += itemCount

		created, ok := CreatedAt(order)
		if !ok {
			continue
		}
		key := created.Format("2006-01-02")
		if _, inWindow := salesByDay[key]; inWindow {
			salesByDay[key] += value
			itemsByDay[key] += itemCount
		}
		switch key {
		case todayKey:
			salesToday += value
		case yesterdayKey:
			salesYesterday += value
		}
	}

	ticket := 0.0
	if len(completed) > 0 {
		ticket = totalSales / float64(len(completed))
	}
	evolution := Evolution(salesToday, salesYesterday)

	evolutionType := "positive"
	if evolution < 0 {
		evolutionType = "negative"
	}

	labels := make([]string, 7)
	salesData := make([]float64, 7)
	itemsData := make([]float64, 7)
	for i, key := range days {
		d, _ := time.Parse("2006-01-02", key)
		labels[i] = d.Format("02/01")
		salesData[i] = salesByDay[key]
		itemsData[i] = itemsByDay[key]
	}

	return Dashboard{
		Cards: map[string]Card{
			"total_vendas": {
				Value:        FormatBRL(totalSales),
				NumericValue: totalSales,
			},
			"quantidade_produtos": {
				Value:        strconv.FormatFloat(itemsSold, 'f', -1, 64),
				NumericValue: itemsSold,
			},
			"ticket_medio_diario": {
				Value:        FormatBRL(ticket),
				NumericValue: ticket,
			},
			"evolucao_percentual": {
				Value:        fmt.Sprintf("%+.1f%%", evolution),
				NumericValue: evolution,
				Type:         evolutionType,
			},
		},
		Charts: map[string]Chart{
			"valor_diario":     {Labels: labels, Data: salesData},
			"produtos_diarios": {Labels: labels, Data: itemsData},
		},
	}
}

// Evolution is today's sales relative to yesterday's, in percent. The edge
// rows: growth from zero reads as +100, collapse to zero as -100, and two
// empty days as 0.
func Evolution(today, yesterday float64) float64 {
	switch {
	case yesterday > 0:
		return ((today - yesterday) / yesterday) * 100
	case today > 0:
		return 100
	default:
		return 0
	}
}

// FormatBRL renders a value as Brazilian currency: "R$ 1.234,56".
func FormatBRL(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	intPart, fracPart, _ := strings.Cut(s, ".")

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := "R$ " + strings.Join(groups, ".") + "," + fracPart
	if neg {
		out = "R$ -" + strings.Join(groups, ".") + "," + fracPart
	}
	return out
}
