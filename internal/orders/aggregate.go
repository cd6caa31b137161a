package orders

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Filters narrows an order listing. Dates are YYYY-MM-DD strings compared
// lexically; a zero field means no filtering on it.
type Filters struct {
	Status   string
	DateFrom string
	DateTo   string
}

// finishedGroup collapses the finished-status spellings for filter matching.
var finishedGroup = map[string]struct{}{
	"FINALIZADO": {}, "CONCLUIDO": {}, "CONCLUÍDO": {},
}

// FilterOrders returns a restaurant's orders from a raw upstream listing as
// a normalized JSON array, newest first. Orders carrying no restaurant id at
// all are kept: older backend builds omit it on the per-restaurant route.
func FilterOrders(raw []byte, restaurantID int64, f Filters) json.RawMessage {
	var out []string
	for _, order := range ExtractList(raw) {
		if !order.IsObject() {
			continue
		}
		if id := RestaurantID(order); id != 0 && id != restaurantID {
			continue
		}
		if f.Status != "" && !matchStatus(order.Get("status").String(), f.Status) {
			continue
		}
		if f.DateFrom != "" || f.DateTo != "" {
			if day, ok := createdDay(order); ok {
				if f.DateFrom != "" && day < f.DateFrom {
					continue
				}
				if f.DateTo != "" && day > f.DateTo {
					continue
				}
			}
		}
		out = append(out, normalizeOrder(order, restaurantID))
	}
	return assembleSorted(out)
}

// CompletedOrders returns the restaurant's finished orders, newest first.
// Unlike FilterOrders, an order without a restaurant id is excluded here:
// analytics must never mix another tenant's revenue in.
func CompletedOrders(raw []byte, restaurantID int64) json.RawMessage {
	var out []string
	for _, order := range ExtractList(raw) {
		if !order.IsObject() {
			continue
		}
		if RestaurantID(order) != restaurantID {
			continue
		}
		if !IsCompleted(order.Get("status").String()) {
			continue
		}
		out = append(out, normalizeOrder(order, restaurantID))
	}
	return assembleSorted(out)
}

// matchStatus compares statuses case-insensitively, treating the finished
// spellings as one group.
func matchStatus(orderStatus, wanted string) bool {
	os := strings.ToUpper(strings.TrimSpace(orderStatus))
	ws := strings.ToUpper(strings.TrimSpace(wanted))
	if _, ok := finishedGroup[ws]; ok {
		_, match := finishedGroup[os]
		return match
	}
	return os == ws
}

func createdDay(order gjson.Result) (string, bool) {
	t, ok := CreatedAt(order)
	if !ok {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

// normalizeOrder fills the shape gaps the desktop client trips over: a flat
// restaurante_id, both timestamp spellings, and an itens array.
func normalizeOrder(order gjson.Result, restaurantID int64) string {
	raw := order.Raw

	if !order.Get("restaurante_id").Exists() {
		raw, _ = sjson.Set(raw, "restaurante_id", restaurantID)
	}
	camel := order.Get("criadoEm")
	snake := order.Get("criado_em")
	if !camel.Exists() && snake.Exists() {
		raw, _ = sjson.Set(raw, "criadoEm", snake.String())
	} else if !snake.Exists() && camel.Exists() {
		raw, _ = sjson.Set(raw, "criado_em", camel.String())
	}
	if !order.Get("itens").Exists() {
		raw, _ = sjson.SetRaw(raw, "itens", "[]")
	}
	return raw
}

// assembleSorted joins normalized order objects into one JSON array sorted
// by the raw creation timestamp, newest first. The ISO-8601 strings the
// backend emits sort correctly as plain strings.
func assembleSorted(items []string) json.RawMessage {
	if len(items) == 0 {
		return json.RawMessage("[]")
	}
	sort.SliceStable(items, func(i, j int) bool {
		return CreatedRaw(gjson.Parse(items[i])) > CreatedRaw(gjson.Parse(items[j]))
	})
	return json.RawMessage("[" + strings.Join(items, ",") + "]")
}

// ProductRank is one row of the top-products ranking.
type ProductRank struct {
	Position     int     `json:"posicao"`
	Name         string  `json:"nome"`
	QuantitySold float64 `json:"quantidade_vendida"`
	UnitPrice    float64 `json:"valor_unitario"`
	TotalSales   float64 `json:"valor_total_vendas"`
}

// periodWindow returns how far back a ranking period reaches.
func periodWindow(period string) time.Duration {
	switch period {
	case "semanal":
		return 7 * 24 * time.Hour
	case "mensal":
		return 30 * 24 * time.Hour
	default:
		return 365 * 24 * time.Hour
	}
}

// TopProducts ranks a restaurant's best sellers over the period ending now.
// Only finished orders with a parseable date count. Ties keep first-seen
// order, and at most limit rows are returned.
func TopProducts(raw []byte, restaurantID int64, period string, now time.Time, limit int) []ProductRank {
	type bucket struct {
		name      string
		quantity  float64
		total     float64
		unitPrice float64
	}
	startDay := dayOf(now.Add(-periodWindow(period)))

	var keys []string
	buckets := map[string]*bucket{}

	for _, order := range ExtractList(raw) {
		if !order.IsObject() || RestaurantID(order) != restaurantID {
			continue
		}
		created, ok := CreatedAt(order)
		if !ok || dayOf(created).Before(startDay) {
			continue
		}
		if !IsCompleted(order.Get("status").String()) {
			continue
		}
		for _, item := range order.Get("itens").Array() {
			if !item.IsObject() {
				continue
			}
			key, name := ItemProduct(item)
			if name == "" {
				continue
			}
			qty := ItemQuantity(item)
			if qty == 0 {
				// A line on a finished order sold at least one unit.
				qty = 1
			}
			price := ItemUnitPrice(item, qty)

			b, exists := buckets[key]
			if !exists {
				b = &bucket{name: name}
				buckets[key] = b
				keys = append(keys, key)
			}
			b.quantity += qty
			b.total += qty * price
			if b.name == "" {
				b.name = name
			}
			if price > b.unitPrice {
				b.unitPrice = price
			}
		}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		return buckets[keys[i]].quantity > buckets[keys[j]].quantity
	})
	if len(keys) > limit {
		keys = keys[:limit]
	}

	ranks := make([]ProductRank, 0, len(keys))
	for pos, key := range keys {
		b := buckets[key]
		unit := b.unitPrice
		if unit == 0 && b.quantity > 0 {
			unit = b.total / b.quantity
		}
		ranks = append(ranks, ProductRank{
			Position:     pos + 1,
			Name:         b.name,
			QuantitySold: b.quantity,
			UnitPrice:    unit,
			TotalSales:   b.total,
		})
	}
	log.Debug().Int64("restaurante_id", restaurantID).Str("periodo", period).
		Int("produtos", len(ranks)).Msg("top products computed")
	return ranks
}

// Series is a labeled sales-over-time chart: parallel value and item-count
// arrays, zero-filled so every label has a point.
type Series struct {
	Period   string    `json:"periodo"`
	Labels   []string  `json:"labels"`
	Sales    []float64 `json:"vendas"`
	Products []float64 `json:"produtos"`
}

var monthAbbrevPT = [...]string{
	"Jan", "Fev", "Mar", "Abr", "Mai", "Jun",
	"Jul", "Ago", "Set", "Out", "Nov", "Dez",
}

// SalesSeries buckets a restaurant's finished orders into the chart the
// client renders: four 7-day windows for semanal, the last six calendar
// months for mensal, the last five calendar years for anual.
func SalesSeries(raw []byte, restaurantID int64, period string, now time.Time) Series {
	today := dayOf(now)

	var windowDays int
	switch period {
	case "semanal":
		windowDays = 28
	case "mensal":
		windowDays = 180
	default:
		windowDays = 1825
	}
	startDay := today.AddDate(0, 0, -windowDays)

	sales := map[string]float64{}
	counts := map[string]float64{}

	for _, order := range ExtractList(raw) {
		if !order.IsObject() || RestaurantID(order) != restaurantID {
			continue
		}
		if !IsCompleted(order.Get("status").String()) {
			continue
		}
		created, ok := CreatedAt(order)
		if !ok {
			continue
		}
		// Rebase the order's calendar day into today's location so the
		// day arithmetic below counts calendar days, not 24h spans.
		day := time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, today.Location())
		if day.Before(startDay) {
			continue
		}

		value, itemCount := OrderTotals(order)

		var key string
		switch period {
		case "semanal":
			week := 3 - int(today.Sub(day).Hours()/24)/7
			if week < 0 || week > 3 {
				continue
			}
			key = weekLabel(week)
		case "mensal":
			key = day.Format("2006-01")
		default:
			key = day.Format("2006")
		}
		sales[key] += value
		counts[key] += itemCount
	}

	s := Series{Period: period}
	switch period {
	case "semanal":
		for week := 0; week < 4; week++ {
			s.appendPoint(weekLabel(week), weekLabel(week), sales, counts)
		}
	case "mensal":
		// Oldest month first; keys are YYYY-MM, labels the PT abbreviations.
		for i := 5; i >= 0; i-- {
			m := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()).AddDate(0, -i, 0)
			s.appendPoint(monthAbbrevPT[m.Month()-1], m.Format("2006-01"), sales, counts)
		}
	default:
		for i := 4; i >= 0; i-- {
			year := today.AddDate(-i, 0, 0).Format("2006")
			s.appendPoint(year, year, sales, counts)
		}
	}
	return s
}

func (s *Series) appendPoint(label, key string, sales, counts map[string]float64) {
	s.Labels = append(s.Labels, label)
	s.Sales = append(s.Sales, sales[key])
	s.Products = append(s.Products, counts[key])
}

func weekLabel(index int) string {
	return fmt.Sprintf("Sem %d", index+1)
}

// dayOf truncates to midnight in the timestamp's own location.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
