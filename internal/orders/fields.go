package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ExtractList pulls the order array out of whatever shape the backend sent:
// a bare array, or an envelope with the list under "data" or "pedidos".
func ExtractList(raw []byte) []gjson.Result {
	r := gjson.ParseBytes(raw)
	if r.IsArray() {
		return r.Array()
	}
	if r.IsObject() {
		for _, key := range []string{"data", "pedidos"} {
			if v := r.Get(key); v.IsArray() {
				return v.Array()
			}
		}
	}
	return nil
}

// RestaurantID reads the order's restaurant id from either the nested
// object or the flat field. Zero means absent.
func RestaurantID(order gjson.Result) int64 {
	if v := order.Get("restaurante.id"); v.Exists() {
		return v.Int()
	}
	if v := order.Get("restaurante_id"); v.Exists() {
		return v.Int()
	}
	return 0
}

// CreatedAt parses the order timestamp from criadoEm or criado_em. The
// backend emits both RFC 3339 and the bare "2006-01-02T15:04:05" form.
func CreatedAt(order gjson.Result) (time.Time, bool) {
	for _, key := range []string{"criadoEm", "criado_em"} {
		raw := order.Get(key).String()
		if raw == "" {
			continue
		}
		if t, ok := parseWhen(raw); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// CreatedRaw returns the raw timestamp string used for recency sorting.
func CreatedRaw(order gjson.Result) string {
	if v := order.Get("criadoEm").String(); v != "" {
		return v
	}
	return order.Get("criado_em").String()
}

func parseWhen(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ItemQuantity reads an item's quantity, defaulting absent values to zero.
func ItemQuantity(item gjson.Result) float64 {
	if v := item.Get("quantidade"); v.Exists() && v.Float() != 0 {
		return v.Float()
	}
	if v := item.Get("quantidadeItem"); v.Exists() && v.Float() != 0 {
		return v.Float()
	}
	return 0
}

// ItemUnitPrice resolves an item's unit price through the known fallback
// chain: the nested catalog entry first, then the item's own price fields,
// finally subtotal divided by quantity.
func ItemUnitPrice(item gjson.Result, quantity float64) float64 {
	for _, key := range []string{"itemRestaurante", "item_restaurante"} {
		nested := item.Get(key)
		if nested.IsObject() {
			if p := nested.Get("preco").Float(); p != 0 {
				return p
			}
			if p := nested.Get("valor").Float(); p != 0 {
				return p
			}
		}
	}
	for _, key := range []string{"preco", "valorUnitario", "valor"} {
		if p := item.Get(key).Float(); p != 0 {
			return p
		}
	}
	if sub := item.Get("subtotal").Float(); sub != 0 && quantity > 0 {
		return sub / quantity
	}
	return 0
}

// ItemProduct identifies the product an item refers to: key for grouping
// (id when present, else name) plus a display name.
func ItemProduct(item gjson.Result) (key string, name string) {
	for _, nestedKey := range []string{"itemRestaurante", "item_restaurante"} {
		nested := item.Get(nestedKey)
		if nested.IsObject() {
			name = nested.Get("nome").String()
			if name != "" {
				if id := nested.Get("id"); id.Exists() {
					return id.String(), name
				}
				return name, name
			}
		}
	}

	id := item.Get("produto_id")
	if !id.Exists() {
		id = item.Get("id")
	}
	name = item.Get("nome").String()
	if name == "" {
		name = item.Get("produto_nome").String()
	}
	if name == "" && id.Exists() {
		name = fmt.Sprintf("Item #%s", id.String())
	}
	if id.Exists() {
		return id.String(), name
	}
	return name, name
}

// OrderTotals sums an order's value and item count from its item list,
// falling back to the order-level total fields when the items carry no
// usable prices.
func OrderTotals(order gjson.Result) (value float64, itemCount float64) {
	for _, item := range order.Get("itens").Array() {
		if !item.IsObject() {
			continue
		}
		qty := ItemQuantity(item)
		value += qty * ItemUnitPrice(item, qty)
		itemCount += qty
	}
	if value == 0 {
		for _, key := range []string{"valor_total", "valor", "valorTotal", "total"} {
			if v := order.Get(key).Float(); v != 0 {
				value = v
				break
			}
		}
	}
	return value, itemCount
}
