package orders

import (
	"github.com/tidwall/gjson"
)

// DetailItem is one formatted line of an order detail view.
type DetailItem struct {
	Name     string  `json:"nome"`
	Quantity float64 `json:"quantidade"`
	Price    float64 `json:"preco"`
	Subtotal float64 `json:"subtotal"`
	Notes    any     `json:"observacoes"`
}

// DetailOrder is the header part of an order detail view.
type DetailOrder struct {
	ID        any            `json:"id"`
	Status    string         `json:"status"`
	OrderDate any            `json:"data_pedido"`
	Total     float64        `json:"valor_total"`
	Notes     any            `json:"observacoes"`
	Customer  map[string]any `json:"cliente"`
}

// Detail pairs the order header with its formatted items.
type Detail struct {
	Order DetailOrder  `json:"pedido"`
	Items []DetailItem `json:"itens"`
}

// FindOrder locates one order by id in a raw listing.
func FindOrder(raw []byte, orderID int64) (gjson.Result, bool) {
	for _, order := range ExtractList(raw) {
		if order.IsObject() && order.Get("id").Int() == orderID {
			return order, true
		}
	}
	return gjson.Result{}, false
}

// BuildDetail assembles the detail view for one order: the total is taken
// from the order when present and recomputed from the items otherwise, and
// each item gets a resolved name, unit price and subtotal.
func BuildDetail(order gjson.Result) Detail {
	items := order.Get("itens").Array()

	total := order.Get("valor_total").Float()
	if total == 0 {
		total = order.Get("valor").Float()
	}
	if total == 0 {
		for _, item := range items {
			if !item.IsObject() {
				continue
			}
			qty := ItemQuantity(item)
			total += qty * ItemUnitPrice(item, qty)
		}
	}

	formatted := make([]DetailItem, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		_, name := ItemProduct(item)
		if name == "" {
			continue
		}
		qty := ItemQuantity(item)
		price := ItemUnitPrice(item, qty)

		var notes any
		if v := firstExisting(item, "observacoes", "observacoes_item"); v.Exists() {
			notes = v.Value()
		}
		formatted = append(formatted, DetailItem{
			Name:     name,
			Quantity: qty,
			Price:    price,
			Subtotal: qty * price,
			Notes:    notes,
		})
	}

	customer := map[string]any{}
	if c := order.Get("cliente"); c.Exists() {
		if c.IsObject() {
			if m, ok := c.Value().(map[string]any); ok {
				customer = m
			}
		} else {
			customer = map[string]any{"nome": c.String()}
		}
	}

	var orderDate any
	if v := firstExisting(order, "criadoEm", "criado_em", "data_pedido"); v.Exists() {
		orderDate = v.Value()
	}
	var orderNotes any
	if v := firstExisting(order, "observacoesGerais", "observacoes"); v.Exists() {
		orderNotes = v.Value()
	}

	return Detail{
		Order: DetailOrder{
			ID:        order.Get("id").Value(),
			Status:    order.Get("status").String(),
			OrderDate: orderDate,
			Total:     total,
			Notes:     orderNotes,
			Customer:  customer,
		},
		Items: formatted,
	}
}

func firstExisting(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
