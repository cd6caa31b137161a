package orders

import "time"

// SampleOrder mirrors the order shape the desktop client renders in its
// listing screen.
type SampleOrder struct {
	ID        int            `json:"id"`
	Total     float64        `json:"valor_total"`
	Status    string         `json:"status"`
	OrderDate string         `json:"data_pedido"`
	Notes     any            `json:"observacoes"`
	Customer  map[string]any `json:"cliente"`
}

// SampleOrders returns the placeholder listing shown while a restaurant has
// no real orders yet, so the client's screens are never empty on first run.
// Ids start at 1001 to keep them apart from real backend ids. An optional
// status narrows the set the same way the live listing filter does.
func SampleOrders(now time.Time, status string) []SampleOrder {
	all := []SampleOrder{
		{
			ID: 1001, Total: 89.90, Status: "pendente",
			OrderDate: now.Add(-15 * time.Minute).Format(time.RFC3339),
			Notes:     "Sem cebola na pizza",
			Customer:  map[string]any{"nome": "Maria Silva", "telefone": "(11) 99999-1234"},
		},
		{
			ID: 1002, Total: 45.50, Status: "em_preparo",
			OrderDate: now.Add(-30 * time.Minute).Format(time.RFC3339),
			Customer:  map[string]any{"nome": "João Santos", "telefone": "(11) 99999-5678"},
		},
		{
			ID: 1003, Total: 123.75, Status: "pronto",
			OrderDate: now.Add(-45 * time.Minute).Format(time.RFC3339),
			Notes:     "Entregar no portão",
			Customer:  map[string]any{"nome": "Ana Costa", "telefone": "(11) 99999-9012"},
		},
		{
			ID: 1004, Total: 67.20, Status: "entregue",
			OrderDate: now.Add(-1 * time.Hour).Format(time.RFC3339),
			Customer:  map[string]any{"nome": "Carlos Oliveira", "telefone": "(11) 99999-3456"},
		},
		{
			ID: 1005, Total: 156.80, Status: "entregue",
			OrderDate: now.Add(-2 * time.Hour).Format(time.RFC3339),
			Notes:     "Pedido para festa",
			Customer:  map[string]any{"nome": "Fernanda Lima", "telefone": "(11) 99999-7890"},
		},
	}
	if status == "" {
		return all
	}
	var filtered []SampleOrder
	for _, o := range all {
		if o.Status == status {
			filtered = append(filtered, o)
		}
	}
	return filtered
}
