// Package orders filters and aggregates the raw order lists the backend
// returns: per-restaurant listings, completed-order views, top products,
// sales series and the dashboard cards.
//
// DESIGN: The backend's order JSON is duck-typed: field names drift between
// camelCase and snake_case across builds, prices live in several places, and
// status values come in gender and plural variants. All reads go through the
// alias helpers in fields.go (gjson) and reshaping uses sjson, so orders
// never round-trip through rigid structs that would drop unknown fields.
package orders

import "strings"

// completedStatuses holds every spelling the backend has produced for a
// finished order, including gender and plural variants.
var completedStatuses = map[string]struct{}{
	"FINALIZADO": {}, "FINALIZADA": {}, "FINALIZADOS": {}, "FINALIZADAS": {},
	"CONCLUIDO": {}, "CONCLUÍDO": {}, "CONCLUIDA": {}, "CONCLUÍDA": {},
	"CONCLUIDOS": {}, "CONCLUÍDOS": {}, "CONCLUIDAS": {}, "CONCLUÍDAS": {},
	"ENTREGUE": {}, "ENTREGUES": {},
}

// IsCompleted reports whether a status counts as a finished order.
func IsCompleted(status string) bool {
	s := strings.ToUpper(strings.TrimSpace(status))
	if s == "" {
		return false
	}
	_, ok := completedStatuses[s]
	return ok
}

// statusSynonyms maps the desktop client's lowercase status vocabulary onto
// the canonical values the backend accepts.
var statusSynonyms = map[string]string{
	"pendente":   "PENDENTE",
	"novo":       "PENDENTE",
	"aguardando": "PENDENTE",
	"em_preparo": "EM_PREPARO",
	"em preparo": "EM_PREPARO",
	"pronto":     "PRONTO",
	"concluido":  "FINALIZADO",
	"concluído":  "FINALIZADO",
	"finalizado": "FINALIZADO",
	"entregue":   "ENTREGUE",
	"cancelado":  "CANCELADO",
}

// MapStatus translates a client-supplied status to the backend vocabulary.
// Unknown values are uppercased and passed along rather than rejected; the
// backend is the authority on which transitions are legal.
func MapStatus(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if mapped, ok := statusSynonyms[key]; ok {
		return mapped
	}
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ValidPeriod reports whether a series period is one of the supported names.
func ValidPeriod(p string) bool {
	return p == "semanal" || p == "mensal" || p == "anual"
}
