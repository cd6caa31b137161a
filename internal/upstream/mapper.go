// Package upstream talks to the remote REST backend: path mapping, request
// forwarding with session cookies, transport error classification and the
// startup connectivity probe.
//
// DESIGN: Main entry points:
//   - MapEndpoint():  local API path -> upstream path
//   - Client.Forward(): proxied request -> (status, canonical JSON)
//   - Probe():       startup reachability check with layered fallback
package upstream

import (
	"regexp"
	"strings"
)

var (
	reMenuByRestaurant = regexp.MustCompile(`^cardapio/(\d+)$`)
	reMenuItemOp       = regexp.MustCompile(`^cardapio/(?:edit|delete|item)/(\d+)$`)
)

// MapEndpoint rewrites the local menu routes onto the legacy item routes the
// backend actually serves. Rules are ordered; the first match wins:
//
//	cardapio/add            -> itens
//	cardapio/edit/{id}      -> itens/{id}
//	cardapio/delete/{id}    -> itens/{id}
//	cardapio/item/{id}      -> itens/{id}
//	cardapio/{digits}       -> itens/restaurante/{digits}
//
// Anything else passes through untouched, with only the local "api/" prefix
// removed. The digits rule must stay last: "cardapio/7" is a restaurant
// listing, while "cardapio/item/7" is a single item, and only the prefix
// distinguishes them.
func MapEndpoint(path string) string {
	p := strings.Trim(path, "/")
	p = strings.TrimPrefix(p, "api/")

	if p == "cardapio/add" {
		return "itens"
	}
	if m := reMenuItemOp.FindStringSubmatch(p); m != nil {
		return "itens/" + m[1]
	}
	if m := reMenuByRestaurant.FindStringSubmatch(p); m != nil {
		return "itens/restaurante/" + m[1]
	}
	return p
}
