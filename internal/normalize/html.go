package normalize

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/sgr-desktop/sgr-proxy/internal/config"
	"github.com/sgr-desktop/sgr-proxy/internal/utils"
)

var (
	reLoginWelcome   = regexp.MustCompile(`(?is)Login bem-sucedido.*?Bem-vindo\(a\),\s*(.+?)\.`)
	reScriptRestID   = regexp.MustCompile(`(?i)restaurante[_\s]*id\s*[=:]\s*(\d+)`)
	reScriptJSONFrag = regexp.MustCompile(`(?s)\{[^{}]*restaurante[^{}]*\}`)
	reHrefID         = regexp.MustCompile(`[?&](?:id|restaurante_id)=(\d+)`)
	rePriceDigits    = regexp.MustCompile(`[\d.,]+`)
	reDigits         = regexp.MustCompile(`\d+`)
	reScriptObject   = regexp.MustCompile(`(?s)\{.*\}`)
	reWhitespace     = regexp.MustCompile(`\s+`)
)

// ExtractFromHTML turns server-rendered markup into canonical JSON. Three
// branches, tried in order: login success page, item listing table, generic
// fallback. It always produces valid JSON; a page it cannot make sense of
// comes back as a bounded-preview envelope.
func ExtractFromHTML(body []byte, upstreamPath string) json.RawMessage {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		log.Warn().Err(err).Msg("html parse failed")
		env := Success("Resposta HTML recebida")
		env.Content = utils.Truncate(string(body), config.MaxTextPreviewLen)
		return env.JSON()
	}

	text := string(body)

	// The welcome phrase is the strongest signal, but some upstream builds
	// serve the login landing page without it; the endpoint and the page's
	// own filename mark those.
	loginPage := strings.Contains(upstreamPath, "restaurantes/login") ||
		strings.Contains(strings.ToLower(text), "restaurante.html")
	if m := reLoginWelcome.FindStringSubmatch(text); m != nil || loginPage {
		name := ""
		if m != nil {
			name = strings.TrimSpace(m[1])
		}
		return extractLoginSuccess(doc, text, name)
	}

	if strings.Contains(upstreamPath, "itens") || strings.Contains(upstreamPath, "cardapio") || strings.Contains(text, "tabelaItens") {
		if items := extractItemRows(doc); items != nil {
			out, err := utils.MarshalNoEscape(items)
			if err == nil {
				return out
			}
		}
	}

	return extractFallback(doc, text)
}

// extractLoginSuccess hunts for the restaurant id through every place the
// upstream templates have been seen to put it. First hit wins; data is
// always present in the envelope even when nothing was found, so the client
// can distinguish "logged in, id unknown" from a failed login.
func extractLoginSuccess(doc *goquery.Document, text, name string) json.RawMessage {
	data := map[string]any{}
	if name != "" {
		data["restaurante_nome"] = name
	}

	if id, ok := findRestaurantID(doc, text); ok {
		data["restaurante_id"] = id
	} else {
		log.Warn().Str("nome", name).Msg("login page parsed but restaurante_id not found")
	}

	env := Success("Login realizado com sucesso")
	env.Data = data
	return env.JSON()
}

func findRestaurantID(doc *goquery.Document, text string) (int, bool) {
	if m := reScriptRestID.FindStringSubmatch(text); m != nil {
		if id, err := strconv.Atoi(m[1]); err == nil {
			return id, true
		}
	}

	// Embedded JSON-ish fragments inside scripts, sometimes single-quoted.
	for _, frag := range reScriptJSONFrag.FindAllString(text, -1) {
		candidate := strings.ReplaceAll(frag, "'", `"`)
		if gjson.Valid(candidate) {
			if v := gjson.Get(candidate, "restaurante_id"); v.Exists() {
				return int(v.Int()), true
			}
			if v := gjson.Get(candidate, "id"); v.Exists() {
				return int(v.Int()), true
			}
		}
	}

	var id int
	found := false
	doc.Find(`input[type="hidden"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		lower := strings.ToLower(name)
		if strings.Contains(lower, "restaurante") && strings.Contains(lower, "id") {
			if v, ok := s.Attr("value"); ok {
				if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
					id, found = n, true
					return false
				}
			}
		}
		return true
	})
	if found {
		return id, true
	}

	doc.Find("[data-restaurante-id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr("data-restaurante-id"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				id, found = n, true
				return false
			}
		}
		return true
	})
	if found {
		return id, true
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if m := reHrefID.FindStringSubmatch(href); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				id, found = n, true
				return false
			}
		}
		return true
	})
	return id, found
}

// extractItemRows parses the legacy menu table into item objects. Rows
// missing either an id or a name are skipped; a table that yields nothing
// falls through to the generic branch.
func extractItemRows(doc *goquery.Document) []map[string]any {
	table := doc.Find("table#tabelaItens")
	if table.Length() == 0 {
		table = doc.Find("table").First()
	}
	if table.Length() == 0 {
		return nil
	}

	var items []map[string]any
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}

		idText := reDigits.FindString(strings.TrimSpace(cells.Eq(0).Text()))
		name := strings.TrimSpace(cells.Eq(1).Text())
		if idText == "" || name == "" {
			return
		}
		id, err := strconv.Atoi(idText)
		if err != nil {
			return
		}

		item := map[string]any{"id": id, "nome": name}

		if price, ok := parsePrice(cells.Eq(2).Text()); ok {
			item["preco"] = price
		}
		if cells.Length() > 3 {
			if rid := reDigits.FindString(cells.Eq(3).Text()); rid != "" {
				if n, err := strconv.Atoi(rid); err == nil {
					item["restaurante_id"] = n
					item["restaurante"] = map[string]any{"id": n}
				}
			}
		}
		if cells.Length() > 4 {
			if href, ok := cells.Eq(4).Find("a[href]").First().Attr("href"); ok {
				item["imagemUrl"] = href
			}
		}
		items = append(items, item)
	})
	return items
}

// parsePrice strips the currency marker and converts the Brazilian decimal
// comma, so "R$ 25,90" becomes 25.90.
func parsePrice(raw string) (float64, bool) {
	m := rePriceDigits.FindString(raw)
	if m == "" {
		return 0, false
	}
	m = strings.ReplaceAll(m, ".", "")
	m = strings.ReplaceAll(m, ",", ".")
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func extractFallback(doc *goquery.Document, text string) json.RawMessage {
	// A script tag may carry a ready-made envelope.
	var embedded json.RawMessage
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := reScriptObject.FindString(s.Text()); m != "" && gjson.Valid(m) {
			if gjson.Get(m, "status").Exists() {
				embedded = json.RawMessage(m)
				return false
			}
		}
		return true
	})
	if embedded != nil {
		return embedded
	}

	data := map[string]any{}
	doc.Find("[data-restaurante-id], [data-id], [data-nome], [data-status]").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range s.Nodes[0].Attr {
			if strings.HasPrefix(attr.Key, "data-") {
				key := strings.ReplaceAll(strings.TrimPrefix(attr.Key, "data-"), "-", "_")
				data[key] = attr.Val
			}
		}
	})

	plain := reWhitespace.ReplaceAllString(doc.Text(), " ")
	plain = strings.TrimSpace(plain)
	lower := strings.ToLower(plain)
	for _, kw := range []string{"erro", "error", "falha", "inválido", "incorreto"} {
		if strings.Contains(lower, kw) {
			return Error("Erro no login. Verifique suas credenciais.").JSON()
		}
	}

	if len(data) > 0 {
		env := Success("Dados extraídos da resposta HTML")
		env.Data = data
		env.HTMLContent = utils.Truncate(plain, config.MaxBodyPreviewLen)
		return env.JSON()
	}

	env := Success("Resposta HTML recebida")
	env.Content = utils.Truncate(plain, config.MaxTextPreviewLen)
	env.Note = "API retornou HTML. Dados podem precisar de parsing adicional."
	return env.JSON()
}
