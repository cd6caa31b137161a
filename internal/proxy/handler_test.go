package proxy

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/sgr-desktop/sgr-proxy/internal/config"
	"github.com/sgr-desktop/sgr-proxy/internal/session"
	"github.com/sgr-desktop/sgr-proxy/internal/upstream"
)

// newTestRouter wires the handler set against a fake backend and returns a
// router with the real route patterns.
func newTestRouter(t *testing.T, backend http.Handler) (chi.Router, *Handler) {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	upCfg := &config.UpstreamConfig{
		BaseURL: srv.URL + "/api/",
		Timeout: 5 * time.Second,
	}
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	upCfg.Protocol = u.Scheme
	upCfg.Host = u.Hostname()
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		require.NoError(t, err)
		upCfg.Port = n
	}

	cfg := &config.Config{Upstream: *upCfg}
	client := upstream.NewClient(upCfg, session.NewStore(), "http://localhost:5000")
	h := NewHandler(cfg, client)
	h.now = func() time.Time {
		return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	}

	r := chi.NewRouter()
	r.Get("/api/health", h.Health)
	r.Post("/api/restaurantes/login", h.Login)
	r.Get("/api/restaurantes/perfil", h.Profile)
	r.Get("/api/cardapio/{restauranteID}", h.ListMenu)
	r.Post("/api/cardapio/add", h.AddMenuItem)
	r.Get("/api/pedidos/restaurante/{restauranteID}", h.ListOrders)
	r.Get("/api/pedidos/restaurante/{restauranteID}/concluidos", h.CompletedOrders)
	r.Get("/api/pedidos/{pedidoID}", h.OrderDetail)
	r.Put("/api/pedidos/{pedidoID}/status", h.UpdateOrderStatus)
	r.Get("/api/top-produtos/{restauranteID}/{periodo}", h.TopProducts)
	r.Get("/api/vendas/{restauranteID}/{periodo}", h.Sales)
	r.Get("/api/dashboard/{restauranteID}", h.DashboardView)
	r.Get("/api/avaliacoes/pratos/{restauranteID}", h.DishReviews)
	r.Post("/api/avaliacoes-prato", h.CreateDishReview)
	r.Post("/api/upload/imagem", h.UploadImage)
	return r, h
}

func doRequest(t *testing.T, router chi.Router, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthReportsUpstreamState(t *testing.T) {
	router, _ := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":true}`)
	}))

	rec := doRequest(t, router, http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := gjson.Parse(rec.Body.String())
	assert.Equal(t, "success", body.Get("status").String())
	assert.Equal(t, "active", body.Get("api_externa_status").String())
	assert.Equal(t, "Proxy local está funcionando!", body.Get("message").String())
}

func TestLoginRequiresCredentials(t *testing.T) {
	router, _ := newTestRouter(t, http.NotFoundHandler())

	rec := doRequest(t, router, http.MethodPost, "/api/restaurantes/login", `{"email":"a@b.c"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email e senha são obrigatórios",
		gjson.Parse(rec.Body.String()).Get("message").String())
}

func TestLoginBindsSessionCookie(t *testing.T) {
	router, h := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/restaurantes/login", r.URL.Path)
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "tok-1"})
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"nome":"Cantina da Nona","id":123}`)
	}))

	rec := doRequest(t, router, http.MethodPost, "/api/restaurantes/login",
		`{"email":"a@b.c","senha":"segredo"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := gjson.Parse(rec.Body.String())
	assert.Equal(t, "success", body.Get("status").String())
	assert.Equal(t, int64(123), body.Get("data.restaurante_id").Int())

	pair, ok := h.client.Sessions().Get(123)
	require.True(t, ok)
	assert.Equal(t, "JSESSIONID=tok-1", pair)
}

func TestLoginWrongCredentials(t *testing.T) {
	router, _ := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Credenciais inválidas"}`)
	}))

	rec := doRequest(t, router, http.MethodPost, "/api/restaurantes/login",
		`{"email":"a@b.c","senha":"errada"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Credenciais inválidas",
		gjson.Parse(rec.Body.String()).Get("message").String())
}

func TestListOrdersServesSamplesWhenListingEmpty(t *testing.T) {
	router, _ := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	}))

	rec := doRequest(t, router, http.MethodGet, "/api/pedidos/restaurante/3", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := gjson.Parse(rec.Body.String())
	assert.Equal(t, "success", body.Get("status").String())
	assert.Equal(t, int64(5), body.Get("count").Int())
	assert.Equal(t, int64(1001), body.Get("data.0.id").Int())
}

func TestListOrdersSurfacesBackendError(t *testing.T) {
	router, _ := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"expired"}`)
	}))

	rec := doRequest(t, router, http.MethodGet, "/api/pedidos/restaurante/3", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := gjson.Parse(rec.Body.String())
	assert.Equal(t, "error", body.Get("status").String())
	assert.Equal(t, "Erro ao buscar pedidos: Status 401", body.Get("message").String())
}

func TestListOrdersFiltersByRestaurant(t *testing.T) {
	router, _ := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"id":1,"restaurante":{"id":3},"status":"PENDENTE","criadoEm":"2026-08-28T10:00:00"},
			{"id":2,"restaurante":{"id":9},"status":"PENDENTE","criadoEm":"2026-08-28T10:05:00"}
		]`)
	}))

	rec := doRequest(t, router, http.MethodGet, "/api/pedidos/restaurante/3", "")

	body := gjson.Parse(rec.Body.String())
	assert.Equal(t, int64(1), body.Get("count").Int())
	assert.Equal(t, int64(1), body.Get("data.0.id").Int())
	assert.Equal(t, int64(3), body.Get("data.0.restaurante_id").Int())
}

func TestOrderDetailNotFound(t *testing.T) {
	router, _ := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id":1,"restaurante":{"id":3}}]`)
	}))

	rec := doRequest(t, router, http.MethodGet, "/api/pedidos/42", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Pedido não encontrado",
		gjson.Parse(rec.Body.String()).Get("message").String())
}

func TestUpdateOrderStatusTranslatesVocabulary(t *testing.T) {
	var gotPath, gotStatus string
	router, _ := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotStatus = r.URL.Query().Get("status")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":5,"status":"FINALIZADO"}`)
	}))

	rec := doRequest(t, router, http.MethodPut, "/api/pedidos/5/status", `{"status":"concluido"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/api/pedidos/5/status-restaurante", gotPath)
	assert.Equal(t, "FINALIZADO", gotStatus)
	assert.Equal(t, "success", gjson.Parse(rec.Body.String()).Get("status").String())
}

func TestUpdateOrderStatusRequiresStatus(t *testing.T) {
	router, _ := newTestRouter(t, http.NotFoundHandler())

	rec := doRequest(t, router, http.MethodPut, "/api/pedidos/5/status", `{"outro":1}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Status não fornecido",
		gjson.Parse(rec.Body.String()).Get("message").String())
}

func TestTopProductsRejectsUnknownPeriod(t *testing.T) {
	router, _ := newTestRouter(t, http.NotFoundHandler())

	rec := doRequest(t, router, http.MethodGet, "/api/top-produtos/3/quinzenal", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Período inválido. Use: semanal, mensal ou anual",
		gjson.Parse(rec.Body.String()).Get("message").String())
}

func TestTopProductsRanksCompletedOrders(t *testing.T) {
	router, _ := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{
			"id":1,"restaurante":{"id":3},"status":"FINALIZADO",
			"criadoEm":"2026-08-27T18:00:00",
			"itens":[{"quantidade":2,"item":{"id":10,"nome":"Pizza"},"preco":40}]
		}]`)
	}))

	rec := doRequest(t, router, http.MethodGet, "/api/top-produtos/3/semanal", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := gjson.Parse(rec.Body.String())
	assert.Equal(t, "semanal", body.Get("data.periodo").String())
	assert.Equal(t, "Pizza", body.Get("data.produtos.0.nome").String())
	assert.Equal(t, int64(2), body.Get("data.produtos.0.quantidade_vendida").Int())
}

func TestSalesSeriesShape(t *testing.T) {
	router, _ := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	}))

	rec := doRequest(t, router, http.MethodGet, "/api/vendas/3/semanal", "")

	body := gjson.Parse(rec.Body.String())
	assert.Equal(t, "semanal", body.Get("data.periodo").String())
	assert.Len(t, body.Get("data.labels").Array(), 4)
	assert.Len(t, body.Get("data.vendas").Array(), 4)
}

func TestDashboardDegradesOnBackendError(t *testing.T) {
	router, _ := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	rec := doRequest(t, router, http.MethodGet, "/api/dashboard/3", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := gjson.Parse(rec.Body.String())
	assert.Equal(t, "success", body.Get("status").String())
	assert.Equal(t, "Dashboard carregado (erro ao buscar dados)", body.Get("message").String())
	assert.True(t, body.Get("data.cards").IsObject())
}

func TestListMenuWrapsBareArray(t *testing.T) {
	router, _ := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/itens/restaurante/3", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id":1,"nome":"Burger"}]`)
	}))

	rec := doRequest(t, router, http.MethodGet, "/api/cardapio/3", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := gjson.Parse(rec.Body.String())
	assert.Equal(t, "success", body.Get("status").String())
	assert.Equal(t, "Burger", body.Get("data.0.nome").String())
}

func TestAddMenuItemValidation(t *testing.T) {
	router, _ := newTestRouter(t, http.NotFoundHandler())

	rec := doRequest(t, router, http.MethodPost, "/api/cardapio/add",
		`{"preco":10,"restaurante_id":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, gjson.Parse(rec.Body.String()).Get("message").String(),
		"Campos obrigatórios faltando: nome")

	rec = doRequest(t, router, http.MethodPost, "/api/cardapio/add",
		`{"nome":"X","preco":0,"restaurante_id":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Preço deve ser um número maior que zero",
		gjson.Parse(rec.Body.String()).Get("message").String())
}

func TestAddMenuItemNestsRestaurant(t *testing.T) {
	var gotBody string
	router, _ := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/itens", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("restaurante_id"))
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		gotBody = buf.String()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":77,"nome":"Burger"}`)
	}))

	rec := doRequest(t, router, http.MethodPost, "/api/cardapio/add",
		`{"nome":"Burger","preco":25.9,"restaurante_id":3}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), gjson.Get(gotBody, "restaurante.id").Int())
	assert.Equal(t, "OUTROS", gjson.Get(gotBody, "categoria").String())
}

func TestDishReviewsFiltersByRestaurant(t *testing.T) {
	router, _ := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/avaliacoes-prato":
			fmt.Fprint(w, `[
				{"nota":5,"prato":{"id":10,"restaurante":{"id":3}}},
				{"nota":2,"prato":{"id":20,"restaurante":{"id":9}}},
				{"nota":4,"prato":{"id":30}}
			]`)
		case "/api/itens":
			fmt.Fprint(w, `[{"id":30,"restaurante":{"id":3}}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	rec := doRequest(t, router, http.MethodGet, "/api/avaliacoes/pratos/3", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := gjson.Parse(rec.Body.String())
	assert.Equal(t, int64(2), body.Get("data.resumo.total_avaliacoes").Int())
	assert.InDelta(t, 4.5, body.Get("data.resumo.media_notas").Float(), 0.001)
}

func TestCreateDishReviewValidation(t *testing.T) {
	router, _ := newTestRouter(t, http.NotFoundHandler())

	rec := doRequest(t, router, http.MethodPost, "/api/avaliacoes-prato", `{"nota":5}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Campos obrigatórios: nota e prato.id",
		gjson.Parse(rec.Body.String()).Get("message").String())
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestUploadImageRejectsExtension(t *testing.T) {
	router, _ := newTestRouter(t, http.NotFoundHandler())

	buf, contentType := multipartBody(t, "imagem", "nota.pdf", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload/imagem", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, gjson.Parse(rec.Body.String()).Get("message").String(),
		"Formato de arquivo não permitido")
}

func TestUploadImageForwardsToBackend(t *testing.T) {
	router, _ := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/itens/upload", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "logo.png", header.Filename)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"url":"/uploads/logo.png"}`)
	}))

	buf, contentType := multipartBody(t, "imagem", "logo.png", []byte{0x89, 0x50, 0x4e, 0x47})
	req := httptest.NewRequest(http.MethodPost, "/api/upload/imagem", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := gjson.Parse(rec.Body.String())
	assert.Equal(t, "success", body.Get("status").String())
	assert.Equal(t, "Imagem enviada com sucesso", body.Get("message").String())
	assert.Equal(t, "/uploads/logo.png", body.Get("url").String())
}
