package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	appanalytics "github.com/jhoicas/retail-kpi-api/internal/application/analytics"
	"github.com/jhoicas/retail-kpi-api/internal/application/auth"
	"github.com/jhoicas/retail-kpi-api/internal/application/billing"
	"github.com/jhoicas/retail-kpi-api/internal/application/dto"
	"github.com/jhoicas/retail-kpi-api/internal/application/inventory"
	"github.com/jhoicas/retail-kpi-api/internal/application/notification"
	"github.com/jhoicas/retail-kpi-api/internal/application/usecase"
	"github.com/jhoicas/retail-kpi-api/internal/domain/alert"
	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/infrastructure/memory"
	"github.com/jhoicas/retail-kpi-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/retail-kpi-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/retail-kpi-api/pkg/jwt"
	"github.com/jhoicas/retail-kpi-api/pkg/logger"
)

type recordingMailer struct {
	mu      sync.Mutex
	sent    []notification.Delivery
	failFor map[string]bool
}

func (m *recordingMailer) Send(_ context.Context, d notification.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[d.To] {
		return errors.New("smtp: 550 mailbox unavailable")
	}
	m.sent = append(m.sent, d)
	return nil
}

func (m *recordingMailer) deliveries() []notification.Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notification.Delivery(nil), m.sent...)
}

// apiEnv API completa sobre el store en memoria.
type apiEnv struct {
	app        *fiber.App
	store      *memory.Store
	mailer     *recordingMailer
	svc        *notification.Service
	dispatcher *notification.Dispatcher
	users      map[string]*entity.User
	products   map[string]*entity.Product
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	env := &apiEnv{
		store:    store,
		mailer:   &recordingMailer{failFor: map[string]bool{}},
		users:    map[string]*entity.User{},
		products: map[string]*entity.Product{},
	}

	for _, u := range []struct{ name, role string }{
		{"admin", entity.RoleManager},
		{"cashier1", entity.RoleUser},
		{"cashier2", entity.RoleUser},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.name+"123"), bcrypt.MinCost)
		require.NoError(t, err)
		user := &entity.User{Username: u.name, Email: u.name + "@shop.test", PasswordHash: string(hash), Role: u.role}
		require.NoError(t, store.Users().Create(ctx, user))
		env.users[u.name] = user
	}
	for _, p := range []*entity.Product{
		{Name: "Basmati Rice", Price: decimal.RequireFromString("45.50"), StockQuantity: 100, MinStockThreshold: 10, Category: "Grains", SKU: "RICE-1"},
		{Name: "Milk", Price: decimal.NewFromInt(30), StockQuantity: 12, MinStockThreshold: 10, Category: "Dairy", SKU: "MILK-1"},
		{Name: "Saffron", Price: decimal.NewFromInt(250), StockQuantity: 3, MinStockThreshold: 1, Category: "Spices", SKU: "SAF-1"},
	} {
		require.NoError(t, store.Products().Create(ctx, p))
		env.products[p.Name] = p
	}

	env.dispatcher = notification.NewDispatcher(env.mailer, 2, 64, logger.Nop())
	env.svc = notification.NewService(alert.NewGate(10), store.Products(), store,
		notification.NewRecipientDirectory(store.Users(), store.Settings()), env.dispatcher, logger.Nop())

	env.app = fiber.New()
	apphttp.Router(env.app, apphttp.RouterDeps{
		AuthUC:       auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}),
		ProductUC:    usecase.NewProductUseCase(store.Products(), store, env.svc),
		CreateBill:   billing.NewCreateBillUseCase(store, env.svc, logger.Nop()),
		BillQuery:    billing.NewBillQueryUseCase(store.Bills()),
		UpdateStatus: billing.NewUpdateBillStatusUseCase(store, env.svc, logger.Nop()),
		BillPDF:      billing.NewPDFUseCase(store.Bills(), pdf.NewMarotoPDFGenerator("Test Store")),
		AnalyticsUC:  usecase.NewAnalyticsUseCase(store.Analytics()),
		SettingsUC:   usecase.NewSettingsUseCase(store.Settings(), env.mailer),
		UserUC:       usecase.NewUserUseCase(store.Users()),
		Dashboard:    appanalytics.NewDashboardUseCase(store.Analytics(), store.Products(), 10),
		Movements:    inventory.NewMovementUseCase(store.Products(), store.Movements()),
		Replenish:    inventory.NewReplenishmentUseCase(store.Products(), store.Analytics()),
		Sweeper:      env.svc,
		LoginLimiter: apphttp.NewRateLimiter(0.001, 3),
		JWTSecret:    testJWTSecret,
		StoreDriver:  "memory",
		Log:          logger.Nop(),
	})
	return env
}

// flush espera publicaciones y entregas pendientes. Cierra el despachador.
func (e *apiEnv) flush(t *testing.T) {
	t.Helper()
	e.svc.Wait()
	require.NoError(t, e.dispatcher.Stop(context.Background()))
}

func (e *apiEnv) token(t *testing.T, username string) string {
	t.Helper()
	u := e.users[username]
	tok, err := pkgjwt.Generate(testJWTSecret, u.ID, u.Username, u.Role, testIssuer, testExpMin)
	require.NoError(t, err)
	return tok
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func expectError(t *testing.T, resp *http.Response, status int, code string) dto.ErrorResponse {
	t.Helper()
	require.Equal(t, status, resp.StatusCode)
	e := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, code, e.Code)
	return e
}

func TestHealth(t *testing.T) {
	env := newAPIEnv(t)
	resp := env.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	h := decode[dto.HealthResponse](t, resp)
	assert.Equal(t, "OK", h.Status)
	assert.Equal(t, "memory", h.Store)
}

func TestAuth_LoginProfileLogout(t *testing.T) {
	env := newAPIEnv(t)

	resp := env.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "cashier1", Password: "cashier1123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[dto.LoginResponse](t, resp)
	assert.Equal(t, "Login successful", login.Message)
	assert.Equal(t, "cashier1", login.User.Username)
	assert.Equal(t, entity.RoleUser, login.User.Role)
	require.NotEmpty(t, login.Token)

	resp = env.do(t, http.MethodGet, "/api/auth/profile", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cashier1@shop.test", decode[dto.UserResponse](t, resp).Email)

	resp = env.do(t, http.MethodPost, "/api/auth/logout", login.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	expectError(t, env.do(t, http.MethodGet, "/api/auth/profile", "", nil), http.StatusUnauthorized, "MISSING_TOKEN")
}

func TestAuth_LoginFailures(t *testing.T) {
	env := newAPIEnv(t)

	// por email también
	resp := env.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "ADMIN@shop.test", Password: "admin123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// password incorrecto y usuario inexistente son indistinguibles
	e1 := expectError(t, env.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "admin", Password: "nope"}), http.StatusUnauthorized, "UNAUTHORIZED")
	e2 := expectError(t, env.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "ghost", Password: "nope"}), http.StatusUnauthorized, "UNAUTHORIZED")
	assert.Equal(t, e1.Message, e2.Message)

	// ráfaga de 3 agotada
	expectError(t, env.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "admin"}), http.StatusTooManyRequests, "RATE_LIMITED")
}

func TestAuth_LoginValidation(t *testing.T) {
	env := newAPIEnv(t)
	expectError(t, env.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "admin"}), http.StatusBadRequest, "VALIDATION")
}

func TestProducts_ReadsForAnyRole(t *testing.T) {
	env := newAPIEnv(t)
	tok := env.token(t, "cashier1")

	resp := env.do(t, http.MethodGet, "/api/products?search=rice", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.ProductListResponse](t, resp)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "RICE-1", list.Products[0].SKU)
	assert.Equal(t, 1, list.Pagination.Total)

	resp = env.do(t, http.MethodGet, "/api/products?page=2&limit=2", tok, nil)
	list = decode[dto.ProductListResponse](t, resp)
	assert.Len(t, list.Products, 1)
	assert.Equal(t, 2, list.Pagination.TotalPages)

	resp = env.do(t, http.MethodGet, "/api/products/meta/categories", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Dairy", "Grains", "Spices"}, decode[[]string](t, resp))

	resp = env.do(t, http.MethodGet, "/api/products/autocomplete?q=saf", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sug := decode[[]dto.ProductSuggestion](t, resp)
	require.Len(t, sug, 1)
	assert.Equal(t, "Saffron", sug[0].Name)

	milk := env.products["Milk"]
	resp = env.do(t, http.MethodGet, "/api/products/"+itoa(milk.ID), tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 12, decode[dto.ProductResponse](t, resp).StockQuantity)

	expectError(t, env.do(t, http.MethodGet, "/api/products/999", tok, nil), http.StatusNotFound, "NOT_FOUND")
	expectError(t, env.do(t, http.MethodGet, "/api/products/abc", tok, nil), http.StatusBadRequest, "INVALID_ID")
}

func TestProducts_WritesRequireManager(t *testing.T) {
	env := newAPIEnv(t)
	cashier := env.token(t, "cashier1")
	admin := env.token(t, "admin")

	body := map[string]any{"name": "Ghee", "price": "520.00", "stock_quantity": 20, "category": "dairy", "sku": "GHEE-1", "expiry_date": "2027-01-31"}
	expectError(t, env.do(t, http.MethodPost, "/api/products", cashier, body), http.StatusForbidden, "FORBIDDEN")

	resp := env.do(t, http.MethodPost, "/api/products", admin, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.ProductResponse](t, resp)
	assert.Equal(t, 10, created.MinStockThreshold, "umbral por defecto")
	require.NotNil(t, created.ExpiryDate)
	assert.Equal(t, "2027-01-31", *created.ExpiryDate)

	expectError(t, env.do(t, http.MethodPost, "/api/products", admin, body), http.StatusConflict, "DUPLICATE")
	expectError(t, env.do(t, http.MethodPost, "/api/products", admin, map[string]any{"price": 1}), http.StatusBadRequest, "VALIDATION")

	resp = env.do(t, http.MethodPut, "/api/products/"+itoa(created.ID), admin, map[string]any{"stock_quantity": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[dto.ProductResponse](t, resp)
	assert.Equal(t, 5, updated.StockQuantity)
	assert.Equal(t, "Ghee", updated.Name, "campos ausentes no cambian")
	assert.True(t, updated.LowStock)

	expectError(t, env.do(t, http.MethodDelete, "/api/products/"+itoa(created.ID), cashier, nil), http.StatusForbidden, "FORBIDDEN")
	resp = env.do(t, http.MethodDelete, "/api/products/"+itoa(created.ID), admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	expectError(t, env.do(t, http.MethodDelete, "/api/products/"+itoa(created.ID), admin, nil), http.StatusNotFound, "NOT_FOUND")
}

func createBill(t *testing.T, env *apiEnv, tok string, items ...dto.BillItemRequest) *http.Response {
	t.Helper()
	return env.do(t, http.MethodPost, "/api/billing", tok, dto.CreateBillRequest{Items: items})
}

func TestBilling_CreateDecrementsStockAndAlerts(t *testing.T) {
	env := newAPIEnv(t)
	tok := env.token(t, "cashier1")
	rice, milk := env.products["Basmati Rice"], env.products["Milk"]

	resp := createBill(t, env, tok,
		dto.BillItemRequest{ProductID: rice.ID, Quantity: 2},
		dto.BillItemRequest{ProductID: milk.ID, Quantity: 3},
	)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[dto.CreateBillResponse](t, resp)
	assert.Equal(t, "Bill created successfully", out.Message)
	assert.Equal(t, "181", out.Bill.TotalAmount.String())
	assert.Equal(t, string(entity.BillStatusPending), out.Bill.Status)
	require.Len(t, out.Bill.Items, 2)
	assert.Equal(t, "Basmati Rice", out.Bill.Items[0].ProductName)

	p, err := env.store.Products().GetByID(context.Background(), milk.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, p.StockQuantity)

	// Milk cruzó el umbral: un correo al único manager (sin settings -> email de la cuenta)
	env.flush(t)
	sent := env.mailer.deliveries()
	require.Len(t, sent, 1)
	assert.Equal(t, notification.KindLowStock, sent[0].Kind)
	assert.Equal(t, "admin@shop.test", sent[0].To)
}

func TestBilling_CreateErrors(t *testing.T) {
	env := newAPIEnv(t)
	tok := env.token(t, "cashier1")
	saffron, rice := env.products["Saffron"], env.products["Basmati Rice"]

	expectError(t, createBill(t, env, tok), http.StatusBadRequest, "VALIDATION")
	expectError(t, createBill(t, env, tok, dto.BillItemRequest{ProductID: rice.ID, Quantity: 0}), http.StatusBadRequest, "VALIDATION")

	e := expectError(t, createBill(t, env, tok, dto.BillItemRequest{ProductID: 999, Quantity: 1}), http.StatusNotFound, "NOT_FOUND")
	assert.Equal(t, "Product with ID 999 not found", e.Message)

	e = expectError(t, createBill(t, env, tok,
		dto.BillItemRequest{ProductID: rice.ID, Quantity: 1},
		dto.BillItemRequest{ProductID: saffron.ID, Quantity: 5},
	), http.StatusBadRequest, "INSUFFICIENT_STOCK")
	assert.Equal(t, "Insufficient stock for Saffron. Available: 3, Requested: 5", e.Message)

	// nada cambió
	p, err := env.store.Products().GetByID(context.Background(), rice.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, p.StockQuantity)

	expectError(t, env.do(t, http.MethodPost, "/api/billing", "", nil), http.StatusUnauthorized, "MISSING_TOKEN")
}

func TestBilling_VisibilityAndStatus(t *testing.T) {
	env := newAPIEnv(t)
	c1, c2, admin := env.token(t, "cashier1"), env.token(t, "cashier2"), env.token(t, "admin")
	saffron := env.products["Saffron"]

	resp := createBill(t, env, c1, dto.BillItemRequest{ProductID: saffron.ID, Quantity: 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	bill := decode[dto.CreateBillResponse](t, resp).Bill
	path := "/api/billing/" + itoa(bill.ID)

	resp = createBill(t, env, c2, dto.BillItemRequest{ProductID: saffron.ID, Quantity: 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// lectura: dueño y manager sí, otro cajero no
	resp = env.do(t, http.MethodGet, path, c1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cashier1", decode[dto.BillResponse](t, resp).Username)
	resp = env.do(t, http.MethodGet, path, admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	expectError(t, env.do(t, http.MethodGet, path, c2, nil), http.StatusForbidden, "FORBIDDEN")
	expectError(t, env.do(t, http.MethodGet, "/api/billing/999", admin, nil), http.StatusNotFound, "NOT_FOUND")

	// listado: cajero solo las propias aunque pida otro user_id
	resp = env.do(t, http.MethodGet, "/api/billing?user_id="+itoa(env.users["cashier2"].ID), c1, nil)
	list := decode[dto.BillListResponse](t, resp)
	require.Len(t, list.Bills, 1)
	assert.Equal(t, bill.ID, list.Bills[0].ID)
	resp = env.do(t, http.MethodGet, "/api/billing", admin, nil)
	assert.Equal(t, 2, decode[dto.BillListResponse](t, resp).Pagination.Total)

	// estado
	expectError(t, env.do(t, http.MethodPatch, path+"/status", c2, dto.UpdateBillStatusRequest{Status: "cancelled"}), http.StatusForbidden, "FORBIDDEN")
	expectError(t, env.do(t, http.MethodPatch, path+"/status", c1, dto.UpdateBillStatusRequest{Status: "refunded"}), http.StatusBadRequest, "VALIDATION")

	resp = env.do(t, http.MethodPatch, path+"/status", c1, dto.UpdateBillStatusRequest{Status: "cancelled"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	upd := decode[dto.UpdateBillStatusResponse](t, resp)
	assert.Equal(t, string(entity.BillStatusCancelled), upd.Bill.Status)

	p, err := env.store.Products().GetByID(context.Background(), saffron.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, p.StockQuantity, "3 - 2 - 1 + 2")

	expectError(t, env.do(t, http.MethodPatch, path+"/status", admin, dto.UpdateBillStatusRequest{Status: "cancelled"}), http.StatusConflict, "INVALID_TRANSITION")
	p, err = env.store.Products().GetByID(context.Background(), saffron.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, p.StockQuantity, "el segundo cancel no repone de nuevo")
}

func TestBilling_PDF(t *testing.T) {
	env := newAPIEnv(t)
	c1, c2 := env.token(t, "cashier1"), env.token(t, "cashier2")

	resp := createBill(t, env, c1, dto.BillItemRequest{ProductID: env.products["Basmati Rice"].ID, Quantity: 1})
	bill := decode[dto.CreateBillResponse](t, resp).Bill

	resp = env.do(t, http.MethodGet, "/api/billing/"+itoa(bill.ID)+"/pdf", c1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), bill.BillNumber+".pdf")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))

	expectError(t, env.do(t, http.MethodGet, "/api/billing/"+itoa(bill.ID)+"/pdf", c2, nil), http.StatusForbidden, "FORBIDDEN")
}

func TestProducts_DeleteReferencedIsRejected(t *testing.T) {
	env := newAPIEnv(t)
	rice := env.products["Basmati Rice"]
	resp := createBill(t, env, env.token(t, "cashier1"), dto.BillItemRequest{ProductID: rice.ID, Quantity: 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	expectError(t, env.do(t, http.MethodDelete, "/api/products/"+itoa(rice.ID), env.token(t, "admin"), nil), http.StatusConflict, "PRODUCT_IN_USE")
}

func TestAnalytics_SummaryAndTrending(t *testing.T) {
	env := newAPIEnv(t)
	c1, admin := env.token(t, "cashier1"), env.token(t, "admin")
	rice, milk := env.products["Basmati Rice"], env.products["Milk"]

	resp := createBill(t, env, c1, dto.BillItemRequest{ProductID: rice.ID, Quantity: 4})
	b1 := decode[dto.CreateBillResponse](t, resp).Bill
	resp = createBill(t, env, c1, dto.BillItemRequest{ProductID: milk.ID, Quantity: 1})
	resp.Body.Close()
	resp = env.do(t, http.MethodPatch, "/api/billing/"+itoa(b1.ID)+"/status", admin, dto.UpdateBillStatusRequest{Status: "completed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	expectError(t, env.do(t, http.MethodGet, "/api/billing/stats/summary", c1, nil), http.StatusForbidden, "FORBIDDEN")

	resp = env.do(t, http.MethodGet, "/api/billing/stats/summary", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sum := decode[dto.BillingSummaryResponse](t, resp)
	assert.Equal(t, 2, sum.Summary.TotalBills)
	assert.Equal(t, 1, sum.Summary.CompletedBills)
	assert.Equal(t, 1, sum.Summary.PendingBills)
	assert.Equal(t, "182", sum.Summary.TotalRevenue.String(), "solo completadas: 4 x 45.50")
	require.Len(t, sum.TopProducts, 1)
	assert.Equal(t, rice.ID, sum.TopProducts[0].ProductID)
	require.NotEmpty(t, sum.DailySales)

	expectError(t, env.do(t, http.MethodGet, "/api/billing/stats/summary?date_from=yesterday", admin, nil), http.StatusBadRequest, "VALIDATION")

	resp = env.do(t, http.MethodGet, "/api/trending?filter=highest_revenue", c1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tr := decode[dto.TrendingResponse](t, resp)
	assert.Equal(t, "highest_revenue", tr.Filter)
	assert.Equal(t, 30, tr.Days)
	require.Len(t, tr.Products, 2)
	assert.Equal(t, rice.ID, tr.Products[0].ProductID)

	resp = env.do(t, http.MethodGet, "/api/trending?category=Dairy", c1, nil)
	tr = decode[dto.TrendingResponse](t, resp)
	require.Len(t, tr.Products, 1)
	assert.Equal(t, milk.ID, tr.Products[0].ProductID)

	expectError(t, env.do(t, http.MethodGet, "/api/trending?filter=cheapest", c1, nil), http.StatusBadRequest, "VALIDATION")
}

func TestManagerSettings(t *testing.T) {
	env := newAPIEnv(t)
	admin := env.token(t, "admin")

	expectError(t, env.do(t, http.MethodGet, "/api/manager-settings", env.token(t, "cashier1"), nil), http.StatusForbidden, "FORBIDDEN")

	resp := env.do(t, http.MethodGet, "/api/manager-settings", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	def := decode[dto.ManagerSettingsResponse](t, resp)
	assert.False(t, def.Configured)
	assert.True(t, def.EnableLowStockAlerts)

	expectError(t, env.do(t, http.MethodPost, "/api/manager-settings/test-email", admin, nil), http.StatusBadRequest, "VALIDATION")
	expectError(t, env.do(t, http.MethodPatch, "/api/manager-settings/toggle-alerts", admin, map[string]any{"enable": false}), http.StatusNotFound, "NOT_FOUND")
	expectError(t, env.do(t, http.MethodPost, "/api/manager-settings", admin, map[string]any{"notification_email": "not-an-email"}), http.StatusBadRequest, "VALIDATION")

	resp = env.do(t, http.MethodPost, "/api/manager-settings", admin, map[string]any{"notification_email": "ops@shop.test"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	saved := decode[dto.ManagerSettingsEnvelope](t, resp)
	assert.Equal(t, "ops@shop.test", saved.Settings.NotificationEmail)
	assert.True(t, saved.Settings.Configured)

	resp = env.do(t, http.MethodPatch, "/api/manager-settings/toggle-alerts", admin, map[string]any{"enable": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	toggled := decode[dto.ManagerSettingsEnvelope](t, resp)
	assert.False(t, toggled.Settings.EnableLowStockAlerts)
	assert.True(t, toggled.Settings.EnableExpiryAlerts)

	resp = env.do(t, http.MethodPost, "/api/manager-settings/test-email", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decode[dto.MessageResponse](t, resp).Message, "ops@shop.test")
	sent := env.mailer.deliveries()
	require.Len(t, sent, 1)
	assert.Equal(t, notification.KindTest, sent[0].Kind)

	env.mailer.mu.Lock()
	env.mailer.failFor["ops@shop.test"] = true
	env.mailer.mu.Unlock()
	e := expectError(t, env.do(t, http.MethodPost, "/api/manager-settings/test-email", admin, nil), http.StatusInternalServerError, "INTERNAL")
	assert.NotContains(t, e.Message, "550", "el detalle del transporte no se expone")
}

func TestSweepEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	admin := env.token(t, "admin")

	expectError(t, env.do(t, http.MethodPost, "/api/products/check-low-stock", env.token(t, "cashier1"), nil), http.StatusForbidden, "FORBIDDEN")

	// Saffron: stock 3 > umbral 1; ninguno está bajo todavía
	resp := env.do(t, http.MethodPost, "/api/products/check-low-stock", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, decode[dto.AlertSweepResponse](t, resp).Alerts)

	resp = env.do(t, http.MethodPut, "/api/products/"+itoa(env.products["Milk"].ID), admin, map[string]any{"stock_quantity": 4})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/products/check-low-stock", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	// la actualización ya marcó el tramo; el barrido no duplica
	assert.Zero(t, decode[dto.AlertSweepResponse](t, resp).Alerts)

	resp = env.do(t, http.MethodPost, "/api/products/check-expiry", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, decode[dto.AlertSweepResponse](t, resp).Alerts)

	env.flush(t)
	sent := env.mailer.deliveries()
	require.Len(t, sent, 1)
	assert.Equal(t, notification.KindLowStock, sent[0].Kind)
}

func TestInventory_MovementsAndReplenishment(t *testing.T) {
	env := newAPIEnv(t)
	admin, c1 := env.token(t, "admin"), env.token(t, "cashier1")
	milk := env.products["Milk"]
	path := "/api/products/" + itoa(milk.ID) + "/movements"

	resp := createBill(t, env, c1, dto.BillItemRequest{ProductID: milk.ID, Quantity: 3})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	bill := decode[dto.CreateBillResponse](t, resp).Bill

	expectError(t, env.do(t, http.MethodGet, path, c1, nil), http.StatusForbidden, "FORBIDDEN")
	expectError(t, env.do(t, http.MethodGet, "/api/products/999/movements", admin, nil), http.StatusNotFound, "NOT_FOUND")
	expectError(t, env.do(t, http.MethodGet, "/api/products/abc/movements", admin, nil), http.StatusBadRequest, "INVALID_ID")

	resp = env.do(t, http.MethodGet, path, admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	kardex := decode[dto.MovementListResponse](t, resp)
	require.Len(t, kardex.Movements, 1)
	assert.Equal(t, entity.MovementTypeOUT, kardex.Movements[0].Type)
	assert.Equal(t, -3, kardex.Movements[0].Quantity)
	assert.Equal(t, 9, kardex.Movements[0].StockAfter)
	assert.Equal(t, bill.BillNumber, kardex.Movements[0].Reference)

	// Milk quedó en 9 con umbral 10
	resp = env.do(t, http.MethodGet, "/api/products/meta/replenishment", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	restock := decode[dto.ReplenishmentResponse](t, resp)
	require.Len(t, restock.Suggestions, 1)
	assert.Equal(t, milk.ID, restock.Suggestions[0].ProductID)
	assert.Equal(t, 6, restock.Suggestions[0].SuggestedOrderQty)
	assert.Equal(t, 3, restock.Suggestions[0].UnitsSold)
	expectError(t, env.do(t, http.MethodGet, "/api/products/meta/replenishment", c1, nil), http.StatusForbidden, "FORBIDDEN")

	resp = env.do(t, http.MethodPatch, "/api/billing/"+itoa(bill.ID)+"/status", c1, dto.UpdateBillStatusRequest{Status: "cancelled"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, path, admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	kardex = decode[dto.MovementListResponse](t, resp)
	require.Len(t, kardex.Movements, 2)
	assert.Equal(t, entity.MovementTypeIN, kardex.Movements[0].Type)
	assert.Equal(t, 12, kardex.Movements[0].StockAfter)
	assert.Equal(t, 12, kardex.CurrentStock)
}

func TestDashboard_Summary(t *testing.T) {
	env := newAPIEnv(t)
	admin, c1 := env.token(t, "admin"), env.token(t, "cashier1")
	rice, milk := env.products["Basmati Rice"], env.products["Milk"]

	resp := createBill(t, env, c1, dto.BillItemRequest{ProductID: rice.ID, Quantity: 4})
	b1 := decode[dto.CreateBillResponse](t, resp).Bill
	resp = createBill(t, env, c1, dto.BillItemRequest{ProductID: milk.ID, Quantity: 3})
	resp.Body.Close()
	resp = env.do(t, http.MethodPatch, "/api/billing/"+itoa(b1.ID)+"/status", admin, dto.UpdateBillStatusRequest{Status: "completed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	expectError(t, env.do(t, http.MethodGet, "/api/dashboard/summary", c1, nil), http.StatusForbidden, "FORBIDDEN")
	expectError(t, env.do(t, http.MethodGet, "/api/dashboard/summary", "", nil), http.StatusUnauthorized, "MISSING_TOKEN")

	resp = env.do(t, http.MethodGet, "/api/dashboard/summary", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sum := decode[dto.DashboardSummaryDTO](t, resp)
	assert.Equal(t, "182", sum.TodaySales.String())
	assert.Equal(t, 2, sum.TodayBills)
	assert.Equal(t, "182", sum.MonthlySales.String())
	require.Len(t, sum.TopProducts, 1, "solo facturas completadas")
	assert.Equal(t, rice.ID, sum.TopProducts[0].ProductID)
	assert.Equal(t, 3, sum.Inventory.TotalProducts)
	assert.Equal(t, 1, sum.Inventory.LowStock, "Milk: 9 con umbral 10")
	assert.Equal(t, 10, sum.Inventory.ExpiryWindowDays)
	assert.NotEmpty(t, sum.DateLabel)
}

func TestUsers_ManagerRegistersStaff(t *testing.T) {
	env := newAPIEnv(t)
	admin := env.token(t, "admin")

	expectError(t, env.do(t, http.MethodGet, "/api/users", env.token(t, "cashier1"), nil), http.StatusForbidden, "FORBIDDEN")

	resp := env.do(t, http.MethodPost, "/api/users", admin, dto.CreateUserRequest{Username: "cashier3", Email: "c3@shop.test", Password: "secret99"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.UserResponse](t, resp)
	assert.Equal(t, entity.RoleUser, created.Role)

	expectError(t, env.do(t, http.MethodPost, "/api/users", admin, dto.CreateUserRequest{Username: "other", Email: "C3@shop.test", Password: "secret99"}), http.StatusConflict, "DUPLICATE")
	expectError(t, env.do(t, http.MethodPost, "/api/users", admin, dto.CreateUserRequest{Username: "x", Password: "secret99"}), http.StatusBadRequest, "VALIDATION")

	resp = env.do(t, http.MethodGet, "/api/users?role=user", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.UserListResponse](t, resp)
	assert.Equal(t, 3, list.Total)

	// la cuenta nueva puede iniciar sesión
	resp = env.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "cashier3", Password: "secret99"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
