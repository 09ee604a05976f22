package handlers_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"storefront/internal/app"
	"storefront/internal/catalog"
	"storefront/internal/client"
	"storefront/internal/images"
	"storefront/internal/mirror"
	"storefront/internal/models"
	"storefront/internal/storage"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testEnv struct {
	app       *fiber.App
	uploadDir string
}

// setupApp sets up a Fiber app for testing with in-memory SQLite and all handlers/services.
func setupApp(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err, "failed to connect to in-memory database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the shared in-memory database free of table locks.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, app.Migrate(db))

	dir := t.TempDir()
	fiberApp, _ := app.New(app.Deps{
		DB:           db,
		JWTSecret:    "test_jwt_secret",
		Storage:      storage.NewLocal(dir, "/uploads"),
		StaticDir:    dir,
		StaticPrefix: "/uploads",
	})
	return &testEnv{app: fiberApp, uploadDir: dir}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

// signupAndLogin registers a user and returns their token.
func (e *testEnv) signupAndLogin(t *testing.T, username string) string {
	t.Helper()
	status, _ := e.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, status)
	var loginResp map[string]string
	require.NoError(t, json.Unmarshal(body, &loginResp))
	require.NotEmpty(t, loginResp["token"])
	return loginResp["token"]
}

func pngDataURL(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(8, 8, color.Black), imaging.PNG))
	u, err := images.DataURL(buf.Bytes())
	require.NoError(t, err)
	return u
}

func capPayload(t *testing.T, sellBy time.Time) catalog.Payload {
	return catalog.Payload{
		Images:       []string{pngDataURL(t)},
		Name:         "Wool cap",
		Description:  "Warm",
		Gender:       catalog.GenderWoman,
		Category:     catalog.CategoryCap,
		Sizes:        []catalog.SizeStock{{Size: "Small", Stock: 2}, {Size: "Large", Stock: 1}},
		Price:        "25.50",
		RegisterDate: "2024-01-01",
		SellByDate:   sellBy.Format(catalog.DateLayout),
	}
}

func TestAuthSignupAndLogin(t *testing.T) {
	env := setupApp(t)
	token := env.signupAndLogin(t, "testuser")
	assert.NotEmpty(t, token)

	// Duplicate username
	status, _ := env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "testuser",
		"email":    "other@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, status)

	// Validation
	status, body := env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "Validation failed")

	status, _ = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "testuser",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = env.do(t, http.MethodGet, "/api/user/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	var me models.User
	require.NoError(t, json.Unmarshal(body, &me))
	assert.Equal(t, "testuser", me.Username)
	assert.Empty(t, me.Password)
}

func TestProductAdd(t *testing.T) {
	env := setupApp(t)

	// Anonymous registration is accepted.
	status, body := env.do(t, http.MethodPost, "/api/product/add", "", capPayload(t, time.Now().AddDate(0, 1, 0)))
	require.Equal(t, http.StatusCreated, status, string(body))

	var created models.Product
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotEmpty(t, created.ID)
	assert.Empty(t, created.SellerID)
	assert.Equal(t, "cap", created.Category)
	assert.Equal(t, "25.5", created.Price.String())
	require.Len(t, created.Images, 1)
	require.Len(t, created.Sizes, 2)

	// The image was written to storage and is served.
	assert.True(t, strings.HasPrefix(created.Images[0].URL, "/uploads/"))
	_, err := os.Stat(filepath.Join(env.uploadDir, strings.TrimPrefix(created.Images[0].URL, "/uploads/")))
	assert.NoError(t, err)
	status, _ = env.do(t, http.MethodGet, created.Images[0].URL, "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodGet, "/api/product/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	var fetched models.Product
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, []models.ProductSize{{Size: "Small", Stock: 2}, {Size: "Large", Stock: 1}}, fetched.Sizes)

	status, _ = env.do(t, http.MethodGet, "/api/product/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = env.do(t, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, status)
	var all []models.Product
	require.NoError(t, json.Unmarshal(body, &all))
	assert.Len(t, all, 1)
}

func TestProductAdd_Rejected(t *testing.T) {
	env := setupApp(t)
	future := time.Now().AddDate(0, 1, 0)

	noImages := capPayload(t, future)
	noImages.Images = nil
	status, body := env.do(t, http.MethodPost, "/api/product/add", "", noImages)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "Images")

	duplicate := capPayload(t, future)
	duplicate.Sizes[1].Size = "Small"
	status, body = env.do(t, http.MethodPost, "/api/product/add", "", duplicate)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "Invalid product")

	html := capPayload(t, future)
	html.Images = []string{"data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte("<html><body><script>alert(document.cookie)</script></body></html>"))}
	status, body = env.do(t, http.MethodPost, "/api/product/add", "", html)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "not an image")
	entries, err := os.ReadDir(env.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is written for a rejected image")

	status, _ = env.do(t, http.MethodPost, "/api/product/add", "not-a-token", capPayload(t, future))
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = env.do(t, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))
}

func TestCurrentSales(t *testing.T) {
	env := setupApp(t)

	status, _ := env.do(t, http.MethodGet, "/api/sale/current", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	seller := env.signupAndLogin(t, "seller")
	other := env.signupAndLogin(t, "other")

	onSale := capPayload(t, time.Now().AddDate(0, 0, 7))
	onSale.Name = "On sale"
	expired := capPayload(t, time.Now().AddDate(0, 0, -7))
	expired.Name = "Expired"
	for _, p := range []catalog.Payload{onSale, expired} {
		status, body := env.do(t, http.MethodPost, "/api/product/add", seller, p)
		require.Equal(t, http.StatusCreated, status, string(body))
	}
	status, _ = env.do(t, http.MethodPost, "/api/product/add", other, capPayload(t, time.Now().AddDate(0, 0, 7)))
	require.Equal(t, http.StatusCreated, status)

	status, body := env.do(t, http.MethodGet, "/api/sale/current", seller, nil)
	require.Equal(t, http.StatusOK, status)
	var products []models.Product
	require.NoError(t, json.Unmarshal(body, &products))
	require.Len(t, products, 1)
	assert.Equal(t, "On sale", products[0].Name)
}

func TestUnknownAPIRoute(t *testing.T) {
	env := setupApp(t)

	status, _ := env.do(t, http.MethodGet, "/api/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = env.do(t, http.MethodPost, "/api/cart/extra", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodGet, "/api/user/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = env.do(t, http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCartAndPurchase(t *testing.T) {
	env := setupApp(t)
	buyer := env.signupAndLogin(t, "buyer")

	status, body := env.do(t, http.MethodPost, "/api/product/add", "", capPayload(t, time.Now().AddDate(0, 1, 0)))
	require.Equal(t, http.StatusCreated, status)
	var product models.Product
	require.NoError(t, json.Unmarshal(body, &product))

	status, _ = env.do(t, http.MethodPost, "/api/purchase", buyer, nil)
	assert.Equal(t, http.StatusBadRequest, status, "empty cart")

	add := func(size string, qty int) int {
		status, _ := env.do(t, http.MethodPost, "/api/cart", buyer, map[string]interface{}{
			"productId": product.ID, "size": size, "quantity": qty,
		})
		return status
	}
	assert.Equal(t, http.StatusCreated, add("Small", 1))
	assert.Equal(t, http.StatusCreated, add("Small", 1))
	assert.Equal(t, http.StatusConflict, add("Large", 5))
	assert.Equal(t, http.StatusBadRequest, add("Medium", 1))
	assert.Equal(t, http.StatusBadRequest, add("Small", 0))

	status, body = env.do(t, http.MethodGet, "/api/cart", buyer, nil)
	require.Equal(t, http.StatusOK, status)
	var cart []models.CartItem
	require.NoError(t, json.Unmarshal(body, &cart))
	require.Len(t, cart, 1)
	assert.Equal(t, 2, cart[0].Quantity)

	status, body = env.do(t, http.MethodPost, "/api/purchase", buyer, nil)
	require.Equal(t, http.StatusCreated, status, string(body))
	var order models.Order
	require.NoError(t, json.Unmarshal(body, &order))
	assert.Equal(t, "51", order.TotalAmount.String())

	status, body = env.do(t, http.MethodGet, "/api/purchase", buyer, nil)
	require.Equal(t, http.StatusOK, status)
	var orders []models.Order
	require.NoError(t, json.Unmarshal(body, &orders))
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].Items, 1)

	status, body = env.do(t, http.MethodGet, "/api/cart", buyer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	status, body = env.do(t, http.MethodGet, "/api/product/"+product.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	var after models.Product
	require.NoError(t, json.Unmarshal(body, &after))
	stock, ok := after.StockFor("Small")
	require.True(t, ok)
	assert.Zero(t, stock)

	// Stock is gone: a new cart line for Small is refused.
	assert.Equal(t, http.StatusConflict, add("Small", 1))
}

// TestClientAgainstServer drives the seller client against a live listener.
func TestClientAgainstServer(t *testing.T) {
	env := setupApp(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = env.app.Listener(ln) }()
	t.Cleanup(func() { _ = env.app.Shutdown() })

	baseURL := "http://" + ln.Addr().String()
	anon := client.New(baseURL, mirror.NewStore(), client.WithTimeout(5*time.Second))
	require.NoError(t, anon.Signup(client.Signup{Username: "seller", Email: "seller@example.com", Password: "password123"}))
	token, err := anon.Login(client.Credentials{Username: "seller", Password: "password123"})
	require.NoError(t, err)

	store := mirror.NewStore()
	c := client.New(baseURL, store, client.WithTokenSource(client.StaticToken(token)), client.WithTimeout(5*time.Second))

	d := catalog.NewDraft()
	d.SetCategory(catalog.CategoryBag)
	d.Gender = catalog.GenderWoman
	require.NoError(t, d.Sizes().SetStock(0, "4"))
	d.Name = "Tote"
	d.Description = "Canvas tote"
	d.Price = "30000"
	require.NoError(t, d.SetRegisterDate(time.Now().Format(catalog.DateLayout)))
	require.NoError(t, d.SetSellByDate(time.Now().AddDate(0, 0, 30).Format(catalog.DateLayout)))
	d.AddImage(pngDataURL(t))

	_, err = c.SubmitProduct(d)
	require.NoError(t, err)

	require.NoError(t, c.FetchRegisteredProducts())
	var registered []models.Product
	require.NoError(t, store.ProductRegistered.Decode(&registered))
	require.Len(t, registered, 1)
	assert.Equal(t, "Tote", registered[0].Name)
	assert.Equal(t, []models.ProductSize{{Size: "", Stock: 4}}, registered[0].Sizes)

	require.NoError(t, c.FetchUser())
	var me models.User
	require.NoError(t, store.User.Decode(&me))
	assert.Equal(t, "seller", me.Username)

	require.NoError(t, c.FetchProductDetail(registered[0].ID))
	assert.False(t, store.ProductDetail.Stale(time.Minute))

	// A rejected fetch leaves the slice alone.
	expired := client.New(baseURL, store, client.WithTokenSource(client.StaticToken("expired")))
	assert.ErrorIs(t, expired.FetchRegisteredProducts(), client.ErrUnexpectedStatus)
	require.NoError(t, store.ProductRegistered.Decode(&registered))
	assert.Len(t, registered, 1)
}
