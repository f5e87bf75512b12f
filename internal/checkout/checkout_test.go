package checkout

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aldoetobex/storefront-web/internal/inertia"
	"github.com/aldoetobex/storefront-web/pkg/models"
	"github.com/aldoetobex/storefront-web/pkg/page"
)

func TestNext(t *testing.T) {
	got := []models.OrderStatus{models.OrderCart}
	for {
		n, ok := Next(got[len(got)-1])
		if !ok {
			break
		}
		got = append(got, n)
	}
	assert.Equal(t, models.CheckoutSteps, got)

	_, ok := Next("bogus")
	assert.False(t, ok)
}

func newApp(db *gorm.DB, customer uuid.UUID) (*fiber.App, *inertia.Renderer) {
	pages := inertia.New(inertia.Config{Version: "1", Store: session.New()})
	log := logrus.New()
	log.SetOutput(io.Discard)
	h := NewHandler(db, pages, log)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", customer.String())
		c.Locals("role", string(models.RoleCustomer))
		return c.Next()
	})
	app.Get("/checkout/:id", h.Show)
	app.Post("/checkout/:id/advance", h.Advance)
	return app, pages
}

func post(t *testing.T, app *fiber.App, target, body string) *httpResult {
	t.Helper()
	req := httptest.NewRequest("POST", target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(page.HeaderPage, "true")
	res, err := app.Test(req)
	require.NoError(t, err)
	out := &httpResult{code: res.StatusCode, location: res.Header.Get("Location")}
	_ = json.NewDecoder(res.Body).Decode(&out.body)
	return out
}

type httpResult struct {
	code     int
	location string
	body     map[string]any
}

func TestShowUnknownOrder(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE id = \$1 AND customer_id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	app, _ := newApp(db, uuid.New())
	res, err := app.Test(httptest.NewRequest("GET", "/checkout/"+uuid.NewString(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)

	res, err = app.Test(httptest.NewRequest("GET", "/checkout/not-a-uuid", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvanceWithDB(t *testing.T) {
	_ = godotenv.Load()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	t.Cleanup(func() { db.Exec(`TRUNCATE TABLE orders RESTART IDENTITY CASCADE`) })

	customer := uuid.New()
	o := models.Order{CustomerID: customer, Status: models.OrderCart, TotalCents: 4999}
	require.NoError(t, db.Create(&o).Error)
	target := "/checkout/" + o.ID.String() + "/advance"

	app, _ := newApp(db, customer)

	// cart -> shipping -> payment
	for i := 0; i < 2; i++ {
		res := post(t, app, target, "")
		require.Equal(t, fiber.StatusSeeOther, res.code)
		assert.Equal(t, "/checkout/"+o.ID.String(), res.location)
	}

	// payment needs a token
	res := post(t, app, target, `{}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, res.code)
	assert.Equal(t, "This field is required", res.body["errors"].(map[string]any)["payment_token"])

	// declined: stays on payment
	res = post(t, app, target, `{"payment_token":"`+DeclineToken+`"}`)
	assert.Equal(t, fiber.StatusSeeOther, res.code)
	require.NoError(t, db.First(&o, "id = ?", o.ID).Error)
	assert.Equal(t, models.OrderPayment, o.Status)
	assert.Nil(t, o.PaymentRef)

	// paid -> review -> complete
	require.Equal(t, fiber.StatusSeeOther, post(t, app, target, `{"payment_token":"tok_visa"}`).code)
	require.Equal(t, fiber.StatusSeeOther, post(t, app, target, "").code)
	require.NoError(t, db.First(&o, "id = ?", o.ID).Error)
	assert.Equal(t, models.OrderComplete, o.Status)
	assert.NotNil(t, o.PaymentRef)
	assert.NotNil(t, o.CompletedAt)

	assert.Equal(t, fiber.StatusConflict, post(t, app, target, "").code)

	// someone else's order
	other, _ := newApp(db, uuid.New())
	assert.Equal(t, fiber.StatusNotFound, post(t, other, target, "").code)
}
