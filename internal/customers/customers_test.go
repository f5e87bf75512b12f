package customers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

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

func newApp(db *gorm.DB, actor string) *fiber.App {
	pages := inertia.New(inertia.Config{Version: "1", Store: session.New()})
	log := logrus.New()
	log.SetOutput(io.Discard)
	h := NewHandler(db, pages, log)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", actor)
		c.Locals("role", string(models.RoleAdmin))
		return c.Next()
	})
	app.Get("/admin/customers", h.Index)
	app.Get("/admin/customers/:id/edit", h.Edit)
	app.Put("/admin/customers/:id", h.Update)
	return app
}

func put(t *testing.T, app *fiber.App, target, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("PUT", target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(page.HeaderPage, "true")
	res, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]any
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res.StatusCode, out
}

func TestVendorStatusFor(t *testing.T) {
	approved := "approved"
	cur := models.VendorSuspended

	assert.Nil(t, vendorStatusFor(models.RoleCustomer, &approved, &cur))
	assert.Nil(t, vendorStatusFor(models.RoleAdmin, nil, nil))

	assert.Equal(t, models.VendorApproved, *vendorStatusFor(models.RoleVendor, &approved, &cur))
	assert.Equal(t, models.VendorSuspended, *vendorStatusFor(models.RoleVendor, nil, &cur))
	assert.Equal(t, models.VendorPending, *vendorStatusFor(models.RoleVendor, nil, nil))
}

func TestSelfEditProblem(t *testing.T) {
	me := models.User{ID: uuid.New(), Role: models.RoleAdmin}
	off := false

	assert.Equal(t, "You cannot remove your own admin role",
		selfEditProblem(me.ID.String(), me, CustomerRequest{Role: "customer"}))
	assert.Equal(t, "You cannot disable your own account",
		selfEditProblem(me.ID.String(), me, CustomerRequest{Role: "admin", IsActive: &off}))
	assert.Empty(t, selfEditProblem(me.ID.String(), me, CustomerRequest{Role: "admin"}))
	assert.Empty(t, selfEditProblem(uuid.NewString(), me, CustomerRequest{Role: "customer"}))
}

func TestUpdateValidation(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	id := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "name", "is_active", "created_at"}).
			AddRow(id.String(), "ana@shop.test", "customer", "Ana", true, time.Now()))

	app := newApp(db, uuid.NewString())
	code, body := put(t, app, "/admin/customers/"+id.String(),
		`{"name":"","email":"ana@shop.test","phone":"abc","role":"owner"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)

	errs := body["errors"].(map[string]any)
	assert.Equal(t, "This field is required", errs["name"])
	assert.Equal(t, "Invalid phone number", errs["phone"])
	assert.Equal(t, "Value is not allowed", errs["role"])
	assert.NotContains(t, errs, "email")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithDB(t *testing.T) {
	_ = godotenv.Load()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	t.Cleanup(func() { db.Exec(`TRUNCATE TABLE admin_audits, users RESTART IDENTITY CASCADE`) })

	admin := models.User{Email: "admin@shop.test", PasswordHash: "x", Role: models.RoleAdmin, Name: "Admin", IsActive: true}
	ana := models.User{Email: "ana@shop.test", PasswordHash: "x", Role: models.RoleCustomer, Name: "Ana", IsActive: true}
	require.NoError(t, db.Create(&admin).Error)
	require.NoError(t, db.Create(&ana).Error)
	app := newApp(db, admin.ID.String())

	// promote to vendor: status defaults to pending
	code, _ := put(t, app, "/admin/customers/"+ana.ID.String(),
		`{"name":"Ana B","email":"ana@shop.test","role":"vendor"}`)
	require.Equal(t, fiber.StatusSeeOther, code)
	require.NoError(t, db.First(&ana, "id = ?", ana.ID).Error)
	assert.Equal(t, models.RoleVendor, ana.Role)
	require.NotNil(t, ana.VendorStatus)
	assert.Equal(t, models.VendorPending, *ana.VendorStatus)

	// back to customer clears vendor status
	code, _ = put(t, app, "/admin/customers/"+ana.ID.String(),
		`{"name":"Ana B","email":"ana@shop.test","role":"customer","vendor_status":"approved"}`)
	require.Equal(t, fiber.StatusSeeOther, code)
	require.NoError(t, db.First(&ana, "id = ?", ana.ID).Error)
	assert.Nil(t, ana.VendorStatus)

	// email collision
	code, body := put(t, app, "/admin/customers/"+ana.ID.String(),
		`{"name":"Ana B","email":"admin@shop.test","role":"customer"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Equal(t, "Email already taken", body["errors"].(map[string]any)["email"])

	// listing filters by role
	req := httptest.NewRequest("GET", "/admin/customers?role=customer", nil)
	req.Header.Set(page.HeaderPage, "true")
	res, err := app.Test(req)
	require.NoError(t, err)
	var p page.Page
	require.NoError(t, json.NewDecoder(res.Body).Decode(&p))
	var list page.Paginated[page.Customer]
	found, err := p.Props.Decode("customers", &list)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, list.Items, 1)
	assert.Equal(t, ana.ID, list.Items[0].ID)
}
