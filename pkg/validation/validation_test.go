package validation

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type categoryIn struct {
	Name  string `json:"name" validate:"required,max=10"`
	Slug  string `json:"slug" validate:"omitempty,slug"`
	Phone string `json:"phone" validate:"omitempty,phone"`
}

func TestValidateUsesJSONNames(t *testing.T) {
	errs, err := Validate(categoryIn{Slug: "Bad Slug", Phone: "x"})
	require.NoError(t, err)

	assert.Equal(t, []string{"This field is required"}, errs["name"])
	assert.Equal(t, []string{"Use lowercase letters, numbers and dashes"}, errs["slug"])
	assert.Equal(t, []string{"Invalid phone number"}, errs["phone"])
}

func TestValidateOK(t *testing.T) {
	errs, err := Validate(categoryIn{Name: "Shoes", Slug: "mens-shoes", Phone: "+65 8123 4567"})
	require.NoError(t, err)
	assert.Nil(t, errs)
}

func TestFirstFlattens(t *testing.T) {
	got := First(map[string][]string{"name": {"a", "b"}, "slug": {"c"}})
	assert.Equal(t, map[string]string{"name": "a", "slug": "c"}, got)
	assert.Nil(t, First(nil))
}

func TestRespondWrites422(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		return Respond(c, map[string][]string{"slug": {"Slug already taken"}})
	})

	res, err := app.Test(httptest.NewRequest("POST", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, res.StatusCode)

	body, _ := io.ReadAll(res.Body)
	var out struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "Validation failed", out.Message)
	assert.Equal(t, map[string]string{"slug": "Slug already taken"}, out.Errors)
}
