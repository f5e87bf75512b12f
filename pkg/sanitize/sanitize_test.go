package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactPII(t *testing.T) {
	in := `{"message":"duplicate key for ana@shop.test, call +65 8123 4567"}`
	out := RedactPII(in)

	assert.NotContains(t, out, "ana@shop.test")
	assert.NotContains(t, out, "8123")
	assert.Contains(t, out, "[redacted email]")
	assert.Contains(t, out, "[redacted phone]")
	assert.Equal(t, "order total 12500", RedactPII("order total 12500"))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "short", Summary("short", 10))
	assert.Equal(t, "Spring sale on…", Summary("Spring sale on every shoe", 14))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "men-s-shoes", Slugify("  Men's Shoes "))
	assert.Equal(t, "shoes", Slugify("Shoes"))
	assert.Equal(t, "", Slugify("!!!"))
}
