package flash

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct{ got []Notification }

func (r *recorder) Notify(n Notification) { r.got = append(r.got, n) }

func TestNotificationsOrderAndStyle(t *testing.T) {
	p := Payload{Info: "i", Warning: "w", Error: "e", Success: "s"}

	out := Notifications(p)
	require.Len(t, out, 4)

	assert.Equal(t, []string{"Success", "Error", "Warning", "Info"},
		[]string{out[0].Title, out[1].Title, out[2].Title, out[3].Title})
	assert.Equal(t, VariantDefault, out[0].Variant)
	assert.Equal(t, VariantDestructive, out[1].Variant)
	assert.Equal(t, VariantDefault, out[2].Variant)
	assert.Equal(t, VariantDefault, out[3].Variant)
	assert.Equal(t, "e", out[1].Body)
}

func TestNotificationsCountMatchesNonEmptySlots(t *testing.T) {
	cases := []struct {
		p    Payload
		want int
	}{
		{Payload{}, 0},
		{Payload{Success: "ok"}, 1},
		{Payload{Error: "x", Info: "y"}, 2},
		{Payload{Success: "a", Error: "b", Warning: "c"}, 3},
	}
	for _, tc := range cases {
		assert.Len(t, Notifications(tc.p), tc.want, "%+v", tc.p)
	}
}

func TestBridgeErrorOnly(t *testing.T) {
	rec := &recorder{}
	b := NewBridge(rec)

	b.Observe(1, Payload{Error: "Payment failed"})

	require.Len(t, rec.got, 1)
	n := rec.got[0]
	assert.Equal(t, "Error", n.Title)
	assert.Equal(t, "Payment failed", n.Body)
	assert.Equal(t, VariantDestructive, n.Variant)
	assert.Equal(t, 8*time.Second, n.Duration)
}

func TestBridgeIgnoresRerender(t *testing.T) {
	rec := &recorder{}
	b := NewBridge(rec)
	p := Payload{Success: "Saved", Info: "Reindexing"}

	b.Observe(7, p)
	b.Observe(7, p)
	b.Observe(7, p)

	assert.Len(t, rec.got, 2)
}

func TestBridgeFiresForEachNavigationWithSameStrings(t *testing.T) {
	rec := &recorder{}
	b := NewBridge(rec)
	p := Payload{Success: "Saved"}

	b.Observe(1, p)
	b.Observe(2, Payload{Success: "Saved"})

	assert.Len(t, rec.got, 2)
}

func TestBridgeFiresWhenPayloadChangesWithinVisit(t *testing.T) {
	rec := &recorder{}
	b := NewBridge(rec)

	b.Observe(3, Payload{})
	b.Observe(3, Payload{Warning: "Low stock"})

	require.Len(t, rec.got, 1)
	assert.Equal(t, "Warning", rec.got[0].Title)
}

func TestBridgeEmptyPayloadEmitsNothing(t *testing.T) {
	rec := &recorder{}
	b := NewBridge(rec)

	assert.Empty(t, b.Observe(1, Payload{}))
	assert.Empty(t, rec.got)
}

func TestPayloadWith(t *testing.T) {
	p := Payload{}.With(KindWarning, "careful").With(KindInfo, "fyi")
	assert.Equal(t, "careful", p.Warning)
	assert.Equal(t, "fyi", p.Get(KindInfo))
	assert.False(t, p.Empty())
	assert.True(t, Payload{}.Empty())
}

func TestDurationPerKind(t *testing.T) {
	assert.Equal(t, DefaultDuration, DurationFor(KindSuccess))
	assert.Equal(t, DefaultDuration, DurationFor(KindInfo))
	assert.Equal(t, 6*time.Second, DurationFor(KindWarning))
	assert.Equal(t, 8*time.Second, DurationFor(KindError))

	for _, n := range Notifications(Payload{Success: "s", Error: "e", Warning: "w"}) {
		assert.Equal(t, DurationFor(n.Kind), n.Duration, n.Kind)
	}
}
