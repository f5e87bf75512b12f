// Package progress is the page-transition indicator: the body carries the
// "loading" class while at least one visit is in flight.
package progress

import (
	"sync"

	"github.com/aldoetobex/storefront-web/internal/navigation"
)

// LoadingClass is the body class set while loading.
const LoadingClass = "loading"

// Indicator tracks in-flight visits.
type Indicator struct {
	mu       sync.Mutex
	active   int
	onChange []func(loading bool)
}

// Attach creates an indicator driven by l. Call once per lifecycle.
func Attach(l *navigation.Lifecycle) *Indicator {
	i := &Indicator{}
	l.OnStart(func(navigation.Visit) { i.add(1) })
	l.OnFinish(func(navigation.Visit, error) { i.add(-1) })
	return i
}

// OnChange registers fn to run whenever the loading state flips.
func (i *Indicator) OnChange(fn func(loading bool)) {
	i.mu.Lock()
	i.onChange = append(i.onChange, fn)
	i.mu.Unlock()
}

func (i *Indicator) Loading() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.active > 0
}

// BodyClass returns the class list fragment for <body>.
func (i *Indicator) BodyClass() string {
	if i.Loading() {
		return LoadingClass
	}
	return ""
}

func (i *Indicator) add(d int) {
	i.mu.Lock()
	was := i.active > 0
	i.active += d
	if i.active < 0 {
		i.active = 0
	}
	now := i.active > 0
	fns := append(([]func(bool))(nil), i.onChange...)
	i.mu.Unlock()

	if was != now {
		for _, fn := range fns {
			fn(now)
		}
	}
}
