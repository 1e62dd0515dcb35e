package catalog

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDSource produces ids for products created through CreateProduct.
type IDSource func() string

// TimeIDs yields "prod-<unix millis>" ids. Calls within the same millisecond
// are bumped forward so the ids stay unique.
func TimeIDs(now func() time.Time) IDSource {
	var (
		mu   sync.Mutex
		last int64
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()

		ms := now().UnixMilli()
		if ms <= last {
			ms = last + 1
		}
		last = ms
		return "prod-" + strconv.FormatInt(ms, 10)
	}
}

func UUIDIDs() IDSource {
	return func() string { return "prod-" + uuid.NewString() }
}

// IDSourceFor maps the PRODUCT_ID_STYLE setting to a source.
func IDSourceFor(style string) IDSource {
	if style == "uuid" {
		return UUIDIDs()
	}
	return TimeIDs(time.Now)
}
