package eventbus

import (
	"fmt"
	"time"

	"github.com/alfred-ai/connpool/pool"
)

// Observers builds the onLease/onRelease/onReuse callbacks pool.Option
// WithObservers expects, publishing one Event per transition.
func Observers[R comparable, C pool.Connection](c *Client) (onLease, onRelease, onReuse func(*pool.Entry[R, C])) {
	onLease = func(e *pool.Entry[R, C]) { c.publish("lease", fmt.Sprint(e.Route()), time.Now()) }
	onRelease = func(e *pool.Entry[R, C]) { c.publish("release", fmt.Sprint(e.Route()), time.Now()) }
	onReuse = func(e *pool.Entry[R, C]) { c.publish("reuse", fmt.Sprint(e.Route()), time.Now()) }
	return
}
