package cart_test

import (
	"sync"
	"testing"
	"time"

	"app/internal/cart"

	"github.com/stretchr/testify/assert"
)

func TestPublisher_DeliversToAllSubscribers(t *testing.T) {
	p := cart.NewPublisher()

	var mu sync.Mutex
	got := map[string]int{}
	sub := func(name string) {
		p.Subscribe(func() {
			mu.Lock()
			got[name]++
			mu.Unlock()
		})
	}
	sub("a")
	sub("b")

	p.Notify()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got["a"] >= 1 && got["b"] >= 1
	}, time.Second, 5*time.Millisecond)
}

func TestPublisher_UnsubscribeStopsDelivery(t *testing.T) {
	p := cart.NewPublisher()

	var mu sync.Mutex
	calls := 0
	unsubscribe := p.Subscribe(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	unsubscribe()

	p.Notify()

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, calls)
}

func TestPublisher_CoalescesBursts(t *testing.T) {
	p := cart.NewPublisher()

	var mu sync.Mutex
	calls := 0
	p.Subscribe(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	const burst = 100
	for i := 0; i < burst; i++ {
		p.Notify()
	}

	// まとめられても、最後の Notify の後には必ず1回届く
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, calls, burst)
}

func TestPublisher_NotifyWithoutSubscribers(t *testing.T) {
	p := cart.NewPublisher()

	assert.NotPanics(t, func() {
		p.Notify()
		p.Notify()
	})
}
