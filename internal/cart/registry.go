package cart

import (
	"context"
	"sync"
	"time"

	repo "app/internal/repository"

	"github.com/labstack/gommon/log"
)

const defaultIdleTTL = 30 * time.Minute

type registryEntry struct {
	store    *Store
	cancel   context.CancelFunc
	lastUsed time.Time
}

// Registry はクライアントキーごとに Store を1つ払い出す。
// タブ内でカートを触る全コンポーネントが同じインスタンスを共有する。
// idleTTL の間使われなかった Store は監視ごと破棄される
// （状態はスロットにあるので、次の Get で復元される）。
type Registry struct {
	mu     sync.Mutex
	stores map[string]*registryEntry

	baseCtx context.Context
	slot    repo.CartSlotRepository
	logger  *log.Logger
	idleTTL time.Duration
}

// DI。baseCtx は監視goroutineの寿命（サーバ停止で止まる）。
// idleTTL が0以下ならデフォルト30分。
func NewRegistry(baseCtx context.Context, slot repo.CartSlotRepository, logger *log.Logger, idleTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}

	r := &Registry{
		stores:  map[string]*registryEntry{},
		baseCtx: baseCtx,
		slot:    slot,
		logger:  logger,
		idleTTL: idleTTL,
	}

	go r.sweep()
	return r
}

// Get はキーの Store を返す。無ければ復元して作り、外部変更の監視を始める。
func (r *Registry) Get(ctx context.Context, key string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.stores[key]; ok {
		e.lastUsed = time.Now()
		return e.store
	}

	s := NewStore(ctx, key, r.slot, r.logger)
	runCtx, cancel := context.WithCancel(r.baseCtx)
	r.stores[key] = &registryEntry{store: s, cancel: cancel, lastUsed: time.Now()}
	go s.Run(runCtx)

	return s
}

// Len は現在生きている Store の数。
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

func (r *Registry) sweep() {
	t := time.NewTicker(r.idleTTL / 2)
	defer t.Stop()

	for {
		select {
		case <-r.baseCtx.Done():
			return
		case now := <-t.C:
			r.evictIdle(now)
		}
	}
}

// evictIdle は放置された Store を破棄して監視を止める。
// 購読者（SSE接続）が居る間は使用中とみなす。
func (r *Registry) evictIdle(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, e := range r.stores {
		if e.store.HasSubscribers() {
			e.lastUsed = now
			continue
		}
		if now.Sub(e.lastUsed) < r.idleTTL {
			continue
		}
		e.cancel()
		delete(r.stores, key)
	}
}
