package cart

import (
	"context"
	"errors"
	"sync"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

// Store はカート状態の唯一の書き込み口。
// 状態遷移はメモリ上で完結し、保存の失敗で巻き戻さない
// （保存できなくてもそのセッションのカートは使い続けられる）。
type Store struct {
	key      string
	writerID string

	mu    sync.Mutex
	state model.CartState
	seq   uint64 // muで保護。状態遷移ごとに+1

	persistMu sync.Mutex
	savedSeq  uint64 // persistMuで保護。保存済みスナップショットのseq

	slot   repo.CartSlotRepository
	pub    *Publisher
	logger *log.Logger
}

// 追加する商品のスナップショット。数量は Add の引数で渡す。
type AddInput struct {
	ID    int64
	Name  string
	Price string
	Image string
}

// NewStore はスロットから復元して Store を作る。読めなければ空で始める。
func NewStore(ctx context.Context, key string, slot repo.CartSlotRepository, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New("cart")
	}

	s := &Store{
		key:      key,
		writerID: uuid.NewString(),
		state:    model.EmptyCart(),
		slot:     slot,
		pub:      NewPublisher(),
		logger:   logger,
	}

	// 最初の保存より前に必ず復元を終える（空カートでの上書きを防ぐ）
	st, err := slot.Load(ctx, key)
	switch {
	case err == nil:
		st.Recalculate()
		s.state = st
	case errors.Is(err, repo.ErrNotFound):
		// 保存なし。空で開始
	default:
		logger.Warnf("cart %s: restore failed, starting empty: %v", key, err)
	}

	return s
}

// Add は商品を追加する。同じIDが既にあれば数量を加算し、
// 価格は最初に入れたときのスナップショットを使い続ける。
// 0以下の数量は1個の追加として扱う。
func (s *Store) Add(ctx context.Context, in AddInput, quantity int64) {
	if quantity <= 0 {
		quantity = 1
	}

	s.mu.Lock()

	merged := false
	for i := range s.state.Items {
		if s.state.Items[i].ID == in.ID {
			s.state.Items[i].Quantity += quantity
			merged = true
			break
		}
	}

	if !merged {
		s.state.Items = append(s.state.Items, model.CartLineItem{
			ID:       in.ID,
			Name:     in.Name,
			Price:    in.Price,
			Image:    in.Image,
			Quantity: quantity,
		})
	}

	s.state.Recalculate()
	s.seq++
	seq := s.seq
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.persist(ctx, snapshot, seq)
	s.pub.Notify()
}

// Remove は明細を削除する。無ければ何もしない（エラーではない）。
func (s *Store) Remove(ctx context.Context, id int64) {
	s.mu.Lock()

	kept := s.state.Items[:0]
	for _, it := range s.state.Items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	s.state.Items = kept

	s.state.Recalculate()
	s.seq++
	seq := s.seq
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.persist(ctx, snapshot, seq)
	s.pub.Notify()
}

// SetQuantity は数量を置き換える。0以下なら削除と同じ。IDが無ければ何もしない。
func (s *Store) SetQuantity(ctx context.Context, id int64, quantity int64) {
	if quantity <= 0 {
		s.Remove(ctx, id)
		return
	}

	s.mu.Lock()

	for i := range s.state.Items {
		if s.state.Items[i].ID == id {
			s.state.Items[i].Quantity = quantity
			break
		}
	}

	s.state.Recalculate()
	s.seq++
	seq := s.seq
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.persist(ctx, snapshot, seq)
	s.pub.Notify()
}

// Clear はカートを空に戻す。
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.state = model.EmptyCart()
	s.seq++
	seq := s.seq
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.persist(ctx, snapshot, seq)
	s.pub.Notify()
}

// State は現在のカートのコピーを返す。
func (s *Store) State() model.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Items はチェックアウト用の明細スナップショット。
func (s *Store) Items() []model.CartLineItem {
	return s.State().Items
}

// QuantityOf はIDの数量。無ければ0。
func (s *Store) QuantityOf(id int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.state.Items {
		if it.ID == id {
			return it.Quantity
		}
	}
	return 0
}

// Contains はIDがカートにあるか。
func (s *Store) Contains(id int64) bool {
	return s.QuantityOf(id) > 0
}

func (s *Store) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Total
}

func (s *Store) ItemCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ItemCount
}

// Subscribe は変更通知を購読する。戻りの func で解除。
func (s *Store) Subscribe(fn func()) func() {
	return s.pub.Subscribe(fn)
}

// HasSubscribers は変更通知の購読者が居るか。
func (s *Store) HasSubscribers() bool {
	return s.pub.SubscriberCount() > 0
}

// persist は状態遷移の後に呼ぶ。失敗してもメモリ上のカートはそのまま。
// 保存はseq順に直列化する。より新しい状態が保存済みなら古いスナップショットは書かない
// （同時ミューテーションで古い状態がスロットに残るのを防ぐ）。
func (s *Store) persist(ctx context.Context, state model.CartState, seq uint64) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if seq <= s.savedSeq {
		return
	}
	s.savedSeq = seq

	if err := s.slot.Save(ctx, s.key, state, s.writerID); err != nil {
		s.logger.Warnf("cart %s: save failed (cart will not survive a restart): %v", s.key, err)
	}
}
