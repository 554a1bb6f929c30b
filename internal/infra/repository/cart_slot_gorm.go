package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

// クライアント（ブラウザプロファイル）1つにつき1行。
// Payload はカート全体のJSON、Revision は書き込みごとに+1。
type CartSlot struct {
	Key       string    `gorm:"primaryKey;column:slot_key;type:varchar(64)" json:"key"`
	Payload   string    `gorm:"type:text;not null" json:"payload"`
	WriterID  string    `gorm:"type:varchar(36);not null" json:"writer_id"`
	Revision  int64     `gorm:"not null" json:"revision"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

type watcher struct {
	key string
	ch  chan repo.SlotEvent
}

// CartSlotGormRepository はスロットのGORM実装。
// 同一プロセス内の書き込みは Save から直接通知し、
// 他プロセスの書き込みは Revision のポーリングで拾う。
type CartSlotGormRepository struct {
	db *gorm.DB

	mu       sync.Mutex
	watchers map[int64]*watcher
	nextID   int64
	lastRev  map[string]int64

	pollEvery time.Duration
	stop      chan struct{}
	done      chan struct{}

	// リポジトリ自身の寿命。Closeで打ち切られ、ポーリング系のクエリに渡す
	ctx    context.Context
	cancel context.CancelFunc
}

// DI
func NewCartSlotGormRepository(db *gorm.DB, pollEvery time.Duration) *CartSlotGormRepository {
	if pollEvery <= 0 {
		pollEvery = 250 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &CartSlotGormRepository{
		db:        db,
		watchers:  map[int64]*watcher{},
		lastRev:   map[string]int64{},
		pollEvery: pollEvery,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}

	go r.poll()
	return r
}

func (r *CartSlotGormRepository) Close() error {
	select {
	case <-r.stop:
		return nil
	default:
	}
	close(r.stop)
	<-r.done
	r.cancel()
	return nil
}

// Load はスロットを読み出す。行が無い・中身が壊れている場合は ErrNotFound。
func (r *CartSlotGormRepository) Load(ctx context.Context, key string) (model.CartState, error) {
	var row CartSlot

	err := r.db.WithContext(ctx).
		Where("slot_key = ?", key).
		First(&row).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CartState{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CartState{}, err
	}

	var state model.CartState
	if err := json.Unmarshal([]byte(row.Payload), &state); err != nil {
		// 壊れた保存内容は捨てて空から再開する
		return model.CartState{}, repo.ErrNotFound
	}
	if state.Items == nil {
		state.Items = []model.CartLineItem{}
	}

	return state, nil
}

// Save はスロットを全置換し、同一プロセスの監視者へ通知する。
func (r *CartSlotGormRepository) Save(ctx context.Context, key string, state model.CartState, writerID string) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}

	var rev int64

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// revision+1 をDB側でやる（SQLiteは行ロック構文を持たないため）
		res := tx.Model(&CartSlot{}).
			Where("slot_key = ?", key).
			Updates(map[string]any{
				"payload":   string(payload),
				"writer_id": writerID,
				"revision":  gorm.Expr("revision + 1"),
			})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			// 無ければ作る
			rev = 1
			return tx.Create(&CartSlot{
				Key:      key,
				Payload:  string(payload),
				WriterID: writerID,
				Revision: 1,
			}).Error
		}

		var row CartSlot
		if err := tx.Where("slot_key = ?", key).First(&row).Error; err != nil {
			return err
		}
		rev = row.Revision
		return nil
	})
	if err != nil {
		return err
	}

	ev := repo.SlotEvent{Key: key, WriterID: writerID, Revision: rev}

	r.mu.Lock()
	if rev > r.lastRev[key] {
		r.lastRev[key] = rev
	}
	r.fanoutLocked(ev)
	r.mu.Unlock()

	return nil
}

// Watch はキーへの書き込み通知チャネルを返す。戻りの func で解除。
func (r *CartSlotGormRepository) Watch(key string) (<-chan repo.SlotEvent, func()) {
	// 監視開始時点のRevisionを基準にする（過去の書き込みで発火しない）
	var row CartSlot
	var current int64
	if err := r.db.WithContext(r.ctx).Where("slot_key = ?", key).First(&row).Error; err == nil {
		current = row.Revision
	}

	w := &watcher{key: key, ch: make(chan repo.SlotEvent, 4)}

	r.mu.Lock()
	if _, ok := r.lastRev[key]; !ok {
		r.lastRev[key] = current
	}
	r.nextID++
	id := r.nextID
	r.watchers[id] = w
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		if _, ok := r.watchers[id]; ok {
			delete(r.watchers, id)
			close(w.ch)
		}
		r.mu.Unlock()
	}

	return w.ch, cancel
}

// fanoutLocked はキーが一致する監視者全員へ送る。r.mu を握ったまま呼ぶこと。
// チャネルが詰まっていたら古いイベントを捨てて最新を入れる。
func (r *CartSlotGormRepository) fanoutLocked(ev repo.SlotEvent) {
	for _, w := range r.watchers {
		if w.key != ev.Key {
			continue
		}
		for {
			select {
			case w.ch <- ev:
			default:
				select {
				case <-w.ch:
				default:
				}
				continue
			}
			break
		}
	}
}

func (r *CartSlotGormRepository) poll() {
	defer close(r.done)

	t := time.NewTicker(r.pollEvery)
	defer t.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-t.C:
			r.pollOnce()
		}
	}
}

// pollOnce は監視中のキーのRevisionを見て、他プロセスの書き込みを通知に変換する。
// プロセス内のSaveは lastRev を先に進めるので、ここでは発火しない。
func (r *CartSlotGormRepository) pollOnce() {
	r.mu.Lock()
	seen := map[string]int64{}
	for _, w := range r.watchers {
		seen[w.key] = r.lastRev[w.key]
	}
	r.mu.Unlock()

	for key, last := range seen {
		var row CartSlot
		if err := r.db.WithContext(r.ctx).Where("slot_key = ?", key).First(&row).Error; err != nil {
			continue
		}
		if row.Revision <= last {
			continue
		}

		r.mu.Lock()
		if row.Revision > r.lastRev[key] {
			r.lastRev[key] = row.Revision
			r.fanoutLocked(repo.SlotEvent{
				Key:      key,
				WriterID: row.WriterID,
				Revision: row.Revision,
			})
		}
		r.mu.Unlock()
	}
}
