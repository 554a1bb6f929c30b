package cart

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// Run は同じスロットを共有する他のコンテキスト（別タブ・別プロセス）の
// 書き込みを監視する。自分の書き込みは writerID で読み飛ばす。
// 検知したらスロットの内容でローカル状態をまるごと置き換えて通知する。
// マージはしない（後勝ち）。
func (s *Store) Run(ctx context.Context) {
	events, cancel := s.slot.Watch(s.key)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.WriterID == s.writerID {
				continue
			}
			s.reload(ctx)
		}
	}
}

func (s *Store) reload(ctx context.Context) {
	st, err := s.slot.Load(ctx, s.key)
	if errors.Is(err, repo.ErrNotFound) {
		st = model.EmptyCart()
	} else if err != nil {
		s.logger.Warnf("cart %s: reload after external change failed: %v", s.key, err)
		return
	}

	st.Recalculate()

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()

	s.pub.Notify()
}
