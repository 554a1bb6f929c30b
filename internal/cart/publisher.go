package cart

import "sync"

// Publisher はカート変更の通知。
// 通知にペイロードは無く、購読側は必ず現在のカートを読み直す。
// 短時間に連続した Notify はまとめられるが、最後の状態の後には必ず1回届く。
type Publisher struct {
	mu      sync.Mutex
	subs    map[int64]func()
	nextID  int64
	pending chan struct{}
}

func NewPublisher() *Publisher {
	return &Publisher{
		subs:    map[int64]func(){},
		pending: make(chan struct{}, 1),
	}
}

// Subscribe はコールバックを登録し、解除用の func を返す。
func (p *Publisher) Subscribe(fn func()) func() {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// SubscriberCount は現在の購読者数。
func (p *Publisher) SubscriberCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Notify は非同期に全購読者を呼ぶ。
// 配信開始前に重なった Notify は1回にまとまる。配信中に来たものは次の配信になる。
func (p *Publisher) Notify() {
	select {
	case p.pending <- struct{}{}:
	default:
		return
	}

	go func() {
		<-p.pending

		p.mu.Lock()
		fns := make([]func(), 0, len(p.subs))
		for _, fn := range p.subs {
			fns = append(fns, fn)
		}
		p.mu.Unlock()

		for _, fn := range fns {
			fn()
		}
	}()
}
