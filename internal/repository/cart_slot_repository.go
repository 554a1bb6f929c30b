package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// スロットへの書き込み通知。Key単位で配られる。
// WriterID で自分の書き込みかどうかを判別できる。
type SlotEvent struct {
	Key      string
	WriterID string
	Revision int64
}

// CartSlotRepository はクライアントごとのカート保存先（durable slot）。
//   - Load: 無ければ ErrNotFound。壊れた内容も ErrNotFound 扱い（空から再開）。
//   - Save: 全置換。writerID は書き込み元の識別子。
//   - Watch: そのキーへの書き込み通知を受け取る。戻りの func で解除。
type CartSlotRepository interface {
	Load(ctx context.Context, key string) (model.CartState, error)
	Save(ctx context.Context, key string, state model.CartState, writerID string) error
	Watch(key string) (<-chan SlotEvent, func())
	Close() error
}
