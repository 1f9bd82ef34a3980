// Package memo provides a load-once value cell.
package memo

import (
	"context"
	"sync"
)

// Cell хранит значение, загруженное не более одного раза успешно.
// В отличие от sync.Once ошибка загрузки не запоминается: следующий Get повторит попытку.
type Cell[T any] struct {
	mu    sync.Mutex
	value *T
}

// Get возвращает сохранённое значение или вызывает load и сохраняет успешный результат.
func (c *Cell[T]) Get(ctx context.Context, load func(context.Context) (*T, error)) (*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.value != nil {
		return c.value, nil
	}
	v, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.value = v
	return v, nil
}
