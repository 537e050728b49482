package home

import "sync"

// Signal[T] 可观察的状态单元，Set时通知所有订阅者。
// 每个状态变更只触发一轮通知，订阅者内部自行决定是否重绘。
type Signal[T any] struct {
	mu    sync.RWMutex
	value T
	subs  []func()
}

// NewSignal 创建带初始值的状态单元
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{value: initial}
}

// Get 返回当前值
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set 更新值并通知所有订阅者
func (s *Signal[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// Subscribe 注册变更回调，返回取消订阅函数。
// 视图销毁时必须调用返回的函数，否则回调会一直被持有。
func (s *Signal[T]) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := len(s.subs)
	s.subs = append(s.subs, fn)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs = append(s.subs[:idx], s.subs[idx+1:]...)
	}
}
