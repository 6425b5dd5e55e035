// ============================================================================
// zipsweep Bounded Queue - 有界阻塞佇列
// ============================================================================
//
// Package: internal/queue
// 文件: bounded.go
// 功能: 多生產者/多消費者的固定容量 FIFO 佇列，支援關閉
//
// 關閉語意:
//   生產者（候選字串來源）與勝出的 worker 都可能呼叫 Close；
//   關閉後 Push 一律回傳 false，已排隊的元素仍可 Pop 直到清空。
//
// 並發控制:
//   - mu:       保護 buf/head/size/closed
//   - notFull:  Pop 釋放空間時喚醒一個 Push
//   - notEmpty: Push 放入資料時喚醒一個 Pop
//   - Close:    Broadcast 兩個條件變數，喚醒所有等待者
//
// 不變量:
//   佇列長度永遠不超過容量，記憶體用量為 O(capacity)。
//
// ============================================================================

package queue

import (
	"errors"
	"sync"
)

// ErrInvalidCapacity 表示容量小於 1
var ErrInvalidCapacity = errors.New("queue capacity must be at least 1")

// Bounded 固定容量的阻塞 FIFO 佇列
type Bounded[T any] struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	buf    []T // 環狀緩衝區
	head   int // 下一個要 Pop 的位置
	size   int // 目前的元素數量
	closed bool
}

// NewBounded 建立容量為 capacity 的佇列
func NewBounded[T any](capacity int) (*Bounded[T], error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}

	q := &Bounded[T]{
		buf: make([]T, capacity),
	}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q, nil
}

// Push 放入一個元素；佇列滿時阻塞。
// 佇列在等待前或等待中被關閉時，立即回傳 false 且不放入元素。
func (q *Bounded[T]) Push(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == len(q.buf) && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		return false
	}

	tail := (q.head + q.size) % len(q.buf)
	q.buf[tail] = item
	q.size++

	q.notEmpty.Signal()
	return true
}

// Pop 取出最早放入的元素；佇列空時阻塞。
// 只有在佇列已關閉且已清空時才回傳 false。
func (q *Bounded[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == 0 && !q.closed {
		q.notEmpty.Wait()
	}

	var zero T
	if q.size == 0 {
		return zero, false
	}

	item := q.buf[q.head]
	q.buf[q.head] = zero // 釋放參考，讓 GC 回收
	q.head = (q.head + 1) % len(q.buf)
	q.size--

	q.notFull.Signal()
	return item, true
}

// Close 標記佇列為已關閉並喚醒所有等待者。可重複呼叫。
// 已經在佇列中的元素仍可被 Pop。
func (q *Bounded[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// Len 回傳目前佇列中的元素數量
func (q *Bounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap 回傳佇列容量
func (q *Bounded[T]) Cap() int {
	return len(q.buf)
}

// Closed 檢查佇列是否已關閉
func (q *Bounded[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
