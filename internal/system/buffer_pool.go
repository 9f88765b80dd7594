package system

import (
	"image"
	"sync"
	"sync/atomic"
)

// ImagePool переиспользует холсты *image.RGBA одного размера, чтобы экспорт
// длинной таймлайны не гонял GC на каждом кадре.
type ImagePool struct {
	mu    sync.RWMutex
	pools map[image.Rectangle]*sync.Pool

	gets   atomic.Int64
	allocs atomic.Int64
}

// PoolStats показывает, сколько холстов выдано и сколько из них пришлось создать.
type PoolStats struct {
	Gets   int64
	Allocs int64
}

var globalPool = NewImagePool()

func NewImagePool() *ImagePool {
	return &ImagePool{pools: make(map[image.Rectangle]*sync.Pool)}
}

// GetImage возвращает холст из глобального пула. Содержимое не очищено.
func GetImage(rect image.Rectangle) *image.RGBA {
	return globalPool.Get(rect)
}

// PutImage возвращает холст в глобальный пул.
func PutImage(img *image.RGBA) {
	globalPool.Put(img)
}

func GlobalPoolStats() PoolStats {
	return globalPool.Stats()
}

func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	p.gets.Add(1)

	p.mu.RLock()
	pool, exists := p.pools[rect]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		pool, exists = p.pools[rect]
		if !exists {
			pool = &sync.Pool{
				New: func() any {
					p.allocs.Add(1)
					return image.NewRGBA(rect)
				},
			}
			p.pools[rect] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.RGBA)
}

func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	p.mu.RLock()
	pool, exists := p.pools[img.Rect]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}

func (p *ImagePool) Stats() PoolStats {
	return PoolStats{Gets: p.gets.Load(), Allocs: p.allocs.Load()}
}
