package video

import (
	"context"
	"time"
)

// Pacer выдаёт кадры в темпе реального времени: кадр k не раньше
// start + k*(1000/fps) мс. Отставшие кадры уходят сразу, без сна.
type Pacer struct {
	interval time.Duration
	realtime bool
	start    time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewPacer(fps int, realtime bool) *Pacer {
	if fps <= 0 {
		fps = 1
	}
	return &Pacer{
		interval: time.Second / time.Duration(fps),
		realtime: realtime,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

func (p *Pacer) Start() {
	p.start = p.now()
}

// Target: смещение кадра k от старта.
func (p *Pacer) Target(k int) time.Duration {
	return time.Duration(k) * p.interval
}

// Wait блокирует до слота кадра k. Без realtime ничего не ждёт.
func (p *Pacer) Wait(ctx context.Context, k int) error {
	if !p.realtime {
		return ctx.Err()
	}
	d := p.start.Add(p.Target(k)).Sub(p.now())
	if d <= 0 {
		return ctx.Err()
	}
	return p.sleep(ctx, d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
