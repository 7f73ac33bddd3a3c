package translator

import (
	"context"

	"golang.org/x/time/rate"
)

// limited throttles calls into a service, for free tiers such as MyMemory
// that ban clients bursting past their quota.
type limited struct {
	Service
	lim *rate.Limiter
}

// Limit wraps svc so that it is called at most perSecond times a second,
// with bursts of up to burst calls. perSecond <= 0 returns svc unchanged.
func Limit(svc Service, perSecond float64, burst int) Service {
	if perSecond <= 0 {
		return svc
	}
	if burst < 1 {
		burst = 1
	}
	return &limited{Service: svc, lim: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (l *limited) Translate(ctx context.Context, req Request) (*Result, error) {
	if err := l.lim.Wait(ctx); err != nil {
		res, began := start(l.Name())
		return res.fail(began, err)
	}
	return l.Service.Translate(ctx, req)
}
