package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

var _ ledger.Locker = (*Locker)(nil)

// solo borra la clave si el token sigue siendo el nuestro
var unlockScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker lock por clave con SET NX PX. El TTL libera el lock si el proceso muere con él tomado.
type Locker struct {
	client *goredis.Client
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
	log    zerolog.Logger
}

// NewLocker construye el locker. wait es cuánto se espera un lock ocupado antes de ErrConflict.
func NewLocker(client *goredis.Client, ttl, wait time.Duration, log zerolog.Logger) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if wait < 0 {
		wait = 0
	}
	return &Locker{client: client, ttl: ttl, wait: wait, retry: 25 * time.Millisecond, log: log}
}

// Lock toma la clave o espera hasta wait. El unlock devuelto es idempotente.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%w: otra sesión está escribiendo (%s)", domain.ErrConflict, key)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// el contexto de la operación puede estar cancelado; el unlock usa uno propio
		uctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := unlockScript.Run(uctx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
			l.log.Warn().Err(err).Str("key", key).Msg("no se pudo liberar el lock; expira por TTL")
		}
	}, nil
}
