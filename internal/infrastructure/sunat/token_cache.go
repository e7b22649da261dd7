package sunat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/sire-reportes/internal/domain/entity"
	"github.com/jhoicas/sire-reportes/pkg/config"
	"github.com/jhoicas/sire-reportes/pkg/logger"
)

// SafetyMargin se descuenta del expires_in de SUNAT (desfase de reloj y
// latencia de las peticiones en curso).
const SafetyMargin = 60 * time.Second

// minTokenLifetime vigencia mínima en cache cuando expires_in no supera el
// margen; evita autenticar en cada llamada.
const minTokenLifetime = 10 * time.Second

const tokenFlightKey = "sunat-token"

// authenticator es lo que TokenCache necesita del Client.
type authenticator interface {
	Authenticate(ctx context.Context, cfg config.SUNATConfig) (string, time.Duration, error)
}

// TokenCache mantiene el token OAuth2 del proceso. Las renovaciones
// concurrentes se serializan en una sola llamada de autenticación.
type TokenCache struct {
	auth authenticator
	cfg  config.SUNATConfig
	now  func() time.Time
	log  *logger.Logger

	mu    sync.RWMutex
	cred  entity.Credential
	group singleflight.Group
}

// TokenCacheOption configura TokenCache.
type TokenCacheOption func(*TokenCache)

// WithClock inyecta el reloj (tests).
func WithClock(now func() time.Time) TokenCacheOption {
	return func(t *TokenCache) { t.now = now }
}

// NewTokenCache construye la cache sobre el cliente SUNAT.
func NewTokenCache(auth authenticator, cfg config.SUNATConfig, log *logger.Logger, opts ...TokenCacheOption) *TokenCache {
	t := &TokenCache{
		auth: auth,
		cfg:  cfg,
		now:  time.Now,
		log:  log.Component("sunat-token"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// AccessToken devuelve el token vigente o autentica de nuevo si expiró.
func (t *TokenCache) AccessToken(ctx context.Context) (entity.Credential, error) {
	if cred, ok := t.cached(); ok {
		t.log.Debug().Msg("usando token en cache")
		return cred, nil
	}
	if err := t.cfg.Validate(); err != nil {
		return entity.Credential{}, err
	}

	// La renovación no se cancela si el primer llamador se va; cada llamador
	// espera con su propio contexto.
	refreshCtx := context.WithoutCancel(ctx)
	ch := t.group.DoChan(tokenFlightKey, func() (interface{}, error) {
		if cred, ok := t.cached(); ok {
			return cred, nil
		}
		return t.refresh(refreshCtx)
	})

	select {
	case <-ctx.Done():
		return entity.Credential{}, fmt.Errorf("sunat: esperando token: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return entity.Credential{}, res.Err
		}
		return res.Val.(entity.Credential), nil
	}
}

// Invalidate descarta el token en cache.
func (t *TokenCache) Invalidate() {
	t.mu.Lock()
	t.cred = entity.Credential{}
	t.mu.Unlock()
}

func (t *TokenCache) cached() (entity.Credential, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cred, t.cred.ValidAt(t.now())
}

func (t *TokenCache) refresh(ctx context.Context) (entity.Credential, error) {
	token, expiresIn, err := t.auth.Authenticate(ctx, t.cfg)
	if err != nil {
		return entity.Credential{}, err
	}
	lifetime := expiresIn - SafetyMargin
	if lifetime < minTokenLifetime {
		// Nunca más de la mitad de la vigencia real.
		lifetime = max(min(expiresIn/2, minTokenLifetime), 0)
		t.log.Warn().Dur("expires_in", expiresIn).Dur("vigencia", lifetime).Msg("SUNAT devolvió un token de vigencia corta")
	}
	cred := entity.Credential{
		AccessToken: token,
		ExpiresAt:   t.now().Add(lifetime),
	}

	t.mu.Lock()
	t.cred = cred
	t.mu.Unlock()

	t.log.Info().Time("expires_at", cred.ExpiresAt).Msg("token SUNAT renovado")
	return cred, nil
}
