package identity

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/samuflix/backend/internal/localstore"
)

// KV is the slice of the local store the provider needs.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Provider hands out the per-install device identity used as userId.
// It is created once at startup and shared by every component.
type Provider struct {
	store KV
	now   func() time.Time

	mu sync.Mutex
	id string
}

// New constructs a Provider backed by store.
func New(store KV) *Provider {
	return &Provider{store: store, now: time.Now}
}

// ID returns the device identity, generating and persisting it on first use.
func (p *Provider) ID(ctx context.Context) (string, error) {
	if p == nil || p.store == nil {
		return "", errors.New("identity provider not configured")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.id != "" {
		return p.id, nil
	}

	stored, ok, err := p.store.Get(ctx, localstore.KeyDeviceID)
	if err != nil {
		return "", fmt.Errorf("read device id: %w", err)
	}
	if ok && strings.TrimSpace(stored) != "" {
		p.id = stored
		return p.id, nil
	}

	id := strconv.FormatInt(p.now().UnixMilli(), 10) + "-" + randomBase36(9)
	if err := p.store.Set(ctx, localstore.KeyDeviceID, id); err != nil {
		return "", fmt.Errorf("persist device id: %w", err)
	}
	p.id = id
	return p.id, nil
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomBase36(n int) string {
	var b strings.Builder
	b.Grow(n)
	limit := big.NewInt(int64(len(base36)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			b.WriteByte(base36[time.Now().UnixNano()%int64(len(base36))])
			continue
		}
		b.WriteByte(base36[idx.Int64()])
	}
	return b.String()
}
