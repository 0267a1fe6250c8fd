package dnd5e

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/KirkDiggler/dm-table/internal/dice"
	dnderr "github.com/KirkDiggler/dm-table/internal/errors"
	"github.com/fadedpez/dnd5e-api/clients/dnd5e"
	apiEntities "github.com/fadedpez/dnd5e-api/entities"
)

// monsterAPI is the part of the SRD client this package calls
type monsterAPI interface {
	GetMonster(key string) (*apiEntities.Monster, error)
}

type client struct {
	api monsterAPI

	mu    sync.RWMutex
	cache map[string]*Monster
}

type Config struct {
	HttpClient *http.Client
	Timeout    time.Duration
}

// New creates a client backed by the public D&D 5e API
func New(cfg *Config) (Client, error) {
	if cfg == nil {
		return nil, dnderr.InvalidArgument("dnd5e client config is required")
	}

	httpClient := cfg.HttpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	api, err := dnd5e.NewDND5eAPI(&dnd5e.DND5eAPIConfig{
		Client: httpClient,
	})
	if err != nil {
		return nil, err
	}

	return newClient(api), nil
}

func newClient(api monsterAPI) *client {
	return &client{
		api:   api,
		cache: make(map[string]*Monster),
	}
}

// GetMonster fetches a monster once and serves later lookups from memory.
// The upstream client has no context support, so ctx is only checked before
// the call.
func (c *client) GetMonster(ctx context.Context, key string) (*Monster, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return nil, dnderr.InvalidArgument("monster key is required")
	}

	c.mu.RLock()
	cached, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		copied := *cached
		return &copied, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	response, err := c.api.GetMonster(key)
	if err != nil {
		return nil, dnderr.Wrapf(err, "failed to get monster %s", key)
	}
	if response == nil {
		return nil, dnderr.NotFoundf("monster %s not found", key)
	}

	monster := apiToMonster(response)

	c.mu.Lock()
	c.cache[key] = monster
	c.mu.Unlock()

	copied := *monster
	return &copied, nil
}

func apiToMonster(input *apiEntities.Monster) *Monster {
	m := &Monster{
		Key:             input.Key,
		Name:            input.Name,
		ArmorClass:      int(input.ArmorClass),
		HitPoints:       int(input.HitPoints),
		HitDice:         input.HitDice,
		ChallengeRating: float64(input.ChallengeRating),
	}

	for _, action := range input.MonsterActions {
		if action == nil || action.AttackBonus == 0 {
			continue
		}
		m.AttackBonus = int(action.AttackBonus)
		for _, d := range action.Damage {
			if d == nil {
				continue
			}
			n, err := dice.ParseNotation(d.DamageDice)
			if err != nil {
				log.Printf("DND5E: monster %s action %s has unreadable damage %q: %v", input.Key, action.Name, d.DamageDice, err)
				continue
			}
			m.DamageDice = n.String()
			break
		}
		break
	}

	return m
}

// String is used in log lines
func (m *Monster) String() string {
	return fmt.Sprintf("%s (AC %d, HP %d, %s)", m.Name, m.ArmorClass, m.HitPoints, m.DamageDice)
}
