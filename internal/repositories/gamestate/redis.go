package gamestate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/KirkDiggler/dm-table/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/dm-table/internal/errors"
	"github.com/redis/go-redis/v9"
)

const (
	// Key patterns
	stateKeyPrefix   = "gamestate:"
	rosterKeySuffix  = ":roster"
	fieldCombatState = "combat_state"
	fieldVersion     = "version"
	fieldPaused      = "paused"
	fieldUpdatedAt   = "updated_at"

	// TTL for game state (7 days)
	defaultTTL = 7 * 24 * time.Hour
)

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client       redis.UniversalClient
	TimeProvider TimeProvider
	TTL          time.Duration
}

// redisRepository implements Repository using one hash per session plus a
// roster hash keyed by character id
type redisRepository struct {
	client redis.UniversalClient
	clock  TimeProvider
	ttl    time.Duration
}

// NewRedisRepository creates a new Redis-backed game state repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg.Client == nil {
		panic("redis client is required")
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultTTL
	}
	clock := cfg.TimeProvider
	if clock == nil {
		clock = SystemClock()
	}

	return &redisRepository{
		client: cfg.Client,
		clock:  clock,
		ttl:    ttl,
	}
}

func stateKey(sessionID string) string {
	return stateKeyPrefix + sessionID
}

func rosterKey(sessionID string) string {
	return stateKeyPrefix + sessionID + rosterKeySuffix
}

func (r *redisRepository) timestamp() string {
	return r.clock.Now().UTC().Format(time.RFC3339Nano)
}

// Create claims the document by setting its version field first, so two
// concurrent creates cannot both succeed
func (r *redisRepository) Create(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return dnderr.InvalidArgument("session ID cannot be empty")
	}

	data, err := json.Marshal(combat.NewState())
	if err != nil {
		return dnderr.Wrap(err, "failed to serialize combat state")
	}

	key := stateKey(sessionID)
	created, err := r.client.HSetNX(ctx, key, fieldVersion, 0).Result()
	if err != nil {
		return dnderr.StorageFailure(err, "failed to create game state")
	}
	if !created {
		return dnderr.AlreadyExistsf("game state for session %s already exists", sessionID)
	}

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, fieldCombatState, string(data), fieldPaused, "0", fieldUpdatedAt, r.timestamp())
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		// Release the claim so the create can be retried
		if delErr := r.client.Del(context.WithoutCancel(ctx), key).Err(); delErr != nil {
			log.Printf("Failed to release game state key %s: %v", key, delErr)
		}
		return dnderr.StorageFailure(err, "failed to create game state")
	}

	return nil
}

func (r *redisRepository) Get(ctx context.Context, sessionID string) (*Snapshot, error) {
	if sessionID == "" {
		return nil, dnderr.InvalidArgument("session ID cannot be empty")
	}

	fields, err := r.client.HGetAll(ctx, stateKey(sessionID)).Result()
	if err != nil {
		return nil, dnderr.StorageFailure(err, "failed to get game state")
	}
	if len(fields) == 0 {
		return nil, dnderr.NotFoundf("game state for session %s not found", sessionID)
	}

	return decodeSnapshot(sessionID, fields)
}

func decodeSnapshot(sessionID string, fields map[string]string) (*Snapshot, error) {
	snap := &Snapshot{SessionID: sessionID}

	state := combat.NewState()
	if raw := fields[fieldCombatState]; raw != "" {
		if err := json.Unmarshal([]byte(raw), state); err != nil {
			return nil, dnderr.StorageFailure(err, "failed to deserialize combat state")
		}
		state.Normalize()
	}
	snap.Combat = state

	if raw := fields[fieldVersion]; raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, dnderr.StorageFailure(err, "failed to parse game state version")
		}
		snap.Version = v
	}

	snap.Paused = fields[fieldPaused] == "1"

	if raw := fields[fieldUpdatedAt]; raw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			snap.UpdatedAt = ts
		}
	}

	return snap, nil
}

// SaveCombat watches both keys, checks the version, then writes the combat
// field, the bumped version and the mirrored roster HP in one MULTI
func (r *redisRepository) SaveCombat(ctx context.Context, sessionID string, state *combat.State, expectedVersion int64, hp []PlayerHP) (int64, error) {
	if state == nil {
		return 0, dnderr.InvalidArgument("combat state cannot be nil")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return 0, dnderr.Wrap(err, "failed to serialize combat state")
	}

	key := stateKey(sessionID)
	rKey := rosterKey(sessionID)
	next := expectedVersion + 1

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, fieldVersion).Int64()
		if errors.Is(err, redis.Nil) {
			return dnderr.NotFoundf("game state for session %s not found", sessionID)
		}
		if err != nil {
			return dnderr.StorageFailure(err, "failed to read game state version")
		}
		if current != expectedVersion {
			return fmt.Errorf("session %s at version %d, expected %d: %w", sessionID, current, expectedVersion, ErrVersionConflict)
		}

		updates, err := r.rosterUpdates(ctx, tx, rKey, hp)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fieldCombatState, string(data), fieldVersion, next, fieldUpdatedAt, r.timestamp())
			pipe.Expire(ctx, key, r.ttl)
			if len(updates) > 0 {
				pipe.HSet(ctx, rKey, updates...)
				pipe.Expire(ctx, rKey, r.ttl)
			}
			return nil
		})
		return err
	}, key, rKey)

	switch {
	case err == nil:
		return next, nil
	case errors.Is(err, redis.TxFailedErr):
		return 0, fmt.Errorf("session %s changed during save: %w", sessionID, ErrVersionConflict)
	case errors.Is(err, ErrVersionConflict), dnderr.GetCode(err) != dnderr.CodeUnknown:
		return 0, err
	default:
		return 0, dnderr.StorageFailure(err, "failed to save combat state")
	}
}

// rosterUpdates returns HSET field/value pairs for members whose HP changed
func (r *redisRepository) rosterUpdates(ctx context.Context, tx *redis.Tx, key string, hp []PlayerHP) ([]any, error) {
	if len(hp) == 0 {
		return nil, nil
	}

	raw, err := tx.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, dnderr.StorageFailure(err, "failed to read roster")
	}

	var updates []any
	for _, h := range hp {
		entry, ok := raw[h.CharacterID]
		if !ok {
			continue
		}
		var member RosterMember
		if err := json.Unmarshal([]byte(entry), &member); err != nil {
			return nil, dnderr.StorageFailure(err, "failed to deserialize roster member")
		}
		if member.CurrentHP == h.CurrentHP {
			continue
		}
		member.CurrentHP = h.CurrentHP
		encoded, err := json.Marshal(member)
		if err != nil {
			return nil, dnderr.Wrap(err, "failed to serialize roster member")
		}
		updates = append(updates, h.CharacterID, string(encoded))
	}
	return updates, nil
}

func (r *redisRepository) SetPaused(ctx context.Context, sessionID string, paused bool) error {
	if err := r.ensureExists(ctx, sessionID); err != nil {
		return err
	}

	flag := "0"
	if paused {
		flag = "1"
	}
	if err := r.client.HSet(ctx, stateKey(sessionID), fieldPaused, flag, fieldUpdatedAt, r.timestamp()).Err(); err != nil {
		return dnderr.StorageFailure(err, "failed to update pause flag")
	}
	return nil
}

func (r *redisRepository) ListRoster(ctx context.Context, sessionID string) ([]*RosterMember, error) {
	if err := r.ensureExists(ctx, sessionID); err != nil {
		return nil, err
	}

	raw, err := r.client.HGetAll(ctx, rosterKey(sessionID)).Result()
	if err != nil {
		return nil, dnderr.StorageFailure(err, "failed to list roster")
	}

	members := make([]*RosterMember, 0, len(raw))
	for id, entry := range raw {
		var member RosterMember
		if err := json.Unmarshal([]byte(entry), &member); err != nil {
			return nil, dnderr.StorageFailure(err, fmt.Sprintf("failed to deserialize roster member %s", id))
		}
		members = append(members, &member)
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].CharacterID < members[j].CharacterID
	})

	return members, nil
}

func (r *redisRepository) PutRosterMember(ctx context.Context, sessionID string, member *RosterMember) error {
	if err := ValidateMember(member); err != nil {
		return dnderr.WrapWithCode(err, dnderr.CodeInvalidArgument, "invalid roster member")
	}
	if err := r.ensureExists(ctx, sessionID); err != nil {
		return err
	}

	data, err := json.Marshal(member)
	if err != nil {
		return dnderr.Wrap(err, "failed to serialize roster member")
	}

	key := rosterKey(sessionID)
	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, member.CharacterID, string(data))
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return dnderr.StorageFailure(err, "failed to store roster member")
	}

	return nil
}

func (r *redisRepository) ensureExists(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return dnderr.InvalidArgument("session ID cannot be empty")
	}

	n, err := r.client.Exists(ctx, stateKey(sessionID)).Result()
	if err != nil {
		return dnderr.StorageFailure(err, "failed to check game state")
	}
	if n == 0 {
		return dnderr.NotFoundf("game state for session %s not found", sessionID)
	}
	return nil
}
