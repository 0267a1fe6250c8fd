package combat

//go:generate mockgen -destination=mock/mock_service.go -package=mockcombat -source=service.go

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/KirkDiggler/dm-table/internal/clients/dnd5e"
	"github.com/KirkDiggler/dm-table/internal/dice"
	domain "github.com/KirkDiggler/dm-table/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/dm-table/internal/errors"
	"github.com/KirkDiggler/dm-table/internal/events"
	"github.com/KirkDiggler/dm-table/internal/repositories/gamestate"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxConflictRetries bounds how often a write that lost a version
	// race is replayed
	DefaultMaxConflictRetries = 3

	tracerName = "github.com/KirkDiggler/dm-table/internal/services/combat"
)

// Service defines the combat engine. Every mutation on a session is
// serialized and persisted with a version check.
type Service interface {
	// StartCombat replaces any encounter with the session roster versus the given enemies
	StartCombat(ctx context.Context, input *StartCombatInput) (*StartCombatResult, error)

	// RecordInitiative stores rolls and builds the turn order once everyone has rolled
	RecordInitiative(ctx context.Context, input *RecordInitiativeInput) (*RecordInitiativeResult, error)

	// RollEnemyInitiative rolls a d20 for every enemy still waiting on initiative
	RollEnemyInitiative(ctx context.Context, sessionID string) (*RecordInitiativeResult, error)

	// ApplyCombatUpdate applies damage, healing, conditions, kills and turn advance
	ApplyCombatUpdate(ctx context.Context, input *ApplyCombatUpdateInput) (*ApplyCombatUpdateResult, error)

	// EndCombat resets the session to idle. Ending an idle session succeeds.
	EndCombat(ctx context.Context, sessionID string) (*EndCombatResult, error)

	// GetCombat returns the stored combat state
	GetCombat(ctx context.Context, sessionID string) (*domain.State, error)
}

// StartCombatInput contains data for starting an encounter
type StartCombatInput struct {
	SessionID string
	Enemies   []domain.EnemySpec
}

// StartCombatResult is returned by StartCombat
type StartCombatResult struct {
	State   *domain.State
	Version int64
	Message string
}

// RecordInitiativeInput contains initiative rolls
type RecordInitiativeInput struct {
	SessionID string
	Entries   []domain.InitiativeEntry
}

// RecordInitiativeResult is returned by RecordInitiative and RollEnemyInitiative
type RecordInitiativeResult struct {
	State              *domain.State
	Version            int64
	InitiativeComplete bool
	TurnOrder          []domain.ParticipantRef
	Rolls              map[string]int // enemy id -> d20, RollEnemyInitiative only
}

// ApplyCombatUpdateInput contains one logical update
type ApplyCombatUpdateInput struct {
	SessionID   string
	Changes     *domain.Changes
	AdvanceTurn bool
}

// ApplyCombatUpdateResult is returned by ApplyCombatUpdate
type ApplyCombatUpdateResult struct {
	State          *domain.State
	Version        int64
	CombatEnded    bool
	IgnoredTargets []string
}

// EndCombatResult is returned by EndCombat
type EndCombatResult struct {
	Success bool
	Message string
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Repository         gamestate.Repository
	Roller             dice.Roller
	Publisher          events.Publisher
	MonsterClient      dnd5e.Client // optional; fills templates that name a monster_ref
	Tracer             trace.Tracer
	MaxConflictRetries int
}

type service struct {
	repository    gamestate.Repository
	roller        dice.Roller
	publisher     events.Publisher
	monsterClient dnd5e.Client
	tracer        trace.Tracer
	maxRetries    int
	locks         *sessionLocks
}

// NewService creates a new combat service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Repository == nil {
		panic("repository is required")
	}

	svc := &service{
		repository:    cfg.Repository,
		roller:        cfg.Roller,
		publisher:     cfg.Publisher,
		monsterClient: cfg.MonsterClient,
		tracer:        cfg.Tracer,
		maxRetries:    cfg.MaxConflictRetries,
		locks:         newSessionLocks(),
	}

	if svc.roller == nil {
		svc.roller = dice.NewRandomRoller()
	}
	if svc.tracer == nil {
		svc.tracer = otel.Tracer(tracerName)
	}
	if svc.maxRetries <= 0 {
		svc.maxRetries = DefaultMaxConflictRetries
	}

	return svc
}

// StartCombat starts an encounter for the session roster
func (s *service) StartCombat(ctx context.Context, input *StartCombatInput) (result *StartCombatResult, err error) {
	if input == nil {
		return nil, dnderr.InvalidArgument("input cannot be nil")
	}
	ctx, span := s.startSpan(ctx, "StartCombat", input.SessionID)
	defer func() { endSpan(span, err) }()

	if err := requireSession(input.SessionID); err != nil {
		return nil, err
	}
	if len(input.Enemies) == 0 {
		return nil, dnderr.InvalidArgument("at least one enemy is required")
	}

	specs, err := s.resolveMonsters(ctx, input.Enemies)
	if err != nil {
		return nil, err
	}
	enemies, err := domain.BuildEnemies(specs)
	if err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInvalidArgument, "invalid enemy list")
	}

	var playerCount int
	state, version, err := s.mutate(ctx, input.SessionID, false, func(snap *gamestate.Snapshot) (*domain.State, error) {
		roster, err := s.repository.ListRoster(ctx, input.SessionID)
		if err != nil {
			return nil, dnderr.Wrap(err, "failed to list session characters")
		}
		if len(roster) == 0 {
			return nil, dnderr.InvalidArgument("no characters in session")
		}

		players := make([]*domain.PlayerCombatant, 0, len(roster))
		for _, m := range roster {
			players = append(players, domain.NewPlayer(m.CharacterID, m.Name, m.CurrentHP, m.MaxHP, m.AC))
		}

		// Fresh copies so a retried attempt never shares enemy pointers
		next := domain.NewState()
		if err := next.Start(players, cloneEnemies(enemies)); err != nil {
			return nil, dnderr.WrapWithCode(err, dnderr.CodeInvalidArgument, "cannot start combat")
		}
		playerCount = len(players)
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("CombatService: Started combat in session %s with %d players and %d enemies",
		input.SessionID, playerCount, len(enemies))
	s.publish(events.NewCombatEvent(events.EventTypeCombatStarted, input.SessionID, version, state))

	return &StartCombatResult{
		State:   state,
		Version: version,
		Message: fmt.Sprintf("Combat initialized with %d players and %d enemies", playerCount, len(enemies)),
	}, nil
}

// RecordInitiative applies initiative rolls
func (s *service) RecordInitiative(ctx context.Context, input *RecordInitiativeInput) (result *RecordInitiativeResult, err error) {
	if input == nil {
		return nil, dnderr.InvalidArgument("input cannot be nil")
	}
	ctx, span := s.startSpan(ctx, "RecordInitiative", input.SessionID)
	defer func() { endSpan(span, err) }()

	if err := requireSession(input.SessionID); err != nil {
		return nil, err
	}
	if err := domain.ValidateInitiative(input.Entries); err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInvalidArgument, "invalid initiative")
	}

	var complete bool
	state, version, err := s.mutate(ctx, input.SessionID, false, func(snap *gamestate.Snapshot) (*domain.State, error) {
		next := snap.Combat
		if !next.Active {
			return nil, dnderr.NoActiveCombat("no active combat")
		}
		complete = next.RecordInitiative(input.Entries)
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.NewCombatEvent(events.EventTypeCombatInitiativeRecorded, input.SessionID, version, state))
	return initiativeResult(state, version, complete, nil), nil
}

// RollEnemyInitiative rolls d20 for every enemy without initiative
func (s *service) RollEnemyInitiative(ctx context.Context, sessionID string) (result *RecordInitiativeResult, err error) {
	ctx, span := s.startSpan(ctx, "RollEnemyInitiative", sessionID)
	defer func() { endSpan(span, err) }()

	if err := requireSession(sessionID); err != nil {
		return nil, err
	}

	var (
		complete bool
		rolls    map[string]int
	)
	state, version, err := s.mutate(ctx, sessionID, false, func(snap *gamestate.Snapshot) (*domain.State, error) {
		next := snap.Combat
		if !next.Active {
			return nil, dnderr.NoActiveCombat("no active combat")
		}

		rolls = make(map[string]int)
		var entries []domain.InitiativeEntry
		for _, e := range next.UnrolledEnemies() {
			roll, err := s.roller.Roll(1, 20, 0)
			if err != nil {
				return nil, dnderr.Wrap(err, "failed to roll initiative")
			}
			rolls[e.ID] = roll.Total
			entries = append(entries, domain.InitiativeEntry{ID: e.ID, Initiative: roll.Total, Kind: domain.KindEnemy})
		}
		complete = next.RecordInitiative(entries)
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.NewCombatEvent(events.EventTypeCombatInitiativeRecorded, sessionID, version, state))
	return initiativeResult(state, version, complete, rolls), nil
}

// ApplyCombatUpdate applies one logical update in the fixed order
func (s *service) ApplyCombatUpdate(ctx context.Context, input *ApplyCombatUpdateInput) (result *ApplyCombatUpdateResult, err error) {
	if input == nil {
		return nil, dnderr.InvalidArgument("input cannot be nil")
	}
	ctx, span := s.startSpan(ctx, "ApplyCombatUpdate", input.SessionID)
	defer func() { endSpan(span, err) }()

	if err := requireSession(input.SessionID); err != nil {
		return nil, err
	}
	if err := input.Changes.Validate(); err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInvalidArgument, "invalid combat update")
	}

	var outcome domain.Outcome
	state, version, err := s.mutate(ctx, input.SessionID, false, func(snap *gamestate.Snapshot) (*domain.State, error) {
		next := snap.Combat
		if !next.Active {
			return nil, dnderr.NoActiveCombat("no active combat")
		}
		outcome = next.Apply(input.Changes, input.AdvanceTurn)
		if err := next.CheckInvariants(); err != nil {
			return nil, dnderr.Internalf("combat update broke state: %v", err)
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	if len(outcome.IgnoredTargets) > 0 {
		log.Printf("CombatService: Ignored unknown targets in session %s: %s",
			input.SessionID, strings.Join(outcome.IgnoredTargets, ", "))
	}

	event := events.NewCombatEvent(events.EventTypeCombatUpdated, input.SessionID, version, state)
	event.Ended = outcome.Ended
	event.IgnoredTargets = outcome.IgnoredTargets
	s.publish(event)
	if outcome.Ended {
		log.Printf("CombatService: Combat in session %s ended during round %d", input.SessionID, state.Round)
		ended := events.NewCombatEvent(events.EventTypeCombatEnded, input.SessionID, version, state)
		ended.Ended = true
		s.publish(ended)
	}

	return &ApplyCombatUpdateResult{
		State:          state,
		Version:        version,
		CombatEnded:    outcome.Ended,
		IgnoredTargets: outcome.IgnoredTargets,
	}, nil
}

// EndCombat clears the encounter. Allowed while the session is paused.
func (s *service) EndCombat(ctx context.Context, sessionID string) (result *EndCombatResult, err error) {
	ctx, span := s.startSpan(ctx, "EndCombat", sessionID)
	defer func() { endSpan(span, err) }()

	if err := requireSession(sessionID); err != nil {
		return nil, err
	}

	var wasActive bool
	state, version, err := s.mutate(ctx, sessionID, true, func(snap *gamestate.Snapshot) (*domain.State, error) {
		next := snap.Combat
		wasActive = next.Active
		next.End()
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	if wasActive {
		log.Printf("CombatService: Ended combat in session %s", sessionID)
		ended := events.NewCombatEvent(events.EventTypeCombatEnded, sessionID, version, state)
		ended.Ended = true
		s.publish(ended)
	}

	return &EndCombatResult{Success: true, Message: "Combat ended"}, nil
}

// GetCombat returns the stored state
func (s *service) GetCombat(ctx context.Context, sessionID string) (state *domain.State, err error) {
	ctx, span := s.startSpan(ctx, "GetCombat", sessionID)
	defer func() { endSpan(span, err) }()

	if err := requireSession(sessionID); err != nil {
		return nil, err
	}

	snap, err := s.repository.Get(ctx, sessionID)
	if err != nil {
		return nil, dnderr.Wrap(err, "failed to get game state")
	}
	return snap.Combat, nil
}

// mutate runs read-modify-write under the session lock, replaying the whole
// cycle when the store reports a version conflict
func (s *service) mutate(ctx context.Context, sessionID string, allowPaused bool, fn func(*gamestate.Snapshot) (*domain.State, error)) (*domain.State, int64, error) {
	release, err := s.locks.acquire(ctx, sessionID)
	if err != nil {
		return nil, 0, dnderr.Wrap(err, "failed waiting for session")
	}
	defer release()

	for attempt := 0; ; attempt++ {
		snap, err := s.repository.Get(ctx, sessionID)
		if err != nil {
			return nil, 0, dnderr.Wrap(err, "failed to get game state").WithMeta("session_id", sessionID)
		}
		if snap.Paused && !allowPaused {
			return nil, 0, dnderr.SessionPaused("session is paused").WithMeta("session_id", sessionID)
		}
		if snap.Combat == nil {
			snap.Combat = domain.NewState()
		}

		next, err := fn(snap)
		if err != nil {
			return nil, 0, err
		}

		version, err := s.repository.SaveCombat(ctx, sessionID, next, snap.Version, gamestate.PlayerHPFrom(next))
		if err == nil {
			return next, version, nil
		}
		if !errors.Is(err, gamestate.ErrVersionConflict) {
			return nil, 0, dnderr.Wrap(err, "failed to save combat state").WithMeta("session_id", sessionID)
		}
		if attempt >= s.maxRetries {
			return nil, 0, dnderr.Conflict("combat state was modified concurrently, retry the request").
				WithMeta("session_id", sessionID).
				WithMeta("attempts", attempt+1)
		}
		log.Printf("CombatService: Version conflict on session %s (attempt %d), retrying", sessionID, attempt+1)
	}
}

// resolveMonsters fills template stats from the SRD for entries that name a
// monster_ref. Lookups run concurrently.
func (s *service) resolveMonsters(ctx context.Context, specs []domain.EnemySpec) ([]domain.EnemySpec, error) {
	out := make([]domain.EnemySpec, len(specs))
	copy(out, specs)
	if s.monsterClient == nil {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range out {
		spec := &out[i]
		if spec.MonsterRef == "" || (spec.Name != "" && spec.HP > 0 && spec.AC > 0 && spec.DamageDice != "") {
			continue
		}
		g.Go(func() error {
			monster, err := s.monsterClient.GetMonster(gctx, spec.MonsterRef)
			if dnderr.IsNotFound(err) {
				return dnderr.WrapWithCode(err, dnderr.CodeInvalidArgument,
					fmt.Sprintf("unknown monster_ref %q", spec.MonsterRef))
			}
			if err != nil {
				return dnderr.Wrapf(err, "failed to look up monster_ref %q", spec.MonsterRef)
			}
			if spec.Name == "" {
				spec.Name = monster.Name
			}
			if spec.HP <= 0 {
				spec.HP = monster.HitPoints
			}
			if spec.AC <= 0 {
				spec.AC = monster.ArmorClass
			}
			if spec.AttackBonus == 0 {
				spec.AttackBonus = monster.AttackBonus
			}
			if spec.DamageDice == "" {
				spec.DamageDice = monster.DamageDice
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) publish(event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(event); err != nil {
		log.Printf("CombatService: Failed to publish %s for session %s: %v", event.GetType(), event.GetSessionID(), err)
	}
}

func (s *service) startSpan(ctx context.Context, op, sessionID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "combat."+op, trace.WithAttributes(attribute.String("session.id", sessionID)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func requireSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return dnderr.InvalidArgument("session_id is required")
	}
	return nil
}

func initiativeResult(state *domain.State, version int64, complete bool, rolls map[string]int) *RecordInitiativeResult {
	return &RecordInitiativeResult{
		State:              state,
		Version:            version,
		InitiativeComplete: complete,
		TurnOrder:          state.InitiativeOrder,
		Rolls:              rolls,
	}
}

func cloneEnemies(enemies []*domain.EnemyCombatant) []*domain.EnemyCombatant {
	out := make([]*domain.EnemyCombatant, 0, len(enemies))
	for _, e := range enemies {
		c := *e
		c.Conditions = append([]string{}, e.Conditions...)
		out = append(out, &c)
	}
	return out
}
