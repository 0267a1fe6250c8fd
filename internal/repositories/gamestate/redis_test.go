package gamestate_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/KirkDiggler/dm-table/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/dm-table/internal/errors"
	"github.com/KirkDiggler/dm-table/internal/repositories/gamestate"
	mockgamestate "github.com/KirkDiggler/dm-table/internal/repositories/gamestate/mock"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type RedisRepoTestSuite struct {
	suite.Suite
	client       *redis.Client
	mock         redismock.ClientMock
	mockCtrl     *gomock.Controller
	timeProvider *mockgamestate.MockTimeProvider
	repo         gamestate.Repository
	now          time.Time
	ts           string
}

func (s *RedisRepoTestSuite) SetupTest() {
	s.client, s.mock = redismock.NewClientMock()
	s.mockCtrl = gomock.NewController(s.T())
	s.timeProvider = mockgamestate.NewMockTimeProvider(s.mockCtrl)
	s.now = time.Date(2026, time.March, 3, 19, 30, 0, 0, time.UTC)
	s.ts = s.now.Format(time.RFC3339Nano)
	s.timeProvider.EXPECT().Now().Return(s.now).AnyTimes()
	s.repo = gamestate.NewRedisRepository(&gamestate.RedisRepoConfig{
		Client:       s.client,
		TimeProvider: s.timeProvider,
		TTL:          time.Hour,
	})
}

func (s *RedisRepoTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
	s.NoError(s.mock.ExpectationsWereMet())
}

func TestRedisRepoTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepoTestSuite))
}

func (s *RedisRepoTestSuite) TestCreate() {
	ctx := context.Background()
	idle, err := json.Marshal(combat.NewState())
	s.Require().NoError(err)

	// Happy path
	s.mock.ExpectHSetNX("gamestate:s1", "version", 0).SetVal(true)
	s.mock.ExpectHSet("gamestate:s1", "combat_state", string(idle), "paused", "0", "updated_at", s.ts).SetVal(3)
	s.mock.ExpectExpire("gamestate:s1", time.Hour).SetVal(true)

	s.NoError(s.repo.Create(ctx, "s1"))

	// Already exists
	s.mock.ExpectHSetNX("gamestate:s1", "version", 0).SetVal(false)

	err = s.repo.Create(ctx, "s1")
	s.True(dnderr.IsAlreadyExists(err))

	// Dependency error
	s.mock.ExpectHSetNX("gamestate:s1", "version", 0).SetErr(errors.New("redis error"))

	err = s.repo.Create(ctx, "s1")
	s.Equal(dnderr.CodeStorageFailure, dnderr.GetCode(err))

	// Failed write after the claim releases the key
	s.mock.ExpectHSetNX("gamestate:s2", "version", 0).SetVal(true)
	s.mock.ExpectHSet("gamestate:s2", "combat_state", string(idle), "paused", "0", "updated_at", s.ts).SetErr(errors.New("redis error"))
	s.mock.ExpectDel("gamestate:s2").SetVal(1)

	err = s.repo.Create(ctx, "s2")
	s.Equal(dnderr.CodeStorageFailure, dnderr.GetCode(err))

	// Input validation
	s.True(dnderr.IsInvalidArgument(s.repo.Create(ctx, "")))
}

func (s *RedisRepoTestSuite) TestGet() {
	ctx := context.Background()
	state := combat.NewState()
	state.Round = 2
	data, err := json.Marshal(state)
	s.Require().NoError(err)

	// Happy path
	s.mock.ExpectHGetAll("gamestate:s1").SetVal(map[string]string{
		"combat_state": string(data),
		"version":      "4",
		"paused":       "1",
		"updated_at":   s.ts,
	})

	snap, err := s.repo.Get(ctx, "s1")
	s.Require().NoError(err)
	s.Equal(int64(4), snap.Version)
	s.True(snap.Paused)
	s.Equal(2, snap.Combat.Round)
	s.True(snap.UpdatedAt.Equal(s.now))

	// Missing document
	s.mock.ExpectHGetAll("gamestate:s2").SetVal(map[string]string{})

	_, err = s.repo.Get(ctx, "s2")
	s.True(dnderr.IsNotFound(err))

	// Corrupt document
	s.mock.ExpectHGetAll("gamestate:s3").SetVal(map[string]string{"combat_state": "{", "version": "1"})

	_, err = s.repo.Get(ctx, "s3")
	s.Equal(dnderr.CodeStorageFailure, dnderr.GetCode(err))

	// Dependency error
	s.mock.ExpectHGetAll("gamestate:s1").SetErr(errors.New("redis error"))

	_, err = s.repo.Get(ctx, "s1")
	s.Error(err)
}

func (s *RedisRepoTestSuite) TestSetPaused() {
	ctx := context.Background()

	s.mock.ExpectExists("gamestate:s1").SetVal(1)
	s.mock.ExpectHSet("gamestate:s1", "paused", "1", "updated_at", s.ts).SetVal(0)

	s.NoError(s.repo.SetPaused(ctx, "s1", true))

	s.mock.ExpectExists("gamestate:s2").SetVal(0)

	s.True(dnderr.IsNotFound(s.repo.SetPaused(ctx, "s2", true)))
}

func (s *RedisRepoTestSuite) TestPutRosterMember() {
	ctx := context.Background()
	member := &gamestate.RosterMember{CharacterID: "hero", Name: "Hero", CurrentHP: 12, MaxHP: 20, AC: 15}
	data, err := json.Marshal(member)
	s.Require().NoError(err)

	s.mock.ExpectExists("gamestate:s1").SetVal(1)
	s.mock.ExpectHSet("gamestate:s1:roster", "hero", string(data)).SetVal(1)
	s.mock.ExpectExpire("gamestate:s1:roster", time.Hour).SetVal(true)

	s.NoError(s.repo.PutRosterMember(ctx, "s1", member))

	// Input validation happens before any command
	s.True(dnderr.IsInvalidArgument(s.repo.PutRosterMember(ctx, "s1", &gamestate.RosterMember{CharacterID: "x", MaxHP: 0})))
	s.True(dnderr.IsInvalidArgument(s.repo.PutRosterMember(ctx, "s1", nil)))
}

func (s *RedisRepoTestSuite) TestListRoster() {
	ctx := context.Background()
	wizard, _ := json.Marshal(&gamestate.RosterMember{CharacterID: "wizard", Name: "Wiz", CurrentHP: 8, MaxHP: 8, AC: 12})
	bard, _ := json.Marshal(&gamestate.RosterMember{CharacterID: "bard", Name: "Bard", CurrentHP: 3, MaxHP: 10, AC: 13})

	s.mock.ExpectExists("gamestate:s1").SetVal(1)
	s.mock.ExpectHGetAll("gamestate:s1:roster").SetVal(map[string]string{
		"wizard": string(wizard),
		"bard":   string(bard),
	})

	roster, err := s.repo.ListRoster(ctx, "s1")
	s.Require().NoError(err)
	s.Require().Len(roster, 2)
	s.Equal("bard", roster[0].CharacterID)
	s.Equal(3, roster[0].CurrentHP)
	s.Equal("wizard", roster[1].CharacterID)
}

func (s *RedisRepoTestSuite) TestSaveCombat_NilState() {
	_, err := s.repo.SaveCombat(context.Background(), "s1", nil, 0, nil)
	s.True(dnderr.IsInvalidArgument(err))
}
