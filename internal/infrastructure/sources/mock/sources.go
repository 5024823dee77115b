package mock

import (
	"context"
	"errors"
	"math/big"
	"math/rand"
	"price-chain-service/internal/domain/entities"
	"price-chain-service/internal/domain/interfaces"
	"price-chain-service/internal/infrastructure/logging"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNotScripted is returned for an address with no scripted answer when
// generation is off.
var ErrNotScripted = errors.New("mock source has no scripted answer")

// Sources is an in-process SourceResolver. Answers are scripted per address;
// in development mode unscripted addresses get synthetic but plausible data.
type Sources struct {
	mu       sync.Mutex
	ticks    map[common.Address][]*big.Int
	rounds   map[common.Address]*entities.RoundData
	errs     map[common.Address]error
	calls    map[common.Address]int
	hook     func(ctx context.Context, address common.Address)
	generate bool

	baseTick   int64   // average tick for generated pools
	baseAnswer int64   // answer for generated feeds, 8 decimals
	variance   float64 // relative spread of generated values
	roundID    map[common.Address]int64
	now        func() time.Time
}

// NewSources returns a resolver that only answers what was scripted.
func NewSources() *Sources {
	return &Sources{
		ticks:      make(map[common.Address][]*big.Int),
		rounds:     make(map[common.Address]*entities.RoundData),
		errs:       make(map[common.Address]error),
		calls:      make(map[common.Address]int),
		roundID:    make(map[common.Address]int64),
		baseTick:   200000,
		baseAnswer: 320000000000, // ~ $3200 at 8 decimals
		variance:   0.02,
		now:        time.Now,
	}
}

// NewDevelopmentSources returns a resolver that synthesizes answers for any
// address, for running the service without a chain.
func NewDevelopmentSources() *Sources {
	s := NewSources()
	s.generate = true
	return s
}

// SetTicks scripts the cumulative ticks returned by Observe.
func (s *Sources) SetTicks(address common.Address, ticks ...*big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks[address] = ticks
}

// SetRound scripts the round returned by LatestRoundData.
func (s *Sources) SetRound(address common.Address, round *entities.RoundData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[address] = round
}

// SetError makes every call to address fail with err. A nil err clears it.
func (s *Sources) SetError(address common.Address, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.errs, address)
		return
	}
	s.errs[address] = err
}

// OnCall registers a hook run at the start of every source call, outside
// the internal lock.
func (s *Sources) OnCall(hook func(ctx context.Context, address common.Address)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

// SetVariance configures the relative spread of generated values
func (s *Sources) SetVariance(variance float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variance = variance
}

// Calls returns how many calls address has received.
func (s *Sources) Calls(address common.Address) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[address]
}

func (s *Sources) TickSource(address common.Address) (interfaces.TickSource, error) {
	return &tickSource{parent: s, address: address}, nil
}

func (s *Sources) RoundFeed(address common.Address) (interfaces.RoundFeed, error) {
	return &roundFeed{parent: s, address: address}, nil
}

func (s *Sources) enter(ctx context.Context, address common.Address) error {
	s.mu.Lock()
	s.calls[address]++
	hook := s.hook
	err := s.errs[address]
	s.mu.Unlock()

	if hook != nil {
		hook(ctx, address)
	}
	return err
}

type tickSource struct {
	parent  *Sources
	address common.Address
}

func (t *tickSource) Observe(ctx context.Context, secondsAgos []uint32) ([]*big.Int, error) {
	s := t.parent
	if err := s.enter(ctx, t.address); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if scripted, ok := s.ticks[t.address]; ok {
		out := make([]*big.Int, len(scripted))
		for i, v := range scripted {
			out[i] = new(big.Int).Set(v)
		}
		return out, nil
	}
	if !s.generate {
		return nil, ErrNotScripted
	}

	// cumulative(x seconds ago) = tick * (now - x)
	spread := int64(float64(s.baseTick) * s.variance)
	tick := s.baseTick
	if spread > 0 {
		tick += rand.Int63n(2*spread+1) - spread
	}
	now := s.now().Unix()
	out := make([]*big.Int, len(secondsAgos))
	for i, ago := range secondsAgos {
		out[i] = big.NewInt(tick * (now - int64(ago)))
	}

	logging.Debug(ctx, "Mock pool generated observation", logging.Fields{
		logging.FieldSource: t.address.Hex(),
		"tick":              tick,
	})
	return out, nil
}

type roundFeed struct {
	parent  *Sources
	address common.Address
}

func (r *roundFeed) LatestRoundData(ctx context.Context) (*entities.RoundData, error) {
	s := r.parent
	if err := s.enter(ctx, r.address); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if scripted, ok := s.rounds[r.address]; ok {
		return cloneRound(scripted), nil
	}
	if !s.generate {
		return nil, ErrNotScripted
	}

	variation := (rand.Float64()*2 - 1) * s.variance
	answer := int64(float64(s.baseAnswer) * (1 + variation))
	s.roundID[r.address]++
	id := big.NewInt(s.roundID[r.address])
	now := big.NewInt(s.now().Unix())

	logging.Debug(ctx, "Mock feed generated round", logging.Fields{
		logging.FieldSource: r.address.Hex(),
		"answer":            answer,
		"round_id":          id.String(),
	})
	return &entities.RoundData{
		RoundID:         id,
		Answer:          big.NewInt(answer),
		StartedAt:       now,
		UpdatedAt:       new(big.Int).Set(now),
		AnsweredInRound: new(big.Int).Set(id),
	}, nil
}

func cloneRound(r *entities.RoundData) *entities.RoundData {
	c := &entities.RoundData{}
	for _, pair := range []struct {
		dst **big.Int
		src *big.Int
	}{
		{&c.RoundID, r.RoundID},
		{&c.Answer, r.Answer},
		{&c.StartedAt, r.StartedAt},
		{&c.UpdatedAt, r.UpdatedAt},
		{&c.AnsweredInRound, r.AnsweredInRound},
	} {
		if pair.src != nil {
			*pair.dst = new(big.Int).Set(pair.src)
		}
	}
	return c
}
