package auctionsvc

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"auction-house/internal/auction"
	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/registry"
	"auction-house/internal/repository"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// settableClock is shared by the service and the repository under test
type settableClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *settableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *settableClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newTestService wires a service over the real in-memory stores
func newTestService() (*AuctionService, *settableClock) {
	clock := &settableClock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	repo := repository.NewMemoryRepoWithClock(clock.Now)
	return NewAuctionService(registry.NewRegistry(), repo, WithClock(clock.Now)), clock
}

// Tests PlaceBid against a mocked store
func TestAuctionService_PlaceBid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := repository.NewMockAuctionDB(ctrl)
	service := NewAuctionService(registry.NewRegistry(), mockRepo)

	now := time.Now().UTC()
	owner := models.NewUser(1, "owner", "pw")
	bidder := models.NewUser(2, "bidder", "pw")

	newOpen := func(price float64) *auction.Auction {
		return auction.New(1, "Camera", "desc", price, owner, now, now.Add(time.Hour), nil)
	}
	closed := newOpen(10)
	closed.Close()

	// Table-driven test cases
	tests := []struct {
		name          string
		auctionID     int64
		bidder        *models.User
		amount        float64
		mockSetup     func()
		expectError   bool
		expectedError error
	}{
		{
			name:      "valid_first_bid",
			auctionID: 1,
			bidder:    bidder,
			amount:    100,
			mockSetup: func() {
				mockRepo.EXPECT().GetAuction(int64(1)).Return(newOpen(50), nil)
			},
			expectError: false,
		},
		{
			name:          "missing_bidder",
			auctionID:     1,
			bidder:        nil,
			amount:        100,
			mockSetup:     func() {},
			expectError:   true,
			expectedError: auctionerrors.ErrInvalidInput,
		},
		{
			name:          "nan_amount",
			auctionID:     1,
			bidder:        bidder,
			amount:        math.NaN(),
			mockSetup:     func() {},
			expectError:   true,
			expectedError: auctionerrors.ErrInvalidInput,
		},
		{
			name:          "infinite_amount",
			auctionID:     1,
			bidder:        bidder,
			amount:        math.Inf(1),
			mockSetup:     func() {},
			expectError:   true,
			expectedError: auctionerrors.ErrInvalidInput,
		},
		{
			name:      "auction_not_found",
			auctionID: 42,
			bidder:    bidder,
			amount:    100,
			mockSetup: func() {
				mockRepo.EXPECT().GetAuction(int64(42)).Return(nil, auctionerrors.ErrAuctionNotFound)
			},
			expectError:   true,
			expectedError: auctionerrors.ErrAuctionNotFound,
		},
		{
			name:      "bid_too_low",
			auctionID: 1,
			bidder:    bidder,
			amount:    80,
			mockSetup: func() {
				mockRepo.EXPECT().GetAuction(int64(1)).Return(newOpen(100), nil)
			},
			expectError:   true,
			expectedError: auctionerrors.ErrBidTooLow,
		},
		{
			name:      "bid_equal_to_price",
			auctionID: 1,
			bidder:    bidder,
			amount:    100,
			mockSetup: func() {
				mockRepo.EXPECT().GetAuction(int64(1)).Return(newOpen(100), nil)
			},
			expectError:   true,
			expectedError: auctionerrors.ErrBidRejected,
		},
		{
			name:      "auction_closed",
			auctionID: 1,
			bidder:    bidder,
			amount:    1000,
			mockSetup: func() {
				mockRepo.EXPECT().GetAuction(int64(1)).Return(closed, nil)
			},
			expectError:   true,
			expectedError: auctionerrors.ErrAuctionClosed,
		},
		{
			name:      "owner_may_bid",
			auctionID: 1,
			bidder:    owner,
			amount:    math.MaxFloat64,
			mockSetup: func() {
				mockRepo.EXPECT().GetAuction(int64(1)).Return(newOpen(100), nil)
			},
			expectError: false,
		},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			bid, err := service.PlaceBid(tc.auctionID, tc.bidder, tc.amount)

			if tc.expectError {
				require.Error(t, err)
				if tc.expectedError != nil {
					require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
				}
				return
			}
			require.NoError(t, err)

			// Validate generated BidID
			require.NotEmpty(t, bid.BidID)
			_, parseErr := uuid.Parse(bid.BidID)
			require.NoError(t, parseErr, "BidID should be a valid UUID")

			require.Same(t, tc.bidder, bid.Bidder)
			require.Equal(t, tc.amount, bid.Amount)
			require.WithinDuration(t, now, bid.PlacedAt, 2*time.Second)
		})
	}
}

// Tests CreateAuction
func TestAuctionService_CreateAuction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := repository.NewMockAuctionDB(ctrl)
	fixedNow := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return fixedNow }
	service := NewAuctionService(registry.NewRegistry(), mockRepo, WithClock(clock))
	owner := models.NewUser(1, "alice", "a")

	tests := []struct {
		name          string
		title         string
		startingPrice float64
		duration      time.Duration
		owner         *models.User
		mockSetup     func()
		expectedError error
	}{
		{
			name:          "valid_auction",
			title:         "Vintage Camera",
			startingPrice: 50,
			duration:      2 * time.Minute,
			owner:         owner,
			mockSetup: func() {
				mockRepo.EXPECT().
					CreateAuction(repository.NewAuction{
						Title:         "Vintage Camera",
						Description:   "desc",
						StartingPrice: 50,
						Owner:         owner,
						CreatedAt:     fixedNow,
						EndsAt:        fixedNow.Add(2 * time.Minute),
					}).
					Return(auction.New(1, "Vintage Camera", "desc", 50, owner, fixedNow, fixedNow.Add(2*time.Minute), clock))
			},
		},
		{
			name:          "zero_starting_price",
			title:         "Free Item",
			startingPrice: 0,
			duration:      time.Hour,
			owner:         owner,
			mockSetup: func() {
				mockRepo.EXPECT().CreateAuction(gomock.Any()).
					Return(auction.New(2, "Free Item", "desc", 0, owner, fixedNow, fixedNow.Add(time.Hour), clock))
			},
		},
		{name: "missing_owner", title: "x", startingPrice: 1, duration: time.Hour, owner: nil, mockSetup: func() {}, expectedError: auctionerrors.ErrInvalidInput},
		{name: "blank_title", title: "  ", startingPrice: 1, duration: time.Hour, owner: owner, mockSetup: func() {}, expectedError: auctionerrors.ErrInvalidInput},
		{name: "negative_price", title: "x", startingPrice: -1, duration: time.Hour, owner: owner, mockSetup: func() {}, expectedError: auctionerrors.ErrInvalidInput},
		{name: "nan_price", title: "x", startingPrice: math.NaN(), duration: time.Hour, owner: owner, mockSetup: func() {}, expectedError: auctionerrors.ErrInvalidInput},
		{name: "zero_duration", title: "x", startingPrice: 1, duration: 0, owner: owner, mockSetup: func() {}, expectedError: auctionerrors.ErrInvalidInput},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			a, err := service.CreateAuction(tc.title, "desc", tc.startingPrice, tc.duration, tc.owner)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				require.Nil(t, a)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.title, a.Title())
			require.Equal(t, models.StatusOpen, a.Status())
		})
	}
}

// Tests ListActive
func TestAuctionService_ListActive(t *testing.T) {
	t.Parallel()

	t.Run("sweeps_before_listing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockRepo := repository.NewMockAuctionDB(ctrl)
		service := NewAuctionService(registry.NewRegistry(), mockRepo)

		now := time.Now()
		owner := models.NewUser(1, "owner", "pw")
		open := auction.New(1, "open", "", 1, owner, now, now.Add(time.Hour), nil)
		closed := auction.New(2, "closed", "", 1, owner, now, now.Add(time.Hour), nil)
		closed.Close()
		expired := auction.New(3, "expired", "", 1, owner, now.Add(-2*time.Hour), now.Add(-time.Hour), nil)

		gomock.InOrder(
			mockRepo.EXPECT().ExpireAuctions().Return(1),
			mockRepo.EXPECT().ListAuctions().Return([]*auction.Auction{open, closed, expired}),
		)

		active := service.ListActive()
		require.Len(t, active, 1)
		require.Equal(t, int64(1), active[0].AuctionID)
	})

	t.Run("expired_auctions_drop_out", func(t *testing.T) {
		t.Parallel()

		service, clock := newTestService()
		owner, err := service.RegisterUser("alice", "a")
		require.NoError(t, err)

		short, err := service.CreateAuction("short", "", 10, time.Minute, owner)
		require.NoError(t, err)
		long, err := service.CreateAuction("long", "", 10, time.Hour, owner)
		require.NoError(t, err)

		require.Len(t, service.ListActive(), 2)

		clock.Advance(2 * time.Minute)
		active := service.ListActive()
		require.Len(t, active, 1)
		require.Equal(t, long.ID(), active[0].AuctionID)
		require.Equal(t, models.StatusClosed, short.Status())
	})

	t.Run("stable_order", func(t *testing.T) {
		t.Parallel()

		service, _ := newTestService()
		owner, err := service.RegisterUser("alice", "a")
		require.NoError(t, err)
		for i := 0; i < 20; i++ {
			_, err := service.CreateAuction(fmt.Sprintf("item %d", i), "", 10, time.Hour, owner)
			require.NoError(t, err)
		}

		first := service.ListActive()
		second := service.ListActive()
		require.Equal(t, first, second)
		require.True(t, sort.SliceIsSorted(first, func(i, j int) bool { return first[i].AuctionID < first[j].AuctionID }))
	})
}

// Scenario: register, wrong password, right password returns the same user
func TestAuctionService_RegisterAndLogin(t *testing.T) {
	t.Parallel()

	service, _ := newTestService()

	alice, err := service.RegisterUser("alice", "pw1")
	require.NoError(t, err)

	_, err = service.Login("alice", "wrong")
	require.ErrorIs(t, err, auctionerrors.ErrInvalidCredentials)

	_, err = service.Login("bob", "pw1")
	require.ErrorIs(t, err, auctionerrors.ErrInvalidCredentials)

	got, err := service.Login("alice", "pw1")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)

	_, err = service.RegisterUser("alice", "other")
	require.ErrorIs(t, err, auctionerrors.ErrDuplicateUsername)
	got, err = service.Login("alice", "pw1")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)

	_, err = service.RegisterUser("   ", "pw")
	require.ErrorIs(t, err, auctionerrors.ErrInvalidInput)

	found, ok := service.GetUserByName("alice")
	require.True(t, ok)
	require.Same(t, alice, found)

	service.SetDisplayName(alice, "Alice Smith")
	service.SetAdmin(alice, true)
	require.Equal(t, "Alice Smith", found.DisplayName())
	require.True(t, found.IsAdmin())
}

// Scenario: two auctions, unknown id, close twice
func TestAuctionService_CloseAuction(t *testing.T) {
	t.Parallel()

	service, _ := newTestService()
	owner, err := service.RegisterUser("alice", "a")
	require.NoError(t, err)

	first, err := service.CreateAuction("Vintage Camera", "Old film camera, working", 50, 2*time.Minute, owner)
	require.NoError(t, err)
	_, err = service.CreateAuction("Mountain Bike", "Good condition", 100, 5*time.Minute, owner)
	require.NoError(t, err)

	require.False(t, service.CloseAuction(999))
	require.True(t, service.CloseAuction(first.ID()))
	require.False(t, service.CloseAuction(first.ID()))

	_, err = service.PlaceBid(first.ID(), owner, 1000)
	require.ErrorIs(t, err, auctionerrors.ErrAuctionClosed)
	require.True(t, IsBidRejected(err))

	_, err = service.GetAuction(999)
	require.ErrorIs(t, err, auctionerrors.ErrAuctionNotFound)
	require.False(t, IsBidRejected(err))
}

func TestAuctionService_CloseAndAnnounce(t *testing.T) {
	t.Parallel()

	service, _ := newTestService()
	owner, err := service.RegisterUser("alice", "a")
	require.NoError(t, err)
	bob, err := service.RegisterUser("bob", "b")
	require.NoError(t, err)
	service.SetDisplayName(bob, "Bob Brown")

	sold, err := service.CreateAuction("Vintage Camera", "", 50, time.Hour, owner)
	require.NoError(t, err)
	unsold, err := service.CreateAuction("Mountain Bike", "", 100, time.Hour, owner)
	require.NoError(t, err)

	_, err = service.PlaceBid(sold.ID(), bob, 60)
	require.NoError(t, err)
	_, err = service.PlaceBid(sold.ID(), bob, 75.5)
	require.NoError(t, err)

	msg, ok := service.CloseAndAnnounce(sold.ID())
	require.True(t, ok)
	require.Equal(t, "Auction 'Vintage Camera' won by Bob Brown (75.50) with 2 bids", msg)

	msg, ok = service.CloseAndAnnounce(unsold.ID())
	require.True(t, ok)
	require.Equal(t, "Auction 'Mountain Bike' closed with no bids.", msg)

	_, ok = service.CloseAndAnnounce(sold.ID())
	require.False(t, ok)
	_, ok = service.CloseAndAnnounce(12345)
	require.False(t, ok)

	require.Equal(t, []string{
		"Auction 'Vintage Camera' won by Bob Brown (75.50) with 2 bids",
		"Auction 'Mountain Bike' closed with no bids.",
	}, service.Announcements())
}

func TestAuctionService_ConcurrentBids(t *testing.T) {
	t.Parallel()

	service, _ := newTestService()
	owner, err := service.RegisterUser("owner", "pw")
	require.NoError(t, err)
	a, err := service.CreateAuction("Shared Item", "", 0, time.Hour, owner)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := service.RegisterUser(fmt.Sprintf("user-%d", i), "pw")
			if !assert.NoError(t, err) {
				return
			}
			_, err = service.PlaceBid(a.ID(), u, float64(i))
			if err != nil {
				assert.ErrorIs(t, err, auctionerrors.ErrBidTooLow)
			}
		}(i)
	}
	wg.Wait()

	bids := a.Bids()
	require.NotEmpty(t, bids)
	for i := 1; i < len(bids); i++ {
		require.Greater(t, bids[i].Amount, bids[i-1].Amount)
	}
	require.Equal(t, 100.0, a.CurrentPrice())
}

func TestDeadlinePolicies(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("fixed_duration", func(t *testing.T) {
		t.Parallel()

		endsAt, err := FixedDuration{}.EndsAt(created, 90*time.Second)
		require.NoError(t, err)
		require.Equal(t, created.Add(90*time.Second), endsAt)

		_, err = FixedDuration{}.EndsAt(created, -time.Second)
		require.ErrorIs(t, err, auctionerrors.ErrInvalidInput)
	})

	t.Run("random_deadline_range", func(t *testing.T) {
		t.Parallel()

		p := NewRandomDeadline(42)
		for i := 0; i < 500; i++ {
			endsAt, err := p.EndsAt(created, time.Second)
			require.NoError(t, err)
			require.True(t, !endsAt.Before(created.Add(24*time.Hour)), "ends too early: %s", endsAt)
			require.True(t, endsAt.Before(created.Add(31*24*time.Hour)), "ends too late: %s", endsAt)
		}
	})

	t.Run("random_deadline_is_seeded", func(t *testing.T) {
		t.Parallel()

		a, b := NewRandomDeadline(7), NewRandomDeadline(7)
		for i := 0; i < 10; i++ {
			ea, _ := a.EndsAt(created, 0)
			eb, _ := b.EndsAt(created, 0)
			require.Equal(t, ea, eb)
		}
	})

	t.Run("zero_seed_is_time_based", func(t *testing.T) {
		t.Parallel()

		fixed := &RandomDeadline{rnd: rand.New(rand.NewSource(0))}
		unseeded := NewRandomDeadline(0)
		same := 0
		for i := 0; i < 10; i++ {
			ea, _ := fixed.EndsAt(created, 0)
			eb, _ := unseeded.EndsAt(created, 0)
			if ea.Equal(eb) {
				same++
			}
		}
		require.Less(t, same, 10, "seed 0 must not replay the zero-seed sequence")
	})

	t.Run("parse", func(t *testing.T) {
		t.Parallel()

		p, err := ParseDeadlinePolicy("", 1)
		require.NoError(t, err)
		require.IsType(t, FixedDuration{}, p)

		p, err = ParseDeadlinePolicy(" Random ", 1)
		require.NoError(t, err)
		require.IsType(t, &RandomDeadline{}, p)

		_, err = ParseDeadlinePolicy("weekly", 1)
		require.ErrorIs(t, err, auctionerrors.ErrInvalidInput)
	})

	t.Run("service_uses_policy", func(t *testing.T) {
		t.Parallel()

		repo := repository.NewMemoryRepo()
		service := NewAuctionService(registry.NewRegistry(), repo,
			WithDeadlinePolicy(NewRandomDeadline(3)),
			WithClock(func() time.Time { return created }))
		owner := models.NewUser(1, "o", "p")

		// Requested duration is ignored by the random policy, even when zero
		a, err := service.CreateAuction("demo", "", 1, 0, owner)
		require.NoError(t, err)
		require.True(t, a.EndsAt().After(created.Add(24*time.Hour-time.Second)))
	})
}
