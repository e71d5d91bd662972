package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"auction-house/internal/auction"
	"auction-house/internal/models"
	"auction-house/utils"
)

// Target is the slice of the auction service the seeder drives
type Target interface {
	RegisterUser(username, password string) (*models.User, error)
	SetDisplayName(user *models.User, name string)
	SetAdmin(user *models.User, admin bool)
	CreateAuction(title, description string, startingPrice float64, duration time.Duration, owner *models.User) (*auction.Auction, error)
	ListActive() []models.AuctionView
	PlaceBid(auctionID int64, bidder *models.User, amount float64) (models.Bid, error)
}

var (
	categories = []string{"Collectible", "Electronics", "Luxury", "Antique", "Gadget", "Vehicle", "Accessory", "Artwork", "Jewelry", "Instrument"}
	suffixes   = []string{"Collection", "Series", "Edition", "Set", "Classic", "Piece"}
	firstNames = []string{
		"Alex", "Maya", "Liam", "Noah", "Olivia", "Emma", "Ava", "Sophia", "Isabella", "Mia",
		"Lucas", "Ethan", "James", "Amelia", "Harper", "Evelyn", "Charlotte", "Henry", "Logan", "Ryan",
		"Grace", "Chloe", "Zoe", "Luna", "Eli", "Oliver", "Jack", "Aria", "Nora", "Leah",
	}
	lastNames = []string{"Smith", "Johnson", "Brown", "Taylor", "Anderson"}
)

// MaxOwners is the number of distinct first.last combinations
var MaxOwners = len(firstNames) * len(lastNames)

const (
	AdminUsername = "admin"
	AdminPassword = "admin"

	adminEvery = 50
)

type Options struct {
	Auctions   int
	Bids       int
	RandomSeed int64 // zero picks a time-based seed
}

type Summary struct {
	Admin        *models.User
	Users        int
	Auctions     int
	BidsPlaced   int
	BidsRejected int
}

func (s Summary) String() string {
	return fmt.Sprintf("seeded %d users, %d auctions, %d bids (%d rejected)",
		s.Users, s.Auctions, s.BidsPlaced, s.BidsRejected)
}

// Seed fills target with demo users, auctions and opening bids
func Seed(target Target, opts Options) (Summary, error) {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(seed))

	var sum Summary

	admin, err := target.RegisterUser(AdminUsername, AdminPassword)
	if err != nil {
		return sum, fmt.Errorf("seed: admin: %w", err)
	}
	target.SetAdmin(admin, true)
	sum.Admin = admin
	sum.Users++

	ownerCount := min(opts.Auctions, MaxOwners)
	owners := make([]*models.User, 0, ownerCount)
	for u := 1; u <= ownerCount; u++ {
		first, last := ownerName(u)
		user, err := target.RegisterUser(strings.ToLower(first+"."+last), fmt.Sprintf("p%d", u))
		if err != nil {
			return sum, fmt.Errorf("seed: owner %d: %w", u, err)
		}
		target.SetDisplayName(user, first+" "+last)
		owners = append(owners, user)
		sum.Users++
	}

	for i := 1; i <= opts.Auctions; i++ {
		cat := categories[rnd.Intn(len(categories))]
		title := cat + " " + suffixes[rnd.Intn(len(suffixes))]
		desc := fmt.Sprintf("Demo %s item", strings.ToLower(cat))
		price := float64(100000 + rnd.Intn(900001))
		duration := time.Duration(1+rnd.Intn(7)) * time.Hour

		owner := owners[(i-1)%len(owners)]
		if i%adminEvery == 0 {
			owner = admin
		}

		if _, err := target.CreateAuction(title, desc, price, duration, owner); err != nil {
			return sum, fmt.Errorf("seed: auction %d: %w", i, err)
		}
		sum.Auctions++
	}

	active := target.ListActive()
	prices := make(map[int64]float64, len(active))
	for _, v := range active {
		prices[v.AuctionID] = v.CurrentPrice
	}
	for k := 0; k < opts.Bids && k < len(active) && len(owners) > 0; k++ {
		id := active[rnd.Intn(len(active))].AuctionID
		bidder := owners[rnd.Intn(len(owners))]
		amount := prices[id] + 5000 + float64(rnd.Intn(20000))

		bid, err := target.PlaceBid(id, bidder, amount)
		if err != nil {
			sum.BidsRejected++
			utils.Debug("seed: bid rejected", map[string]any{"auction_id": id, "error": err.Error()})
			continue
		}
		prices[id] = bid.Amount
		sum.BidsPlaced++
	}

	utils.Info("demo data seeded", map[string]any{
		"users":    sum.Users,
		"auctions": sum.Auctions,
		"bids":     sum.BidsPlaced,
		"seed":     seed,
	})
	return sum, nil
}

func ownerName(u int) (string, string) {
	first := firstNames[(u-1)%len(firstNames)]
	last := lastNames[((u-1)/len(firstNames))%len(lastNames)]
	return first, last
}
