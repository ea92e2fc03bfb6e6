package marketplace

import (
	"math"
	"strings"
	"time"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// ToListings converts search items into domain listings.
func ToListings(items []Item, crawledAt time.Time) []domain.Listing {
	listings := make([]domain.Listing, 0, len(items))
	for i := range items {
		listings = append(listings, ToListing(&items[i], crawledAt))
	}
	return listings
}

// ToListing converts one search item into a domain listing.
func ToListing(item *Item, crawledAt time.Time) domain.Listing {
	return domain.Listing{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Price:       item.Price,
		User:        item.User,
		CrawledAt:   crawledAt,
	}
}

// ApplyDetail merges the deep-fetch payload into a listing: structured
// condition and flags, plus the untruncated description when the search
// payload cut it short.
func ApplyDetail(l *domain.Listing, detail *ItemDetail) {
	if detail == nil {
		return
	}
	if detail.TypeAttributes != nil {
		l.TypeAttributes = detail.TypeAttributes
	}
	if detail.IsRefurbished != nil {
		l.IsRefurbished = detail.IsRefurbished
	}
	if detail.Flags != nil {
		l.Flags = detail.Flags
	}
	if d := detail.Description; d != nil && len(d.Original) > len(l.Description) {
		l.Description = d.Original
	}
}

// ToSellerProfile condenses the user profile and reviews into the shape the
// reputation pass consumes. Review scoring arrives on a 0-100 scale and is
// converted to 0-5 stars.
func ToSellerProfile(profile *UserProfile, reviews []Review, now time.Time) domain.SellerProfile {
	sp := domain.SellerProfile{}
	if profile == nil {
		return sp
	}

	sp.ScamReports = profile.ScamReports
	sp.TopSeller = isTopSeller(profile)

	if profile.RegisterDate > 0 {
		registered := time.UnixMilli(profile.RegisterDate)
		sp.AccountAgeDays = int(now.Sub(registered).Hours() / 24)
	}

	if len(reviews) > 0 {
		total := 0
		for _, r := range reviews {
			total += r.Review.Scoring
		}
		sp.ReviewCount = len(reviews)
		avg := float64(total) / float64(len(reviews)) / 100 * 5
		sp.AvgStars = math.Round(avg*100) / 100
	}

	return sp
}

func isTopSeller(profile *UserProfile) bool {
	if profile.Type == "pro" {
		return true
	}
	for _, b := range profile.Badges {
		if strings.Contains(strings.ToUpper(b), "TOP") {
			return true
		}
	}
	return false
}
