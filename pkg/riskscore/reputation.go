package riskscore

import (
	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// Reputation adjustment thresholds.
const (
	trustedMinReviews = 5
	trustedMinStars   = 4.5
	newAccountDays    = 3
	dormantDays       = 365

	bonusTrusted    = -30
	bonusTopSeller  = -50
	penaltyNewAcct  = 30
	penaltyDormant  = 20
	scamReportScore = 100
)

// AdjustForSeller applies the seller reputation pass to an existing result,
// in place. Scam reports are absolute: any report pins the score at 100
// regardless of everything else. The final score stays clamped to [0, 100].
func AdjustForSeller(res *domain.RiskResult, seller domain.SellerProfile) {
	if res == nil {
		return
	}

	if seller.ScamReports > 0 {
		res.RiskScore = scamReportScore
		res.RiskFactors = append(res.RiskFactors, "seller has scam reports")
		return
	}

	score := res.RiskScore
	if seller.ReviewCount > trustedMinReviews && seller.AvgStars >= trustedMinStars {
		score += bonusTrusted
		res.RiskFactors = append(res.RiskFactors, "established seller with good reviews")
	}
	if seller.TopSeller {
		score += bonusTopSeller
		res.RiskFactors = append(res.RiskFactors, "top seller")
	}
	if seller.AccountAgeDays < newAccountDays {
		score += penaltyNewAcct
		res.RiskFactors = append(res.RiskFactors, "account created days ago")
	}
	if seller.AccountAgeDays > dormantDays && seller.ReviewCount == 0 {
		score += penaltyDormant
		res.RiskFactors = append(res.RiskFactors, "old account with no sales history")
	}

	res.RiskScore = clamp(score)
}
