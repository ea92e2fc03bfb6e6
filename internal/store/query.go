package store

import (
	"fmt"
	"strings"
)

const (
	defaultLimit = 50
	maxLimit     = 500

	orderByRisk      = "risk_score"
	orderByPrice     = "price"
	orderByFirstSeen = "first_seen_at"
)

// validOrderBy maps allowed OrderBy values to their SQL column expressions.
var validOrderBy = map[string]string{
	orderByRisk:      "risk_score DESC NULLS LAST",
	orderByPrice:     "price ASC",
	orderByFirstSeen: "first_seen_at DESC",
}

const defaultOrderBy = "first_seen_at DESC"

const baseListingsSelect = `SELECT id, title, description, price, currency,
	seller_id, condition_value, is_refurbished,
	COALESCE(segment, ''), price_recovered, enrichment,
	crawled_at, first_seen_at, updated_at
FROM listings`

const countListingsSelect = "SELECT COUNT(*) FROM listings"

// ToSQL builds the WHERE clause, ORDER BY, LIMIT, and OFFSET for a listing query.
// It returns two SQL strings (one for the data query, one for the count query)
// and the positional parameters.
func (q *ListingQuery) ToSQL() (dataSQL, countSQL string, args []any) {
	var conditions []string
	paramIdx := 1

	if q.MinRisk != nil {
		conditions = append(conditions, fmt.Sprintf("risk_score >= $%d", paramIdx))
		args = append(args, *q.MinRisk)
		paramIdx++
	}

	if q.MaxRisk != nil {
		conditions = append(conditions, fmt.Sprintf("risk_score <= $%d", paramIdx))
		args = append(args, *q.MaxRisk)
		paramIdx++
	}

	if q.Segment != nil {
		conditions = append(conditions, fmt.Sprintf("segment = $%d", paramIdx))
		args = append(args, *q.Segment)
		paramIdx++
	}

	if q.SellerID != nil {
		conditions = append(conditions, fmt.Sprintf("seller_id = $%d", paramIdx))
		args = append(args, *q.SellerID)
		paramIdx++
	}

	if q.PriceRecovered != nil {
		conditions = append(conditions, fmt.Sprintf("price_recovered = $%d", paramIdx))
		args = append(args, *q.PriceRecovered)
		paramIdx++
	}

	var whereClause string
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	// Order by
	orderClause := defaultOrderBy
	if q.OrderBy != "" {
		if col, ok := validOrderBy[q.OrderBy]; ok {
			orderClause = col
		}
	}

	// Limit
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset := max(q.Offset, 0)

	dataSQL = fmt.Sprintf(
		"%s%s ORDER BY %s LIMIT %d OFFSET %d",
		baseListingsSelect, whereClause, orderClause, limit, offset,
	)

	countSQL = countListingsSelect + whereClause

	return dataSQL, countSQL, args
}
