package store

// SQL query constants organized by entity.
// All SQL lives here — PostgresStore methods reference these constants.

// Listing queries.
const (
	queryUpsertListing = `
		INSERT INTO listings (
			id, title, description, price, currency,
			seller_id, condition_value, is_refurbished,
			crawled_at, first_seen_at, updated_at
		) VALUES (
			@id, @title, @description, @price, @currency,
			@seller_id, @condition_value, @is_refurbished,
			@crawled_at, now(), now()
		)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			seller_id = EXCLUDED.seller_id,
			condition_value = COALESCE(EXCLUDED.condition_value, listings.condition_value),
			is_refurbished = COALESCE(EXCLUDED.is_refurbished, listings.is_refurbished),
			crawled_at = EXCLUDED.crawled_at,
			updated_at = now()
		RETURNING first_seen_at, updated_at`

	queryGetListing = `
		SELECT id, title, description, price, currency,
			seller_id, condition_value, is_refurbished,
			COALESCE(segment, ''), price_recovered, enrichment,
			crawled_at, first_seen_at, updated_at
		FROM listings
		WHERE id = $1`

	queryUpdateEnrichment = `
		UPDATE listings SET
			price = $2,
			price_recovered = $3,
			segment = $4,
			risk_score = $5,
			enrichment = $6,
			updated_at = now()
		WHERE id = $1`

	queryListUnscoredListings = `
		SELECT id, title, description, price, currency,
			seller_id, condition_value, is_refurbished,
			COALESCE(segment, ''), price_recovered, enrichment,
			crawled_at, first_seen_at, updated_at
		FROM listings
		WHERE risk_score IS NULL
		ORDER BY first_seen_at DESC
		LIMIT $1`

	queryListScoredSince = `
		SELECT id, title, description, price, currency,
			seller_id, condition_value, is_refurbished,
			COALESCE(segment, ''), price_recovered, enrichment,
			crawled_at, first_seen_at, updated_at
		FROM listings
		WHERE risk_score IS NOT NULL AND updated_at > $1
		ORDER BY updated_at ASC
		LIMIT $2`
)

// Statistics snapshot queries.
const (
	queryInsertStatsSnapshot = `
		INSERT INTO stats_snapshots (table_json, sample_count, cell_count)
		VALUES ($1, $2, $3)
		RETURNING id, built_at`

	queryGetLatestStatsSnapshot = `
		SELECT id, table_json, sample_count, cell_count, built_at
		FROM stats_snapshots
		ORDER BY built_at DESC
		LIMIT 1`
)

// Alert queries.
const (
	queryCreateAlert = `
		INSERT INTO alerts (listing_id, risk_score, risk_factors, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (listing_id) WHERE notified = false DO NOTHING
		RETURNING id, created_at`

	queryListPendingAlerts = `
		SELECT id, listing_id, risk_score, risk_factors, notified, notified_at, created_at
		FROM alerts
		WHERE notified = false
		ORDER BY created_at DESC`

	queryMarkAlertNotified = `
		UPDATE alerts SET
			notified = true,
			notified_at = now()
		WHERE id = $1`

	queryHasRecentAlert = `
		SELECT EXISTS (
			SELECT 1 FROM alerts
			WHERE listing_id = $1
			  AND notified = true
			  AND notified_at > $2
		)`
)

// State queries.
const (
	queryGetSystemState = `
		SELECT
			(SELECT COUNT(*) FROM listings) AS total_listings,
			(SELECT COUNT(*) FROM listings WHERE risk_score IS NULL) AS unscored_listings,
			(SELECT COUNT(*) FROM listings WHERE risk_score >= $1) AS high_risk_listings,
			(SELECT COUNT(*) FROM alerts WHERE notified = false) AS pending_alerts,
			(SELECT MAX(built_at) FROM stats_snapshots) AS last_snapshot_at`
)

// Scheduler queries.
const (
	queryInsertJobRun = `
		INSERT INTO job_runs (job_name)
		VALUES ($1)
		RETURNING id`

	queryCompleteJobRun = `
		UPDATE job_runs SET
			completed_at  = now(),
			status        = $2,
			error_text    = $3,
			rows_affected = $4
		WHERE id = $1`

	queryListJobRuns = `
		SELECT id, job_name, started_at, completed_at, status,
			COALESCE(error_text, ''), rows_affected
		FROM job_runs
		WHERE job_name = $1
		ORDER BY started_at DESC
		LIMIT $2`

	queryListLatestJobRuns = `
		SELECT DISTINCT ON (job_name)
			id, job_name, started_at, completed_at, status,
			COALESCE(error_text, ''), rows_affected
		FROM job_runs
		ORDER BY job_name, started_at DESC`

	queryMarkStaleJobRunsCrashed = `
		UPDATE job_runs SET
			status       = 'crashed',
			completed_at = now()
		WHERE status = 'running' AND started_at < $1`

	queryDeleteOldJobRuns = `
		DELETE FROM job_runs WHERE started_at < now() - interval '30 days'`

	queryAcquireSchedulerLock = `
		INSERT INTO scheduler_locks (job_name, lock_holder, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_name) DO UPDATE
			SET locked_at   = now(),
				lock_holder = EXCLUDED.lock_holder,
				expires_at  = EXCLUDED.expires_at
			WHERE scheduler_locks.expires_at < now()
		RETURNING job_name`

	queryReleaseSchedulerLock = `
		DELETE FROM scheduler_locks WHERE job_name = $1 AND lock_holder = $2`
)
