package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"ordernow/internal/apperrors"
	"ordernow/internal/cache"
	"ordernow/internal/database"
	"ordernow/internal/logger"
)

const dateLayout = "2006-01-02"

// CustomerSpend is one row of the customer-spends report
type CustomerSpend struct {
	UserEmail        string          `json:"user_email"`
	TotalAmountSpent decimal.Decimal `json:"total_amount_spent"`
}

// ItemPopularity is one row of the item-popularity report
type ItemPopularity struct {
	Item   string `json:"item"`
	Orders int64  `json:"orders"`
}

// CustomerFavorite is one row of the customer-favorites report
type CustomerFavorite struct {
	Email     string `json:"email"`
	ItemName  string `json:"item_name"`
	ItemCount int64  `json:"item_count"`
}

// Service provides read-only sales reports for restaurant owners.
// Results are cached in Redis; order history only grows, so a short
// TTL is an acceptable staleness bound.
type Service struct {
	db     *database.DB
	rdb    *redis.Client
	logger *logger.Logger
}

// NewService creates a new report service
func NewService(db *database.DB, rdb *redis.Client, log *logger.Logger) *Service {
	return &Service{
		db:     db,
		rdb:    rdb,
		logger: log,
	}
}

// authorize verifies that the actor owns an active restaurant
func (s *Service) authorize(ctx context.Context, actorID, restaurantID int64) error {
	var (
		isActive bool
		ownerID  int64
	)
	err := s.db.QueryRow(ctx, "SELECT is_active, owner_id FROM restaurants WHERE id = $1", restaurantID).
		Scan(&isActive, &ownerID)
	if err != nil {
		return apperrors.ErrNotFound
	}
	if !isActive {
		return apperrors.ErrNotFound
	}
	if ownerID != actorID {
		return apperrors.ErrPermission
	}
	return nil
}

// parseDateRange validates an optional date range filter. Both bounds
// must be supplied together in YYYY-MM-DD form, or neither. The range
// key distinguishes cache entries for different filters.
func parseDateRange(fromDate, toDate string) (from, to time.Time, rangeKey string, err error) {
	if (fromDate == "") != (toDate == "") {
		return from, to, "", apperrors.NewValidation("Params", "Please provide both 'from_date' and 'to_date'")
	}

	if fromDate == "" {
		return from, to, "all", nil
	}

	from, err = time.Parse(dateLayout, fromDate)
	if err == nil {
		to, err = time.Parse(dateLayout, toDate)
	}
	if err != nil {
		return from, to, "", apperrors.NewValidation("Params", "Dates must use the YYYY-MM-DD format")
	}

	return from, to, fromDate + "_" + toDate, nil
}

// CustomerSpends reports the total amount each customer spent at the
// restaurant, optionally restricted to a [from_date, to_date] range.
func (s *Service) CustomerSpends(ctx context.Context, actorID, restaurantID int64, fromDate, toDate string) (json.RawMessage, error) {
	if err := s.authorize(ctx, actorID, restaurantID); err != nil {
		return nil, err
	}

	from, to, rangeKey, err := parseDateRange(fromDate, toDate)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf(cache.KeyCustomerSpends, restaurantID, rangeKey)
	if payload, ok := s.cached(ctx, key); ok {
		return payload, nil
	}

	var rows pgx.Rows
	if fromDate != "" {
		// to_date is inclusive, so the upper bound is the following midnight
		rows, err = s.db.Query(ctx, database.CustomerSpendsRangeSQL, restaurantID, from, to.AddDate(0, 0, 1))
	} else {
		rows, err = s.db.Query(ctx, database.CustomerSpendsSQL, restaurantID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query customer spends: %w", err)
	}
	defer rows.Close()

	spends := []CustomerSpend{}
	for rows.Next() {
		var row CustomerSpend
		if err := rows.Scan(&row.UserEmail, &row.TotalAmountSpent); err != nil {
			return nil, fmt.Errorf("failed to scan customer spend row: %w", err)
		}
		spends = append(spends, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read customer spend rows: %w", err)
	}

	return s.store(ctx, key, spends)
}

// ItemPopularity reports how many distinct customers ordered each item
func (s *Service) ItemPopularity(ctx context.Context, actorID, restaurantID int64) (json.RawMessage, error) {
	if err := s.authorize(ctx, actorID, restaurantID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf(cache.KeyItemPopularity, restaurantID)
	if payload, ok := s.cached(ctx, key); ok {
		return payload, nil
	}

	rows, err := s.db.Query(ctx, database.ItemPopularitySQL, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query item popularity: %w", err)
	}
	defer rows.Close()

	popularity := []ItemPopularity{}
	for rows.Next() {
		var row ItemPopularity
		if err := rows.Scan(&row.Item, &row.Orders); err != nil {
			return nil, fmt.Errorf("failed to scan item popularity row: %w", err)
		}
		popularity = append(popularity, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read item popularity rows: %w", err)
	}

	return s.store(ctx, key, popularity)
}

// CustomerFavorites reports each customer's most-ordered item
func (s *Service) CustomerFavorites(ctx context.Context, actorID, restaurantID int64) (json.RawMessage, error) {
	if err := s.authorize(ctx, actorID, restaurantID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf(cache.KeyCustomerFavorites, restaurantID)
	if payload, ok := s.cached(ctx, key); ok {
		return payload, nil
	}

	rows, err := s.db.Query(ctx, database.CustomerFavoritesSQL, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer favorites: %w", err)
	}
	defer rows.Close()

	favorites := []CustomerFavorite{}
	for rows.Next() {
		var row CustomerFavorite
		if err := rows.Scan(&row.Email, &row.ItemName, &row.ItemCount); err != nil {
			return nil, fmt.Errorf("failed to scan customer favorite row: %w", err)
		}
		favorites = append(favorites, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read customer favorite rows: %w", err)
	}

	return s.store(ctx, key, favorites)
}

func (s *Service) cached(ctx context.Context, key string) (json.RawMessage, bool) {
	if s.rdb == nil {
		return nil, false
	}
	payload, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Debug("cache_read_failed", "Failed to read report cache", "", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return nil, false
	}
	return payload, true
}

func (s *Service) store(ctx context.Context, key string, v interface{}) (json.RawMessage, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	if s.rdb != nil {
		if err := s.rdb.Set(ctx, key, payload, cache.TTLReport).Err(); err != nil {
			s.logger.Debug("cache_write_failed", "Failed to write report cache", "", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	return payload, nil
}
