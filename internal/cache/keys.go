package cache

import "time"

// Report caches hold the JSON payload served to restaurant owners.
const (
	// report:customer_spends:{restaurant_id}:{range} -> JSON rows
	KeyCustomerSpends = "report:customer_spends:%d:%s"

	// report:item_popularity:{restaurant_id} -> JSON rows
	KeyItemPopularity = "report:item_popularity:%d"

	// report:customer_favorites:{restaurant_id} -> JSON rows
	KeyCustomerFavorites = "report:customer_favorites:%d"
)

var TTLReport = 5 * time.Minute
