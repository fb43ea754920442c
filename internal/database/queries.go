package database

// User queries
const (
	GetUserByIDSQL = `
		SELECT id, email, username, full_name, phone_number, street_address,
			   city, state, zipcode, balance, is_restaurant_owner, is_active
		FROM users WHERE id = $1 AND is_active = TRUE`

	LockUserSQL = `
		SELECT id, email, username, full_name, phone_number, street_address,
			   city, state, zipcode, balance, is_restaurant_owner, is_active
		FROM users WHERE id = $1 AND is_active = TRUE
		FOR UPDATE`

	UpdateUserBalanceSQL = `
		UPDATE users SET balance = $1 WHERE id = $2`
)

// Restaurant and menu queries
const (
	GetRestaurantSQL = `
		SELECT id, name, is_active, owner_id
		FROM restaurants WHERE id = $1`

	LockMenuItemSQL = `
		SELECT m.id, m.name, m.price, m.quantity, m.restaurant_id, r.is_active
		FROM menus m
		JOIN restaurants r ON r.id = m.restaurant_id
		WHERE m.id = $1
		FOR UPDATE OF m`

	DecrementMenuQuantitySQL = `
		UPDATE menus SET quantity = quantity - $1 WHERE id = $2`
)

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (status, restaurant_id, customer_id, total_amount, address, contact)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, order_datetime`

	FinalizeOrderSQL = `
		UPDATE orders SET total_amount = $1, address = $2, contact = $3
		WHERE id = $4`

	InsertOrderItemSQL = `
		INSERT INTO order_items (order_id, item_id, price, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	GetOrderSQL = `
		SELECT id, status, restaurant_id, customer_id, order_datetime, total_amount, address, contact
		FROM orders WHERE id = $1`

	LockOrderSQL = `
		SELECT id, status, restaurant_id, customer_id, order_datetime, total_amount, address, contact
		FROM orders WHERE id = $1
		FOR UPDATE`

	UpdateOrderStatusSQL = `
		UPDATE orders SET status = $1 WHERE id = $2`

	GetOrderItemsSQL = `
		SELECT oi.id, oi.order_id, oi.item_id, m.name, oi.price, oi.quantity
		FROM order_items oi
		JOIN menus m ON m.id = oi.item_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`

	ListOrdersByCustomerSQL = `
		SELECT id, status, restaurant_id, customer_id, order_datetime, total_amount, address, contact
		FROM orders WHERE customer_id = $1
		ORDER BY id`

	ListOrdersByRestaurantSQL = `
		SELECT id, status, restaurant_id, customer_id, order_datetime, total_amount, address, contact
		FROM orders WHERE restaurant_id = $1
		ORDER BY id`
)

// Report queries
const (
	CustomerSpendsSQL = `
		SELECT u.email, SUM(o.total_amount) AS total_amount_spent
		FROM orders o
		JOIN users u ON u.id = o.customer_id
		WHERE o.restaurant_id = $1
		GROUP BY u.email
		ORDER BY u.email`

	CustomerSpendsRangeSQL = `
		SELECT u.email, SUM(o.total_amount) AS total_amount_spent
		FROM orders o
		JOIN users u ON u.id = o.customer_id
		WHERE o.restaurant_id = $1 AND o.order_datetime >= $2 AND o.order_datetime < $3
		GROUP BY u.email
		ORDER BY u.email`

	ItemPopularitySQL = `
		SELECT m.name, COUNT(DISTINCT o.customer_id) AS orders
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		JOIN menus m ON m.id = oi.item_id
		WHERE o.restaurant_id = $1
		GROUP BY m.name
		ORDER BY orders, m.name`

	CustomerFavoritesSQL = `
		SELECT email, item_name, item_count FROM (
			SELECT u.email, m.name AS item_name, COUNT(oi.id) AS item_count,
				   ROW_NUMBER() OVER (PARTITION BY u.email ORDER BY COUNT(oi.id) DESC, m.name) AS rn
			FROM users u
			JOIN orders o ON o.customer_id = u.id
			JOIN order_items oi ON oi.order_id = o.id
			JOIN menus m ON m.id = oi.item_id
			WHERE o.restaurant_id = $1
			GROUP BY u.email, m.name
		) ranked
		WHERE rn = 1
		ORDER BY email`
)
