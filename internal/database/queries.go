package database

// Menu catalog queries
const (
	ResolveItemSQL = `
		SELECT item_id, name, price FROM food_items WHERE name = $1`

	ResolveItemsSQL = `
		SELECT item_id, name, price FROM food_items WHERE name = ANY($1)`
)

// Session cart queries
const (
	UpsertCartLineSQL = `
		INSERT INTO session_orders (session_id, item_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id, item_id)
		DO UPDATE SET quantity = session_orders.quantity + EXCLUDED.quantity`

	GetCartLineForUpdateSQL = `
		SELECT quantity FROM session_orders
		WHERE session_id = $1 AND item_id = $2
		FOR UPDATE`

	DecrementCartLineSQL = `
		UPDATE session_orders SET quantity = quantity - $3
		WHERE session_id = $1 AND item_id = $2`

	DeleteCartLineSQL = `
		DELETE FROM session_orders
		WHERE session_id = $1 AND item_id = $2`

	GetCartSQL = `
		SELECT f.name, s.quantity
		FROM session_orders s
		JOIN food_items f ON f.item_id = s.item_id
		WHERE s.session_id = $1
		ORDER BY f.name`

	ClearCartSQL = `
		DELETE FROM session_orders WHERE session_id = $1`
)

// Order ledger queries
const (
	LockCartForFinalizeSQL = `
		SELECT item_id, quantity FROM session_orders
		WHERE session_id = $1
		FOR UPDATE`

	ResolvedCartLinesSQL = `
		SELECT s.item_id, f.name, s.quantity, f.price
		FROM session_orders s
		JOIN food_items f ON f.item_id = s.item_id
		WHERE s.session_id = $1
		ORDER BY s.item_id`

	NextOrderIDSQL = `
		SELECT COALESCE(MAX(order_id), 0) + 1 FROM orders`

	InsertOrderLineSQL = `
		INSERT INTO orders (order_id, item_id, quantity, total_price)
		VALUES ($1, $2, $3, $4)`

	InsertOrderTrackingSQL = `
		INSERT INTO order_tracking (order_id, status)
		VALUES ($1, $2)`

	GetOrderStatusSQL = `
		SELECT status FROM order_tracking
		WHERE order_id = $1
		ORDER BY id DESC
		LIMIT 1`

	GetOrderTotalSQL = `
		SELECT COALESCE(SUM(total_price), 0) FROM orders WHERE order_id = $1`
)
