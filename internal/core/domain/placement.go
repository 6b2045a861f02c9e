package domain

// Placement is what a customer submits to place an order.
type Placement struct {
	RestaurantID string
	Address      Address
	Items        []LineItem
}
