package cqrs

// ---------- User queries ----------

// GetUserQuery fetches a single user by ID, subject to ownership check.
type GetUserQuery struct {
	UserID           string
	RequestingUserID string
}

// ---------- Catalog and order queries ----------

type GetProductQuery struct {
	ProductID string
}

type GetOrderQuery struct {
	OrderID string
}

// ListOrdersQuery optionally narrows the listing to one user.
type ListOrdersQuery struct {
	UserID string
}

type GetInventoryItemQuery struct {
	ItemID string
}

// ListInventoryQuery optionally narrows the listing to one product.
type ListInventoryQuery struct {
	ProductID string
}

type GetPaymentQuery struct {
	PaymentID string
}

type GetNotificationQuery struct {
	NotificationID string
}
