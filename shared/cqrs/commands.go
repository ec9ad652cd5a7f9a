package cqrs

// ---------- User commands ----------

type RegisterUserCommand struct {
	Username    string
	Email       string
	Password    string
	PhoneNumber string
	Address     string
}

type UpdateUserCommand struct {
	UserID           string
	RequestingUserID string
	Username         string
	Email            string
	PhoneNumber      string
	Address          string
}

type DeleteUserCommand struct {
	UserID           string
	RequestingUserID string
}

type LoginCommand struct {
	Username string
	Password string
}

// ---------- Product commands ----------

type CreateProductCommand struct {
	Name        string
	Description string
	Price       float64
}

type UpdateProductCommand struct {
	ProductID   string
	Name        string
	Description string
	Price       float64
}

type DeleteProductCommand struct {
	ProductID string
}

// ---------- Order commands ----------

type CreateOrderCommand struct {
	UserID      string
	ProductID   string
	Quantity    int
	TotalAmount float64
}

type UpdateOrderCommand struct {
	OrderID     string
	Quantity    int
	TotalAmount float64
	Status      string
}

type DeleteOrderCommand struct {
	OrderID string
}

// ---------- Inventory commands ----------

type CreateInventoryItemCommand struct {
	ProductID string
	Quantity  int
	Location  string
}

type UpdateInventoryItemCommand struct {
	ItemID    string
	ProductID string
	Quantity  int
	Location  string
}

type DeleteInventoryItemCommand struct {
	ItemID string
}

// ---------- Payment commands ----------

type CreatePaymentCommand struct {
	Amount        float64
	Currency      string
	PaymentMethod string
}

type UpdatePaymentCommand struct {
	PaymentID     string
	Amount        float64
	Currency      string
	PaymentMethod string
	Status        string
}

type DeletePaymentCommand struct {
	PaymentID string
}

// CreatePaymentIntentCommand starts a payment with the provider.
type CreatePaymentIntentCommand struct {
	Amount        float64
	Currency      string
	PaymentMethod string
}

// HandleProviderWebhookCommand carries a raw provider callback for
// signature verification.
type HandleProviderWebhookCommand struct {
	Payload   []byte
	Signature string
}

// ---------- Notification commands ----------

type SendEmailCommand struct {
	RecipientEmail string
	Subject        string
	Message        string
}

type SendSMSCommand struct {
	PhoneNumber string
	Message     string
}

type DeleteNotificationCommand struct {
	NotificationID string
}
