package models

// TokenResponse is the body returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// PaymentIntentView is returned when a payment is started with the provider.
// ClientSecret lets the client confirm the intent; it is never stored.
type PaymentIntentView struct {
	Payment      *Payment `json:"payment"`
	ClientSecret string   `json:"client_secret"`
}
