package domain

// Account is a bank account linked through the bank-linking provider.
type Account struct {
	AccountID     string         `json:"account_id"`
	Source        string         `json:"source"`
	AccountNumber string         `json:"account_number"`
	Currency      string         `json:"currency"`
	Type          string         `json:"type"`
	Bank          string         `json:"bank"`
	BankAlias     string         `json:"bank_alias"`
	ExternalID    string         `json:"external_id"`
	Name          string         `json:"name"`
	IsActive      bool           `json:"is_active"`
	Balances      []BalancePoint `json:"balances,omitempty"`
}

// DisplayName returns the alias when set, the account name otherwise.
func (a Account) DisplayName() string {
	if a.BankAlias != "" {
		return a.BankAlias
	}
	return a.Name
}

// EditAccount is the partial update accepted by PATCH banking/accounts/{id}.
type EditAccount struct {
	IsActive  *bool   `json:"is_active,omitempty"`
	Name      *string `json:"name,omitempty"`
	BankAlias *string `json:"bank_alias,omitempty"`
}

// BankLinkParams selects the market and sandbox mode of the bank-linking flow.
type BankLinkParams struct {
	Market string `json:"market" validate:"omitempty,oneof=SE BE"`
	Test   bool   `json:"test"`
}

// DefaultMarket is used when no market is selected.
const DefaultMarket = "SE"

// BankLinkResponse carries the provider URL the user must be redirected to.
type BankLinkResponse struct {
	URL string `json:"url"`
}

// BankLinkCallback holds the query parameters the provider redirects back with.
type BankLinkCallback struct {
	Code          string `json:"code" validate:"required"`
	CredentialsID string `json:"credentials_id" validate:"required"`
}
