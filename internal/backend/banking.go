package backend

import (
	"context"
	"net/url"

	"github.com/mtlprog/wealth/internal/domain"
)

// Accounts lists the linked bank accounts without balances.
func (c *Client) Accounts(ctx context.Context) ([]domain.Account, error) {
	var out []domain.Account
	if err := c.get(ctx, "banking/accounts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Account fetches a single bank account.
func (c *Client) Account(ctx context.Context, accountID string) (*domain.Account, error) {
	var out domain.Account
	if err := c.get(ctx, pathf("banking/accounts/%s", accountID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAccount applies a partial update and returns the stored account.
func (c *Client) UpdateAccount(ctx context.Context, accountID string, edit domain.EditAccount) (*domain.Account, error) {
	var out domain.Account
	if err := c.patch(ctx, pathf("banking/accounts/%s", accountID), edit, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AccountBalances returns the balance history of one account.
func (c *Client) AccountBalances(ctx context.Context, accountID string) ([]domain.BalancePoint, error) {
	var out []domain.BalancePoint
	if err := c.get(ctx, pathf("banking/accounts/%s/balances", accountID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BankingBalances returns the aggregated balance history of all accounts.
func (c *Client) BankingBalances(ctx context.Context) ([]domain.BalancePoint, error) {
	var out []domain.BalancePoint
	if err := c.get(ctx, "banking/balances", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BankLink requests the provider URL that starts bank linking.
func (c *Client) BankLink(ctx context.Context, params domain.BankLinkParams) (*domain.BankLinkResponse, error) {
	market := params.Market
	if market == "" {
		market = domain.DefaultMarket
	}
	query := url.Values{"market": {market}}
	if params.Test {
		query.Set("test", "true")
	}
	var out domain.BankLinkResponse
	if err := c.get(ctx, "tink/bank", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompleteBankLink hands the provider callback parameters to the backend.
func (c *Client) CompleteBankLink(ctx context.Context, cb domain.BankLinkCallback) error {
	return c.post(ctx, "tink/callback", cb, nil)
}

// RefreshBankLink requests a provider URL that refreshes an existing link.
func (c *Client) RefreshBankLink(ctx context.Context, credentialsID string) (*domain.BankLinkResponse, error) {
	var out domain.BankLinkResponse
	if err := c.get(ctx, pathf("tink/bank/refresh/%s", credentialsID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
