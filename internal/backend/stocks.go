package backend

import (
	"context"

	"github.com/mtlprog/wealth/internal/domain"
)

func (c *Client) Positions(ctx context.Context) ([]domain.StockPosition, error) {
	var out []domain.StockPosition
	if err := c.get(ctx, "stocks/positions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Position(ctx context.Context, positionID string) (*domain.StockPosition, error) {
	var out domain.StockPosition
	if err := c.get(ctx, pathf("stocks/positions/%s", positionID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePosition(ctx context.Context, form domain.NewStockPosition) (*domain.StockPosition, error) {
	var out domain.StockPosition
	if err := c.post(ctx, "stocks/positions", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePosition(ctx context.Context, positionID string, edit domain.EditStockPosition) (*domain.StockPosition, error) {
	var out domain.StockPosition
	if err := c.patch(ctx, pathf("stocks/positions/%s", positionID), edit, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PositionBalances(ctx context.Context, positionID string) ([]domain.BalancePoint, error) {
	var out []domain.BalancePoint
	if err := c.get(ctx, pathf("stocks/positions/%s/balances", positionID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StockBalances returns the aggregated value history of all positions.
func (c *Client) StockBalances(ctx context.Context) ([]domain.BalancePoint, error) {
	var out []domain.BalancePoint
	if err := c.get(ctx, "stocks/balances", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchTicker looks up tickers matching query.
func (c *Client) SearchTicker(ctx context.Context, query string) ([]domain.TickerSearchItem, error) {
	var out []domain.TickerSearchItem
	if err := c.get(ctx, pathf("stocks/search/%s", query), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
