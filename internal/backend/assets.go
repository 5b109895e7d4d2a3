package backend

import (
	"context"

	"github.com/mtlprog/wealth/internal/domain"
)

func (c *Client) Assets(ctx context.Context) ([]domain.CustomAsset, error) {
	var out []domain.CustomAsset
	if err := c.get(ctx, "custom/assets", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Asset(ctx context.Context, assetID string) (*domain.CustomAsset, error) {
	var out domain.CustomAsset
	if err := c.get(ctx, pathf("custom/assets/%s", assetID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateAsset(ctx context.Context, form domain.NewCustomAsset) (*domain.CustomAsset, error) {
	var out domain.CustomAsset
	if err := c.post(ctx, "custom/assets", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAsset changes the description or currency of an asset. Events are
// managed through PutAssetEvent and DeleteAssetEvent.
func (c *Client) UpdateAsset(ctx context.Context, assetID string, edit domain.EditCustomAsset) (*domain.CustomAsset, error) {
	edit.Events = nil
	var out domain.CustomAsset
	if err := c.patch(ctx, pathf("custom/assets/%s", assetID), edit, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteAsset(ctx context.Context, assetID string) error {
	return c.delete(ctx, pathf("custom/assets/%s", assetID))
}

func (c *Client) AssetBalances(ctx context.Context, assetID string) ([]domain.BalancePoint, error) {
	var out []domain.BalancePoint
	if err := c.get(ctx, pathf("custom/assets/%s/balances", assetID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CustomBalances returns the aggregated value history of all custom assets.
func (c *Client) CustomBalances(ctx context.Context) ([]domain.BalancePoint, error) {
	var out []domain.BalancePoint
	if err := c.get(ctx, "custom/balances", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PutAssetEvent creates or replaces the valuation event for event.Date.
func (c *Client) PutAssetEvent(ctx context.Context, assetID string, event domain.AssetEvent) error {
	return c.put(ctx, pathf("custom/assets/%s/events", assetID), event, nil)
}

// DeleteAssetEvent removes the valuation event of the given day.
func (c *Client) DeleteAssetEvent(ctx context.Context, assetID, date string) error {
	day, err := domain.ParseDay(date)
	if err != nil {
		return err
	}
	return c.delete(ctx, pathf("custom/assets/%s/events/%s", assetID, domain.FormatDay(day)))
}
