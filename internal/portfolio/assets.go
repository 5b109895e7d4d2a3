package portfolio

import (
	"context"
	"strings"

	"github.com/mtlprog/wealth/internal/domain"
)

// Assets fetches the custom asset list into the store.
func (s *Service) Assets(ctx context.Context) ([]domain.CustomAsset, error) {
	assets, err := s.api.Assets(ctx)
	if err != nil {
		return nil, s.wrap(err, "fetching assets")
	}
	s.reg.Assets.UpsertMany(assets)
	return s.reg.Assets.All(), nil
}

// AssetsWithBalances fetches the asset list, then every asset's balances.
func (s *Service) AssetsWithBalances(ctx context.Context) ([]domain.CustomAsset, error) {
	assets, err := s.Assets(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(assets))
	for i, a := range assets {
		ids[i] = a.AssetID
	}
	err = s.fanOut(ids, func(id string) error {
		points, err := s.api.AssetBalances(ctx, id)
		if err != nil {
			return s.wrap(err, "fetching balances of asset %s", id)
		}
		s.reg.Assets.SetBalances(id, points)
		return nil
	})
	return s.reg.Assets.All(), err
}

// Asset fetches one asset record, then its balances.
func (s *Service) Asset(ctx context.Context, assetID string) (domain.CustomAsset, error) {
	asset, err := s.api.Asset(ctx, assetID)
	if err != nil {
		return domain.CustomAsset{}, s.wrap(err, "fetching asset %s", assetID)
	}
	return s.withAssetBalances(ctx, *asset)
}

func (s *Service) withAssetBalances(ctx context.Context, asset domain.CustomAsset) (domain.CustomAsset, error) {
	s.reg.Assets.Upsert(asset)
	points, err := s.api.AssetBalances(ctx, asset.AssetID)
	if err != nil {
		return asset, s.wrap(err, "fetching balances of asset %s", asset.AssetID)
	}
	asset.Balances = nonNil(points)
	s.reg.Assets.Upsert(asset)
	return asset, nil
}

// CreateAsset validates and creates an asset, then fetches its balances.
// An empty currency defaults to EUR.
func (s *Service) CreateAsset(ctx context.Context, form domain.NewCustomAsset) (domain.CustomAsset, error) {
	form.Description = strings.TrimSpace(form.Description)
	if form.Currency == "" {
		form.Currency = domain.DefaultCurrency
	}
	if err := domain.Validate(form); err != nil {
		return domain.CustomAsset{}, err
	}
	asset, err := s.api.CreateAsset(ctx, form)
	if err != nil {
		return domain.CustomAsset{}, s.wrap(err, "creating asset")
	}
	return s.withAssetBalances(ctx, *asset)
}

// EditAsset changes the description or currency of an asset.
func (s *Service) EditAsset(ctx context.Context, assetID string, edit domain.EditCustomAsset) (domain.CustomAsset, error) {
	if _, err := s.api.UpdateAsset(ctx, assetID, edit); err != nil {
		return domain.CustomAsset{}, s.wrap(err, "updating asset %s", assetID)
	}
	return s.Asset(ctx, assetID)
}

// DeleteAsset deletes an asset and drops it from the store.
func (s *Service) DeleteAsset(ctx context.Context, assetID string) error {
	if err := s.api.DeleteAsset(ctx, assetID); err != nil {
		return s.wrap(err, "deleting asset %s", assetID)
	}
	s.reg.Assets.Remove(assetID)
	return nil
}

// PutAssetEvent records a valuation event and re-fetches the asset.
func (s *Service) PutAssetEvent(ctx context.Context, assetID string, event domain.AssetEvent) (domain.CustomAsset, error) {
	if err := domain.Validate(event); err != nil {
		return domain.CustomAsset{}, err
	}
	if err := s.api.PutAssetEvent(ctx, assetID, event); err != nil {
		return domain.CustomAsset{}, s.wrap(err, "saving event %s of asset %s", event.Date, assetID)
	}
	return s.Asset(ctx, assetID)
}

// DeleteAssetEvent removes the valuation event of date and re-fetches the asset.
func (s *Service) DeleteAssetEvent(ctx context.Context, assetID, date string) (domain.CustomAsset, error) {
	if err := s.api.DeleteAssetEvent(ctx, assetID, date); err != nil {
		return domain.CustomAsset{}, s.wrap(err, "deleting event %s of asset %s", date, assetID)
	}
	return s.Asset(ctx, assetID)
}

// SaveAsset submits the asset edit form: events whose date disappeared from
// the form are deleted, every form event is put, and description or currency
// changes are patched. The asset is re-fetched afterwards.
func (s *Service) SaveAsset(ctx context.Context, assetID string, form domain.EditCustomAsset) (domain.CustomAsset, error) {
	if err := domain.Validate(form); err != nil {
		return domain.CustomAsset{}, err
	}

	current, ok := s.reg.Assets.Get(assetID)
	if !ok || current.Events == nil {
		fetched, err := s.api.Asset(ctx, assetID)
		if err != nil {
			return domain.CustomAsset{}, s.wrap(err, "fetching asset %s", assetID)
		}
		current = *fetched
	}

	for _, e := range domain.RemovedEvents(current.Events, form.Events) {
		if err := s.api.DeleteAssetEvent(ctx, assetID, e.Date); err != nil {
			return domain.CustomAsset{}, s.wrap(err, "deleting event %s of asset %s", e.Date, assetID)
		}
	}
	for _, e := range form.Events {
		if err := s.api.PutAssetEvent(ctx, assetID, e); err != nil {
			return domain.CustomAsset{}, s.wrap(err, "saving event %s of asset %s", e.Date, assetID)
		}
	}
	if form.Description != nil || form.Currency != nil {
		if _, err := s.api.UpdateAsset(ctx, assetID, form); err != nil {
			return domain.CustomAsset{}, s.wrap(err, "updating asset %s", assetID)
		}
	}
	return s.Asset(ctx, assetID)
}
