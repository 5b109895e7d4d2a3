// Package portfolio runs the fetch and form flows against the backend and
// keeps the entity stores current.
package portfolio

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mtlprog/wealth/internal/domain"
	"github.com/mtlprog/wealth/internal/store"
)

// Backend is the subset of the backend client used by Service.
type Backend interface {
	Accounts(ctx context.Context) ([]domain.Account, error)
	Account(ctx context.Context, accountID string) (*domain.Account, error)
	UpdateAccount(ctx context.Context, accountID string, edit domain.EditAccount) (*domain.Account, error)
	AccountBalances(ctx context.Context, accountID string) ([]domain.BalancePoint, error)
	BankingBalances(ctx context.Context) ([]domain.BalancePoint, error)
	BankLink(ctx context.Context, params domain.BankLinkParams) (*domain.BankLinkResponse, error)
	CompleteBankLink(ctx context.Context, cb domain.BankLinkCallback) error
	RefreshBankLink(ctx context.Context, credentialsID string) (*domain.BankLinkResponse, error)

	Positions(ctx context.Context) ([]domain.StockPosition, error)
	Position(ctx context.Context, positionID string) (*domain.StockPosition, error)
	CreatePosition(ctx context.Context, form domain.NewStockPosition) (*domain.StockPosition, error)
	UpdatePosition(ctx context.Context, positionID string, edit domain.EditStockPosition) (*domain.StockPosition, error)
	PositionBalances(ctx context.Context, positionID string) ([]domain.BalancePoint, error)
	StockBalances(ctx context.Context) ([]domain.BalancePoint, error)
	SearchTicker(ctx context.Context, query string) ([]domain.TickerSearchItem, error)

	Assets(ctx context.Context) ([]domain.CustomAsset, error)
	Asset(ctx context.Context, assetID string) (*domain.CustomAsset, error)
	CreateAsset(ctx context.Context, form domain.NewCustomAsset) (*domain.CustomAsset, error)
	UpdateAsset(ctx context.Context, assetID string, edit domain.EditCustomAsset) (*domain.CustomAsset, error)
	DeleteAsset(ctx context.Context, assetID string) error
	AssetBalances(ctx context.Context, assetID string) ([]domain.BalancePoint, error)
	CustomBalances(ctx context.Context) ([]domain.BalancePoint, error)
	PutAssetEvent(ctx context.Context, assetID string, event domain.AssetEvent) error
	DeleteAssetEvent(ctx context.Context, assetID, date string) error
}

// ErrorWrapper annotates backend errors, e.g. with session expiry.
type ErrorWrapper interface {
	WrapError(err error) error
}

// Service orchestrates backend calls and store updates.
type Service struct {
	api         Backend
	reg         *store.Registry
	auth        ErrorWrapper
	concurrency int
	searches    *searchCache
}

// NewService creates a Service. auth may be nil. concurrency bounds the
// per-entity balances fan-out.
func NewService(api Backend, reg *store.Registry, auth ErrorWrapper, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Service{
		api:         api,
		reg:         reg,
		auth:        auth,
		concurrency: concurrency,
		searches:    newSearchCache(searchCacheTTL),
	}
}

// Registry returns the stores the service writes to.
func (s *Service) Registry() *store.Registry { return s.reg }

func (s *Service) wrap(err error, format string, args ...any) error {
	if s.auth != nil {
		err = s.auth.WrapError(err)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// fanOut runs fetch for every id with bounded concurrency. Every call runs to
// completion; the first error is returned.
func (s *Service) fanOut(ids []string, fetch func(id string) error) error {
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		g.Go(func() error { return fetch(id) })
	}
	return g.Wait()
}

// Sync refreshes every entity kind with balances plus the aggregated series.
func (s *Service) Sync(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.AccountsWithBalances(ctx)
		return err
	})
	g.Go(func() error {
		_, err := s.PositionsWithBalances(ctx)
		return err
	})
	g.Go(func() error {
		_, err := s.AssetsWithBalances(ctx)
		return err
	})
	g.Go(func() error { return s.Aggregates(ctx) })
	return g.Wait()
}

// Aggregates fetches the backend-aggregated series of every kind.
func (s *Service) Aggregates(ctx context.Context) error {
	fetchers := map[store.Kind]func(context.Context) ([]domain.BalancePoint, error){
		store.KindBanks:  s.api.BankingBalances,
		store.KindStocks: s.api.StockBalances,
		store.KindAssets: s.api.CustomBalances,
	}
	var g errgroup.Group
	for kind, fetch := range fetchers {
		g.Go(func() error {
			points, err := fetch(ctx)
			if err != nil {
				return s.wrap(err, "fetching %s balances", kind)
			}
			s.reg.SetAggregate(kind, points)
			return nil
		})
	}
	return g.Wait()
}

// Accounts fetches the account list into the store.
func (s *Service) Accounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.api.Accounts(ctx)
	if err != nil {
		return nil, s.wrap(err, "fetching accounts")
	}
	s.reg.Accounts.UpsertMany(accounts)
	return s.reg.Accounts.All(), nil
}

// AccountsWithBalances fetches the account list, then every account's
// balances. Each balances response is stored as soon as it arrives.
func (s *Service) AccountsWithBalances(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(accounts))
	for i, a := range accounts {
		ids[i] = a.AccountID
	}
	err = s.fanOut(ids, func(id string) error {
		points, err := s.api.AccountBalances(ctx, id)
		if err != nil {
			return s.wrap(err, "fetching balances of account %s", id)
		}
		s.reg.Accounts.SetBalances(id, points)
		return nil
	})
	return s.reg.Accounts.All(), err
}

// Account fetches one account and its balances.
func (s *Service) Account(ctx context.Context, accountID string) (domain.Account, error) {
	account, err := s.api.Account(ctx, accountID)
	if err != nil {
		return domain.Account{}, s.wrap(err, "fetching account %s", accountID)
	}
	points, err := s.api.AccountBalances(ctx, accountID)
	if err != nil {
		return domain.Account{}, s.wrap(err, "fetching balances of account %s", accountID)
	}
	account.Balances = nonNil(points)
	s.reg.Accounts.Upsert(*account)
	return *account, nil
}

// EditAccount renames, aliases or (de)activates an account.
func (s *Service) EditAccount(ctx context.Context, accountID string, edit domain.EditAccount) (domain.Account, error) {
	account, err := s.api.UpdateAccount(ctx, accountID, edit)
	if err != nil {
		return domain.Account{}, s.wrap(err, "updating account %s", accountID)
	}
	s.reg.Accounts.Upsert(*account)
	stored, _ := s.reg.Accounts.Get(accountID)
	return stored, nil
}

// Positions fetches the position list into the store.
func (s *Service) Positions(ctx context.Context) ([]domain.StockPosition, error) {
	positions, err := s.api.Positions(ctx)
	if err != nil {
		return nil, s.wrap(err, "fetching positions")
	}
	s.reg.Positions.UpsertMany(positions)
	return s.reg.Positions.All(), nil
}

// PositionsWithBalances fetches the position list, then every position's
// balances.
func (s *Service) PositionsWithBalances(ctx context.Context) ([]domain.StockPosition, error) {
	positions, err := s.Positions(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(positions))
	for i, p := range positions {
		ids[i] = p.PositionID
	}
	err = s.fanOut(ids, func(id string) error {
		points, err := s.api.PositionBalances(ctx, id)
		if err != nil {
			return s.wrap(err, "fetching balances of position %s", id)
		}
		s.reg.Positions.SetBalances(id, points)
		return nil
	})
	return s.reg.Positions.All(), err
}

// Position fetches one position and its balances.
func (s *Service) Position(ctx context.Context, positionID string) (domain.StockPosition, error) {
	position, err := s.api.Position(ctx, positionID)
	if err != nil {
		return domain.StockPosition{}, s.wrap(err, "fetching position %s", positionID)
	}
	return s.withPositionBalances(ctx, *position)
}

func (s *Service) withPositionBalances(ctx context.Context, position domain.StockPosition) (domain.StockPosition, error) {
	s.reg.Positions.Upsert(position)
	points, err := s.api.PositionBalances(ctx, position.PositionID)
	if err != nil {
		return position, s.wrap(err, "fetching balances of position %s", position.PositionID)
	}
	position.Balances = nonNil(points)
	s.reg.Positions.Upsert(position)
	return position, nil
}

// CreatePosition validates and creates a position, then fetches its balances.
func (s *Service) CreatePosition(ctx context.Context, form domain.NewStockPosition) (domain.StockPosition, error) {
	form.Ticker = strings.TrimSpace(form.Ticker)
	if err := domain.Validate(form); err != nil {
		return domain.StockPosition{}, err
	}
	position, err := s.api.CreatePosition(ctx, form)
	if err != nil {
		return domain.StockPosition{}, s.wrap(err, "creating position")
	}
	return s.withPositionBalances(ctx, *position)
}

// EditPosition validates and applies a partial update, then re-fetches the
// balances since amount or start date changes them.
func (s *Service) EditPosition(ctx context.Context, positionID string, edit domain.EditStockPosition) (domain.StockPosition, error) {
	if err := domain.Validate(edit); err != nil {
		return domain.StockPosition{}, err
	}
	position, err := s.api.UpdatePosition(ctx, positionID, edit)
	if err != nil {
		return domain.StockPosition{}, s.wrap(err, "updating position %s", positionID)
	}
	return s.withPositionBalances(ctx, *position)
}

// SearchTicker returns tickers matching query. A blank query matches nothing.
// Results are cached briefly per query.
func (s *Service) SearchTicker(ctx context.Context, query string) ([]domain.TickerSearchItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.TickerSearchItem{}, nil
	}
	if items, ok := s.searches.get(query); ok {
		return items, nil
	}
	items, err := s.api.SearchTicker(ctx, query)
	if err != nil {
		return nil, s.wrap(err, "searching %q", query)
	}
	s.searches.set(query, items)
	return items, nil
}

// BankLinkURL returns the provider URL that starts linking a bank.
func (s *Service) BankLinkURL(ctx context.Context, params domain.BankLinkParams) (string, error) {
	if err := domain.Validate(params); err != nil {
		return "", err
	}
	resp, err := s.api.BankLink(ctx, params)
	if err != nil {
		return "", s.wrap(err, "requesting bank link")
	}
	return resp.URL, nil
}

// CompleteBankLink forwards the provider callback and reloads the accounts
// the new link produced.
func (s *Service) CompleteBankLink(ctx context.Context, cb domain.BankLinkCallback) ([]domain.Account, error) {
	if err := domain.Validate(cb); err != nil {
		return nil, err
	}
	if err := s.api.CompleteBankLink(ctx, cb); err != nil {
		return nil, s.wrap(err, "completing bank link")
	}
	return s.AccountsWithBalances(ctx)
}

// RefreshBankLink returns the provider URL that renews an existing link.
func (s *Service) RefreshBankLink(ctx context.Context, credentialsID string) (string, error) {
	if strings.TrimSpace(credentialsID) == "" {
		return "", domain.ValidationErrors{"credentials_id": "is required"}
	}
	resp, err := s.api.RefreshBankLink(ctx, credentialsID)
	if err != nil {
		return "", s.wrap(err, "refreshing bank link")
	}
	return resp.URL, nil
}

func nonNil(points []domain.BalancePoint) []domain.BalancePoint {
	if points == nil {
		return []domain.BalancePoint{}
	}
	return points
}
