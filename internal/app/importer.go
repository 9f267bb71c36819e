package app

import (
	"context"
	"errors"

	"github.com/Mithun-VK/trading-chatbot/config"
	"github.com/Mithun-VK/trading-chatbot/internal/service"
)

// ErrNoStore is returned when a command needs the document store and STORE_DRIVER is none.
var ErrNoStore = errors.New("STORE_DRIVER must select mongo or postgres")

// OpenUserService opens the configured store for offline commands such as the
// bulk portfolio import. The returned cleanup closes the store.
func OpenUserService(ctx context.Context, cfg config.Config) (service.UserService, func(), error) {
	store, err := storeOpener(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return nil, nil, ErrNoStore
	}
	cleanup := func() { _ = store.Close(context.Background()) }
	return service.NewUserService(store, NewMarketClient(cfg)), cleanup, nil
}
