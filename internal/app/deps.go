package app

import (
	"github.com/emircancapkan/karma-case/internal/api"
	"github.com/emircancapkan/karma-case/internal/cache"
	"github.com/emircancapkan/karma-case/internal/config"
	"github.com/emircancapkan/karma-case/internal/session"
	"github.com/emircancapkan/karma-case/internal/store"
)

// Dependencies groups the long-lived service objects. Each is constructed
// once at process start and passed by reference to consumers; tests build
// isolated instances instead of reaching for globals.
type Dependencies struct {
	Store   *store.Store
	Client  *api.Client
	Session *session.Controller
	Images  *cache.ImageCache
	Friends *cache.FriendCache
	Explore *cache.ExploreCache
}

// buildDependencies wires together the concrete implementations used by
// the command surface.
func buildDependencies(cfg config.Config) (Dependencies, func() error, error) {
	sqlite, err := store.OpenSQLite(cfg.StorePath)
	if err != nil {
		return Dependencies{}, nil, err
	}

	var backend store.Backend = sqlite
	if cfg.StoreSecret != "" {
		backend, err = store.NewSealedBackend(backend, cfg.StoreSecret)
		if err != nil {
			sqlite.Close()
			return Dependencies{}, nil, err
		}
	}

	st := store.New(backend)

	client := api.NewClient(cfg.APIBaseURL, st,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithPacer(api.NewPacer(cfg.RequestsPerSec, cfg.RequestBurst)),
	)

	controller := session.NewController(client.Auth(), client.User(), st)

	images := cache.NewImageCache(client.Image(), controller)
	friends := cache.NewFriendCache(client.Friend(), controller)
	explore := cache.NewExploreCache(client.Explore())

	// The primary cross-cutting invariant: no cached record may outlive
	// the session that produced it.
	controller.OnIdentityChange(images.Clear)
	controller.OnIdentityChange(friends.Clear)
	controller.OnIdentityChange(explore.Clear)

	deps := Dependencies{
		Store:   st,
		Client:  client,
		Session: controller,
		Images:  images,
		Friends: friends,
		Explore: explore,
	}
	return deps, sqlite.Close, nil
}
