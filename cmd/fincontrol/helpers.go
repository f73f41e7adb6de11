package main

import (
	"github.com/spf13/viper"

	"github.com/julio3266/finance-control-app-sub000/internal/api"
	"github.com/julio3266/finance-control-app-sub000/internal/common"
	"github.com/julio3266/finance-control-app-sub000/internal/storage"
)

// initStore opens the on-device session store with proper path expansion.
func initStore() (*storage.SessionStore, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/fincontrol/fincontrol.db"
	}

	return storage.NewSessionStore(common.ExpandPath(dbPath))
}

// newAPIClient builds the remote API client backed by the stored session.
func newAPIClient(store *storage.SessionStore) (*api.Client, error) {
	baseURL := viper.GetString("api.base_url")
	if baseURL == "" {
		return nil, common.NewUserError("api.base_url is not configured; set it in the config file or FINCONTROL_API_BASE_URL", common.ErrMissingConfig)
	}

	return api.NewClient(baseURL, store)
}
