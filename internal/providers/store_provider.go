package providers

import (
	"habitd/internal/store"
	"habitd/internal/structures"
)

func NewStoreProvider(conf *structures.Config, logger Logger) (*store.Store, error) {
	st, err := store.New(conf.Storage.DBPath)
	if err != nil {
		return nil, err
	}
	logger.Infof(TypeApp, "Store opened at %s", conf.Storage.DBPath)
	return st, nil
}
