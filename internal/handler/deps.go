package handler

import (
	"sidechat/internal/app/chat"
	"sidechat/internal/app/storage"
	"sidechat/internal/app/store"
	"sidechat/internal/configs"
)

// AppDeps bundles the shared services every handler needs.
type AppDeps struct {
	Config   *configs.AppConfig
	Store    store.Store
	Storage  storage.StorageService
	Registry *chat.Registry
	Delivery *chat.Delivery
}

// FullAssetURL resolves a stored object key to the public URL served to clients.
// An empty key resolves to an empty URL.
func (d *AppDeps) FullAssetURL(key string) string {
	if key == "" {
		return ""
	}
	if d.Config.AssetBaseURL == "" {
		return key
	}
	return d.Config.AssetBaseURL + "/" + key
}
