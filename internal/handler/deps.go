package handler

import (
	"github.com/userDoffy/Kura/internal/app/chat"
	"github.com/userDoffy/Kura/internal/app/storage"
	"github.com/userDoffy/Kura/internal/configs"
	"github.com/userDoffy/Kura/internal/pkg/auth/jwt"
)

// AppDeps bundles the shared application dependencies injected into handlers.
type AppDeps struct {
	Hub            *chat.Hub
	Config         *configs.AppConfig
	StorageService storage.Service
	Verifier       jwt.Verifier
}
