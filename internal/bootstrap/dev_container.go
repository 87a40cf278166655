package bootstrap

import (
	"time"

	"second-brain-client/internal/config"
	"second-brain-client/internal/controller"
	"second-brain-client/internal/devstore"
	"second-brain-client/internal/pkg/logger"
	"second-brain-client/internal/pkg/serverutils"
)

const DevServerVersion = "dev"

// DevContainer holds the development backend: one in-memory store shared
// by every controller.
type DevContainer struct {
	Store  *devstore.Store
	Issuer *serverutils.TokenIssuer

	StatusController   controller.IStatusController
	AuthController     controller.IAuthController
	ChatController     controller.IChatController
	MemoryController   controller.IMemoryController
	DocumentController controller.IDocumentController
}

func NewDevContainer(cfg *config.Config, log logger.ILogger) *DevContainer {
	store := devstore.New(time.Now)
	issuer := serverutils.NewTokenIssuer(cfg.DevServer.JWTSecret, cfg.DevServer.TokenTTL)
	auth := serverutils.JwtMiddleware(issuer)

	return &DevContainer{
		Store:  store,
		Issuer: issuer,

		StatusController:   controller.NewStatusController(store, auth, DevServerVersion),
		AuthController:     controller.NewAuthController(store, issuer, auth, cfg.Auth.GoogleClientId),
		ChatController:     controller.NewChatController(store, auth),
		MemoryController:   controller.NewMemoryController(store, auth),
		DocumentController: controller.NewDocumentController(store, auth, cfg.Upload.MaxBytes, log),
	}
}
