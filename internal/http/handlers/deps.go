package handlers

import (
	"github.com/jmoiron/sqlx"

	"estatedesk/internal/config"
	"estatedesk/internal/repos"
	"estatedesk/internal/services"
	"estatedesk/internal/storage"
)

type Deps struct {
	Cfg      config.Config
	Creds    *services.CredentialService
	Sessions *services.SessionManager
	Flashes  *Flashes

	PublicHandler  *PublicHandler
	InquiryHandler *InquiryHandler
	AuthHandler    *AuthHandler
	AdminHandler   *AdminHandler
	APIHandler     *APIHandler
	MediaHandler   *MediaHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, store storage.Store) *Deps {
	adminRepo := repos.NewAdminRepo(db)
	listingRepo := repos.NewListingRepo(db)
	imageRepo := repos.NewImageRepo(db)
	inquiryRepo := repos.NewInquiryRepo(db)

	creds := services.NewCredentialService(adminRepo, cfg.BcryptCost)
	sessions := services.NewSessionManager(creds, adminRepo, cfg.SecretKey, cfg.SessionTTL)
	listings := services.NewListingService(listingRepo, imageRepo, store)
	uploads := services.NewUploadService(listingRepo, imageRepo, store, cfg.MaxUploadBytes, cfg.MaxUploadFiles)
	inquiries := services.NewInquiryService(inquiryRepo, listingRepo)
	flashes := NewFlashes(cfg.SecretKey, cfg.CookieSecure)

	return &Deps{
		Cfg:      cfg,
		Creds:    creds,
		Sessions: sessions,
		Flashes:  flashes,

		PublicHandler:  &PublicHandler{Listings: listings},
		InquiryHandler: &InquiryHandler{Inquiries: inquiries, Listings: listings, Flashes: flashes},
		AuthHandler:    &AuthHandler{Sessions: sessions, Flashes: flashes, SecureCookie: cfg.CookieSecure},
		AdminHandler: &AdminHandler{
			Listings: listings, Uploads: uploads, Inquiries: inquiries, Creds: creds,
			Flashes: flashes, MaxUploadBytes: cfg.MaxUploadBytes,
		},
		APIHandler: &APIHandler{
			Sessions: sessions, Listings: listings, Uploads: uploads, Inquiries: inquiries,
			MaxUploadBytes: cfg.MaxUploadBytes,
		},
		MediaHandler: &MediaHandler{Store: store},
	}
}
