package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kiddmetro/wallet-auth/core"
	"github.com/kiddmetro/wallet-auth/service"
)

// WalletHandlers contains HTTP handlers for the wallet session endpoints.
type WalletHandlers struct {
	walletService *service.WalletService
}

// NewWalletHandlers creates new wallet handlers.
func NewWalletHandlers(walletService *service.WalletService) *WalletHandlers {
	return &WalletHandlers{walletService: walletService}
}

// CeremonyResponse carries the options the browser feeds to the
// credential platform.
type CeremonyResponse struct {
	CeremonyID string          `json:"ceremony_id"`
	Options    json.RawMessage `json:"options"`
}

// FinishRequest carries the credential platform's response for a pending
// ceremony. An empty credential marks a declined ceremony.
type FinishRequest struct {
	CeremonyID string          `json:"ceremony_id" binding:"required"`
	Credential json.RawMessage `json:"credential"`
}

// WalletSessionResponse is the established session plus its tokens.
type WalletSessionResponse struct {
	SubOrgID     string `json:"sub_org_id"`
	WalletID     string `json:"wallet_id"`
	Address      string `json:"address"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// RegisterBegin starts a registration ceremony.
func (h *WalletHandlers) RegisterBegin(c *gin.Context) {
	start, err := h.walletService.BeginRegistration(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to begin registration"})
		return
	}
	c.JSON(http.StatusOK, CeremonyResponse{CeremonyID: start.CeremonyID, Options: start.OptionsJSON})
}

// RegisterFinish completes registration and provisions the wallet. A
// declined ceremony is a normal outcome: no session, no error status.
func (h *WalletHandlers) RegisterFinish(c *gin.Context) {
	var req FinishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, err := h.walletService.RegisterNewWallet(c.Request.Context(), req.CeremonyID, req.Credential)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrCeremonyDeclined):
			c.JSON(http.StatusOK, gin.H{"status": "declined"})
		case errors.Is(err, core.ErrOperationInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": "a registration or login is already in flight"})
		case errors.Is(err, core.ErrProvisioningFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "wallet provisioning failed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}

	h.respondWithSession(c, session)
}

// LoginBegin starts a login ceremony.
func (h *WalletHandlers) LoginBegin(c *gin.Context) {
	start, err := h.walletService.BeginLogin(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to begin login"})
		return
	}
	c.JSON(http.StatusOK, CeremonyResponse{CeremonyID: start.CeremonyID, Options: start.OptionsJSON})
}

// LoginFinish completes login and resolves the wallet session.
func (h *WalletHandlers) LoginFinish(c *gin.Context) {
	var req FinishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, err := h.walletService.LoginExistingWallet(c.Request.Context(), req.CeremonyID, req.Credential)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNoCredentialAvailable):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no credential available for login"})
		case errors.Is(err, core.ErrOperationInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": "a registration or login is already in flight"})
		case errors.Is(err, core.ErrResolutionIncomplete):
			c.JSON(http.StatusBadGateway, gin.H{"error": "login could not be completed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}

	h.respondWithSession(c, session)
}

// Refresh rotates the refresh token.
func (h *WalletHandlers) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	access, refresh, err := h.walletService.RefreshTokens(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidToken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid refresh token"})
		case errors.Is(err, core.ErrTokenExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token expired"})
		case errors.Is(err, core.ErrTokenInvalidated):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token has been invalidated"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to refresh tokens"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "Bearer",
	})
}

// Logout ends the wallet session.
func (h *WalletHandlers) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.walletService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, core.ErrInvalidToken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid refresh token"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to logout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// CurrentWallet returns the authenticated wallet identity.
func (h *WalletHandlers) CurrentWallet(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sub_org_id": session.SubOrgID,
		"wallet_id":  session.WalletID,
		"address":    session.Address,
	})
}

// SignMessage signs arbitrary text under the session's wallet.
func (h *WalletHandlers) SignMessage(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session not found in context"})
		return
	}

	// The message may be any string, including empty.
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	signed, err := h.walletService.SignMessage(c.Request.Context(), session, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNoActiveWallet):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no active wallet"})
		case errors.Is(err, core.ErrSigningFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "message signing failed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "signing failed"})
		}
		return
	}

	c.JSON(http.StatusOK, signed)
}

func (h *WalletHandlers) respondWithSession(c *gin.Context, session core.WalletSession) {
	access, refresh, err := h.walletService.IssueTokens(session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue session tokens"})
		return
	}

	c.JSON(http.StatusOK, WalletSessionResponse{
		SubOrgID:     session.SubOrgID,
		WalletID:     session.WalletID,
		Address:      session.Address,
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
	})
}
