package http

import (
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/port"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler issues customer tokens. The mock backend trusts the customer id it is given.
type AuthHandler struct {
	Handler
	tokens port.TokenService
}

type tokenRequest struct {
	CustomerID string `json:"customerId" binding:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func NewAuthHandler(tokens port.TokenService, logger *zap.Logger) (*AuthHandler, error) {
	return &AuthHandler{
		Handler: *NewHandler(logger),
		tokens:  tokens,
	}, nil
}

func (ah *AuthHandler) IssueToken(ctx *gin.Context) {
	req := tokenRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ah.handleValidationError(ctx, err)
		return
	}

	token, err := ah.tokens.CreateToken(req.CustomerID)
	if err != nil {
		ah.logger.Error("Create token", zap.Error(err))
		ah.handleError(ctx, domain.ErrTokenCreation)
		return
	}

	ah.handleSuccess(ctx, tokenResponse{Token: token})
}
