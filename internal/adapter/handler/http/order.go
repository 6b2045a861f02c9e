package http

import (
	"net/http"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/port"
	"github.com/gin-gonic/gin"
	"github.com/govalues/decimal"
	"go.uber.org/zap"
)

type OrderHandler struct {
	Handler
	service port.OrderService
}

func NewOrderHandler(service port.OrderService, logger *zap.Logger) (*OrderHandler, error) {
	return &OrderHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type locationRequest struct {
	Latitude  float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"min=-180,max=180"`
}

type addressRequest struct {
	Label    string          `json:"label"`
	Line     string          `json:"line" binding:"required"`
	Location locationRequest `json:"location"`
}

type itemRequest struct {
	Name      string          `json:"name" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	IsVeg     bool            `json:"isVeg"`
}

type placeOrderRequest struct {
	RestaurantID string         `json:"restaurantId" binding:"required"`
	Address      addressRequest `json:"deliveryAddress"`
	Items        []itemRequest  `json:"items" binding:"required,min=1,dive"`
}

func (r placeOrderRequest) placement() (domain.Placement, error) {
	items := make([]domain.LineItem, 0, len(r.Items))
	for _, i := range r.Items {
		if i.UnitPrice.Sign() < 0 {
			return domain.Placement{}, domain.ErrBadRequest
		}
		items = append(items, domain.LineItem{Name: i.Name, Quantity: i.Quantity, UnitPrice: i.UnitPrice, IsVeg: i.IsVeg})
	}
	return domain.Placement{
		RestaurantID: r.RestaurantID,
		Address: domain.Address{
			Label: r.Address.Label,
			Line:  r.Address.Line,
			Location: domain.Location{
				Latitude:  r.Address.Location.Latitude,
				Longitude: r.Address.Location.Longitude,
			},
		},
		Items: items,
	}, nil
}

func (oh *OrderHandler) PlaceOrder(ctx *gin.Context) {
	req := placeOrderRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}
	placement, err := req.placement()
	if err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	customerID := getAuthPayload(ctx).CustomerID
	order, err := oh.service.PlaceOrder(ctx, customerID, placement)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	oh.handleSuccessWithStatus(ctx, order, http.StatusCreated)
}

func (oh *OrderHandler) GetOrder(ctx *gin.Context) {
	order, ok := oh.ownOrder(ctx)
	if !ok {
		return
	}
	oh.handleSuccess(ctx, order)
}

func (oh *OrderHandler) CancelOrder(ctx *gin.Context) {
	if _, ok := oh.ownOrder(ctx); !ok {
		return
	}

	order, err := oh.service.CancelOrder(ctx, ctx.Param("id"))
	if err != nil {
		oh.handleError(ctx, err)
		return
	}
	oh.handleSuccess(ctx, order)
}

// ownOrder loads the order named in the path and checks it belongs to the caller.
// On failure the response has been written.
func (oh *OrderHandler) ownOrder(ctx *gin.Context) (*domain.Order, bool) {
	return loadOwnOrder(ctx, &oh.Handler, oh.service)
}

func loadOwnOrder(ctx *gin.Context, h *Handler, service port.OrderService) (*domain.Order, bool) {
	order, err := service.GetOrder(ctx, ctx.Param("id"))
	if err != nil {
		h.handleError(ctx, err)
		return nil, false
	}
	if order.CustomerID != getAuthPayload(ctx).CustomerID {
		h.handleError(ctx, domain.ErrUnauthorized)
		return nil, false
	}
	return order, true
}
