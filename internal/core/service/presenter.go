package service

import (
	"fmt"
	"time"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
)

const ArrivingNow = "Arriving now"

type stageCopy struct {
	Label       string
	Description string
}

var stageCopies = map[domain.OrderStatus]stageCopy{
	domain.OrderStatusPlaced:         {"Order placed", "We have received your order"},
	domain.OrderStatusAccepted:       {"Order accepted", "The restaurant has accepted your order"},
	domain.OrderStatusPreparing:      {"Preparing", "Your food is being prepared"},
	domain.OrderStatusReady:          {"Ready for pickup", "Your order is packed and waiting for the delivery partner"},
	domain.OrderStatusOutForDelivery: {"Out for delivery", "Your delivery partner is on the way"},
	domain.OrderStatusDelivered:      {"Delivered", "Enjoy your meal!"},
	domain.OrderStatusCancelled:      {"Cancelled", "This order has been cancelled"},
}

type StageView struct {
	domain.Stage
	Label       string
	Description string
}

type CourierView struct {
	Name          string
	Phone         string
	VehicleNumber string
	Location      domain.Location
	Heading       float64
}

type TrackingView struct {
	OrderID       string
	OrderNumber   string
	Status        domain.OrderStatus
	StatusLabel   string
	ETALabel      string
	DistanceLabel string
	Stages        []StageView
	Courier       *CourierView
	CanCancel     bool
}

// RemainingLabel renders the time left until the estimated delivery, rounded up to whole minutes.
func RemainingLabel(order domain.Order, now time.Time) string {
	remaining := order.EstimatedDeliveryTime.Sub(now)
	if order.EstimatedDeliveryTime.IsZero() || remaining <= 0 {
		return ArrivingNow
	}

	minutes := int(remaining / time.Minute)
	if remaining%time.Minute != 0 {
		minutes++
	}
	if minutes == 1 {
		return "1 min"
	}
	return fmt.Sprintf("%d min", minutes)
}

func StatusLabel(status domain.OrderStatus) string {
	if c, ok := stageCopies[status]; ok {
		return c.Label
	}
	return string(status)
}

func StageViews(order domain.Order) []StageView {
	stages := order.Timeline()
	views := make([]StageView, 0, len(stages))
	for _, s := range stages {
		c := stageCopies[s.Status]
		views = append(views, StageView{Stage: s, Label: c.Label, Description: c.Description})
	}
	return views
}

// Present bundles everything a tracking screen renders for one order.
func Present(order domain.Order, now time.Time) TrackingView {
	view := TrackingView{
		OrderID:       order.ID,
		OrderNumber:   order.Number,
		Status:        order.Status,
		StatusLabel:   StatusLabel(order.Status),
		DistanceLabel: order.DistanceLabel,
		Stages:        StageViews(order),
		CanCancel:     order.IsCancellable,
	}

	switch order.Status {
	case domain.OrderStatusDelivered, domain.OrderStatusCancelled:
		view.ETALabel = StatusLabel(order.Status)
	default:
		view.ETALabel = RemainingLabel(order, now)
	}

	if order.Courier != nil {
		view.Courier = &CourierView{
			Name:          order.Courier.Name,
			Phone:         order.Courier.Phone,
			VehicleNumber: order.Courier.VehicleNumber,
			Location:      order.Courier.Location,
			Heading:       order.Courier.Heading,
		}
	}

	return view
}
