package domain

import (
	"fmt"

	"github.com/govalues/decimal"
)

// Fees are the charges applied on top of the item total at placement.
type Fees struct {
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	PlatformFee decimal.Decimal `json:"platformFee"`
	Tax         decimal.Decimal `json:"tax"`
	Discount    decimal.Decimal `json:"discount"`
}

// Billing is the price snapshot taken when the order is placed.
type Billing struct {
	ItemTotal   decimal.Decimal `json:"itemTotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	PlatformFee decimal.Decimal `json:"platformFee"`
	Tax         decimal.Decimal `json:"tax"`
	Discount    decimal.Decimal `json:"discount"`
	GrandTotal  decimal.Decimal `json:"grandTotal"`
}

func NewBilling(items []LineItem, fees Fees) (Billing, error) {
	itemTotal := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 {
			return Billing{}, fmt.Errorf("%w: item %q has quantity %d", ErrBadRequest, item.Name, item.Quantity)
		}
		lineTotal, err := item.Total()
		if err != nil {
			return Billing{}, fmt.Errorf("math error:%w", err)
		}
		itemTotal, err = itemTotal.Add(lineTotal)
		if err != nil {
			return Billing{}, fmt.Errorf("math error:%w", err)
		}
	}

	grand := itemTotal
	var err error
	for _, fee := range []decimal.Decimal{fees.DeliveryFee, fees.PlatformFee, fees.Tax} {
		grand, err = grand.Add(fee)
		if err != nil {
			return Billing{}, fmt.Errorf("math error:%w", err)
		}
	}
	grand, err = grand.Sub(fees.Discount)
	if err != nil {
		return Billing{}, fmt.Errorf("math error:%w", err)
	}
	if grand.Sign() < 0 {
		grand = decimal.Zero
	}

	return Billing{
		ItemTotal:   itemTotal,
		DeliveryFee: fees.DeliveryFee,
		PlatformFee: fees.PlatformFee,
		Tax:         fees.Tax,
		Discount:    fees.Discount,
		GrandTotal:  grand,
	}, nil
}
