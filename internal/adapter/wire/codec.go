// Package wire encodes tracking events in the JSON envelope shared by the
// backend stream and the message broker.
package wire

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"github.com/go-playground/validator/v10"
)

type Envelope struct {
	Type      string          `json:"type" validate:"required,oneof=status_update location_update eta_update partner_assigned order_completed"`
	OrderID   string          `json:"orderId" validate:"required"`
	Payload   json.RawMessage `json:"payload" validate:"required"`
	Timestamp string          `json:"timestamp" validate:"required"`
}

type statusPayload struct {
	Status    string `json:"status" validate:"required"`
	Timestamp string `json:"timestamp,omitempty"`
}

type locationPayload struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Heading   float64 `json:"heading"`
	Speed     float64 `json:"speed" validate:"gte=0"`
	Timestamp string  `json:"timestamp,omitempty"`
}

type etaPayload struct {
	MinutesRemaining int    `json:"minutesRemaining"`
	DistanceLabel    string `json:"distanceLabel,omitempty"`
}

type partnerPayload struct {
	Courier courierPayload `json:"courier"`
}

type courierPayload struct {
	ID            string          `json:"id" validate:"required"`
	Name          string          `json:"name"`
	Phone         string          `json:"phone"`
	VehicleNumber string          `json:"vehicleNumber"`
	Rating        float64         `json:"rating" validate:"gte=0,lte=5"`
	Location      domain.Location `json:"location"`
}

type completedPayload struct {
	DeliveredAt string `json:"deliveredAt,omitempty"`
}

type Codec struct {
	validate *validator.Validate
}

func NewCodec(validate *validator.Validate) *Codec {
	if validate == nil {
		validate = validator.New()
	}
	return &Codec{validate: validate}
}

// Decode parses one envelope. Malformed input yields ErrInvalidEvent, an
// unrecognised type ErrUnknownEvent.
func (c *Codec) Decode(data []byte) (domain.Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return domain.Event{}, fmt.Errorf("%w: %w", domain.ErrInvalidEvent, err)
	}
	if env.Type != "" && !isKnown(domain.EventKind(env.Type)) {
		return domain.Event{}, fmt.Errorf("%w: %q", domain.ErrUnknownEvent, env.Type)
	}
	if err := c.validate.Struct(env); err != nil {
		return domain.Event{}, fmt.Errorf("%w: %w", domain.ErrInvalidEvent, err)
	}

	ts, err := parseTime(env.Timestamp)
	if err != nil {
		return domain.Event{}, err
	}

	payload, err := c.decodePayload(domain.EventKind(env.Type), env.Payload)
	if err != nil {
		return domain.Event{}, err
	}

	return domain.Event{OrderID: env.OrderID, Timestamp: ts, Payload: payload}, nil
}

func (c *Codec) decodePayload(kind domain.EventKind, raw json.RawMessage) (domain.Payload, error) {
	switch kind {
	case domain.EventStatusUpdate:
		var p statusPayload
		if err := c.unmarshal(raw, &p); err != nil {
			return nil, err
		}
		status, err := domain.ParseOrderStatus(p.Status)
		if err != nil {
			return nil, err
		}
		ts, err := parseOptionalTime(p.Timestamp)
		if err != nil {
			return nil, err
		}
		return domain.StatusUpdate{Status: status, Timestamp: ts}, nil

	case domain.EventLocationUpdate:
		var p locationPayload
		if err := c.unmarshal(raw, &p); err != nil {
			return nil, err
		}
		ts, err := parseOptionalTime(p.Timestamp)
		if err != nil {
			return nil, err
		}
		return domain.LocationUpdate{
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Heading:   p.Heading,
			Speed:     p.Speed,
			Timestamp: ts,
		}, nil

	case domain.EventETAUpdate:
		var p etaPayload
		if err := c.unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return domain.ETAUpdate{MinutesRemaining: p.MinutesRemaining, DistanceLabel: p.DistanceLabel}, nil

	case domain.EventPartnerAssigned:
		var p partnerPayload
		if err := c.unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return domain.PartnerAssigned{Courier: domain.Courier{
			ID:            p.Courier.ID,
			Name:          p.Courier.Name,
			Phone:         p.Courier.Phone,
			VehicleNumber: p.Courier.VehicleNumber,
			Rating:        p.Courier.Rating,
			Location:      p.Courier.Location,
		}}, nil

	case domain.EventOrderCompleted:
		var p completedPayload
		if err := c.unmarshal(raw, &p); err != nil {
			return nil, err
		}
		ts, err := parseOptionalTime(p.DeliveredAt)
		if err != nil {
			return nil, err
		}
		return domain.OrderCompleted{DeliveredAt: ts}, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEvent, kind)
}

func (c *Codec) unmarshal(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: payload: %w", domain.ErrInvalidEvent, err)
	}
	if err := c.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: payload: %w", domain.ErrInvalidEvent, err)
	}
	return nil
}

func (c *Codec) Encode(event domain.Event) ([]byte, error) {
	if event.Payload == nil {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrInvalidEvent)
	}

	var payload any
	switch p := event.Payload.(type) {
	case domain.StatusUpdate:
		payload = statusPayload{Status: string(p.Status), Timestamp: formatOptionalTime(p.Timestamp)}
	case domain.LocationUpdate:
		payload = locationPayload{
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Heading:   p.Heading,
			Speed:     p.Speed,
			Timestamp: formatOptionalTime(p.Timestamp),
		}
	case domain.ETAUpdate:
		payload = etaPayload{MinutesRemaining: p.MinutesRemaining, DistanceLabel: p.DistanceLabel}
	case domain.PartnerAssigned:
		payload = partnerPayload{Courier: courierPayload{
			ID:            p.Courier.ID,
			Name:          p.Courier.Name,
			Phone:         p.Courier.Phone,
			VehicleNumber: p.Courier.VehicleNumber,
			Rating:        p.Courier.Rating,
			Location:      p.Courier.Location,
		}}
	case domain.OrderCompleted:
		payload = completedPayload{DeliveredAt: formatOptionalTime(p.DeliveredAt)}
	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrUnknownEvent, event.Payload)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error encoding payload: %w", err)
	}

	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return json.Marshal(Envelope{
		Type:      string(event.Kind()),
		OrderID:   event.OrderID,
		Payload:   raw,
		Timestamp: ts.UTC().Format(time.RFC3339Nano),
	})
}

func isKnown(kind domain.EventKind) bool {
	switch kind {
	case domain.EventStatusUpdate, domain.EventLocationUpdate, domain.EventETAUpdate,
		domain.EventPartnerAssigned, domain.EventOrderCompleted:
		return true
	}
	return false
}

func parseTime(s string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp: %w", domain.ErrInvalidEvent, err)
	}
	return ts, nil
}

func parseOptionalTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return parseTime(s)
}

func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
