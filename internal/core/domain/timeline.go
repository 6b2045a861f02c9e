package domain

import "time"

// Stage is one entry of the derived order timeline.
type Stage struct {
	Status      OrderStatus
	IsCompleted bool
	IsCurrent   bool
	Timestamp   time.Time
}

// Timeline derives the per-stage view from the order status and timestamps.
// Exactly one stage is current unless the order is delivered or cancelled.
func (o Order) Timeline() []Stage {
	stages := make([]Stage, 0, len(canonical))
	current := o.Status.Rank()

	for i, status := range canonical {
		stage := Stage{Status: status, Timestamp: o.Timestamps[status]}
		switch {
		case o.Status == OrderStatusDelivered:
			stage.IsCompleted = true
		case o.Status == OrderStatusCancelled:
			_, reached := o.Timestamps[status]
			stage.IsCompleted = reached
		case i < current:
			stage.IsCompleted = true
		case i == current:
			stage.IsCurrent = true
		}
		stages = append(stages, stage)
	}

	return stages
}
