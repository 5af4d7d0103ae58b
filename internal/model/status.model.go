package model

// ShipmentStatus is the lifecycle state of a shipment.
type ShipmentStatus string

const (
	StatusPending        ShipmentStatus = "pending"
	StatusPickedUp       ShipmentStatus = "picked_up"
	StatusInTransit      ShipmentStatus = "in_transit"
	StatusOutForDelivery ShipmentStatus = "out_for_delivery"
	StatusDelivered      ShipmentStatus = "delivered"
	StatusCancelled      ShipmentStatus = "cancelled"
)

// CanonicalOrder is the happy path a parcel walks through. Cancelled is
// not part of it.
var CanonicalOrder = []ShipmentStatus{
	StatusPending,
	StatusPickedUp,
	StatusInTransit,
	StatusOutForDelivery,
	StatusDelivered,
}

var statusLabels = map[ShipmentStatus]string{
	StatusPending:        "Pending",
	StatusPickedUp:       "Picked Up",
	StatusInTransit:      "In Transit",
	StatusOutForDelivery: "Out for Delivery",
	StatusDelivered:      "Delivered",
	StatusCancelled:      "Cancelled",
}

func (s ShipmentStatus) index() int {
	for i, c := range CanonicalOrder {
		if c == s {
			return i
		}
	}
	return -1
}

func (s ShipmentStatus) Valid() bool {
	return s == StatusCancelled || s.index() >= 0
}

// Progress is the completion percentage shown on the tracking page.
// Cancelled and unknown statuses report 0.
func (s ShipmentStatus) Progress() int {
	i := s.index()
	if i < 0 {
		return 0
	}
	return (i + 1) * 100 / len(CanonicalOrder)
}

func (s ShipmentStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// InTransit groups the statuses the dashboard counts as moving.
func (s ShipmentStatus) InTransit() bool {
	return s == StatusPickedUp || s == StatusInTransit || s == StatusOutForDelivery
}

// CanTransition reports whether next may follow s. Movement is forward
// only along CanonicalOrder, repeating the current status is allowed so
// a carrier can post a location update, and any non terminal status may
// be cancelled.
func (s ShipmentStatus) CanTransition(next ShipmentStatus) bool {
	if s.IsTerminal() || !next.Valid() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	from := s.index()
	return from >= 0 && next.index() >= from
}

func (s ShipmentStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}
