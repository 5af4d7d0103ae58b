package fixtures

import (
	"github.com/nimasrn/parcel-shipping/internal/model"
)

var (
	TestUser1 = model.User{
		ID:       "user-1",
		Email:    "amina@example.com",
		FullName: "Amina Wanjiru",
	}

	TestUser2 = model.User{
		ID:       "user-2",
		Email:    "otieno@example.com",
		FullName: "Otieno Odhiambo",
	}
)

// BookingBody is a complete booking form as the web client posts it,
// with numbers sent as text.
func BookingBody(option, pickupDate string) map[string]any {
	return map[string]any{
		"origin":          "Nairobi",
		"destination":     "Mombasa",
		"sender_name":     "Amina Wanjiru",
		"sender_phone":    "+254700000001",
		"recipient_name":  "Otieno Odhiambo",
		"recipient_email": "otieno@example.com",
		"recipient_phone": "+254700000002",
		"packaging_type":  "box_small",
		"package_count":   "1",
		"package_weight":  "2",
		"weight_unit":     "kg",
		"shipping_option": option,
		"payment_method":  "mpesa",
		"has_insurance":   false,
		"pickup_date":     pickupDate,
	}
}

// LifecycleSteps walks a shipment from pickup to the door.
var LifecycleSteps = []struct {
	Status   model.ShipmentStatus
	Location string
}{
	{model.StatusPickedUp, "Nairobi Hub"},
	{model.StatusInTransit, "Voi"},
	{model.StatusOutForDelivery, "Mombasa Depot"},
	{model.StatusDelivered, "Mombasa"},
}
