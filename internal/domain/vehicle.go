package domain

import "time"

type VehicleStatus string

const (
	VehicleStatusAvailable VehicleStatus = "AVAILABLE"
	VehicleStatusUnlisted  VehicleStatus = "UNLISTED"
)

type Vehicle struct {
	ID      int64  `json:"id"`
	OwnerID int64  `json:"owner_id"`
	Name    string `json:"name"`
	Plate   string `json:"plate"`
	// EngineClass is free text from the listing form ("50cc", "tay ga",
	// "tay côn", "moto 150", ...). The pricing calculator maps it to an
	// insurance tier by substring matching; unknown classes fall back to the
	// default tier rather than erroring.
	EngineClass  string        `json:"engine_class"`
	PricePerDay  int64         `json:"price_per_day"`
	DepositPrice int64         `json:"deposit_price"`
	Status       VehicleStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
