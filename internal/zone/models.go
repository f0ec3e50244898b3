package zone

import "time"

// Zone is a registered claim row. The primary key is the engine's
// deterministic zone ID, which is what makes registration idempotent.
type Zone struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	RunID      string    `json:"run_id"`
	Canonical  string    `json:"canonical"`
	LatMin     float64   `json:"lat_min"`
	LonMin     float64   `json:"lon_min"`
	LatMax     float64   `json:"lat_max"`
	LonMax     float64   `json:"lon_max"`
	AreaM2     float64   `json:"area_m2"`
	PerimeterM float64   `json:"perimeter_m"`
	Verified   bool      `json:"verified"`
	Issues     []string  `json:"issues,omitempty"`
	ClaimedAt  time.Time `json:"claimed_at"`
}
