package engine

// Config holds every tuning knob the engine consumes. All values are explicit
// inputs; nothing in the engine reads globals or the environment.
type Config struct {
	MaxSpeedMps         float64 `json:"max_speed_mps"`
	MaxAccuracyM        float64 `json:"max_accuracy_m"`
	MinMovementM        float64 `json:"min_movement_m"`
	ClosureRadiusM      float64 `json:"closure_radius_m"`
	MinZoneAreaM2       float64 `json:"min_zone_area_m2"`
	MinPerimeterM       float64 `json:"min_perimeter_m"`
	SmoothingWindow     int     `json:"smoothing_window"`
	MaxTracePoints      int     `json:"max_trace_points"`
	MinClosurePoints    int     `json:"min_closure_points"`
	ZonePrecisionDigits int     `json:"zone_precision_digits"`
}

// DefaultConfig returns the running-mode defaults.
func DefaultConfig() Config {
	return Config{
		MaxSpeedMps:         14,
		MaxAccuracyM:        50,
		MinMovementM:        2,
		ClosureRadiusM:      30,
		MinZoneAreaM2:       50,
		MinPerimeterM:       30,
		SmoothingWindow:     3,
		MaxTracePoints:      10000,
		MinClosurePoints:    4,
		ZonePrecisionDigits: 6,
	}
}

// WalkConfig returns defaults tuned for walking: finer movement threshold,
// tighter closure radius, larger minimum zone.
func WalkConfig() Config {
	cfg := DefaultConfig()
	cfg.MinMovementM = 0.5
	cfg.ClosureRadiusM = 10
	cfg.MinZoneAreaM2 = 100
	return cfg
}

// normalized fills zero-valued fields with defaults so a partially populated
// Config never divides by zero or disables a bound by accident.
func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.MaxSpeedMps <= 0 {
		c.MaxSpeedMps = d.MaxSpeedMps
	}
	if c.MaxAccuracyM <= 0 {
		c.MaxAccuracyM = d.MaxAccuracyM
	}
	if c.MinMovementM <= 0 {
		c.MinMovementM = d.MinMovementM
	}
	if c.ClosureRadiusM <= 0 {
		c.ClosureRadiusM = d.ClosureRadiusM
	}
	if c.MinZoneAreaM2 <= 0 {
		c.MinZoneAreaM2 = d.MinZoneAreaM2
	}
	if c.MinPerimeterM <= 0 {
		c.MinPerimeterM = d.MinPerimeterM
	}
	if c.SmoothingWindow <= 0 {
		c.SmoothingWindow = d.SmoothingWindow
	}
	if c.MaxTracePoints <= 0 {
		c.MaxTracePoints = d.MaxTracePoints
	}
	if c.MinClosurePoints <= 0 {
		c.MinClosurePoints = d.MinClosurePoints
	}
	if c.ZonePrecisionDigits <= 0 {
		c.ZonePrecisionDigits = d.ZonePrecisionDigits
	}
	return c
}
