package domain

// AnimationStatus - состояние проигрывания
type AnimationStatus string

const (
	AnimationIdle    AnimationStatus = "idle"
	AnimationPlaying AnimationStatus = "playing"
	AnimationPaused  AnimationStatus = "paused"
)

// AnimationState - состояние аниматора маршрута.
// Накопленные итоги живут здесь, а не в глобальных переменных.
type AnimationState struct {
	SegmentIndex     int             `json:"segment_index"`
	Progress         float64         `json:"progress"`
	TotalDistanceKm  float64         `json:"total_distance_km"`
	TotalDurationMin float64         `json:"total_duration_min"`
	Status           AnimationStatus `json:"status"`
	Completed        bool            `json:"completed"`
}

// ProgressReadout - то, что видит пользователь во время анимации
type ProgressReadout struct {
	SegmentIndex          int           `json:"segment_index"`
	Mode                  TransportMode `json:"mode"`
	FromName              string        `json:"from_name"`
	ToName                string        `json:"to_name"`
	SegmentDistanceKm     float64       `json:"segment_distance_km"`
	CumulativeDistanceKm  float64       `json:"cumulative_distance_km"`
	SegmentDurationMin    float64       `json:"segment_duration_min"`
	CumulativeDurationMin float64       `json:"cumulative_duration_min"`
	Percent               float64       `json:"percent"`
	Position              Coordinate    `json:"position"`
	Bearing               float64       `json:"bearing"`
}
