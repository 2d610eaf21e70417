package domain

import "strings"

// TransportMode - способ передвижения на сегменте маршрута
type TransportMode string

// Transport mode constants
const (
	ModeFlight TransportMode = "flight"
	ModeDrive  TransportMode = "drive"
	ModeTrain  TransportMode = "train"
	ModeWalk   TransportMode = "walk"
)

// Routing profiles of the directions API
const (
	ProfileDriving = "driving"
	ProfileWalking = "walking"
)

// ValidTransportModes returns list of valid transport modes
func ValidTransportModes() []TransportMode {
	return []TransportMode{ModeFlight, ModeDrive, ModeTrain, ModeWalk}
}

// ParseTransportMode разбирает строку режима, регистр не важен
func ParseTransportMode(s string) (TransportMode, bool) {
	mode := TransportMode(strings.ToLower(strings.TrimSpace(s)))
	return mode, mode.Valid()
}

// Valid проверяет, что режим входит в список поддерживаемых
func (m TransportMode) Valid() bool {
	for _, v := range ValidTransportModes() {
		if v == m {
			return true
		}
	}
	return false
}

// IsGround - режим, геометрия которого берётся из directions API
func (m TransportMode) IsGround() bool {
	return m == ModeDrive || m == ModeTrain || m == ModeWalk
}

// RoutingProfile возвращает профиль directions API для наземных режимов.
// Для flight профиль пустой: перелёт строится локально.
func (m TransportMode) RoutingProfile() string {
	switch m {
	case ModeDrive, ModeTrain:
		return ProfileDriving
	case ModeWalk:
		return ProfileWalking
	default:
		return ""
	}
}
