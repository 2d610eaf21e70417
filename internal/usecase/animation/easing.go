package animation

// Easing - монотонная функция [0,1] -> [0,1], f(0)=0, f(1)=1
type Easing func(t float64) float64

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func Linear(t float64) float64 {
	return clamp01(t)
}

// EaseOutQuad - t(2-t), основная кривая переходов камеры
func EaseOutQuad(t float64) float64 {
	t = clamp01(t)
	return t * (2 - t)
}

func EaseInOutCubic(t float64) float64 {
	t = clamp01(t)
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}
