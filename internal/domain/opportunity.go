package domain

// Side es el lado de un contrato binario.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// TimeSensitivity indica cuánta prisa hay para actuar sobre la oportunidad.
type TimeSensitivity string

const (
	SensitivityHigh   TimeSensitivity = "high"
	SensitivityMedium TimeSensitivity = "medium"
)

// Opportunity es un candidato de trade detectado y puntuado, antes del
// filtrado de estrategia. Inmutable una vez producida por el detector;
// el sizer la decora con los campos de tamaño.
type Opportunity struct {
	Ticker   string
	Title    string
	Category string

	Side        Side
	EntryPrice  int // centavos, 1-99
	TargetPrice int
	StopLoss    int

	Confidence      int     // 0-100
	ExpectedReturn  float64 // porcentaje (target-entry)/entry*100
	TimeSensitivity TimeSensitivity
	TimeWindow      string // "HH:MM-HH:MM", best effort
	Reasoning       string
	Pattern         string // momentum | mean_reversion | sentiment

	// Factores de psicología que contribuyeron al score, para el reasoning.
	Factors []Factor

	// --- Decoración del sizer (StrategyFilterSizer) ---
	Contracts      int     // >= 1 tras el sizing
	Cost           float64 // contracts * entry / 100, en dólares
	ExpectedAmount float64 // retorno esperado en dólares
	PriorityScore  float64
}

// ExpectedReturnPct calcula el retorno esperado en porcentaje entre dos
// precios en centavos. Devuelve (0, false) si el precio actual es 0:
// la convención del sistema es "sin precio no hay oportunidad",
// nunca propagar NaN/Inf.
func ExpectedReturnPct(current, target int) (float64, bool) {
	if current <= 0 {
		return 0, false
	}
	return float64(target-current) / float64(current) * 100, true
}
