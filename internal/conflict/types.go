package conflict

// #region flag-reason
// FlagReason tags why a prototype was flagged.
type FlagReason string

const (
	ReasonHighAxisLoading FlagReason = "high_axis_loading"
	ReasonSignTension     FlagReason = "sign_tension"
)

// #endregion flag-reason

// #region config
// Config holds the structural-analysis thresholds.
type Config struct {
	// ActiveAxisEpsilon: axes with |weight| above this count as active.
	ActiveAxisEpsilon float64
	// StrongAxisThreshold: axes with |weight| at or above this are strong.
	StrongAxisThreshold float64
	// FenceMultiplier is the Tukey-fence k in Q3 + k*IQR.
	FenceMultiplier float64
	// MinIQRFloor protects homogeneous catalogs: a zero IQR would flag
	// roughly half of all prototypes for merely exceeding the median.
	MinIQRFloor float64
	// SignTensionMinMagnitude: |weight| at or above this counts as a
	// high-magnitude loading for the sign-tension test.
	SignTensionMinMagnitude float64
	// SignTensionMinHighAxes: combined size of both high-magnitude sets
	// required before sign tension is considered.
	SignTensionMinHighAxes int
	// SignBalanceThreshold: flag only when the positive/negative split is
	// roughly even; one dominant sign with a lone dissenter stays quiet.
	SignBalanceThreshold float64
}

// DefaultConfig returns the documented detector defaults.
func DefaultConfig() Config {
	return Config{
		ActiveAxisEpsilon:       0.08,
		StrongAxisThreshold:     0.25,
		FenceMultiplier:         1.5,
		MinIQRFloor:             0.5,
		SignTensionMinMagnitude: 0.25,
		SignTensionMinHighAxes:  3,
		SignBalanceThreshold:    0.34,
	}
}

// #endregion config

// #region results
// HighAxisLoading reports a prototype whose active-axis count is a Tukey
// outlier within the catalog snapshot.
type HighAxisLoading struct {
	PrototypeID     string     `json:"prototype_id"`
	FlagReason      FlagReason `json:"flag_reason"`
	ActiveAxisCount int        `json:"active_axis_count"`
	StrongAxisCount int        `json:"strong_axis_count"`
	StrongAxes      []string   `json:"strong_axes"`
	PositiveAxes    []string   `json:"positive_axes"`
	NegativeAxes    []string   `json:"negative_axes"`
	SignBalance     float64    `json:"sign_balance"`
}

// SignTension reports a prototype loading strongly in both directions.
type SignTension struct {
	PrototypeID           string     `json:"prototype_id"`
	FlagReason            FlagReason `json:"flag_reason"`
	HighMagnitudePositive []string   `json:"high_magnitude_positive"`
	HighMagnitudeNegative []string   `json:"high_magnitude_negative"`
	SignBalance           float64    `json:"sign_balance"`
}

// Conflict is one flagged prototype in the combined result list.
type Conflict struct {
	PrototypeID string     `json:"prototype_id"`
	FlagReason  FlagReason `json:"flag_reason"`
	Detail      string     `json:"detail"`
}

// Result bundles all structural findings for one snapshot.
// All slices are empty (never nil-vs-error distinctions) for degenerate
// inputs: fewer than two prototypes, or no usable weight maps.
type Result struct {
	Conflicts        []Conflict        `json:"conflicts"`
	HighAxisLoadings []HighAxisLoading `json:"high_axis_loadings"`
	SignTensions     []SignTension     `json:"sign_tensions"`
}

// #endregion results
