package model

// AnomalyKind identifies the outcome of an anomaly draw.
type AnomalyKind int

const (
	AnomalyAttitudeDrift AnomalyKind = iota
	AnomalyPayloadOverheat
	AnomalyNone
)

// AnomalyKinds lists every outcome in draw order.
var AnomalyKinds = []AnomalyKind{AnomalyAttitudeDrift, AnomalyPayloadOverheat, AnomalyNone}

func (k AnomalyKind) String() string {
	switch k {
	case AnomalyAttitudeDrift:
		return "attitude"
	case AnomalyPayloadOverheat:
		return "payload"
	case AnomalyNone:
		return "none"
	default:
		return "unknown"
	}
}
