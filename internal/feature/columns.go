package feature

// Column names one feature in the model input vector.
type Column string

const (
	ColRSI         Column = "rsi"
	ColStochK      Column = "stoch_k"
	ColStochD      Column = "stoch_d"
	ColMFI         Column = "mfi"
	ColMA10Dist    Column = "ma10_dist"
	ColMA20Dist    Column = "ma20_dist"
	ColMA50Dist    Column = "ma50_dist"
	ColMA100Dist   Column = "ma100_dist"
	ColDelta10_20  Column = "delta_ma10_ma20"
	ColDelta20_50  Column = "delta_ma20_ma50"
	ColDelta50_100 Column = "delta_ma50_ma100"
	ColMomentum    Column = "momentum"
	ColBBUpper     Column = "bb_upper_dist"
	ColBBLower     Column = "bb_lower_dist"
	ColBBWidth     Column = "bb_width"
)

// Columns is the model input layout. Training and inference both extract
// rows in exactly this order.
var Columns = []Column{
	ColRSI,
	ColStochK,
	ColStochD,
	ColMFI,
	ColMA10Dist,
	ColMA20Dist,
	ColMA50Dist,
	ColMA100Dist,
	ColDelta10_20,
	ColDelta20_50,
	ColDelta50_100,
	ColMomentum,
	ColBBUpper,
	ColBBLower,
	ColBBWidth,
}

// Auxiliary columns the builder attaches but never feeds to the model.
const (
	AuxMA10    Column = "ma10"
	AuxMA20    Column = "ma20"
	AuxMA50    Column = "ma50"
	AuxMA100   Column = "ma100"
	AuxBBUpper Column = "bb_upper"
	AuxBBLower Column = "bb_lower"
)

// Names returns cols as strings.
func Names(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = string(c)
	}
	return out
}
