package signal

import (
	"math"

	"github.com/nfvri/ran-propagation/pkg/model"
)

// ReceivedPower returns the received power in dBm for a path loss on the context's link.
// A link without signal receives -Inf dBm.
func ReceivedPower(pc *model.PropagationContext, pathLossDB float64) float64 {
	if math.IsInf(pathLossDB, 1) || math.IsNaN(pathLossDB) {
		return math.Inf(-1)
	}
	return pc.TxPowerDbm + pc.AntennaGainDbi - pathLossDB
}

// HasSignal reports whether a path loss describes a usable link
func HasSignal(pathLossDB float64) bool {
	return !math.IsInf(pathLossDB, 1) && !math.IsNaN(pathLossDB)
}
