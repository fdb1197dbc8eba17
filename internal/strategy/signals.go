package strategy

import (
	"fmt"

	"coinsentry/internal/model"
)

// Profit-ratchet thresholds: a peak at or under smallPeakCeiling exits
// on a drawdownExit-point drop; a larger peak exits when the current
// profit falls to peakRetention of it.
const (
	smallPeakCeiling = 0.03
	drawdownExit     = 0.01
	peakRetention    = 0.70
)

// buyRSICrossUp fires when RSI is rising while at or below the
// oversold threshold, or has just crossed back up through it.
func buyRSICrossUp(ind *model.IndicatorSet, threshold float64) bool {
	rising := ind.RSI > ind.RSIPrev
	atOversold := ind.RSI <= threshold && rising
	crossedUp := ind.RSIPrev <= threshold && ind.RSI > threshold && rising
	return atOversold || crossedUp
}

// buyRSISimple is the plain threshold variant.
func buyRSISimple(ind *model.IndicatorSet, threshold float64) bool {
	return ind.RSI <= threshold
}

// sellProfitRatchet applies the trailing-stop rule against the peak
// profit since entry. The peak*peakRetention division path is only
// reached when peak > smallPeakCeiling, so a zero peak never divides.
func sellProfitRatchet(profit, peak float64) (bool, string) {
	if peak <= smallPeakCeiling && profit <= peak-drawdownExit {
		return true, fmt.Sprintf(
			"peak profit %.2f%% stayed at or under %.0f%% and current %.2f%% dropped %.0f point below it, selling",
			peak*100, smallPeakCeiling*100, profit*100, drawdownExit*100)
	}
	if peak > smallPeakCeiling && profit <= peak*peakRetention {
		return true, fmt.Sprintf(
			"peak profit %.2f%% exceeded %.0f%% and current %.2f%% fell to %.0f%% of it, selling",
			peak*100, smallPeakCeiling*100, profit*100, peakRetention*100)
	}
	return false, ""
}

// sellFixedBand exits at a fixed take-profit or stop-loss level.
func sellFixedBand(profit, takeProfit, stopLoss float64) (bool, string) {
	if profit >= takeProfit {
		return true, fmt.Sprintf("profit %.2f%% reached take-profit %.2f%%, selling", profit*100, takeProfit*100)
	}
	if profit <= -stopLoss {
		return true, fmt.Sprintf("profit %.2f%% hit stop-loss -%.2f%%, selling", profit*100, stopLoss*100)
	}
	return false, ""
}
