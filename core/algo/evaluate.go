// Package algo holds the pure risk scoring logic. Nothing here does I/O or keeps state.
package algo

import (
	"fmt"
	"math"
	"strconv"

	"github.com/huangsam/firewatch/schema"
)

// signalLabel and signalUnit drive the factor text.
var (
	signalLabel = map[schema.Signal]string{
		schema.SignalTemperature: "high temperature",
		schema.SignalTVOC:        "elevated TVOC",
		schema.SignalECO2:        "elevated eCO2",
		schema.SignalHumidity:    "low humidity",
	}
	signalUnit = map[schema.Signal]string{
		schema.SignalTemperature: "°C",
		schema.SignalTVOC:        "ppb",
		schema.SignalECO2:        "ppm",
		schema.SignalHumidity:    "%",
	}
)

// Evaluate scores a reading against thresholds and weights, adding a trend bonus
// for every signal that rose sharply since previous. previous may be nil.
// It is pure and safe for concurrent use.
func Evaluate(current schema.SensorReading, previous *schema.SensorReading, p schema.EvaluationParams) schema.RiskVerdict {
	verdict := schema.RiskVerdict{
		Factors:         []string{},
		ComponentScores: make(map[schema.Signal]int),
	}
	score := 0

	for _, sig := range schema.AllSignals {
		value, ok := current.Value(sig)
		if !ok {
			continue
		}
		threshold := p.Thresholds.For(sig)
		if !triggered(sig, value, threshold) {
			continue
		}
		weight := p.Weights.For(sig)
		score = addSaturating(score, weight)
		verdict.ComponentScores[sig] = weight
		verdict.Factors = append(verdict.Factors, thresholdFactor(sig, value, threshold))
	}

	if previous != nil {
		for _, sig := range schema.TrendSignals {
			delta, ok := p.Deltas.For(sig)
			if !ok {
				continue
			}
			cur, okCur := current.Value(sig)
			prev, okPrev := previous.Value(sig)
			if !okCur || !okPrev {
				continue
			}
			rise := cur - prev
			if rise < delta {
				continue
			}
			score = addSaturating(score, p.DeltaBonus)
			verdict.DeltaBonusTotal = addSaturating(verdict.DeltaBonusTotal, p.DeltaBonus)
			verdict.Factors = append(verdict.Factors, trendFactor(sig, rise, delta))
		}
	}

	verdict.Score = clampScore(score)
	verdict.Level = Classify(verdict.Score, verdict.ComponentScores)
	verdict.Message = schema.GetLevelMessage(verdict.Level)
	return verdict
}

// EvaluateDefault runs Evaluate with the built-in defaults.
func EvaluateDefault(current schema.SensorReading, previous *schema.SensorReading) schema.RiskVerdict {
	return Evaluate(current, previous, schema.GetDefaultParams())
}

// Classify maps a clamped score and the set of triggered signals to a level.
// Temperature together with either combustion gas is HIGH regardless of score.
func Classify(score int, components map[schema.Signal]int) schema.Level {
	_, temp := components[schema.SignalTemperature]
	_, tvoc := components[schema.SignalTVOC]
	_, eco2 := components[schema.SignalECO2]

	switch {
	case temp && (tvoc || eco2), score >= schema.HighScoreCutoff:
		return schema.LevelHigh
	case score >= schema.MediumScoreCutoff:
		return schema.LevelMedium
	case score >= schema.LowScoreCutoff:
		return schema.LevelLow
	default:
		return schema.LevelSafe
	}
}

func triggered(sig schema.Signal, value, threshold float64) bool {
	if sig == schema.SignalHumidity {
		return value < threshold
	}
	return value > threshold
}

// addSaturating adds without wrapping, so unvalidated weights cannot flip the sign.
func addSaturating(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	}
	return a + b
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > schema.MaxScore {
		return schema.MaxScore
	}
	return score
}

func thresholdFactor(sig schema.Signal, value, threshold float64) string {
	op := ">"
	if sig == schema.SignalHumidity {
		op = "<"
	}
	unit := signalUnit[sig]
	return fmt.Sprintf("%s (%s%s %s %s%s)", signalLabel[sig], num(value), unit, op, num(threshold), unit)
}

func trendFactor(sig schema.Signal, rise, delta float64) string {
	unit := signalUnit[sig]
	return fmt.Sprintf("%s rising (+%s%s, >= %s%s)", sig, num(rise), unit, num(delta), unit)
}

// num keeps factor text short: 31 stays "31", 30.256 becomes "30.26".
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
