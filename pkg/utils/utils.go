// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0
//

package utils

import (
	"math"
	"os"
)

// Path colors used by visualization sinks, from https://htmlcolorcodes.com/
const (
	ColorLOS         = "#2ECC71"
	ColorReflection  = "#3498DB"
	ColorDiffraction = "#F1C40F"
	ColorScattering  = "#9B59B6"
	ColorBlocked     = "#E74C3C"
)

/**
 * Rounds number to decimals
 */
func RoundToDecimal(value float64, decimals int) float64 {
	intValue := value * math.Pow10(decimals)
	return math.Round(intValue) / math.Pow10(decimals)
}

// Quantize returns value expressed as an integer number of steps.
func Quantize(value float64, step float64) int64 {
	return int64(math.Round(value / step))
}

func GetEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// DbToLinear converts a power ratio in dB to linear scale
func DbToLinear(db float64) float64 {
	return math.Pow(10, db/10)
}

// LinearToDb converts a linear power ratio to dB
func LinearToDb(linear float64) float64 {
	return 10 * math.Log10(linear)
}

// Clamp limits value to [lo, hi]
func Clamp(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}

func If[T any](cond bool, vtrue, vfalse T) T {
	if cond {
		return vtrue
	}
	return vfalse
}
