package ntp937

import (
	"fmt"
	"strconv"
	"strings"
)

// HazardSource records which input determined the hazard class.
type HazardSource string

const (
	HazardFromPhrases HazardSource = "hazard_phrases"
	HazardFromLimit   HazardSource = "exposure_limit"
	HazardNoData      HazardSource = "no_data"
)

// ReferenceLimit returns the most restrictive (lowest) exposure limit.
// ok is false when no limits are supplied.
func ReferenceLimit(limits []float64) (ref float64, ok bool) {
	for i, l := range limits {
		if i == 0 || l < ref {
			ref = l
		}
	}
	return ref, len(limits) > 0
}

// ClassifyHazard derives the hazard class.
//
// Any supplied phrase takes the phrase path, even if none is recognised:
// the result is the highest class among recognised phrases, or HazardMin.
// Without phrases the reference exposure limit is classified. With neither,
// DefaultHazardClass is returned with a no-data fallback.
func ClassifyHazard(phrases []HazardPhrase, limits []float64) (HazardClass, HazardSource, []Fallback) {
	if len(phrases) > 0 {
		class := DefaultHazardClass
		var fallbacks []Fallback
		for _, p := range phrases {
			c, ok := HazardPhraseClasses[HazardPhrase(strings.TrimSpace(string(p)))]
			if !ok {
				fallbacks = append(fallbacks, Fallback{
					Kind:   FallbackUnknownPhrase,
					Detail: fmt.Sprintf("%q is not in the hazard phrase table; ignored", string(p)),
				})
				continue
			}
			if c > class {
				class = c
			}
		}
		return class, HazardFromPhrases, fallbacks
	}

	if ref, ok := ReferenceLimit(limits); ok {
		return ClassifyHazardByLimit(ref), HazardFromLimit, nil
	}

	return DefaultHazardClass, HazardNoData, []Fallback{{
		Kind:   FallbackNoHazardData,
		Detail: fmt.Sprintf("no hazard phrases or exposure limits supplied; assumed hazard class %d", DefaultHazardClass),
		Value:  strconv.Itoa(int(DefaultHazardClass)),
	}}
}

// ClassifyHazardByLimit maps a reference exposure limit (mg/m³) to a hazard class.
func ClassifyHazardByLimit(ref float64) HazardClass {
	for _, t := range HazardLimitThresholds {
		if ref <= t.AtMost {
			return t.Class
		}
	}
	return HazardMin
}
