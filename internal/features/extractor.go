// Package features turns raw timed key events into a fixed-schema feature vector.
package features

import (
	"unicode/utf8"

	"github.com/typegait/typegait/internal/models"
)

// Extract derives the biometric feature vector from one ordered sequence of
// key events and the reference text the sample was supposed to represent.
//
// Extract never fails: fewer than 2 events yields the all-zero vector, and
// every statistic degrades to 0 when its underlying sample set is empty.
func Extract(events []models.KeyEvent, text string) *models.FeatureVector {
	if len(events) < 2 {
		return &models.FeatureVector{
			RawDwellTimes: []float64{},
			RawLatencies:  []float64{},
		}
	}

	var presses, releases []models.KeyEvent
	for _, e := range events {
		switch {
		case e.IsPress():
			presses = append(presses, e)
		case e.IsRelease():
			releases = append(releases, e)
		}
	}

	dwells := dwellTimes(presses, releases)
	latencies := interKeyLatencies(presses)
	flights := flightTimes(presses, releases)
	digraphs := digraphLatencies(presses)

	fv := &models.FeatureVector{
		TypingSpeed:       typingSpeed(presses, text),
		KeyCount:          float64(len(presses)),
		RhythmConsistency: rhythmConsistency(latencies),
		RawDwellTimes:     capSamples(dwells),
		RawLatencies:      capSamples(latencies),
	}

	fv.DwellMean = mean(dwells)
	fv.DwellStd = stddev(dwells)
	fv.DwellMedian = median(dwells)
	fv.DwellMin, fv.DwellMax = minMax(dwells)

	fv.LatencyMean = mean(latencies)
	fv.LatencyStd = stddev(latencies)
	fv.LatencyMedian = median(latencies)
	fv.LatencyMin, fv.LatencyMax = minMax(latencies)

	fv.FlightMean = mean(flights)
	fv.FlightStd = stddev(flights)
	fv.FlightMedian = median(flights)

	if len(presses) > 0 {
		fv.TotalTime = presses[len(presses)-1].Timestamp - presses[0].Timestamp
	}

	if len(digraphs) > 0 {
		values := make([]float64, 0, len(digraphs))
		for _, v := range digraphs {
			values = append(values, v)
		}
		fv.DigraphMean = mean(values)
		fv.DigraphStd = stddev(values)
	}

	return fv
}

// dwellTimes pairs each press with the first release of the same key whose
// timestamp is strictly greater. Presses with no matching later release are
// dropped, not treated as zero.
func dwellTimes(presses, releases []models.KeyEvent) []float64 {
	var dwells []float64
	for _, p := range presses {
		for _, r := range releases {
			if r.Key == p.Key && r.Timestamp > p.Timestamp {
				dwells = append(dwells, r.Timestamp-p.Timestamp)
				break
			}
		}
	}
	return dwells
}

// interKeyLatencies is the press-to-next-press gap for each consecutive press pair.
func interKeyLatencies(presses []models.KeyEvent) []float64 {
	var latencies []float64
	for i := 0; i+1 < len(presses); i++ {
		latencies = append(latencies, presses[i+1].Timestamp-presses[i].Timestamp)
	}
	return latencies
}

// flightTimes is the release-to-next-press gap. Non-positive flights occur
// when key rollover overlaps releases and are discarded as noise.
func flightTimes(presses, releases []models.KeyEvent) []float64 {
	var flights []float64
	for i := 0; i+1 < len(releases); i++ {
		if i+1 >= len(presses) {
			break
		}
		flight := presses[i+1].Timestamp - releases[i].Timestamp
		if flight > 0 {
			flights = append(flights, flight)
		}
	}
	return flights
}

// digraphLatencies keys each consecutive single-character press pair by the
// concatenated "key1key2" and keeps a running average: a repeat observation
// replaces the entry with (previous + new) / 2, which weights recent
// observations more heavily than a true mean.
func digraphLatencies(presses []models.KeyEvent) map[string]float64 {
	digraphs := make(map[string]float64)
	for i := 0; i+1 < len(presses); i++ {
		k1, k2 := presses[i].Key, presses[i+1].Key
		if utf8.RuneCountInString(k1) != 1 || utf8.RuneCountInString(k2) != 1 {
			continue
		}
		pair := k1 + k2
		latency := presses[i+1].Timestamp - presses[i].Timestamp
		if prev, seen := digraphs[pair]; seen {
			digraphs[pair] = (prev + latency) / 2
		} else {
			digraphs[pair] = latency
		}
	}
	return digraphs
}

// typingSpeed is characters per minute of reference text over the press span.
// The text is counted in runes, not bytes, so multi-byte scripts do not
// inflate the speed.
func typingSpeed(presses []models.KeyEvent, text string) float64 {
	if len(presses) < 2 {
		return 0
	}
	elapsedSeconds := (presses[len(presses)-1].Timestamp - presses[0].Timestamp) / 1000
	if elapsedSeconds == 0 {
		return 0
	}
	return float64(utf8.RuneCountInString(text)) / elapsedSeconds * 60
}

// rhythmConsistency is the inverse coefficient of variation of the inter-key
// latencies, bounded in (0, 1]. Fewer than 2 latencies or a zero mean yields 0.
func rhythmConsistency(latencies []float64) float64 {
	if len(latencies) < 2 {
		return 0
	}
	m := mean(latencies)
	if m == 0 {
		return 0
	}
	return 1 / (1 + stddev(latencies)/m)
}

// capSamples returns the first MaxRawSamples values, copied.
func capSamples(xs []float64) []float64 {
	n := len(xs)
	if n > models.MaxRawSamples {
		n = models.MaxRawSamples
	}
	out := make([]float64, n)
	copy(out, xs[:n])
	return out
}
