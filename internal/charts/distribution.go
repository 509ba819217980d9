// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package charts

import (
	"sort"

	"github.com/ManuGH/metrocrowd/internal/analysis"
	"github.com/ManuGH/metrocrowd/internal/congestion"
)

// BoxStats are the precomputed statistics of one box.
type BoxStats struct {
	Q1, Median, Q3         float64
	LowerFence, UpperFence float64
	Mean                   float64
}

// ComputeBox returns quartiles by linear interpolation and whiskers at the
// most extreme values within 1.5 IQR of the box. values must be non-empty.
func ComputeBox(values []float64) BoxStats {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	q1 := analysis.Quantile(sorted, 0.25)
	q3 := analysis.Quantile(sorted, 0.75)
	iqr := q3 - q1
	lowLimit, highLimit := q1-1.5*iqr, q3+1.5*iqr

	b := BoxStats{
		Q1:         q1,
		Median:     analysis.Quantile(sorted, 0.5),
		Q3:         q3,
		LowerFence: q1,
		UpperFence: q3,
	}
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	b.Mean = sum / float64(len(sorted))
	for _, v := range sorted {
		if v >= lowLimit {
			b.LowerFence = v
			break
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i] <= highLimit {
			b.UpperFence = sorted[i]
			break
		}
	}
	return b
}

// Distribution plots one box per time slot in time order.
func Distribution(records []congestion.Record) Figure {
	valid := congestion.Valid(records)
	if len(valid) == 0 {
		return Message(MessageNoData)
	}

	bySlot := map[string][]float64{}
	for _, r := range valid {
		bySlot[r.TimeSlot] = append(bySlot[r.TimeSlot], r.Value())
	}
	slots := slotOrder(valid)

	tr := Trace{
		Type:       "box",
		Name:       axisTitleCongestion,
		X:          slots,
		Q1:         make([]float64, len(slots)),
		Median:     make([]float64, len(slots)),
		Q3:         make([]float64, len(slots)),
		LowerFence: make([]float64, len(slots)),
		UpperFence: make([]float64, len(slots)),
		Mean:       make([]float64, len(slots)),
	}
	for i, slot := range slots {
		b := ComputeBox(bySlot[slot])
		tr.Q1[i] = b.Q1
		tr.Median[i] = b.Median
		tr.Q3[i] = b.Q3
		tr.LowerFence[i] = b.LowerFence
		tr.UpperFence[i] = b.UpperFence
		tr.Mean[i] = b.Mean
	}

	return Figure{
		Data: []Trace{tr},
		Layout: Layout{
			Title:  &Title{Text: "시간대별 혼잡도 분포"},
			XAxis:  &Axis{Title: &Title{Text: axisTitleTimeSlot}, TickAngle: defaultTickAngle},
			YAxis:  axisTitled(axisTitleCongestion),
			Height: defaultFigureHeight,
		},
	}
}
