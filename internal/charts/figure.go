// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package charts builds Plotly figure documents rendered by the dashboard.
package charts

// Messages shown when a figure has nothing to plot.
const (
	MessageNoData        = "데이터가 없습니다"
	MessageNoStationData = "선택한 역의 데이터가 없습니다"
)

const (
	colorscaleCongestion   = "RdYlGn_r"
	axisTitleTimeSlot      = "시간대"
	axisTitleCongestion    = "혼잡도"
	axisTitleStationLine   = "역 (호선)"
	defaultTickAngle       = -45
	defaultFigureHeight    = 500
	minDynamicFigureHeight = 400
)

// Figure is a Plotly figure: {"data": [...], "layout": {...}}.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace holds the subset of Plotly trace attributes used by the dashboard.
type Trace struct {
	Type          string       `json:"type"`
	Name          string       `json:"name,omitempty"`
	Mode          string       `json:"mode,omitempty"`
	Orientation   string       `json:"orientation,omitempty"`
	X             any          `json:"x,omitempty"`
	Y             any          `json:"y,omitempty"`
	Z             [][]*float64 `json:"z,omitempty"`
	Text          []string     `json:"text,omitempty"`
	TextPosition  string       `json:"textposition,omitempty"`
	Colorscale    string       `json:"colorscale,omitempty"`
	ColorBar      *ColorBar    `json:"colorbar,omitempty"`
	Marker        *Marker      `json:"marker,omitempty"`
	HoverTemplate string       `json:"hovertemplate,omitempty"`

	// Precomputed box statistics.
	Q1         []float64 `json:"q1,omitempty"`
	Median     []float64 `json:"median,omitempty"`
	Q3         []float64 `json:"q3,omitempty"`
	LowerFence []float64 `json:"lowerfence,omitempty"`
	UpperFence []float64 `json:"upperfence,omitempty"`
	Mean       []float64 `json:"mean,omitempty"`
}

// Marker styles bar traces.
type Marker struct {
	Color      []float64 `json:"color,omitempty"`
	Colorscale string    `json:"colorscale,omitempty"`
	ShowScale  bool      `json:"showscale,omitempty"`
	ColorBar   *ColorBar `json:"colorbar,omitempty"`
}

// ColorBar titles a color scale.
type ColorBar struct {
	Title Title `json:"title"`
}

// Title is a Plotly title object.
type Title struct {
	Text string `json:"text"`
}

// Axis configures an axis.
type Axis struct {
	Title     *Title `json:"title,omitempty"`
	TickAngle int    `json:"tickangle,omitempty"`
	Visible   *bool  `json:"visible,omitempty"`
}

// Font sets text size.
type Font struct {
	Size int `json:"size"`
}

// Legend places the legend.
type Legend struct {
	Orientation string  `json:"orientation,omitempty"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	XAnchor     string  `json:"xanchor,omitempty"`
	YAnchor     string  `json:"yanchor,omitempty"`
}

// Annotation is a free text label.
type Annotation struct {
	Text      string  `json:"text"`
	XRef      string  `json:"xref"`
	YRef      string  `json:"yref"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	ShowArrow bool    `json:"showarrow"`
	Font      *Font   `json:"font,omitempty"`
}

// Layout holds figure-level settings.
type Layout struct {
	Title       *Title       `json:"title,omitempty"`
	XAxis       *Axis        `json:"xaxis,omitempty"`
	YAxis       *Axis        `json:"yaxis,omitempty"`
	Height      int          `json:"height,omitempty"`
	HoverMode   string       `json:"hovermode,omitempty"`
	ShowLegend  *bool        `json:"showlegend,omitempty"`
	Legend      *Legend      `json:"legend,omitempty"`
	Font        *Font        `json:"font,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Message returns an empty figure carrying a centred notice.
func Message(text string) Figure {
	hidden := false
	return Figure{
		Data: []Trace{},
		Layout: Layout{
			XAxis: &Axis{Visible: &hidden},
			YAxis: &Axis{Visible: &hidden},
			Annotations: []Annotation{{
				Text: text, XRef: "paper", YRef: "paper",
				X: 0.5, Y: 0.5, ShowArrow: false,
				Font: &Font{Size: 20},
			}},
		},
	}
}

// HasMessage reports whether the figure is a notice with the given text.
func (f Figure) HasMessage(text string) bool {
	for _, a := range f.Layout.Annotations {
		if a.Text == text {
			return true
		}
	}
	return false
}

func axisTitled(text string) *Axis {
	return &Axis{Title: &Title{Text: text}}
}

func dynamicHeight(rows, perRow int) int {
	return max(minDynamicFigureHeight, rows*perRow)
}
