// Package chart renders daily series as interactive plotly.js area charts in
// standalone HTML documents, and optionally as static PNG previews.
package chart

import (
	"fmt"

	"presscount/internal/domain"
	"presscount/internal/util"
)

// Figure is the plotly.js figure object: {data, layout}.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is a plotly scatter trace drawn as a filled area.
type Trace struct {
	Type          string    `json:"type"`
	Mode          string    `json:"mode"`
	Name          string    `json:"name"`
	X             []string  `json:"x"`
	Y             []float64 `json:"y"`
	CustomData    []string  `json:"customdata,omitempty"`
	StackGroup    string    `json:"stackgroup,omitempty"`
	Fill          string    `json:"fill,omitempty"`
	Line          Line      `json:"line"`
	HoverTemplate string    `json:"hovertemplate"`
}

// Line styles a trace outline.
type Line struct {
	Width float64 `json:"width"`
	Shape string  `json:"shape,omitempty"`
	Color string  `json:"color,omitempty"`
}

// Layout is the subset of plotly layout attributes the charts set.
type Layout struct {
	Title        Title    `json:"title"`
	HoverMode    string   `json:"hovermode"`
	Font         Font     `json:"font"`
	PlotBGColor  string   `json:"plot_bgcolor"`
	PaperBGColor string   `json:"paper_bgcolor"`
	Colorway     []string `json:"colorway"`
	Margin       Margin   `json:"margin"`
	XAxis        XAxis    `json:"xaxis"`
	YAxis        YAxis    `json:"yaxis"`
	ShowLegend   bool     `json:"showlegend"`
	Legend       Legend   `json:"legend"`
}

type Title struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
}

type Font struct {
	Family string `json:"family,omitempty"`
	Size   int    `json:"size,omitempty"`
	Color  string `json:"color,omitempty"`
}

type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`
}

type AxisTitle struct {
	Text string `json:"text"`
}

type XAxis struct {
	Title           AxisTitle        `json:"title"`
	Type            string           `json:"type"`
	ShowGrid        bool             `json:"showgrid"`
	GridColor       string           `json:"gridcolor"`
	RangeSelector   RangeSelector    `json:"rangeselector"`
	RangeSlider     RangeSlider      `json:"rangeslider"`
	TickFormatStops []TickFormatStop `json:"tickformatstops"`
}

type YAxis struct {
	Title     AxisTitle `json:"title"`
	GridColor string    `json:"gridcolor"`
	RangeMode string    `json:"rangemode"`
}

type RangeSelector struct {
	Buttons []RangeButton `json:"buttons"`
	BGColor string        `json:"bgcolor"`
	Font    Font          `json:"font"`
}

type RangeButton struct {
	Count    int    `json:"count,omitempty"`
	Label    string `json:"label"`
	Step     string `json:"step"`
	StepMode string `json:"stepmode,omitempty"`
}

type RangeSlider struct {
	Visible bool `json:"visible"`
}

// TickFormatStop applies Value as the tick format while the tick spacing (in
// milliseconds) lies in DTickRange. A nil bound is open.
type TickFormatStop struct {
	DTickRange [2]*int64 `json:"dtickrange"`
	Value      string    `json:"value"`
}

type Legend struct {
	Orientation string `json:"orientation,omitempty"`
	BGColor     string `json:"bgcolor,omitempty"`
}

// Style holds the text and colors both charts share.
type Style struct {
	Background string
	Grid       string
	FontFamily string
	FontSize   int
	FontColor  string
	XTitle     string
	YTitle     string
	Colorway   []string
}

// DefaultStyle is a dark theme matching the published archive charts.
func DefaultStyle() Style {
	return Style{
		Background: "#1e1e1e",
		Grid:       "#283442",
		FontFamily: "Segoe UI",
		FontSize:   14,
		FontColor:  "white",
		XTitle:     "📅 Date",
		YTitle:     "🗞️ Number of Articles",
		Colorway: []string{
			"#636efa", "#EF553B", "#00cc96", "#ab63fa", "#FFA15A",
			"#19d3f3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
		},
	}
}

const (
	msPerDay   int64 = 24 * 60 * 60 * 1000
	monthTicks       = 31 * msPerDay
	hoverFmt         = "%{x|%d %b %Y}<br>%{fullData.name}: %{y:,.0f} (%{customdata})<extra></extra>"
)

// BySource builds the stacked area chart with one trace per newspaper.
func BySource(series []domain.DailySeries, title string, style Style) Figure {
	traces := make([]Trace, 0, len(series))
	var total float64
	for _, s := range series {
		tr := newTrace(s)
		tr.StackGroup = "one"
		traces = append(traces, tr)
		total += s.Total()
	}
	return Figure{Data: traces, Layout: newLayout(title, subtitle(series, total), style, true)}
}

// Total builds the single area chart for the combined series.
func Total(s domain.DailySeries, title string, style Style) Figure {
	tr := newTrace(s)
	tr.Fill = "tozeroy"
	return Figure{
		Data:   []Trace{tr},
		Layout: newLayout(title, subtitle([]domain.DailySeries{s}, s.Total()), style, false),
	}
}

func newTrace(s domain.DailySeries) Trace {
	x := make([]string, len(s.Points))
	y := make([]float64, len(s.Points))
	kind := make([]string, len(s.Points))
	for i, p := range s.Points {
		x[i] = p.Day.Format(util.DateLayout)
		y[i] = p.Value
		if p.Observed {
			kind[i] = "reported"
		} else {
			kind[i] = "interpolated"
		}
	}
	return Trace{
		Type:          "scatter",
		Mode:          "lines",
		Name:          s.Name,
		X:             x,
		Y:             y,
		CustomData:    kind,
		Line:          Line{Width: 1, Shape: "spline"},
		HoverTemplate: hoverFmt,
	}
}

// subtitle summarises the plotted range, e.g. "1,234 articles · 2024-01-01 – 2024-03-31".
func subtitle(series []domain.DailySeries, total float64) string {
	for _, s := range series {
		if n := len(s.Points); n > 0 {
			return fmt.Sprintf("%s articles · %s – %s",
				FormatInt(int(total+0.5)),
				s.Points[0].Day.Format(util.DateLayout),
				s.Points[n-1].Day.Format(util.DateLayout))
		}
	}
	return ""
}

func newLayout(title, sub string, style Style, legend bool) Layout {
	text := title
	if sub != "" {
		text += "<br><sup>" + sub + "</sup>"
	}
	month := monthTicks
	return Layout{
		Title:        Title{Text: text, X: 0.02},
		HoverMode:    "x unified",
		Font:         Font{Family: style.FontFamily, Size: style.FontSize, Color: style.FontColor},
		PlotBGColor:  style.Background,
		PaperBGColor: style.Background,
		Colorway:     style.Colorway,
		Margin:       Margin{L: 50, R: 50, T: 80, B: 50},
		XAxis: XAxis{
			Title:     AxisTitle{Text: style.XTitle},
			Type:      "date",
			ShowGrid:  true,
			GridColor: style.Grid,
			RangeSelector: RangeSelector{
				Buttons: []RangeButton{
					{Count: 7, Label: "1w", Step: "day", StepMode: "backward"},
					{Count: 1, Label: "1m", Step: "month", StepMode: "backward"},
					{Count: 3, Label: "3m", Step: "month", StepMode: "backward"},
					{Label: "All", Step: "all"},
				},
				BGColor: "#333",
				Font:    Font{Color: "white"},
			},
			RangeSlider: RangeSlider{Visible: true},
			TickFormatStops: []TickFormatStop{
				{DTickRange: [2]*int64{nil, &month}, Value: "%d %b %Y"},
				{DTickRange: [2]*int64{&month, nil}, Value: "%b %Y"},
			},
		},
		YAxis: YAxis{
			Title:     AxisTitle{Text: style.YTitle},
			GridColor: style.Grid,
			RangeMode: "tozero",
		},
		ShowLegend: legend,
		Legend:     Legend{BGColor: "rgba(0,0,0,0)"},
	}
}
