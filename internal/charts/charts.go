package charts

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"
)

// ChartGenerator генерирует графики для сводок
type ChartGenerator struct{}

// NewChartGenerator создает новый генератор графиков
func NewChartGenerator() *ChartGenerator {
	return &ChartGenerator{}
}

// GenerateCategoryChart строит столбчатую диаграмму сумм по категориям
// и возвращает PNG. Возвращает ошибку, если данных нет.
func (g *ChartGenerator) GenerateCategoryChart(title string, byCategory map[string]decimal.Decimal) ([]byte, error) {
	if len(byCategory) == 0 {
		return nil, fmt.Errorf("no data for chart %q", title)
	}

	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := byCategory[names[i]], byCategory[names[j]]
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return names[i] < names[j]
	})

	bars := make([]chart.Value, 0, len(names))
	for _, name := range names {
		value, _ := byCategory[name].Float64()
		bars = append(bars, chart.Value{
			Label: name,
			Value: value,
		})
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    700,
		Height:   400,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
			FillColor: chart.ColorWhite,
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}
