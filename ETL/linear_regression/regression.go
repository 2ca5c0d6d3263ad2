package linear_regression

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ErrNotEnoughData недостаточно месяцев для построения модели
var ErrNotEnoughData = errors.New("недостаточно данных для регрессии")

// RoundToCents округляет денежное значение до копеек (2 знака после запятой)
func RoundToCents(value float64) float64 {
	return math.Round(value*100) / 100
}

func roundToThousandth(value float64) float64 {
	return math.Round(value*1000) / 1000
}

// LinearRegression выполняет расчет линейной регрессии методом наименьших квадратов
func LinearRegression(points []DataPoint) (*RegressionResult, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("%w: требуется минимум 3 месяца, получено %d", ErrNotEnoughData, len(points))
	}

	sorted := make([]DataPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	// a = (n*sum(x*y) - sum(x)*sum(y)) / (n*sum(x^2) - (sum(x))^2)
	// b = (sum(y) - a*sum(x)) / n
	n := float64(len(sorted))
	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for _, p := range sorted {
		sumX += p.X
		sumY += p.Y
		sumXY += p.X * p.Y
		sumX2 += p.X * p.X
		sumY2 += p.Y * p.Y
	}

	varX := n*sumX2 - sumX*sumX
	if math.Abs(varX) < 1e-10 {
		return nil, errors.New("все X одинаковы, невозможно вычислить наклон")
	}

	cov := n*sumXY - sumX*sumY
	a := cov / varX
	b := (sumY - a*sumX) / n

	var r float64
	if d := math.Sqrt(varX * (n*sumY2 - sumY*sumY)); d > 1e-10 {
		r = cov / d
	}

	return &RegressionResult{
		A:           RoundToCents(a),
		B:           RoundToCents(b),
		R:           roundToThousandth(r),
		R2:          roundToThousandth(r * r),
		PeriodStart: sorted[0].Month,
		PeriodEnd:   sorted[len(sorted)-1].Month,
		DataPoints:  sorted,
	}, nil
}

// Predict прогнозирует выручку для порядкового номера месяца x
func Predict(result *RegressionResult, x float64) float64 {
	return RoundToCents(result.A*x + result.B)
}

// tValue возвращает двустороннее критическое значение распределения Стьюдента.
// Для df > 30 используется нормальное приближение.
func tValue(confidenceLevel float64, df int) float64 {
	type row struct{ t90, t95, t99 float64 }
	small := map[int]row{
		1: {6.314, 12.706, 63.657}, 2: {2.920, 4.303, 9.925}, 3: {2.353, 3.182, 5.841},
		4: {2.132, 2.776, 4.604}, 5: {2.015, 2.571, 4.032}, 6: {1.943, 2.447, 3.707},
		7: {1.895, 2.365, 3.499}, 8: {1.860, 2.306, 3.355}, 9: {1.833, 2.262, 3.250},
		10: {1.812, 2.228, 3.169}, 12: {1.782, 2.179, 3.055}, 15: {1.753, 2.131, 2.947},
		20: {1.725, 2.086, 2.845}, 25: {1.708, 2.060, 2.787}, 30: {1.697, 2.042, 2.750},
	}
	t := row{1.645, 1.960, 2.576}
	if df <= 30 {
		// ближайшая меньшая строка таблицы дает более широкий интервал
		for k := df; k >= 1; k-- {
			if v, ok := small[k]; ok {
				t = v
				break
			}
		}
	}
	switch {
	case confidenceLevel >= 0.99:
		return t.t99
	case confidenceLevel >= 0.95:
		return t.t95
	default:
		return t.t90
	}
}

// CalculateConfidenceInterval вычисляет интервал прогноза для x
func CalculateConfidenceInterval(result *RegressionResult, x float64, confidenceLevel float64) (float64, float64) {
	n := float64(len(result.DataPoints))

	meanX := 0.0
	for _, p := range result.DataPoints {
		meanX += p.X
	}
	meanX /= n

	var sumSqDevX, sumSqResiduals float64
	for _, p := range result.DataPoints {
		res := p.Y - (result.A*p.X + result.B)
		sumSqDevX += (p.X - meanX) * (p.X - meanX)
		sumSqResiduals += res * res
	}

	standardError := math.Sqrt(sumSqResiduals / (n - 2))
	predictionStdError := standardError * math.Sqrt(1+1/n+(x-meanX)*(x-meanX)/sumSqDevX)
	margin := tValue(confidenceLevel, len(result.DataPoints)-2) * predictionStdError

	yPred := Predict(result, x)
	return RoundToCents(yPred - margin), RoundToCents(yPred + margin)
}

// GenerateForecasts строит прогноз на monthsAhead месяцев после конца периода.
// Выручка не бывает отрицательной, поэтому значения и нижняя граница обрезаются нулем.
func GenerateForecasts(result *RegressionResult, monthsAhead int, confidenceLevel float64) []ForecastPoint {
	forecasts := make([]ForecastPoint, 0, monthsAhead)

	maxX := result.DataPoints[len(result.DataPoints)-1].X
	for i := 1; i <= monthsAhead; i++ {
		x := maxX + float64(i)
		lower, upper := CalculateConfidenceInterval(result, x, confidenceLevel)

		forecasts = append(forecasts, ForecastPoint{
			Month:         result.PeriodEnd.AddDate(0, i, 0),
			ForecastValue: math.Max(0, Predict(result, x)),
			CILower:       math.Max(0, lower),
			CIUpper:       math.Max(0, upper),
		})
	}

	return forecasts
}

// monthIndex возвращает число месяцев между base и m
func monthIndex(base, m time.Time) int {
	return (m.Year()-base.Year())*12 + int(m.Month()) - int(base.Month())
}
