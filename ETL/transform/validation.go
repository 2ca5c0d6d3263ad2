package transform

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/LilVoxy/sales_analyzer/ETL/models"
	"github.com/LilVoxy/sales_analyzer/ETL/utils"
)

// ErrValidationFailed строгая валидация нашла нарушения
var ErrValidationFailed = errors.New("валидация данных не пройдена")

const maxSamples = 10

// Validator проверяет записи фиксированным набором правил
type Validator struct {
	validate *validator.Validate
	strict   bool
	logger   *utils.ETLLogger
}

// NewValidator создает новый экземпляр Validator
func NewValidator(strict bool, logger *utils.ETLLogger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("col"); name != "" {
			return name
		}
		return fld.Name
	})
	v.RegisterStructValidation(shipAfterOrder, models.SaleRecord{})

	return &Validator{
		validate: v,
		strict:   strict,
		logger:   logger,
	}
}

// shipAfterOrder дата отгрузки не раньше даты заказа
func shipAfterOrder(sl validator.StructLevel) {
	r := sl.Current().Interface().(models.SaleRecord)
	if r.OrderDate.IsZero() || r.ShipDate.IsZero() {
		return
	}
	if r.ShipDate.Before(r.OrderDate) {
		sl.ReportError(r.ShipDate, "ship_date", "ShipDate", "ship_after_order", "")
	}
}

// RequiredColumns колонки, которые не могут быть пустыми
func RequiredColumns() []string {
	var cols []string
	t := reflect.TypeOf(models.SaleRecord{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if strings.Contains(f.Tag.Get("validate"), "required") {
			cols = append(cols, f.Tag.Get("col"))
		}
	}
	return cols
}

// Validate проверяет записи и возвращает валидное подмножество и отчет.
// В строгом режиме любое нарушение возвращает ErrValidationFailed.
func (v *Validator) Validate(records []models.SaleRecord) ([]models.SaleRecord, models.ValidationReport, error) {
	report := models.ValidationReport{
		TotalRows:  len(records),
		NullCounts: make(map[string]int),
		Violations: make(map[string]int),
	}
	for _, col := range RequiredColumns() {
		report.NullCounts[col] = 0
	}

	valid := make([]models.SaleRecord, 0, len(records))
	for _, rec := range records {
		err := v.validate.Struct(rec)
		if err == nil {
			valid = append(valid, rec)
			continue
		}

		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, report, fmt.Errorf("ошибка валидатора: %w", err)
		}

		report.InvalidRows++
		for _, fe := range fieldErrs {
			report.Violations[fe.Field()+":"+fe.Tag()]++
			if fe.Tag() == "required" {
				report.NullCounts[fe.Field()]++
			}
			if len(report.Samples) < maxSamples {
				report.Samples = append(report.Samples,
					fmt.Sprintf("row_id=%d %s: правило %s, значение %v", rec.RowID, fe.Field(), fe.Tag(), fe.Value()))
			}
		}
	}
	report.ValidRows = len(valid)

	if report.InvalidRows == 0 {
		v.logger.Info("Валидация пройдена: %d строк", report.TotalRows)
		return valid, report, nil
	}

	v.logger.Warn("Валидация: %d из %d строк с нарушениями: %s",
		report.InvalidRows, report.TotalRows, formatViolations(report.Violations))
	for _, s := range report.Samples {
		v.logger.Debug("  %s", s)
	}

	if v.strict {
		return nil, report, fmt.Errorf("%w: %d строк с нарушениями (%s)",
			ErrValidationFailed, report.InvalidRows, formatViolations(report.Violations))
	}

	v.logger.Warn("Нестрогий режим: %d невалидных строк отброшено", report.InvalidRows)
	return valid, report, nil
}

func formatViolations(violations map[string]int) string {
	keys := make([]string, 0, len(violations))
	for k := range violations {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, violations[k]))
	}
	return strings.Join(parts, ", ")
}
