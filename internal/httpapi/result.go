package httpapi

import (
	"fmt"

	"github.com/floudata/pucp-time-series/internal/models"
)

// Result response envelope
// - code: ResultSuccess, ResultOutOfRange or ResultError
// - type: "success" | "warning" | "error"
// - message: human-readable status
// - result: payload
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
	// ResultOutOfRange analysis succeeded but mean heart rate is outside the normal band
	ResultOutOfRange = 2001
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

func Warning[T any](code int, message string, result T) Result[T] {
	return Result[T]{Code: code, Type: "warning", Message: message, Result: result}
}

func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message, Result: nil}
}

// analysisResult wraps an analysis, flagging bradycardia and tachycardia as warnings
func analysisResult(result *models.AnalysisResult) Result[*models.AnalysisResult] {
	if !result.Classification.OutOfRange() || result.MeanHeartRate == nil {
		return Ok(result)
	}
	msg := fmt.Sprintf("heart rate %.0f bpm out of range (%s)", *result.MeanHeartRate, result.Classification)
	return Warning(ResultOutOfRange, msg, result)
}
