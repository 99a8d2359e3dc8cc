package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldRunID is the structured log field key for the pipeline run id.
	FieldRunID = "run_id"
	// FieldStage is the structured log field key for the stage title.
	FieldStage = "stage"
	// FieldStageIndex is the 1-based position of the stage.
	FieldStageIndex = "stage_index"
	// FieldRole is the structured log field key for the stage role.
	FieldRole = "stage_role"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// RunFields describes a pipeline run.
func RunFields(runID string) []zap.Field {
	return StringFields(StringField{Key: FieldRunID, Value: runID})
}

// StageFields describes a stage by zero-based index, title and role.
func StageFields(index int, title, role string) []zap.Field {
	fields := []zap.Field{zap.Int(FieldStageIndex, index+1)}
	return append(fields, StringFields(
		StringField{Key: FieldStage, Value: title},
		StringField{Key: FieldRole, Value: role},
	)...)
}
