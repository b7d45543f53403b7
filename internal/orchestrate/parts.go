package orchestrate

import (
	"context"
	"encoding/base64"
	"fmt"

	"go.uber.org/zap"

	"github.com/xela07ax/instavibe/pkg/a2a"
)

// ArtifactStore сохраняет файловые артефакты удаленных агентов.
// В ответ LLM уходит только ссылка {"artifact-file-id": name},
// сами байты никогда не инлайнятся в диалог.
type ArtifactStore interface {
	SaveArtifact(ctx context.Context, name, mimeType string, data []byte) error
}

// Actions — сайд-флаги одного вызова send_task: эскалация к пользователю
// и запрет суммаризации ответа моделью.
type Actions struct {
	Escalate          bool
	SkipSummarization bool
}

// ConvertParts прогоняет все части через ConvertPart, отбрасывая nil.
func ConvertParts(ctx context.Context, parts []a2a.Part, artifacts ArtifactStore, actions *Actions, logger *zap.Logger) []any {
	out := make([]any, 0, len(parts))
	for _, p := range parts {
		if v := ConvertPart(ctx, p, artifacts, actions, logger); v != nil {
			out = append(out, v)
		}
	}
	return out
}

// ConvertPart — тотальная функция: для любой формы части возвращает
// определенное значение и никогда не бросает ошибку наружу.
//   - text  → строка
//   - data  → структурные данные
//   - file с байтами → декодировать, сохранить артефакт, вернуть ссылку
//   - file без байтов / неизвестный тип → placeholder-строка
func ConvertPart(ctx context.Context, part a2a.Part, artifacts ArtifactStore, actions *Actions, logger *zap.Logger) any {
	switch part.Kind {
	case a2a.PartKindText:
		return part.Text

	case a2a.PartKindData:
		return part.Data

	case a2a.PartKindFile:
		if part.File == nil {
			return "File part is present, but has no file content."
		}
		fileID := part.File.Name
		if part.File.Bytes == "" {
			logger.Warn("file part has no bytes", zap.String("file_id", fileID))
			return fmt.Sprintf("File %s available, but no content.", fileID)
		}

		data, err := base64.StdEncoding.DecodeString(part.File.Bytes)
		if err != nil {
			logger.Error("failed to decode file bytes",
				zap.String("file_id", fileID),
				zap.Error(err))
			return fmt.Sprintf("Error processing file %s: invalid data.", fileID)
		}
		if err := artifacts.SaveArtifact(ctx, fileID, part.File.MimeType, data); err != nil {
			logger.Error("failed to persist artifact",
				zap.String("file_id", fileID),
				zap.Error(err))
			return fmt.Sprintf("Error processing file %s: storage failure.", fileID)
		}

		actions.Escalate = true
		actions.SkipSummarization = true
		return map[string]any{"artifact-file-id": fileID}

	default:
		return fmt.Sprintf("Unknown part type: %s", part.Kind)
	}
}
