package ally

// Типы прогресс-событий фасада. Терминальный результат (план или
// подтверждение постинга) в поток не попадает: он возвращается из
// GeneratePlan/PostPlan отдельным значением.
const (
	ProgressThought         = "thought"
	ProgressPlanComplete    = "plan_complete"
	ProgressPostingFinished = "posting_finished"
	ProgressError           = "error"
)

// ProgressEvent — одна строка NDJSON-потока для клиента.
type ProgressEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
