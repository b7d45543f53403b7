package journal

/*
Журнал делегированных задач: каждое обращение к удаленному агенту
оставляет запись (кому, в какой сессии, чем кончилось, сколько заняло).

Архитектура записи:
- Non-blocking: события уходят в буферизованный канал, задержки базы
  не влияют на время ответа оркестратора.
- Batching: накопление в памяти и пакетная вставка по таймеру или при
  достижении лимита (100 записей).
- Drain Pattern: при остановке канал закрывается, воркер дочитывает
  остатки и делает финальный flush — записи не теряются на рестарте.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// TaskRecord — одна запись журнала.
type TaskRecord struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Agent      string    `json:"agent"`
	TaskID     string    `json:"task_id"`
	State      string    `json:"state"` // терминальный статус или "error"
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// StorageInterface определяет, куда физически сохраняются записи
type StorageInterface interface {
	// WriteBatch сохраняет пачку записей за один запрос
	WriteBatch(ctx context.Context, records []TaskRecord) error
}

type Recorder interface {
	Record(rec TaskRecord)
}

type TaskJournal struct {
	ch     chan TaskRecord
	repo   StorageInterface
	logger *zap.Logger
	wg     sync.WaitGroup

	isClosed int32 // атомарный флаг (0 - открыт, 1 - закрыт)
}

func NewTaskJournal(repo StorageInterface, logger *zap.Logger) *TaskJournal {
	return &TaskJournal{
		ch:     make(chan TaskRecord, 10000),
		repo:   repo,
		logger: logger.With(zap.String("mod", "journal")),
	}
}

func (j *TaskJournal) Start() {
	j.wg.Add(1)
	go j.worker()
}

// Stop запирает вход в канал и ждет, пока воркер всё допишет.
func (j *TaskJournal) Stop() {
	atomic.StoreInt32(&j.isClosed, 1)

	// Даем крошечную паузу, чтобы текущие Record успели проскочить
	time.Sleep(10 * time.Millisecond)

	j.logger.Info("stopping journal: closing channel and flushing buffer...")
	close(j.ch)
	j.wg.Wait()
	j.logger.Info("journal stopped gracefully")
}

func (j *TaskJournal) Record(rec TaskRecord) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	if atomic.LoadInt32(&j.isClosed) == 1 {
		j.logger.Warn("journal record dropped: journal is stopping", zap.String("id", rec.ID))
		return
	}

	// Load Shedding: переполненный буфер не блокирует отправителя
	select {
	case j.ch <- rec:
	default:
		j.logger.Error("journal_buffer_overflow",
			zap.String("session_id", rec.SessionID),
			zap.String("agent", rec.Agent),
		)
	}
}

func (j *TaskJournal) worker() {
	defer j.wg.Done()

	batch := make([]TaskRecord, 0, 100)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	flush := func() {
		if len(batch) > 0 {
			// Background: основной контекст на остановке уже закрыт
			if err := j.repo.WriteBatch(context.Background(), batch); err != nil {
				j.logger.Error("journal flush failed", zap.Error(err))
			}
			batch = batch[:0]
		}
	}

	for {
		select {
		case rec, ok := <-j.ch:
			if !ok {
				// Канал закрыт в Stop(): дочитали очередь, финальный сброс
				flush()
				j.logger.Info("journal worker finished")
				return
			}
			batch = append(batch, rec)
			if len(batch) >= 100 {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
