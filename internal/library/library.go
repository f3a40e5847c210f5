// Package library - библиотека игр поверх GameStore: импорт .fcg файлов,
// экспорт в текущую версию формата и загрузка для редактирования.
package library

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/prefab-loader/internal/eventbus"
	"github.com/annel0/prefab-loader/internal/game"
	"github.com/annel0/prefab-loader/internal/logging"
	"github.com/annel0/prefab-loader/internal/raw"
	"github.com/annel0/prefab-loader/internal/storage_interface"
)

// EventSource - источник событий библиотеки
const EventSource = "prefab-library"

// ErrMalformedGame оборачивает ошибки разбора импортируемого потока
var ErrMalformedGame = errors.New("malformed game")

// Library связывает хранилище, кодек, метрики, события и логирование
type Library struct {
	store   storage_interface.GameStore
	metrics *Metrics
	bus     eventbus.EventBus
	tracer  trace.Tracer
	log     *logging.Logger
	level   int
	now     func() time.Time
}

// Option настраивает Library
type Option func(*Library)

// WithEventBus включает публикацию событий game.*
func WithEventBus(bus eventbus.EventBus) Option {
	return func(l *Library) { l.bus = bus }
}

// WithTracerProvider задаёт провайдер трассировки вместо глобального
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(l *Library) { l.tracer = tp.Tracer(tracerName) }
}

const tracerName = "github.com/annel0/prefab-loader/internal/library"

// New создаёт библиотеку. level - уровень zlib при записи.
func New(store storage_interface.GameStore, metrics *Metrics, level int, opts ...Option) *Library {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	l := &Library{
		store:   store,
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
		log:     logging.GetLibraryLogger(),
		level:   level,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Import читает сжатый .fcg поток, проверяет его полным разбором и
// сохраняет исходные байты под новым ID.
func (l *Library) Import(ctx context.Context, src io.Reader) (meta *storage_interface.GameMeta, err error) {
	ctx, span := l.tracer.Start(ctx, "library.Import")
	start := time.Now()
	defer func() {
		l.metrics.observe("import", start, err)
		endSpan(span, err)
	}()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения игры: %w", err)
	}
	l.metrics.bytes.WithLabelValues("in").Add(float64(len(data)))

	rg, err := raw.LoadCompressed(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedGame, err)
	}
	l.metrics.prefabs.Add(float64(len(rg.Prefabs)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec := &storage_interface.GameRecord{Meta: l.metaFor(uuid.NewString(), rg, len(data)), Data: data}
	if err := l.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("ошибка сохранения игры: %w", err)
	}

	span.SetAttributes(
		attribute.String("game.id", rec.Meta.ID),
		attribute.Int("game.version", int(rg.Version)),
		attribute.Int("game.prefabs", len(rg.Prefabs)),
	)
	l.log.Info("Импортирована игра %q (%s): v%d, %d префабов", rg.Name, rec.Meta.ID, rg.Version, len(rg.Prefabs))
	l.publish(ctx, eventbus.EventGameImported, rec.Meta)
	return &rec.Meta, nil
}

// Store кодирует игру в текущую версию формата и сохраняет под новым ID
func (l *Library) Store(ctx context.Context, g *game.Game) (meta *storage_interface.GameMeta, err error) {
	ctx, span := l.tracer.Start(ctx, "library.Store")
	start := time.Now()
	defer func() {
		l.metrics.observe("store", start, err)
		endSpan(span, err)
	}()

	rg, err := g.ToRaw(false)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := rg.SaveCompressed(&buf, l.level); err != nil {
		return nil, fmt.Errorf("ошибка кодирования игры: %w", err)
	}
	l.metrics.bytes.WithLabelValues("out").Add(float64(buf.Len()))

	rec := &storage_interface.GameRecord{Meta: l.metaFor(uuid.NewString(), rg, buf.Len()), Data: buf.Bytes()}
	if err := l.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("ошибка сохранения игры: %w", err)
	}

	span.SetAttributes(attribute.String("game.id", rec.Meta.ID))
	l.log.Info("Сохранена игра %q (%s)", rg.Name, rec.Meta.ID)
	l.publish(ctx, eventbus.EventGameStored, rec.Meta)
	return &rec.Meta, nil
}

// LoadRaw загружает и разбирает игру
func (l *Library) LoadRaw(ctx context.Context, id string) (rg *raw.Game, err error) {
	ctx, span := l.tracer.Start(ctx, "library.Load", trace.WithAttributes(attribute.String("game.id", id)))
	start := time.Now()
	defer func() {
		l.metrics.observe("load", start, err)
		endSpan(span, err)
	}()

	rec, err := l.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	l.metrics.bytes.WithLabelValues("in").Add(float64(len(rec.Data)))

	rg, err = raw.LoadCompressed(bytes.NewReader(rec.Data))
	if err != nil {
		return nil, fmt.Errorf("игра %s: %w", id, err)
	}
	l.metrics.prefabs.Add(float64(len(rg.Prefabs)))
	return rg, nil
}

// Load загружает игру для редактирования, идентификаторы приводятся
// к текущему стоковому каталогу
func (l *Library) Load(ctx context.Context, id string) (*game.Game, error) {
	rg, err := l.LoadRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	return game.FromRaw(rg, false)
}

// Export пишет игру в dst в текущей версии формата
func (l *Library) Export(ctx context.Context, id string, dst io.Writer) (err error) {
	rg, err := l.LoadRaw(ctx, id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	defer func() { l.metrics.observe("export", start, err) }()

	var buf bytes.Buffer
	if err := rg.SaveCompressed(&buf, l.level); err != nil {
		return fmt.Errorf("ошибка кодирования игры %s: %w", id, err)
	}
	l.metrics.bytes.WithLabelValues("out").Add(float64(buf.Len()))

	if _, err := buf.WriteTo(dst); err != nil {
		return fmt.Errorf("ошибка записи игры %s: %w", id, err)
	}

	l.log.Debug("Экспортирована игра %s", id)
	return nil
}

// Info возвращает метаданные
func (l *Library) Info(ctx context.Context, id string) (*storage_interface.GameMeta, error) {
	return l.store.Info(ctx, id)
}

// List возвращает метаданные всех игр
func (l *Library) List(ctx context.Context) ([]storage_interface.GameMeta, error) {
	return l.store.List(ctx)
}

// Delete удаляет игру
func (l *Library) Delete(ctx context.Context, id string) (err error) {
	ctx, span := l.tracer.Start(ctx, "library.Delete", trace.WithAttributes(attribute.String("game.id", id)))
	start := time.Now()
	defer func() {
		l.metrics.observe("delete", start, err)
		endSpan(span, err)
	}()

	if err := l.store.Delete(ctx, id); err != nil {
		return err
	}
	l.log.Info("Удалена игра %s", id)
	l.publish(ctx, eventbus.EventGameDeleted, struct {
		ID string `json:"id"`
	}{id})
	return nil
}

// Close закрывает хранилище
func (l *Library) Close() error {
	return l.store.Close()
}

func (l *Library) metaFor(id string, rg *raw.Game, size int) storage_interface.GameMeta {
	return storage_interface.GameMeta{
		ID:          id,
		Name:        rg.Name,
		Author:      rg.Author,
		Description: rg.Description,
		Version:     rg.Version,
		PrefabCount: len(rg.Prefabs),
		Size:        size,
		SavedAt:     l.now().UTC(),
	}
}

// publish отправляет событие; ошибка шины не отменяет операцию
func (l *Library) publish(ctx context.Context, eventType string, payload any) {
	if l.bus == nil {
		return
	}
	ev, err := eventbus.NewEnvelope(EventSource, eventType, payload)
	if err == nil {
		err = l.bus.Publish(ctx, ev)
	}
	if err != nil {
		l.log.Warn("Не удалось опубликовать %s: %v", eventType, err)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
