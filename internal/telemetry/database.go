package telemetry

import (
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	dbSpanKey    = "telemetry:span"
	maxStatement = 500
)

// GORMTracingPlugin returns a GORM plugin that wraps every create, query and
// delete in a client span. Spans nest under the request's feed, toggle or
// publish span through the statement context.
func GORMTracingPlugin() gorm.Plugin {
	return &gormTracing{tracer: otel.Tracer("snapshare/gorm")}
}

type gormTracing struct {
	tracer trace.Tracer
}

func (p *gormTracing) Name() string {
	return "telemetry:gorm"
}

// callbackRegistrar is the Register half of gorm's unexported callback type
type callbackRegistrar interface {
	Register(name string, fn func(*gorm.DB)) error
}

// callbackHook is one gorm processor and the gorm callback it wraps
type callbackHook struct {
	operation string
	processor func(db *gorm.DB, anchor string) (before, after callbackRegistrar)
	anchor    string
}

func (p *gormTracing) Initialize(db *gorm.DB) error {
	hooks := []callbackHook{
		{"SELECT", func(db *gorm.DB, a string) (callbackRegistrar, callbackRegistrar) {
			c := db.Callback().Query()
			return c.Before(a), c.After(a)
		}, "gorm:query"},
		{"SELECT", func(db *gorm.DB, a string) (callbackRegistrar, callbackRegistrar) {
			c := db.Callback().Row()
			return c.Before(a), c.After(a)
		}, "gorm:row"},
		{"INSERT", func(db *gorm.DB, a string) (callbackRegistrar, callbackRegistrar) {
			c := db.Callback().Create()
			return c.Before(a), c.After(a)
		}, "gorm:create"},
		{"UPDATE", func(db *gorm.DB, a string) (callbackRegistrar, callbackRegistrar) {
			c := db.Callback().Update()
			return c.Before(a), c.After(a)
		}, "gorm:update"},
		{"DELETE", func(db *gorm.DB, a string) (callbackRegistrar, callbackRegistrar) {
			c := db.Callback().Delete()
			return c.Before(a), c.After(a)
		}, "gorm:delete"},
	}

	for _, h := range hooks {
		name := strings.TrimPrefix(h.anchor, "gorm:")
		op := h.operation
		before, after := h.processor(db, h.anchor)
		if err := before.Register("telemetry:before_"+name, func(tx *gorm.DB) {
			p.start(tx, op)
		}); err != nil {
			return fmt.Errorf("failed to register before_%s callback: %w", name, err)
		}
		if err := after.Register("telemetry:after_"+name, p.end); err != nil {
			return fmt.Errorf("failed to register after_%s callback: %w", name, err)
		}
	}
	return nil
}

func (p *gormTracing) start(tx *gorm.DB, operation string) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}

	table := tx.Statement.Table
	if table == "" {
		table = "unknown"
	}

	_, span := p.tracer.Start(ctx, "db."+strings.ToLower(operation)+" "+table,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemKey.String(dbSystem(tx)),
			semconv.DBSQLTable(table),
			semconv.DBOperation(operation),
		),
	)
	tx.InstanceSet(dbSpanKey, span)
}

func (p *gormTracing) end(tx *gorm.DB) {
	raw, ok := tx.InstanceGet(dbSpanKey)
	if !ok {
		return
	}
	span, ok := raw.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	// Parameterized SQL only; bound values never reach the exporter
	if sql := tx.Statement.SQL.String(); sql != "" {
		if len(sql) > maxStatement {
			sql = sql[:maxStatement] + "..."
		}
		span.SetAttributes(semconv.DBStatement(sql))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", tx.RowsAffected))

	if err := tx.Error; err != nil && !expectedDBError(err) {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}
}

// expectedDBError covers outcomes the repositories handle as normal results:
// a miss on First, and the unique-index conflict that resolves a toggle race.
func expectedDBError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, gorm.ErrDuplicatedKey)
}

func dbSystem(tx *gorm.DB) string {
	if tx.Dialector.Name() == "postgres" {
		return "postgresql"
	}
	return tx.Dialector.Name()
}
