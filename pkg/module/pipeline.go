package module

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/dukex/fluxrt/pkg/configuration"
	"github.com/dukex/fluxrt/pkg/models"
	"github.com/dukex/fluxrt/pkg/otelhelper"
	"github.com/dukex/fluxrt/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// Trigger processes message as received through conn, which may be nil for messages
// injected directly. Every stage runs in a child of a new root context seeded with the
// user context of the message. A failure aborts the message only: it is logged on the
// root context, reaching the error sinks of the module, and never returned.
func (s *InputSlot) Trigger(conn *models.Connection, message models.Message) {
	m := s.module
	root := tracing.New("input processing", message.Context, m.channels...)

	m.AddJournal(tracing.Journal{
		Title:      fmt.Sprintf("Execution triggered from input slot %q", s.id),
		EntryPoint: root,
	})

	root.Info(fmt.Sprintf("start processing function of module %s", m.id), map[string]any{
		"connection": connectionID(conn),
		"raw input":  message,
		"slotId":     s.id,
	})

	if err := s.process(root, conn, message); err != nil {
		root.Error(err, nil)
		m.logger.Warn("message processing failed", "slot", s.id, "error", err)
	}

	root.End()

	if m.tracer != nil {
		otelhelper.ExportContext(context.Background(), m.tracer, root,
			attribute.String(otelhelper.ModuleIDKey, m.id),
			attribute.String(otelhelper.FactoryIDKey, m.factoryID.String()),
			attribute.String(otelhelper.SlotIDKey, s.id),
			attribute.String(otelhelper.ConnectionKey, connectionID(conn)),
		)
	}
}

func connectionID(conn *models.Connection) string {
	if conn == nil {
		return ""
	}

	return conn.ID()
}

// stage runs fn in a child context ended whatever the outcome. Failures are noted on
// the child and returned unlogged: the caller reports them once, on the root context.
func stage[T any](parent *tracing.Context, title string, moduleID string, fn func(ctx *tracing.Context) (T, error)) (value T, err error) {
	child := parent.StartChild(title, nil)

	defer func() {
		if r := recover(); r != nil {
			err = &ModuleError{ModuleID: moduleID, Message: fmt.Sprintf("panic: %v", r)}
			child.Warning(err.Error(), string(debug.Stack()))
		}

		child.End()
	}()

	value, err = fn(child)
	if err != nil {
		child.Warning(err.Error(), nil)
	}

	return value, err
}

func (s *InputSlot) process(root *tracing.Context, conn *models.Connection, message models.Message) error {
	m := s.module
	adapted := message

	if conn != nil && conn.Adaptor != nil {
		var err error

		adapted, err = stage(root, "execute adaptor", m.id, func(*tracing.Context) (models.Message, error) {
			return conn.Adaptor.Apply(message)
		})
		if err != nil {
			return &ModuleError{ModuleID: m.id, Message: "adaptor failed", Err: err}
		}

		root.SetUserContext(adapted.Context)
	}

	conf := m.PersistentData()

	if len(adapted.Configuration) > 0 {
		var err error

		conf, err = stage(root, "merge configuration", m.id, func(ctx *tracing.Context) (map[string]any, error) {
			status := configuration.Merge(m.PersistentData(), adapted.Configuration, m.schema)
			if !status.IsConsistent() {
				return nil, &ConfigurationError{ModuleID: m.id, Status: status}
			}

			if len(status.Intrus) > 0 {
				ctx.Warning("configuration overrides hold unknown attributes", status.Intrus)
			}

			return status.Result, nil
		})
		if err != nil {
			return err
		}
	}

	m.logger.Debug("processInput", "slot", s.id, "connection", connectionID(conn))

	data, err := stage(root, "resolve contract", m.id, func(ctx *tracing.Context) (any, error) {
		status := s.contract.Resolve(adapted.Data)
		if !status.Succeeded() {
			return nil, &ContractUnfulfilledError{ModuleID: m.id, SlotID: s.id, Status: status}
		}

		ctx.Info("resolved expectations", status)

		return status.Value, nil
	})
	if err != nil {
		return err
	}

	root.Info("Input provided to the module", map[string]any{"data": data, "configuration": conf})

	_, err = stage(root, "module's processing", m.id, func(ctx *tracing.Context) (struct{}, error) {
		if err := s.onTriggered(Input{Data: data, Configuration: conf, Context: ctx}, m.cache); err != nil {
			return struct{}{}, &ModuleError{ModuleID: m.id, Message: "processing failed", Err: err}
		}

		return struct{}{}, nil
	})

	return err
}
