package channel

import (
	"context"
	"fmt"
)

// PutNumeric implements the numeric half of C5's put path (§4.2): find (or
// temporarily create) a connected channel for pvName, write value through
// its transport, and audit-log the result.
func (m *Manager) PutNumeric(ctx context.Context, pvName string, value float64, widgetType string) error {
	return m.put(ctx, pvName, widgetType, value, fmt.Sprintf("%g", value))
}

// PutString implements the string half of C5's put path.
func (m *Manager) PutString(ctx context.Context, pvName string, value string, widgetType string) error {
	return m.put(ctx, pvName, widgetType, value, value)
}

// PutEnum implements the enum half of C5's put path: value is the ordinal
// a choice/menu/message button resolved from its label set.
func (m *Manager) PutEnum(ctx context.Context, pvName string, ordinal int, widgetType string) error {
	return m.put(ctx, pvName, widgetType, ordinal, fmt.Sprintf("%d", ordinal))
}

// PutArray implements the array half of C5's put path (e.g. a strip
// chart's or cartesian plot's trigger/clear control writing a waveform).
func (m *Manager) PutArray(ctx context.Context, pvName string, value []float64, widgetType string) error {
	if len(value) == 0 {
		return fmt.Errorf("channel: put %s: empty array rejected", pvName)
	}
	return m.put(ctx, pvName, widgetType, value, fmt.Sprintf("%d-element array", len(value)))
}

// put is the shared find-or-create-temporary-channel-then-write path
// (§4.2, §5 S6 "audited put"). A successful write is reported to the
// audit logger before returning; a failed write is not.
func (m *Manager) put(ctx context.Context, pvName, widgetType string, value any, auditValue string) error {
	transport, handle, cleanup, err := m.ensureConnectedTemp(ctx, pvName)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := transport.Put(ctx, handle, value); err != nil {
		return err
	}
	if m.audit != nil {
		m.audit.LogPut(pvName, widgetType, auditValue)
	}
	return nil
}
