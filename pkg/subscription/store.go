// Package subscription wires the output slots of modules to the input slots they are
// connected to.
package subscription

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukex/fluxrt/pkg/broadcast"
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/models"
)

// Store holds the live subscription of every wired connection, keyed by connection id.
type Store struct {
	mu            sync.Mutex
	subscriptions map[string]broadcast.Subscription
	logger        *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		subscriptions: map[string]broadcast.Subscription{},
		logger:        logger.With("component", "subscriptions"),
	}
}

// Subscribe wires every connection among modules. A connection already wired is
// re-wired, never doubled. Connections whose slots cannot be found are skipped and
// reported in the returned error.
func (s *Store) Subscribe(modules []module.Node, connections []models.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.subscribeLocked(modules, connections)
}

// Update unsubscribes removed then subscribes created.
func (s *Store) Update(modules []module.Node, created, removed []models.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range removed {
		s.unsubscribeLocked(removed[i].ID())
	}

	return s.subscribeLocked(modules, created)
}

// Clear unsubscribes every connection.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.subscriptions {
		s.unsubscribeLocked(id)
	}
}

// Len returns the number of live subscriptions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.subscriptions)
}

// Has reports whether the connection with the given id is wired.
func (s *Store) Has(connectionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.subscriptions[connectionID]

	return ok
}

func (s *Store) unsubscribeLocked(id string) {
	subscription, ok := s.subscriptions[id]
	if !ok {
		return
	}

	subscription.Unsubscribe()
	delete(s.subscriptions, id)
}

func (s *Store) subscribeLocked(modules []module.Node, connections []models.Connection) error {
	byID := make(map[string]*module.Module, len(modules))
	for _, node := range modules {
		m := node.Base()
		byID[m.ID()] = m
	}

	var errs []error

	for i := range connections {
		conn := connections[i]

		output, input, err := resolve(byID, conn)
		if err != nil {
			s.logger.Warn("skipping connection", "connection", conn.ID(), "error", err)
			errs = append(errs, err)

			continue
		}

		s.unsubscribeLocked(conn.ID())
		s.subscriptions[conn.ID()] = output.Subscribe(func(message models.Message) {
			input.Trigger(&conn, message)
		})
	}

	return errors.Join(errs...)
}

func resolve(modules map[string]*module.Module, conn models.Connection) (*module.OutputSlot, *module.InputSlot, error) {
	start, ok := modules[conn.Start.ModuleID]
	if !ok {
		return nil, nil, fmt.Errorf("connection %s: %w: %s", conn.ID(), module.ErrModuleNotFound, conn.Start.ModuleID)
	}

	end, ok := modules[conn.End.ModuleID]
	if !ok {
		return nil, nil, fmt.Errorf("connection %s: %w: %s", conn.ID(), module.ErrModuleNotFound, conn.End.ModuleID)
	}

	output, err := start.GetOutputSlot(conn.Start.SlotID)
	if err != nil {
		return nil, nil, fmt.Errorf("connection %s: %w", conn.ID(), err)
	}

	input, err := end.GetInputSlot(conn.End.SlotID)
	if err != nil {
		return nil, nil, fmt.Errorf("connection %s: %w", conn.ID(), err)
	}

	return output, input, nil
}
