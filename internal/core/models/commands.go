package models

import (
	"errors"
	"fmt"
	"sync"
)

// Command is a deferred world mutation.
type Command func(w *World) error

// EntityCommand is a deferred mutation of one entity.
type EntityCommand func(w *World, id EntityID) error

// Commands is a queue of deferred mutations. Pushing is safe from any number
// of goroutines; the queue is drained by World.Apply once the producing
// system has returned.
type Commands struct {
	mu    sync.Mutex
	queue []Command
}

func NewCommands() *Commands {
	return &Commands{queue: make([]Command, 0, 16)}
}

// Push queues cmd.
func (c *Commands) Push(cmd Command) {
	c.mu.Lock()
	c.queue = append(c.queue, cmd)
	c.mu.Unlock()
}

// Spawn queues the creation of a new entity and the given mutations on it.
func (c *Commands) Spawn(cmds ...EntityCommand) {
	c.Push(func(w *World) error {
		id := w.Spawn()
		var errs []error
		for _, cmd := range cmds {
			if err := cmd(w, id); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// Entity returns a handle scoped to id.
func (c *Commands) Entity(id EntityID) EntityCommands {
	return EntityCommands{id: id, commands: c}
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *Commands) drain() []Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := c.queue
	c.queue = make([]Command, 0, cap(q))
	return q
}

// EntityCommands queues mutations of a single entity.
type EntityCommands struct {
	id       EntityID
	commands *Commands
}

// ID returns the entity the handle is scoped to.
func (e EntityCommands) ID() EntityID {
	return e.id
}

// Add queues cmd against the entity.
func (e EntityCommands) Add(cmd EntityCommand) EntityCommands {
	id := e.id
	e.commands.Push(func(w *World) error { return cmd(w, id) })
	return e
}

// Despawn queues the removal of the entity.
func (e EntityCommands) Despawn() {
	id := e.id
	e.commands.Push(func(w *World) error { return w.Despawn(id) })
}

// InsertComponent returns a command attaching value.
func InsertComponent[T any](value T) EntityCommand {
	return func(w *World, id EntityID) error {
		return Insert(w, id, value)
	}
}

// RemoveComponent returns a command detaching T. Removing a missing
// component is not an error.
func RemoveComponent[T any]() EntityCommand {
	return func(w *World, id EntityID) error {
		if !w.Alive(id) {
			return fmt.Errorf("remove %s on %s: %w", TypeName[T](), id, ErrEntityNotFound)
		}
		Remove[T](w, id)
		return nil
	}
}

// Apply runs every queued command in push order. A failing command does not
// stop the others; all failures are joined into the returned error.
func (w *World) Apply(c *Commands) error {
	var errs []error
	for _, cmd := range c.drain() {
		if err := cmd(w); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
