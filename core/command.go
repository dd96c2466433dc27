package core

import (
	"errors"
	"sync"
)

// CommandHandler decodes its own arguments from the front of data and
// advances it past them.
type CommandHandler func(data *[]byte) error

// Command is one entry of the command table. Responses carry a nil handler.
type Command struct {
	ID      uint16
	Name    string
	Format  string // argument format, e.g. "channel=%c duty=%u"
	Handler CommandHandler
}

// CommandRegistry assigns command IDs in registration order.
type CommandRegistry struct {
	mu       sync.RWMutex
	commands []*Command
	nameToID map[string]uint16
}

// NewCommandRegistry creates an empty registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		nameToID: make(map[string]uint16),
	}
}

// Register adds a command and returns its ID. Registering a name twice
// returns the existing ID.
func (r *CommandRegistry) Register(name string, format string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.nameToID[name]; exists {
		return id
	}

	id := uint16(len(r.commands))
	r.commands = append(r.commands, &Command{
		ID:      id,
		Name:    name,
		Format:  format,
		Handler: handler,
	})
	r.nameToID[name] = id
	return id
}

// GetCommand retrieves a command by ID
func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.commands) {
		return nil, false
	}
	return r.commands[id], true
}

// Lookup returns the ID registered under name
func (r *CommandRegistry) Lookup(name string) (uint16, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.nameToID[name]
	return id, ok
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

var errNoHandler = errors.New("command has no handler")

// Dispatch calls the handler registered under cmdID
func (r *CommandRegistry) Dispatch(cmdID uint16, data *[]byte) error {
	cmd, ok := r.GetCommand(cmdID)
	if !ok {
		return errors.New("unknown command ID: " + itoa(int(cmdID)))
	}
	if cmd.Handler == nil {
		return errNoHandler
	}
	return cmd.Handler(data)
}

// Describe lists every command as "id name format", one per line
func (r *CommandRegistry) Describe() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := ""
	for _, cmd := range r.commands {
		out += itoa(int(cmd.ID)) + " " + cmd.Name
		if cmd.Format != "" {
			out += " " + cmd.Format
		}
		out += "\n"
	}
	return out
}
