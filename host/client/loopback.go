package client

import (
	"multipwm/core"
	"multipwm/protocol"
)

// Loopback returns a client talking to e in-process through the device
// transport and command table, as a serial-attached board would.
func Loopback(e *core.Engine, cfg Config) *Client {
	port := protocol.ServeLoopback(func(t *protocol.Transport) protocol.CommandHandler {
		reg := core.NewCommandRegistry()
		t.SetErrorCallback(core.BindPWMCommands(reg, e, t))
		return reg.Dispatch
	})
	return New(port, cfg)
}
