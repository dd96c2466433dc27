package core

import (
	"errors"

	"multipwm/errcode"
	"multipwm/protocol"
)

// Command IDs. They follow the registration order in BindPWMCommands and
// are shared with the host client.
const (
	CmdPWMStatus uint16 = iota
	CmdPWMEntry
	CmdGetPWMStatus
	CmdConfigPWMChannel
	CmdSetPWMDuty
	CmdSetPWMDutyAll
	CmdPWMStart
	CmdPWMStop
	CmdDumpPWMSchedule
	CmdPWMError
)

// Responder sends response messages back to the host.
type Responder interface {
	SendCommand(cmdID uint16, args func(output protocol.OutputBuffer))
}

// BindPWMCommands registers the PWM command set on r, operating on e and
// replying through out. The registry must be empty so IDs match the Cmd
// constants. The returned function reports a failed command to the host
// as pwm_error; install it as the transport's error callback.
func BindPWMCommands(r *CommandRegistry, e *Engine, out Responder) func(cmdID uint16, err error) {
	h := &pwmCommands{engine: e, out: out}

	// Responses (device -> host)
	r.Register("pwm_status", "running=%c period=%u channels=%c", nil)
	r.Register("pwm_entry", "tick=%u set=%u clear=%u", nil)

	r.Register("get_pwm_status", "", h.handleGetStatus)
	r.Register("config_pwm_channel", "channel=%c pin=%c", h.handleConfigChannel)
	r.Register("set_pwm_duty", "channel=%c duty=%u", h.handleSetDuty)
	r.Register("set_pwm_duty_all", "duty=%u", h.handleSetDutyAll)
	r.Register("pwm_start", "", h.handleStart)
	r.Register("pwm_stop", "", h.handleStop)
	r.Register("dump_pwm_schedule", "", h.handleDumpSchedule)
	r.Register("pwm_error", "cmd=%c code=%c", nil)

	return h.reportError
}

type pwmCommands struct {
	engine *Engine
	out    Responder
}

func (h *pwmCommands) handleGetStatus(data *[]byte) error {
	h.sendStatus()
	return nil
}

func (h *pwmCommands) handleConfigChannel(data *[]byte) error {
	channel, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	pin, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if channel > 0xFF {
		return nil
	}
	if pin > uint32(MaxPin) {
		pin = uint32(MaxPin) + 1
	}
	return h.engine.Register(uint8(channel), Pin(pin))
}

func (h *pwmCommands) handleSetDuty(data *[]byte) error {
	channel, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	duty, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if channel > 0xFF {
		return nil
	}
	h.engine.SetDuty(uint8(channel), duty)
	return nil
}

func (h *pwmCommands) handleSetDutyAll(data *[]byte) error {
	duty, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	h.engine.SetDutyAll(duty)
	return nil
}

func (h *pwmCommands) handleStart(data *[]byte) error {
	h.engine.Start()
	return nil
}

func (h *pwmCommands) handleStop(data *[]byte) error {
	h.engine.Stop()
	return nil
}

// handleDumpSchedule replies with one pwm_entry per schedule entry, then
// pwm_status.
func (h *pwmCommands) handleDumpSchedule(data *[]byte) error {
	for _, en := range h.engine.Entries() {
		en := en
		h.out.SendCommand(CmdPWMEntry, func(output protocol.OutputBuffer) {
			protocol.EncodeVLQUint(output, en.Tick)
			protocol.EncodeVLQUint(output, uint32(en.Set))
			protocol.EncodeVLQUint(output, uint32(en.Clear))
		})
	}
	h.sendStatus()
	return nil
}

// reportError sends pwm_error for a failed command. Decode failures are
// reported as invalid_params.
func (h *pwmCommands) reportError(cmdID uint16, err error) {
	code := errcode.Of(err)
	var coded *errcode.E
	if code == errcode.Error && !errors.As(err, &coded) {
		code = errcode.InvalidParams
	}
	DebugPrintln("[PWM] command " + itoa(int(cmdID)) + " failed: " + err.Error())
	h.out.SendCommand(CmdPWMError, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(cmdID))
		protocol.EncodeVLQUint(output, uint32(errcode.Number(code)))
	})
}

func (h *pwmCommands) sendStatus() {
	e := h.engine
	running := uint32(0)
	if e.Running() {
		running = 1
	}
	h.out.SendCommand(CmdPWMStatus, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, running)
		protocol.EncodeVLQUint(output, e.Period())
		protocol.EncodeVLQUint(output, uint32(e.Channels()))
	})
}
