package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/testivid/testivid/internal/capture"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTick MsgKind = iota
	MsgDeviceEvent
	MsgDeviceClosed
	MsgSubmitted
)

// tickMsg is the constructor for [MsgTick]
func tickMsg() Msg {
	return Msg{kind: MsgTick}
}

// deviceEventMsg is the constructor for [MsgDeviceEvent]
func deviceEventMsg(ev capture.Event) Msg {
	return Msg{kind: MsgDeviceEvent, data: ev}
}

// deviceClosedMsg is the constructor for [MsgDeviceClosed]
func deviceClosedMsg() Msg {
	return Msg{kind: MsgDeviceClosed}
}

// submittedMsg is the constructor for [MsgSubmitted]
func submittedMsg(err error) Msg {
	return Msg{kind: MsgSubmitted, data: err}
}
