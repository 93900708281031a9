package simcore

import "github.com/bsapcie/exerciser/internal/simcore/id"

// Msg is anything that flows through a Port. Every TLP beat, completion
// beat, and internal control pulse in this module implements Msg.
type Msg interface {
	Meta() *MsgMeta
}

// MsgMeta carries the fields every Msg needs regardless of payload.
type MsgMeta struct {
	ID       string
	Src, Dst string // port names
	SendTime VTimeInSec
}

// NewMsgMeta returns a MsgMeta stamped with a fresh ID.
func NewMsgMeta() MsgMeta {
	return MsgMeta{ID: id.GetGenerator().Generate()}
}
