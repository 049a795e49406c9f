package node

import (
	"fmt"
	"io"
	"strings"

	"github.com/btcsuite/btclog/v2"

	"github.com/VeriBlock/nodecore-sub002/consensus"
	"github.com/VeriBlock/nodecore-sub002/node/store"
)

// Subsystem defines the logging code for this subsystem.
const Subsystem = "NODE"

// log is a logger that is initialized with no output filters. This means the
// package will not perform any logging by default until the caller requests
// it.
var log = btclog.Disabled

// DisableLog disables all library log output.
func DisableLog() {
	UseLogger(btclog.Disabled)
}

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// SetupLoggers points every package logger at one handler writing to w
// and returns a logger for the caller's own subsystem tag.
func SetupLoggers(w io.Writer, level string, tag string) (btclog.Logger, error) {
	lvl, ok := btclog.LevelFromString(strings.ToLower(strings.TrimSpace(level)))
	if !ok {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	handler := btclog.NewDefaultHandler(w)
	newLogger := func(subsystem string) btclog.Logger {
		l := btclog.NewSLogger(handler.SubSystem(subsystem))
		l.SetLevel(lvl)
		return l
	}

	consensus.UseLogger(newLogger(consensus.Subsystem))
	store.UseLogger(newLogger(store.Subsystem))
	UseLogger(newLogger(Subsystem))
	return newLogger(tag), nil
}
