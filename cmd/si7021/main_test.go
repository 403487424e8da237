package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calmh/si7021"
)

type recordingBus struct {
	writes [][]byte
	user   byte
}

func (b *recordingBus) Tx(addr uint16, w, r []byte) error {
	switch {
	case len(r) > 0:
		r[0] = b.user
	default:
		b.writes = append(b.writes, append([]byte(nil), w...))
	}
	return nil
}

func TestSetHeater(t *testing.T) {
	bus := &recordingBus{user: 0x3a}
	require.NoError(t, setHeater(si7021.New(bus), 5, true))
	require.Equal(t, [][]byte{{0xe6, 0x3e}, {0x51, 0x35}}, bus.writes)

	bus = &recordingBus{user: 0x3e}
	require.NoError(t, setHeater(si7021.New(bus), 0, false))
	require.Equal(t, [][]byte{{0xe6, 0x3a}}, bus.writes)
}

func TestCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"read", "info", "reset", "resolution", "heater", "serve", "publish", "version"} {
		require.True(t, names[name], name)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	}()

	require.NoError(t, rootCmd.Execute())
	require.Equal(t, "si7021 "+version+"\n", out.String())
}
