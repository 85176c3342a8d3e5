// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package reactor_test

import (
	"os"
	"testing"

	"code.hybscloud.com/kvnode/internal/reactor"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	events []reactor.Event
}

func (h *recordingHandler) OnEvent(ev reactor.Event) {
	h.events = append(h.events, ev)
}

func TestEpollReportsReadableAfterWrite(t *testing.T) {
	r, err := reactor.New(8)
	require.NoError(t, err)
	defer r.Close()

	rd, wr, err := os.Pipe()
	require.NoError(t, err)
	defer rd.Close()
	defer wr.Close()

	require.NoError(t, r.Add(int(rd.Fd()), true, false))

	h := &recordingHandler{}
	require.NoError(t, r.Wait(h, 50))
	require.Empty(t, h.events, "nothing written yet")

	_, err = wr.Write([]byte("x"))
	require.NoError(t, err)

	require.NoError(t, r.Wait(h, 1000))
	require.Len(t, h.events, 1)
	got := h.events[0]
	require.Equal(t, int(rd.Fd()), got.FD)
	require.True(t, got.Readable)
}

func TestEpollRemoveStopsNotifications(t *testing.T) {
	r, err := reactor.New(8)
	require.NoError(t, err)
	defer r.Close()

	rd, wr, err := os.Pipe()
	require.NoError(t, err)
	defer rd.Close()
	defer wr.Close()

	require.NoError(t, r.Add(int(rd.Fd()), true, false))
	require.NoError(t, r.Remove(int(rd.Fd())))

	_, err = wr.Write([]byte("x"))
	require.NoError(t, err)

	h := &recordingHandler{}
	require.NoError(t, r.Wait(h, 50))
	require.Empty(t, h.events)
}
