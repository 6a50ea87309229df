package memory

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/vektra/neko"

	"github.com/jonjonleee/Linux-like-OS/abi"
	"github.com/jonjonleee/Linux-like-OS/hw"
)

func TestAddressSpace(t *testing.T) {
	n := neko.Modern(t)

	setup := func() *AddressSpace {
		as := NewAddressSpace(hw.NewPhysMem())
		as.Init()
		return as
	}

	n.It("maps only the video pages and the kernel at boot", func(t *testing.T) {
		as := setup()

		pa, err := as.Translate(abi.VideoPage+0x10, false, true)
		require.NoError(t, err)
		require.Equal(t, uint32(abi.VideoPage+0x10), pa)

		pa, err = as.Translate(abi.KernelBase+0x1234, false, false)
		require.NoError(t, err)
		require.Equal(t, uint32(abi.KernelBase+0x1234), pa)

		_, err = as.Translate(0x1000, false, false)
		require.Equal(t, ErrPageFault, errors.Cause(err))

		_, err = as.Translate(abi.UserWindow, false, false)
		require.Equal(t, ErrPageFault, errors.Cause(err))

		for slot := 2; slot < 1024; slot++ {
			require.False(t, as.Directory[slot].HasFlags(FlagPresent), "slot %d", slot)
		}
	})

	n.It("keeps the kernel page away from user mode", func(t *testing.T) {
		as := setup()

		_, err := as.Translate(abi.KernelBase, true, false)
		require.Equal(t, ErrPageFault, errors.Cause(err))

		_, err = as.Translate(abi.VideoPage, true, false)
		require.Equal(t, ErrPageFault, errors.Cause(err))
	})

	n.It("binds the user window to the pid's frame", func(t *testing.T) {
		as := setup()

		as.BindProcess(2)

		pa, err := as.Translate(abi.LoadAddress, true, true)
		require.NoError(t, err)
		require.Equal(t, abi.UserFrame(2)+(abi.LoadAddress-abi.UserWindow), pa)

		e := as.Directory[abi.UserWindowSlot]
		require.True(t, e.HasFlags(FlagPresent|FlagRW|FlagUserAccessible|FlagHugePage))
		require.Equal(t, 2, as.Bound())
	})

	n.It("rebinding the same pid leaves the frame unchanged", func(t *testing.T) {
		as := setup()

		as.BindProcess(4)
		first, ok := as.UserFrame()
		require.True(t, ok)

		before := as.Flushes()
		as.BindProcess(4)
		second, _ := as.UserFrame()

		require.Equal(t, first, second)
		require.Equal(t, before+1, as.Flushes())
	})

	n.It("serves stale translations until flushed", func(t *testing.T) {
		as := setup()

		as.BindProcess(0)
		pa, err := as.Translate(abi.LoadAddress, true, false)
		require.NoError(t, err)
		require.Equal(t, abi.UserFrame(0)+0x48000, pa)

		as.Directory[abi.UserWindowSlot].SetFrame(abi.UserFrame(1))

		pa, _ = as.Translate(abi.LoadAddress, true, false)
		require.Equal(t, abi.UserFrame(0)+0x48000, pa)

		as.Flush()

		pa, _ = as.Translate(abi.LoadAddress, true, false)
		require.Equal(t, abi.UserFrame(1)+0x48000, pa)
	})

	n.It("isolates processes from each other", func(t *testing.T) {
		as := setup()

		as.BindProcess(0)
		_, err := as.WriteAt([]byte("zero"), abi.LoadAddress)
		require.NoError(t, err)

		as.BindProcess(1)
		_, err = as.WriteAt([]byte("one!"), abi.LoadAddress)
		require.NoError(t, err)

		as.BindProcess(0)
		got, err := as.Project(abi.LoadAddress, 4)
		require.NoError(t, err)
		require.Equal(t, "zero", string(got))
	})

	n.It("maps user video only for pointers in the user window", func(t *testing.T) {
		as := setup()

		_, err := as.MapUserVideo(0)
		require.Equal(t, ErrBadUserPointer, errors.Cause(err))

		_, err = as.MapUserVideo(abi.UserStack)
		require.Equal(t, ErrBadUserPointer, errors.Cause(err))

		_, err = as.Translate(abi.UserVideo, true, true)
		require.Error(t, err)

		addr, err := as.MapUserVideo(abi.UserStack - 4)
		require.NoError(t, err)
		require.Equal(t, uint32(abi.UserVideo), addr)

		pa, err := as.Translate(abi.UserVideo+0x20, true, true)
		require.NoError(t, err)
		require.Equal(t, uint32(abi.VideoPage+0x20), pa)
	})

	n.It("points user video at a background terminal's page", func(t *testing.T) {
		as := setup()

		_, err := as.MapUserVideo(abi.UserWindow)
		require.NoError(t, err)

		as.BindTerminalVideo(1, false)

		pa, err := as.Translate(abi.UserVideo, true, true)
		require.NoError(t, err)
		require.Equal(t, abi.TerminalBacking(1), pa)

		as.BindTerminalVideo(1, true)

		pa, err = as.Translate(abi.UserVideo, true, true)
		require.NoError(t, err)
		require.Equal(t, uint32(abi.VideoPage), pa)

		as.SetUserVideo(false)
		_, err = as.Translate(abi.UserVideo, true, true)
		require.Error(t, err)
	})

	n.It("writes words little-endian", func(t *testing.T) {
		as := setup()
		as.BindProcess(3)

		require.NoError(t, as.PutUint32(abi.UserWindow+8, 0x08800000))

		got, err := as.Project(abi.UserWindow+8, 4)
		require.NoError(t, err)
		require.Equal(t, []byte{0, 0, 0x80, 0x08}, got)
	})

	n.Meow()
}

func TestEntry(t *testing.T) {
	n := neko.Modern(t)

	n.It("sets frames without touching flags", func(t *testing.T) {
		var e Entry

		e.SetFlags(FlagPresent | FlagRW)
		e.SetFrame(0x00ABC123)

		require.Equal(t, uint32(0x00ABC000), e.Frame())
		require.True(t, e.HasFlags(FlagPresent|FlagRW))
		require.False(t, e.HasFlags(FlagPresent|FlagUserAccessible))
		require.True(t, e.HasAnyFlag(FlagPresent|FlagUserAccessible))

		e.ClearFlags(FlagRW)
		require.False(t, e.HasAnyFlag(FlagRW))
		require.Equal(t, uint32(0x00ABC000), e.Frame())
	})

	n.Meow()
}
