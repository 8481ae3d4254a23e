package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dartctl/dartctl/internal/proto"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "macros.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleMacro() proto.Macro {
	return proto.Macro{
		Slot:   proto.ButtonForward,
		Repeat: proto.RepeatToggle,
		Steps: []proto.MacroStep{
			{Kind: proto.MacroKeyDown, Code: 0x04},
			{Kind: proto.MacroDelay, DelayMS: 120},
			{Kind: proto.MacroKeyUp, Code: 0x04},
		},
	}
}

func TestSaveAndLoadMacro(t *testing.T) {
	s := openTestStore(t)

	want := sampleMacro()
	require.NoError(t, s.SaveMacro("spam-a", want))

	got, err := s.Macro("spam-a")
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestSaveMacroReplaces(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveMacro("m", sampleMacro()))
	updated := sampleMacro()
	updated.Repeat = proto.RepeatHold
	require.NoError(t, s.SaveMacro("m", updated))

	got, err := s.Macro("m")
	require.NoError(t, err)
	require.Equal(t, proto.RepeatHold, got.Repeat)
}

func TestMacroNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Macro("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNamesAndDelete(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveMacro("b", sampleMacro()))
	require.NoError(t, s.SaveMacro("a", sampleMacro()))

	names, err := s.Names()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, names, "bbolt iterates in key order")

	require.NoError(t, s.DeleteMacro("a"))
	require.NoError(t, s.DeleteMacro("never-existed"))

	names, err = s.Names()
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, names)
}

func TestEmptyNameRejected(t *testing.T) {
	s := openTestStore(t)
	require.Error(t, s.SaveMacro("", sampleMacro()))
}
