package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dartctl/dartctl/internal/proto"
	"github.com/dartctl/dartctl/internal/store"
)

// macroFile is the YAML shape of a macro definition:
//
//	slot: forward
//	repeat: toggle
//	steps:
//	  - {kind: key_down, code: 0x04}
//	  - {kind: delay, ms: 100}
//	  - {kind: key_up, code: 0x04}
type macroFile struct {
	Slot   string `yaml:"slot"`
	Repeat string `yaml:"repeat"`
	Steps  []struct {
		Kind string `yaml:"kind"`
		Code int    `yaml:"code"`
		MS   int    `yaml:"ms"`
	} `yaml:"steps"`
}

var stepKinds = map[string]proto.MacroStepKind{
	"key_down":   proto.MacroKeyDown,
	"key_up":     proto.MacroKeyUp,
	"mouse_down": proto.MacroMouseDown,
	"mouse_up":   proto.MacroMouseUp,
	"delay":      proto.MacroDelay,
}

var repeatModes = map[string]proto.RepeatMode{
	"single": proto.RepeatSingle,
	"toggle": proto.RepeatToggle,
	"hold":   proto.RepeatHold,
}

func loadMacroFile(path string) (proto.Macro, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return proto.Macro{}, err
	}
	var mf macroFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return proto.Macro{}, fmt.Errorf("parse %s: %w", path, err)
	}

	slot, ok := buttonSlots[strings.ToLower(mf.Slot)]
	if !ok {
		return proto.Macro{}, fmt.Errorf("%s: slot %q: want left, right, middle, forward, back or dpi", path, mf.Slot)
	}
	repeat, ok := repeatModes[strings.ToLower(mf.Repeat)]
	if !ok {
		return proto.Macro{}, fmt.Errorf("%s: repeat %q: want single, toggle or hold", path, mf.Repeat)
	}

	m := proto.Macro{Slot: slot, Repeat: repeat}
	for i, st := range mf.Steps {
		kind, ok := stepKinds[st.Kind]
		if !ok {
			return proto.Macro{}, fmt.Errorf("%s: step %d: kind %q", path, i+1, st.Kind)
		}
		m.Steps = append(m.Steps, proto.MacroStep{
			Kind:    kind,
			Code:    byte(st.Code),
			DelayMS: st.MS,
		})
	}
	return m, nil
}

func openStore() (*store.Store, error) {
	path, err := storePath()
	if err != nil {
		return nil, err
	}
	return store.Open(path)
}

var macroCmd = &cobra.Command{
	Use:   "macro",
	Short: "Manage macros",
}

var macroSaveAs string

var macroUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a macro definition to the mouse",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadMacroFile(args[0])
		if err != nil {
			return err
		}

		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.UploadMacro(cmd.Context(), m); err != nil {
			return err
		}
		fmt.Printf("uploaded %d steps to %s\n", len(m.Steps), m.Slot)

		if macroSaveAs != "" {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			return st.SaveMacro(macroSaveAs, m)
		}
		return nil
	},
}

var macroSaveCmd = &cobra.Command{
	Use:   "save <name> <file>",
	Short: "Save a macro definition to the local library without uploading",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadMacroFile(args[1])
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		return st.SaveMacro(args[0], m)
	},
}

var macroApplyCmd = &cobra.Command{
	Use:   "apply <name>",
	Short: "Upload a macro from the local library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		m, err := st.Macro(args[0])
		if err != nil {
			return err
		}

		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.UploadMacro(cmd.Context(), m); err != nil {
			return err
		}
		fmt.Printf("uploaded %q (%d steps) to %s\n", args[0], len(m.Steps), m.Slot)
		return nil
	},
}

var macroListCmd = &cobra.Command{
	Use:   "list",
	Short: "List macros in the local library",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		names, err := st.Names()
		if err != nil {
			return err
		}
		for _, name := range names {
			m, err := st.Macro(name)
			if err != nil {
				return err
			}
			fmt.Printf("%-24s %s, %d steps\n", name, m.Slot, len(m.Steps))
		}
		return nil
	},
}

var macroDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a macro from the local library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		return st.DeleteMacro(args[0])
	},
}

var macroClearCmd = &cobra.Command{
	Use:   "clear <slot>",
	Short: "Clear the macro stored in a button slot on the mouse",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, ok := buttonSlots[args[0]]
		if !ok {
			return fmt.Errorf("slot %q: want left, right, middle, forward, back or dpi", args[0])
		}
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		// An empty upload erases the slot's device-side storage.
		return s.UploadMacro(cmd.Context(), proto.Macro{Slot: slot, Repeat: proto.RepeatSingle})
	},
}

func init() {
	macroUploadCmd.Flags().StringVar(&macroSaveAs, "save-as", "", "also save to the local library under this name")
	macroCmd.AddCommand(macroUploadCmd, macroSaveCmd, macroApplyCmd, macroListCmd, macroDeleteCmd, macroClearCmd)
}
