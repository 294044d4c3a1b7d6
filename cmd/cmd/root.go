package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SukkoPera/gotekonf/internal/blockio"
	"github.com/SukkoPera/gotekonf/internal/fat"
	"github.com/SukkoPera/gotekonf/internal/logger"
	"github.com/SukkoPera/gotekonf/internal/mount"
	"github.com/SukkoPera/gotekonf/internal/selector"
	"github.com/SukkoPera/gotekonf/pkg/sizefmt"
)

const AppName = "gotekonf"

func Execute() error {
	var (
		list          bool
		check         bool
		remap         bool
		verbose       bool
		defaultSlot   int
		logLevel      string
	)

	rootCmd := &cobra.Command{
		Use:          AppName + " <mountpoint>",
		Short:        AppName + " - manage disk images on an Amiga Gotek selector.adf",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], mode{
				list:        list,
				check:       check,
				remap:       remap,
				defaultSlot: defaultSlot,
				verbose:     verbose,
			}, logger.New(os.Stdout, logger.ParseLevel(logLevel)))
		},
	}

	rootCmd.Flags().BoolVarP(&list, "list", "l", false, "List disk images")
	rootCmd.Flags().BoolVarP(&check, "check", "c", false, "Check disk images")
	rootCmd.Flags().BoolVarP(&remap, "remap", "r", false, "Remap all disk images to slots")
	rootCmd.Flags().IntVarP(&defaultSlot, "set-default", "d", 0, "Number of image to set as default")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Be verbose")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")

	return rootCmd.Execute()
}

// mode captures the single selected operation: exactly one of list,
// check, remap, or a nonzero defaultSlot.
type mode struct {
	list        bool
	check       bool
	remap       bool
	defaultSlot int
	verbose     bool
}

func (m mode) selected() int {
	n := 0
	if m.list {
		n++
	}
	if m.check {
		n++
	}
	if m.remap {
		n++
	}
	if m.defaultSlot != 0 {
		n++
	}
	return n
}

func run(mountpoint string, m mode, log *logger.Logger) error {
	if m.selected() != 1 {
		return ErrUsage
	}

	device, err := mount.ResolveDevice(mountpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceResolution, err)
	}
	log.Infof("using %s, mounted on %s", device, mountpoint)

	adfPath, err := mount.SelectorPath(mountpoint)
	if err != nil {
		return err
	}

	reader, _, _, err := blockio.OpenDevice(mount.NormalizeVolumePath(device))
	if err != nil {
		return fmt.Errorf("opening %s: %w", device, err)
	}
	defer reader.Close()

	vol, err := fat.Open(reader)
	if err != nil {
		return fmt.Errorf("reading filesystem on %s: %w", device, err)
	}
	vol.Logger = log

	idx, err := fat.BuildFileIndex(vol)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", device, err)
	}

	eng := selector.New(adfPath, idx)
	eng.Logger = log

	slots, stats, err := eng.Scan()
	if err != nil {
		return err
	}
	present := countPresent(slots)
	fmt.Printf("Slots in use: %d\n", present)
	fmt.Printf("Default slot: %d\n\n", stats.DefaultSlot)

	if m.verbose {
		fmt.Println("Stat bytes:")
		fmt.Println(stats.DebugString())
		fmt.Println()
	}

	switch {
	case m.list:
		return runList(slots)
	case m.check:
		return runCheck(eng, mountpoint, slots)
	case m.remap:
		return runRemap(eng, mountpoint)
	default:
		return eng.SetDefaultSlot(m.defaultSlot)
	}
}

func countPresent(slots []selector.SlotRecord) int {
	n := 0
	for _, s := range slots {
		if s.Present {
			n++
		}
	}
	return n
}

func runList(slots []selector.SlotRecord) error {
	for _, s := range slots {
		if !s.Present {
			continue
		}
		name := s.FileName
		if s.HasDiskFile {
			name = s.DiskFileName
		}
		fmt.Printf("%3d: %-41s %10s (c=%d)\n", s.Num, name, sizefmt.Bytes(s.FileSize), s.StartCluster)
	}
	return nil
}

func runCheck(eng *selector.Engine, mountpoint string, slots []selector.SlotRecord) error {
	fixed, problems := eng.Check(mountpoint, slots, true)
	if problems != nil {
		fmt.Println(problems)
	}
	if err := eng.UpdateSlots(fixed); err != nil {
		return fmt.Errorf("writing corrected slots: %w", err)
	}
	return nil
}

func runRemap(eng *selector.Engine, mountpoint string) error {
	slots, err := eng.Remap(mountpoint)
	if err != nil {
		return err
	}

	n := countPresent(slots)
	fmt.Printf("Found %d ADF files\n", n)

	return eng.UpdateSlots(slots)
}
