// Command ghostfs is the administrator's tool for formatting carriers and
// inspecting what is hidden inside them.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	ghostfs "github.com/mukadr/GhostFS"
	"github.com/mukadr/GhostFS/internal/carrier"
	"github.com/mukadr/GhostFS/internal/lsbcodec"
)

var carrierKind string

func main() {
	root := &cobra.Command{
		Use:   "ghostfs",
		Short: "Format and inspect a filesystem hidden inside a BMP or WAV carrier",
	}
	root.PersistentFlags().StringVar(&carrierKind, "kind", "bmp", "carrier kind: bmp or wav")
	root.AddCommand(formatCmd(), lsCmd(), statvfsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func openCodec(path string) (*lsbcodec.Codec, error) {
	var c *carrier.Carrier
	var err error
	switch carrierKind {
	case "bmp":
		c, err = carrier.OpenBMP(afero.NewOsFs(), path)
	case "wav":
		c, err = carrier.OpenWAV(afero.NewOsFs(), path)
	default:
		return nil, fmt.Errorf("unknown carrier kind %q", carrierKind)
	}
	if err != nil {
		return nil, err
	}
	return lsbcodec.New(c), nil
}

func formatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format <carrier>",
		Short: "Lay a fresh, empty filesystem over a carrier file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := openCodec(args[0])
			if err != nil {
				return err
			}
			defer codec.Close()
			if k := ghostfs.Format(codec); k != ghostfs.KindOK {
				return k
			}
			return nil
		},
	}
}

func mountReadOnly(path string) (*ghostfs.FS, func(), error) {
	codec, err := openCodec(path)
	if err != nil {
		return nil, nil, err
	}
	gfs, k := ghostfs.Mount(codec)
	if k != ghostfs.KindOK {
		codec.Close()
		return nil, nil, k
	}
	return gfs, func() { gfs.Unmount(); codec.Close() }, nil
}

func lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <carrier> [path]",
		Short: "Print the whole directory tree hidden inside a carrier, starting at /; the optional path argument is accepted but not used",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gfs, closeFn, err := mountReadOnly(args[0])
			if err != nil {
				return err
			}
			defer closeFn()
			return gfs.Debug(os.Stdout)
		},
	}
}

func statvfsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "statvfs <carrier>",
		Short: "Print capacity and usage for a carrier's hidden filesystem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gfs, closeFn, err := mountReadOnly(args[0])
			if err != nil {
				return err
			}
			defer closeFn()
			sv, err := gfs.GetStatvfs()
			if err != nil {
				return err
			}
			fmt.Printf("bsize=%d blocks=%d bfree=%d\n", sv.Bsize, sv.Blocks, sv.Bfree)
			return nil
		},
	}
}
