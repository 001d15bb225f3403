package main

import (
	"fmt"
	"os"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/typeconv/conv"
)

type rootFlags struct {
	verbose      bool
	scratchLimit string
}

var flags rootFlags

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "typeconv",
		Short: "Convert binary values between datatype layouts",
		Long: `typeconv converts values between binary datatype layouts: integers of any
width and byte order, IEEE and VAX floats, and custom float formats.

Values are encoded in the source layout, converted in place and printed as
raw bytes next to their decoded form, together with any range, precision or
special-value events raised during conversion.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log path resolution and exceptions")
	pf.StringVar(&flags.scratchLimit, "scratch-limit", "0", "largest scratch buffer (e.g. 64KiB, 1MiB); 0 is unlimited")

	root.AddCommand(newConvertCmd(), newTypesCmd(), newInteractiveCmd())
	return root
}

// newEngine builds a conversion engine from the global flags.
func newEngine(opts ...conv.Option) (*conv.Engine, *zap.Logger, error) {
	log := zap.NewNop()
	if flags.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, nil, fmt.Errorf("create logger: %w", err)
		}
		log = l
	}

	limit, err := units.RAMInBytes(flags.scratchLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("scratch limit: %w", err)
	}
	if limit > 0 {
		log.Debug("scratch limit", zap.String("size", units.BytesSize(float64(limit))))
	}

	opts = append([]conv.Option{conv.WithLogger(log), conv.WithScratchLimit(int(limit))}, opts...)
	return conv.New(opts...), log, nil
}
