// Command h5data inspects and reads HDF5 containers through the typed
// dataset catalog: list datasets with their canonical types and shapes,
// dump attributes, and print rectangular regions of a dataset.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robert-malhotra/h5data/hdf5"
	"github.com/robert-malhotra/h5data/readable"
	"github.com/robert-malhotra/h5data/readable/fetch"
)

var (
	verbose    bool
	permissive bool
)

func main() {
	root := &cobra.Command{
		Use:           "h5data",
		Short:         "Typed read-only access to HDF5 containers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&permissive, "permissive", false,
		"skip datasets with unsupported types instead of failing")

	root.AddCommand(newInfoCmd())
	root.AddCommand(newReadCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "h5data:", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	return cfg.Build()
}

func openCatalog(ctx context.Context, locator string) (*readable.Catalog, error) {
	log, err := newLogger()
	if err != nil {
		return nil, err
	}
	opts := []readable.Option{readable.WithLogger(log)}
	if permissive {
		opts = append(opts, readable.WithPermissiveBuild())
	}
	return readable.Open(ctx, locator, opts...)
}

func newInfoCmd() *cobra.Command {
	var showAttrs bool

	cmd := &cobra.Command{
		Use:   "info <locator>",
		Short: "List datasets with their canonical types and shapes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			locator := args[0]

			cat, err := openCatalog(cmd.Context(), locator)
			if err != nil {
				return err
			}
			defer cat.Close()

			for _, path := range cat.Datasets() {
				spec, err := cat.Spec(path)
				if err != nil {
					return err
				}
				n := int64(1)
				for _, d := range spec.Shape {
					n *= d
				}
				size := uint64(n) * uint64(spec.DType.Size())
				fmt.Printf("%-40s %-10s %-20s %s\n",
					spec.Path, spec.DType, formatShape(spec.Shape), humanize.Bytes(size))
			}
			if err := cat.BuildErrors(); err != nil {
				fmt.Fprintf(os.Stderr, "skipped datasets:\n%v\n", err)
			}

			if showAttrs {
				return printAttrs(locator)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showAttrs, "attrs", false, "also dump attributes (local files only)")
	return cmd
}

// printAttrs walks attributes through the container library directly;
// the catalog surface deliberately does not expose them.
func printAttrs(locator string) error {
	if fetch.IsRemote(locator) {
		return fmt.Errorf("--attrs requires a local file, got %s", locator)
	}
	f, err := hdf5.Open(locator)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Println()
	return f.WalkAttrs(func(info hdf5.AttrInfo) error {
		if info.Err != nil {
			fmt.Printf("%s = <unreadable: %v>\n", info.Path, info.Err)
			return nil
		}
		fmt.Printf("%s = %v\n", info.Path, info.Value)
		return nil
	})
}

func newReadCmd() *cobra.Command {
	var startFlag, stopFlag string
	var limit int

	cmd := &cobra.Command{
		Use:   "read <locator> <dataset>",
		Short: "Print a region of a dataset",
		Long: "Print a region of a dataset. --start and --stop give per-dimension\n" +
			"bounds as comma-separated integers; missing trailing dimensions\n" +
			"default to the full extent and out-of-range bounds are clamped.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			locator, dataset := args[0], args[1]

			start, err := parseBounds(startFlag)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			stop, err := parseBounds(stopFlag)
			if err != nil {
				return fmt.Errorf("invalid --stop: %w", err)
			}

			cat, err := openCatalog(cmd.Context(), locator)
			if err != nil {
				return err
			}
			defer cat.Close()

			v, err := cat.ReadAt(dataset, start, stop)
			if err != nil {
				return err
			}

			fmt.Printf("%s %s %s (%s elements)\n",
				dataset, v.DType(), formatShape(v.Shape()),
				humanize.Comma(int64(v.Len())))
			printValues(v, limit)
			return nil
		},
	}
	cmd.Flags().StringVar(&startFlag, "start", "", "inclusive lower bounds, e.g. 0,10")
	cmd.Flags().StringVar(&stopFlag, "stop", "", "exclusive upper bounds, e.g. 5,20")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of elements to print (0 = all)")
	return cmd
}

func parseBounds(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	bounds := make([]int64, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		bounds[i] = n
	}
	return bounds, nil
}

func formatShape(shape []int64) string {
	if len(shape) == 0 {
		return "scalar"
	}
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.FormatInt(d, 10)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func printValues(v *readable.Value, limit int) {
	n := v.Len()
	if limit > 0 && n > limit {
		n = limit
	}

	switch data := v.Data().(type) {
	case []string:
		for i := 0; i < n; i++ {
			fmt.Printf("%d: %q\n", i, data[i])
		}
	default:
		rv := fmt.Sprintf("%v", data)
		if limit > 0 && v.Len() > limit {
			fmt.Printf("first %d of %d elements:\n", n, v.Len())
			printTruncated(v, n)
			return
		}
		fmt.Println(rv)
	}
	if limit > 0 && v.Len() > limit && v.DType() == readable.String {
		fmt.Printf("... (%d more)\n", v.Len()-n)
	}
}

func printTruncated(v *readable.Value, n int) {
	switch data := v.Data().(type) {
	case []uint8:
		fmt.Println(data[:n])
	case []uint16:
		fmt.Println(data[:n])
	case []uint32:
		fmt.Println(data[:n])
	case []uint64:
		fmt.Println(data[:n])
	case []int8:
		fmt.Println(data[:n])
	case []int16:
		fmt.Println(data[:n])
	case []int32:
		fmt.Println(data[:n])
	case []int64:
		fmt.Println(data[:n])
	case []float32:
		fmt.Println(data[:n])
	case []float64:
		fmt.Println(data[:n])
	case []complex64:
		fmt.Println(data[:n])
	case []complex128:
		fmt.Println(data[:n])
	case []bool:
		fmt.Println(data[:n])
	}
}
