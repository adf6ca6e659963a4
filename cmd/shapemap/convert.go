package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"shapemap"
	"shapemap/internal/definition"
	"shapemap/mapping"
)

var errUnknownModel = errors.New("unknown model")

type convertOptions struct {
	definitions string
	model       string
	from        string
	to          string
	pretty      bool
	indent      int
	all         bool
	validate    bool
	only        []string
	except      []string
}

func newConvertCmd(root *rootOptions) *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert [input]",
		Short: "Read a document as a model and write it in another format",
		Long: "Reads the input file, or stdin when no file is given, as an instance of --model " +
			"and writes it to stdout in the --to format. The input format defaults to the file extension.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, root, opts, args)
		},
	}

	opts.bind(cmd.Flags())

	_ = cmd.MarkFlagRequired("definitions")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}

func (o *convertOptions) bind(fl *pflag.FlagSet) {
	fl.StringVarP(&o.definitions, "definitions", "d", "", "Path to the model definition file")
	fl.StringVarP(&o.model, "model", "m", "", "Model to read the document as")
	fl.StringVar(&o.from, "from", "", "Input format (json, yaml, toml, cbor, msgpack, xml)")
	fl.StringVar(&o.to, "to", "json", "Output format (json, yaml, toml, cbor, msgpack, xml)")
	fl.BoolVar(&o.pretty, "pretty", false, "Indent the output")
	fl.IntVar(&o.indent, "indent", 2, "Indent width used with --pretty")
	fl.BoolVar(&o.all, "all", false, "Read JSON lines or a YAML stream and convert every document")
	fl.BoolVar(&o.validate, "validate", false, "Validate every instance after reading")
	fl.StringSliceVar(&o.only, "only", nil, "Convert only these attributes")
	fl.StringSliceVar(&o.except, "except", nil, "Skip these attributes")
}

func runConvert(cmd *cobra.Command, root *rootOptions, opts *convertOptions, args []string) error {
	reg := mapping.NewRegistry()
	if _, err := definition.Load(opts.definitions, reg); err != nil {
		return err
	}

	model, ok := reg.Lookup(opts.model)
	if !ok {
		return fmt.Errorf("%w %q (known: %v)", errUnknownModel, opts.model, reg.Names())
	}

	data, name, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	from, err := inputFormat(opts.from, name)
	if err != nil {
		return err
	}

	to, err := mapping.ParseFormat(opts.to)
	if err != nil {
		return err
	}

	engineOpts := []shapemap.Option{shapemap.WithLogger(root.logger)}
	if opts.pretty {
		engineOpts = append(engineOpts, shapemap.WithPretty(opts.indent))
	}

	if opts.validate {
		engineOpts = append(engineOpts, shapemap.WithValidation())
	}

	eng := shapemap.New(reg, engineOpts...)

	var calls []shapemap.CallOption
	if len(opts.only) > 0 {
		calls = append(calls, shapemap.Only(opts.only...))
	}

	if len(opts.except) > 0 {
		calls = append(calls, shapemap.Except(opts.except...))
	}

	instances, err := readInstances(eng, data, model, from, opts.all, calls)
	if err != nil {
		return err
	}

	out, err := writeInstances(eng, instances, to, calls)
	if err != nil {
		return err
	}

	if _, err := cmd.OutOrStdout().Write(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	root.logger.Info("converted",
		"model", model.Name(), "from", string(from), "to", string(to),
		"documents", len(instances), "bytes", len(out))

	return nil
}

func readInput(cmd *cobra.Command, args []string) ([]byte, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, "", fmt.Errorf("failed to read stdin: %w", err)
		}

		return data, "", nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("failed to read input %s: %w", args[0], err)
	}

	return data, args[0], nil
}

// inputFormat picks the explicit format, else the file extension.
func inputFormat(explicit, name string) (mapping.Format, error) {
	if explicit != "" {
		return mapping.ParseFormat(explicit)
	}

	if ext := filepath.Ext(name); ext != "" {
		return mapping.ParseFormat(ext)
	}

	return "", errors.New("input format unknown: pass --from or a file with an extension")
}

func readInstances(
	eng *shapemap.Engine,
	data []byte,
	model *mapping.Model,
	from mapping.Format,
	all bool,
	calls []shapemap.CallOption,
) ([]*mapping.Instance, error) {
	if all {
		return eng.UnmarshalAll(data, model, from, calls...)
	}

	inst, err := eng.Unmarshal(data, model, from, calls...)
	if err != nil {
		return nil, err
	}

	return []*mapping.Instance{inst}, nil
}

// writeInstances renders every instance. Several JSON documents become JSON
// lines and several YAML documents a YAML stream.
func writeInstances(
	eng *shapemap.Engine,
	instances []*mapping.Instance,
	to mapping.Format,
	calls []shapemap.CallOption,
) ([]byte, error) {
	var buf bytes.Buffer

	for i, inst := range instances {
		out, err := eng.Marshal(inst, to, calls...)
		if err != nil {
			return nil, err
		}

		if i > 0 && to == mapping.FormatYAML {
			buf.WriteString("---\n")
		}

		buf.Write(out)

		if !binary(to) && !bytes.HasSuffix(out, []byte("\n")) {
			buf.WriteByte('\n')
		}
	}

	return buf.Bytes(), nil
}

func binary(f mapping.Format) bool {
	return f == mapping.FormatCBOR || f == mapping.FormatMsgPack
}
