// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Program jfmt reformats and verifies JSON text.
//
// Usage:
//
//	jfmt [flags] [file]
//	jfmt verify [flags] [file]
//
// If no file is named, jfmt reads standard input. Flags may also be set from
// the environment with the prefix JFMT_, for example JFMT_INDENT="\t".
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/creachadair/jevent"
	humanize "github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	root := newRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// settings are the resolved values of the command-line flags.
type settings struct {
	opts    jevent.ReformatOptions
	verbose bool
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:           "jfmt [flags] [file]",
		Short:         "Reformat JSON text",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadSettings(v)
			if err != nil {
				return err
			}
			logger := newLogger(stderr, set.verbose)
			return runReformat(logger, stdin, stdout, args, set)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.BoolP("minimize", "m", false, "minimize output (default is beautified)")
	flags.String("indent", "  ", "indentation string for beautified output")
	flags.BoolP("comments", "c", false, "allow comments in the input")
	flags.BoolP("check-utf8", "u", false, "verify that strings are valid UTF-8")
	flags.Bool("multiple", false, "accept a stream of concatenated JSON values")
	flags.String("max-bytes", "", "maximum input size (e.g. 16MiB); empty means no limit")
	flags.BoolP("verbose", "v", false, "enable debug logging")
	bindFlags(v, flags)

	cmd.AddCommand(&cobra.Command{
		Use:           "verify [file]",
		Short:         "Check whether the input is valid JSON",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadSettings(v)
			if err != nil {
				return err
			}
			logger := newLogger(stderr, set.verbose)
			return runVerify(logger, stdin, stdout, args, set)
		},
	})
	return cmd
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil {
			panic(fmt.Sprintf("bind flag %q: %v", f.Name, err))
		}
	})
	v.SetEnvPrefix("JFMT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

func loadSettings(v *viper.Viper) (*settings, error) {
	set := &settings{
		opts: jevent.ReformatOptions{
			Beautify:      !v.GetBool("minimize"),
			Indent:        v.GetString("indent"),
			AllowComments: v.GetBool("comments"),
			CheckUTF8:     v.GetBool("check-utf8"),
			Multiple:      v.GetBool("multiple"),
		},
		verbose: v.GetBool("verbose"),
	}
	if s := strings.TrimSpace(v.GetString("max-bytes")); s != "" {
		n, err := humanize.ParseBytes(s)
		if err != nil {
			return nil, errors.Wrap(err, "parse max-bytes")
		}
		set.opts.MaxBytes = int64(n)
	}
	return set, nil
}

func newLogger(w io.Writer, verbose bool) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	if verbose {
		return level.NewFilter(logger, level.AllowDebug())
	}
	return level.NewFilter(logger, level.AllowInfo())
}

// openInput returns the input named by args, or stdin.
func openInput(stdin io.Reader, args []string) (io.ReadCloser, string, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(stdin), "<stdin>", nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, "", errors.Wrap(err, "open input")
	}
	return f, args[0], nil
}

func runReformat(logger log.Logger, stdin io.Reader, stdout io.Writer, args []string, set *settings) error {
	in, name, err := openInput(stdin, args)
	if err != nil {
		level.Error(logger).Log("msg", "cannot read input", "err", err)
		return err
	}
	defer in.Close()

	cr := &countReader{r: in}
	cw := &countWriter{w: stdout}
	if err := jevent.Reformat(cw, cr, &set.opts); err != nil {
		err = errors.Wrapf(err, "reformat %s", name)
		level.Error(logger).Log("msg", "reformat failed", "err", err)
		return err
	}
	if !set.opts.Beautify && !set.opts.Multiple {
		if _, err := io.WriteString(cw, "\n"); err != nil {
			return errors.Wrap(err, "write output")
		}
	}
	level.Debug(logger).Log("msg", "reformat complete", "input", name,
		"read", humanize.Bytes(uint64(cr.n)), "wrote", humanize.Bytes(uint64(cw.n)))
	return nil
}

func runVerify(logger log.Logger, stdin io.Reader, stdout io.Writer, args []string, set *settings) error {
	in, name, err := openInput(stdin, args)
	if err != nil {
		level.Error(logger).Log("msg", "cannot read input", "err", err)
		return err
	}
	defer in.Close()

	// Verify the input as a single window, so that the offset of a syntax
	// error indexes the text.
	r := io.Reader(in)
	if set.opts.MaxBytes > 0 {
		r = io.LimitReader(in, set.opts.MaxBytes+1)
	}
	text, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "read input")
	}
	opts := set.opts
	opts.ChunkSize = len(text) + 1
	if err := jevent.Verify(bytes.NewReader(text), &opts); err != nil {
		var serr *jevent.SyntaxError
		if errors.As(err, &serr) && !opts.Multiple {
			fmt.Fprint(stdout, serr.Verbose(text))
		}
		err = errors.Wrapf(err, "verify %s", name)
		level.Error(logger).Log("msg", "JSON is invalid", "err", err)
		return err
	}
	fmt.Fprintln(stdout, "JSON is valid")
	level.Debug(logger).Log("msg", "verify complete", "input", name, "read", humanize.Bytes(uint64(len(text))))
	return nil
}

type countReader struct {
	r io.Reader
	n int64
}

func (c *countReader) Read(p []byte) (int, error) {
	nr, err := c.r.Read(p)
	c.n += int64(nr)
	return nr, err
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	nw, err := c.w.Write(p)
	c.n += int64(nw)
	return nw, err
}
