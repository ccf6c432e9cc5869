// mpdump inspects and produces mpack-encoded data.
//
// By default it reads encoded bytes from a file (or stdin) and prints each
// value in diagnostic notation or as JSON. Input may be raw bytes, hex
// text (--hex), or zstd-compressed raw bytes, which are detected by their
// frame magic. With --encode it reads a JSON document and writes its
// encoding instead.
package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/map-protocol/mpack"
)

const formatEnv = "MPDUMP_FORMAT"

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// options holds the parsed command line.
type options struct {
	hexInput  bool
	hexOutput bool
	format    string
	encode    bool
	canonical bool
	digest    bool
	all       bool
	verbose   bool
	input     string
}

func parseOptions(args []string, stderr io.Writer) (options, error) {
	var opts options

	defaultFormat := os.Getenv(formatEnv)
	if defaultFormat == "" {
		defaultFormat = "diag"
	}

	flagSet := pflag.NewFlagSet("mpdump", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.BoolVar(&opts.hexInput, "hex", false, "input is hex text (whitespace ignored)")
	flagSet.BoolVar(&opts.hexOutput, "hex-out", false, "with --encode, write hex text instead of raw bytes")
	flagSet.StringVarP(&opts.format, "format", "f", defaultFormat, "output format: diag or json (env "+formatEnv+")")
	flagSet.BoolVar(&opts.encode, "encode", false, "read JSON and write its encoding")
	flagSet.BoolVar(&opts.canonical, "canonical", false, "with --encode, sort map keys canonically")
	flagSet.BoolVar(&opts.digest, "digest", false, "print the content digest of each value")
	flagSet.BoolVarP(&opts.all, "all", "a", false, "decode every value in the input, not just one")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")

	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}

	switch opts.format {
	case "diag", "json":
	default:
		return options{}, errors.Errorf("unknown format %q (want diag or json)", opts.format)
	}

	rest := flagSet.Args()
	switch len(rest) {
	case 0:
		opts.input = "-"
	case 1:
		opts.input = rest[0]
	default:
		return options{}, errors.Errorf("unexpected argument: %s", rest[1])
	}
	return opts, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	data, err := readInput(opts.input, stdin)
	if err != nil {
		return err
	}
	logger.Debug("read input", "path", opts.input, "bytes", len(data))

	if opts.encode {
		return encodeJSON(data, opts, stdout, logger)
	}

	if opts.hexInput {
		data, err = decodeHex(data)
		if err != nil {
			return err
		}
	}
	if bytes.HasPrefix(data, zstdMagic) {
		data, err = decompress(data)
		if err != nil {
			return err
		}
		logger.Debug("decompressed zstd input", "bytes", len(data))
	}
	return dumpValues(data, opts, stdout, logger)
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, "reading stdin")
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return data, nil
}

func decodeHex(data []byte) ([]byte, error) {
	cleaned := strings.Join(strings.Fields(string(data)), "")
	raw, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, errors.Wrap(err, "decoding hex input")
	}
	return raw, nil
}

func decompress(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating zstd decoder")
	}
	defer decoder.Close()
	out, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Wrap(err, "decompressing zstd input")
	}
	return out, nil
}

func encodeJSON(data []byte, opts options, stdout io.Writer, logger *slog.Logger) error {
	value, err := mpack.FromJSON(data)
	if err != nil {
		return errors.Wrap(err, "parsing JSON input")
	}

	var encoded []byte
	if opts.canonical {
		encoded, err = mpack.MarshalCanonical(value)
	} else {
		encoded, err = mpack.Marshal(value)
	}
	if err != nil {
		return errors.Wrap(err, "encoding value")
	}
	logger.Debug("encoded value", "kind", mpack.KindOf(value), "bytes", len(encoded))

	if opts.digest {
		digest, err := mpack.Digest(value)
		if err != nil {
			return errors.Wrap(err, "computing digest")
		}
		fmt.Fprintln(stdout, digest)
		return nil
	}
	if opts.hexOutput {
		_, err = fmt.Fprintln(stdout, hex.EncodeToString(encoded))
	} else {
		_, err = stdout.Write(encoded)
	}
	return errors.Wrap(err, "writing output")
}

func dumpValues(data []byte, opts options, stdout io.Writer, logger *slog.Logger) error {
	decoder := mpack.NewDecoder(bytes.NewReader(data))
	for index := 0; ; index++ {
		value, err := decoder.Decode()
		if err == io.EOF && index > 0 {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "decoding value %d", index)
		}
		logger.Debug("decoded value", "index", index, "kind", mpack.KindOf(value))

		line, err := render(value, opts)
		if err != nil {
			return errors.Wrapf(err, "rendering value %d", index)
		}
		if _, err := fmt.Fprintln(stdout, line); err != nil {
			return errors.Wrap(err, "writing output")
		}
		if !opts.all {
			return nil
		}
	}
}

func render(value mpack.Value, opts options) (string, error) {
	if opts.digest {
		return mpack.Digest(value)
	}
	if opts.format == "json" {
		out, err := mpack.ToJSON(value)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	return mpack.Format(value), nil
}
