package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/streamcall/httpclient"
	"github.com/kbukum/streamcall/rpc"
	"github.com/kbukum/streamcall/stream"
)

// errReported marks a failure already written to the output.
var errReported = errors.New("error reported")

type callFlags struct {
	baseURL  string
	method   string
	mode     string
	decode   string
	instance string
	token    string
	ws       bool
	h2c      bool
	send     bool
	json     bool
}

func newCallCmd(a *app) *cobra.Command {
	var f callFlags
	cmd := &cobra.Command{
		Use:   "call <Class>/<Method> [key=value ...]",
		Short: "Call an endpoint and print its values, one per line",
		Long: `Call an endpoint and print each decoded value on its own line.

Arguments are key=value pairs. Values that parse as JSON numbers, booleans
or null keep that type; anything else is sent as a string.

With --send, standard input is streamed to the endpoint line by line while
its reply is printed.`,
		Example: `  streamcall call Demo/greet name=Bob --mode whole
  streamcall call Demo/count n=5 --decode int
  streamcall call Demo/echo --send < lines.txt
  streamcall call Counter/value --instance 1f0c... --decode int --mode whole`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ep, err := parseEndpoint(args[0], f.method)
			if err != nil {
				return err
			}
			callArgs, err := parseArgs(args[1:])
			if err != nil {
				return err
			}
			err = a.call(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), ep, callArgs, f)
			if err != nil && f.json {
				_ = writeJSONError(cmd.OutOrStdout(), rpc.ToAppError(err, a.cfg.Client.BaseURL))
				return errReported
			}
			return err
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.baseURL, "url", "u", "", "base URL (overrides client.base_url)")
	fl.StringVarP(&f.method, "method", "X", "", "HTTP method (GET or POST)")
	fl.StringVarP(&f.mode, "mode", "m", "framed", "delivery mode: framed, replace or whole")
	fl.StringVarP(&f.decode, "decode", "d", "text", "value type: text, int, float, bool or json")
	fl.StringVar(&f.instance, "instance", "", "instance id passed as self")
	fl.StringVar(&f.token, "token", "", "bearer token")
	fl.BoolVar(&f.ws, "ws", false, "use the WebSocket transport")
	fl.BoolVar(&f.h2c, "h2c", false, "use HTTP/2 without TLS")
	fl.BoolVar(&f.send, "send", false, "stream standard input as the request body")
	fl.BoolVar(&f.json, "json", false, "print errors as JSON")
	return cmd
}

func (a *app) call(ctx context.Context, in io.Reader, out io.Writer, ep rpc.Endpoint, args rpc.Args, f callFlags) error {
	mode, err := stream.ParseMode(f.mode)
	if err != nil {
		return err
	}

	cfg := a.cfg.Client
	if f.baseURL != "" {
		cfg.BaseURL = f.baseURL
		cfg.HTTP.BaseURL, cfg.WS.BaseURL = "", ""
	}
	if f.ws {
		cfg.Transport = rpc.TransportWS
	}
	if f.h2c {
		cfg.HTTP.HTTP2 = true
	}
	if f.token != "" {
		cfg.HTTP.Auth = httpclient.BearerAuth(f.token)
		cfg.WS.BearerToken = f.token
	}

	var opts []rpc.Option
	if a.metrics != nil {
		opts = append(opts, rpc.WithMetrics(a.metrics))
	}
	client, err := rpc.New(cfg, opts...)
	if err != nil {
		return err
	}

	var callOpts []rpc.CallOption
	if f.instance != "" {
		callOpts = append(callOpts, rpc.Instance(f.instance))
	}
	callOpts = append(callOpts, rpc.WithOptions(stream.WithMode(mode)))

	c := caller{client: client, ep: ep, args: args, opts: callOpts, mode: mode, out: out}
	if f.send {
		c.producer = lines(in)
	}

	switch f.decode {
	case "text", "":
		return run(ctx, c, stream.Text())
	case "int":
		return run(ctx, c, stream.Int())
	case "float":
		return run(ctx, c, stream.Float())
	case "bool":
		return run(ctx, c, stream.Bool())
	case "json":
		return run(ctx, c, stream.JSON[any]())
	default:
		return fmt.Errorf("unknown decode type %q", f.decode)
	}
}

type caller struct {
	client   *rpc.Client
	ep       rpc.Endpoint
	args     rpc.Args
	opts     []rpc.CallOption
	mode     stream.Mode
	producer stream.Producer
	out      io.Writer
}

func run[T any](ctx context.Context, c caller, dec stream.Decoder[T]) error {
	if c.mode == stream.ModeWhole && c.producer == nil {
		v, err := rpc.Call(ctx, c.client, c.ep, c.args, dec, c.opts...)
		if err != nil {
			return err
		}
		return printValue(c.out, v)
	}

	var printErr error
	sink := stream.Callbacks[T]{OnValue: func(v T, _ bool) {
		if printErr == nil {
			printErr = printValue(c.out, v)
		}
	}}

	if c.producer != nil {
		d, err := rpc.Duplex(ctx, c.client, c.ep, c.args, dec, sink, c.producer, c.opts...)
		if err != nil {
			return err
		}
		if err := d.Wait(); err != nil {
			return err
		}
		if err := d.WaitSend(); err != nil {
			return err
		}
		return printErr
	}

	sub, err := rpc.Subscribe(ctx, c.client, c.ep, c.args, dec, sink, c.opts...)
	if err != nil {
		return err
	}
	if err := sub.Wait(); err != nil {
		return err
	}
	return printErr
}

func printValue(w io.Writer, v any) error {
	s, ok, err := stream.Format(v)
	if err != nil || !ok {
		return err
	}
	_, err = fmt.Fprintln(w, s)
	return err
}

func writeJSONError(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseEndpoint parses "Class/Method", with or without a leading slash.
func parseEndpoint(s, method string) (rpc.Endpoint, error) {
	class, name, ok := strings.Cut(strings.TrimPrefix(s, "/"), "/")
	if !ok || class == "" || name == "" || strings.Contains(name, "/") {
		return rpc.Endpoint{}, fmt.Errorf("endpoint %q: want <Class>/<Method>", s)
	}
	method = strings.ToUpper(method)
	switch method {
	case "", "GET", "POST":
	default:
		return rpc.Endpoint{}, fmt.Errorf("method %q: want GET or POST", method)
	}
	return rpc.Endpoint{Class: class, Method: name, HTTPMethod: method}, nil
}

// parseArgs parses key=value pairs. JSON scalars keep their type.
func parseArgs(pairs []string) (rpc.Args, error) {
	args := make(rpc.Args, 0, len(pairs))
	for _, p := range pairs {
		k, raw, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("argument %q: want key=value", p)
		}
		var v any = raw
		var parsed any
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			switch parsed.(type) {
			case float64, bool, nil:
				v = parsed
				if n, isNum := parsed.(float64); isNum && !strings.ContainsAny(raw, ".eE") {
					v = int64(n)
				}
			}
		}
		args = append(args, rpc.Arg{Key: k, Value: v})
	}
	return args, nil
}

// lines yields each line of r with its newline restored.
func lines(r io.Reader) stream.Producer {
	return stream.FromSeq(iter.Seq[[]byte](func(yield func([]byte) bool) {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			line := make([]byte, 0, len(sc.Bytes())+1)
			line = append(append(line, sc.Bytes()...), '\n')
			if !yield(line) {
				return
			}
		}
	}))
}
