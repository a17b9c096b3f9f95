// Command codecanvas sends source code to a codecanvasd gateway and prints
// the explanation or visual analogy.
//
// Usage:
//
//	codecanvas [flags] [file]
//	cat main.py | codecanvas -lang python
//
// Flags:
//
//	-server string   Gateway base URL (default http://localhost:8080)
//	-lang string     Language tag (inferred from the file extension if omitted)
//	-visual          Request a visual analogy instead of an explanation
//	-render          Render markdown once the explanation completes
//	-width int       Output width for rendered output (default 80)
//	-timeout         Overall request timeout (default none)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fwojciec/codecanvas"
	"github.com/fwojciec/codecanvas/client"
	"github.com/fwojciec/codecanvas/goldmark"
)

const defaultServer = "http://localhost:8080"

// errReported marks an error already written to stderr.
var errReported = errors.New("reported")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) && !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "codecanvas: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("codecanvas", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		server  = fs.String("server", defaultServer, "Gateway base URL")
		lang    = fs.String("lang", "", "Language tag (inferred from the file extension if omitted)")
		visual  = fs.Bool("visual", false, "Request a visual analogy instead of an explanation")
		render  = fs.Bool("render", false, "Render markdown once the explanation completes")
		width   = fs.Int("width", 80, "Output width for rendered output")
		timeout = fs.Duration("timeout", 0, "Overall request timeout (0 means none)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("expected at most one file argument, got %d", fs.NArg())
	}

	req, err := readRequest(fs.Arg(0), *lang, stdin)
	if err != nil {
		return err
	}

	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	c := client.New(*server)
	r := goldmark.New(codecanvas.DefaultTheme(), goldmark.WithWidth(*width))

	req.Intent = codecanvas.IntentExplain
	if *visual {
		req.Intent = codecanvas.IntentVisualAnalogy
	}
	if *render {
		fmt.Fprintln(stderr, r.Muted(fmt.Sprintf("%s · %s · %s", req.Intent, req.LanguageTag, *server)))
	}

	if req.Intent == codecanvas.IntentVisualAnalogy {
		err = visualize(ctx, c, r, req, *render, stdout)
	} else {
		err = explain(ctx, c, r, req, *render, stdout)
	}
	if err != nil && *render {
		fmt.Fprintln(stderr, r.Error(err.Error()))
		return fmt.Errorf("%w: %w", errReported, err)
	}
	return err
}

// readRequest loads source code from path, or stdin when path is empty,
// and resolves the language tag.
func readRequest(path, lang string, stdin io.Reader) (codecanvas.GenerationRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return codecanvas.GenerationRequest{}, fmt.Errorf("read source: %w", err)
	}

	tag := strings.TrimSpace(lang)
	if l, ok := codecanvas.LookupLanguage(tag); ok {
		tag = l.Tag
	}
	if tag == "" {
		l, ok := codecanvas.LanguageForPath(path)
		if !ok {
			return codecanvas.GenerationRequest{}, errors.New("cannot infer language: use -lang")
		}
		tag = l.Tag
	}

	return codecanvas.GenerationRequest{SourceCode: string(data), LanguageTag: tag}, nil
}

func explain(ctx context.Context, c *client.Client, r *goldmark.Renderer, req codecanvas.GenerationRequest, render bool, stdout io.Writer) error {
	stream, err := c.Explain(ctx, req)
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		evt, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if render {
			continue
		}
		if delta, ok := evt.(codecanvas.EventTextDelta); ok {
			if _, err := io.WriteString(stdout, delta.Delta); err != nil {
				return err
			}
		}
	}

	if !render {
		_, err := io.WriteString(stdout, "\n")
		return err
	}
	resp, err := stream.Response()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, r.Explanation(resp.Text))
	return err
}

func visualize(ctx context.Context, c *client.Client, r *goldmark.Renderer, req codecanvas.GenerationRequest, render bool, stdout io.Writer) error {
	resp, err := c.Visualize(ctx, req)
	if err != nil {
		return err
	}
	out := resp.Text
	if render {
		out = r.Analogy(resp.Text)
	}
	_, err = fmt.Fprintln(stdout, out)
	return err
}
