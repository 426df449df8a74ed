// Command genfixtures regenerates the golden stdout/exit-code fixtures
// under testdata/ by compiling and running every testdata/*.c program
// against the real toolchain, so compiler_test.go can assert against
// recorded output instead of hand-transcribed expectations.
//
// Run as: go run ./tools/genfixtures testdata/*.c
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/context"
	"golang.org/x/sync/errgroup"
)

func main() {
	flag.Parse()
	sources := flag.Args()
	if len(sources) == 0 {
		log.Fatal("usage: genfixtures source.c [source.c ...]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(4)

	for _, src := range sources {
		src := src
		eg.Go(func() error { return genOne(ctx, src) })
	}
	if err := eg.Wait(); err != nil {
		log.Fatal(err)
	}
}

// genOne runs the compiler+VM binary against src and writes src's golden
// fixture: the exit code on its first line, stdout verbatim after.
func genOne(ctx context.Context, src string) error {
	cmd := exec.CommandContext(ctx, "go", "run", moduleRoot(), src)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr

	exitCode := 0
	if err := cmd.Run(); err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		} else {
			return fmt.Errorf("running %s: %w", src, err)
		}
	}

	golden := strings.TrimSuffix(src, filepath.Ext(src)) + ".golden"
	var out bytes.Buffer
	fmt.Fprintln(&out, strconv.Itoa(exitCode))
	out.Write(stdout.Bytes())
	return os.WriteFile(golden, out.Bytes(), 0644)
}

func moduleRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
