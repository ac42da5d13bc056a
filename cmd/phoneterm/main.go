// cmd/phoneterm shows the phone number form in the terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dalemusser/phoneform/config"
	"github.com/dalemusser/phoneform/form"
	"github.com/dalemusser/phoneform/internal/term"
	"github.com/dalemusser/phoneform/logging"
	"github.com/dalemusser/phoneform/phone"
	"github.com/dalemusser/phoneform/server"
	"github.com/dalemusser/phoneform/version"
	"go.uber.org/zap"
)

var appKeys = []config.AppKey{
	{Name: "log_file", Default: "", Desc: "Write logs to this file (the terminal is left alone)"},
	{Name: "fold_wide_digits", Default: false, Desc: "Accept full-width digits by folding them to ASCII"},
	{Name: "page_title", Default: "Phone Verification", Desc: "Form heading"},
	{Name: "version", Default: false, Desc: "Print version and exit"},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "phoneterm:", err)
		os.Exit(1)
	}
}

func run() error {
	coreCfg, vals, err := config.Load(zap.NewNop(), appKeys...)
	if err != nil {
		return err
	}
	if vals.Bool("version") {
		fmt.Println(version.Get())
		return nil
	}

	logger := zap.NewNop()
	if path := vals.String("log_file"); path != "" {
		if logger, err = logging.FileLogger(path, coreCfg.LogLevel); err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
	}
	defer logger.Sync()

	ctx, cancel := server.WithShutdownSignals(context.Background(), logger)
	defer cancel()

	logger.Info("terminal form started", zap.String("version", version.Version))
	normalizer := phone.NewNormalizer(phone.WithWideDigits(vals.Bool("fold_wide_digits")))
	return term.Run(ctx, vals.String("page_title"), logger, form.WithNormalizer(normalizer))
}
